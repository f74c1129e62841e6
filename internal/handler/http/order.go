package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var input domain.CreateOrderInput
	if err := decodeJSON(w, r, &input); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), actor.UserID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders (admin).
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r, service.DefaultOrdersPerPage, service.MaxOrdersPerPage)

	result, err := h.service.ListOrders(r.Context(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ListMyOrders handles GET /api/v1/orders/mine.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	page := pagination.FromRequest(r, service.DefaultOrdersPerPage, service.MaxOrdersPerPage)

	result, err := h.service.ListUserOrders(r.Context(), actor.UserID, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /api/v1/orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id.String(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// PayOrder handles PUT /api/v1/orders/{id}/pay.
func (h *OrderHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input domain.PayOrderInput
	if err := decodeJSON(w, r, &input); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.service.PayOrder(r.Context(), id.String(), actor, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// DeliverOrder handles PUT /api/v1/orders/{id}/deliver (admin).
func (h *OrderHandler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.DeliverOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// TotalOrders handles GET /api/v1/orders/total-orders (admin).
func (h *OrderHandler) TotalOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]int{"total_orders": n})
}

// TotalSales handles GET /api/v1/orders/total-sales (admin).
func (h *OrderHandler) TotalSales(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalSales(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]int64{"total_sales": total})
}

// TotalSalesByDate handles GET /api/v1/orders/total-sales-by-date (admin).
// An optional since=YYYY-MM-DD narrows the range.
func (h *OrderHandler) TotalSalesByDate(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("since must be a date in YYYY-MM-DD format"), h.logger)
			return
		}
		since = t
	}

	totals, err := h.service.SalesByDate(r.Context(), since)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, totals)
}

func (h *OrderHandler) actor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, Admin: claims.IsAdmin()}, true
}
