package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateProduct handles POST /api/v1/products. The body may be JSON or a
// form; fields the catalog does not know are kept as metadata.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var input domain.CreateProductInput
	if err := decodeInput(fields, &input); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var input domain.UpdateProductInput
	if err := decodeInput(fields, &input); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}. An unknown id answers
// 200 with null data.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.DeleteProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// SearchProducts handles GET /api/v1/products?keyword=&page=.
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.FixedSize(r, domain.SearchPageSize)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))

	result, err := h.service.SearchProducts(r.Context(), keyword, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// ListAllProducts handles GET /api/v1/products/all.
func (h *ProductHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListAllProducts)
}

// TopProducts handles GET /api/v1/products/top.
func (h *ProductHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.TopProducts)
}

// NewProducts handles GET /api/v1/products/new.
func (h *ProductHandler) NewProducts(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.NewProducts)
}

func (h *ProductHandler) writeList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context) ([]domain.Product, error)) {
	products, err := list(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}
