package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// Orders list page sizes.
const (
	DefaultOrdersPerPage = 20
	MaxOrdersPerPage     = 100
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID string
	Admin  bool
}

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo     repository.OrderRepository
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// CreateOrder prices the requested items from the catalog and stores the
// order for userID. Client-supplied prices are never trusted.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input domain.CreateOrderInput) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("Not authorized")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(input.Items))
	seen := make(map[string]struct{}, len(input.Items))
	for _, it := range input.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, len(input.Items))
	for i, it := range input.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, apperrors.InvalidInput("Product not found: " + it.ProductID)
		}
		items[i] = domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  it.Quantity,
		}
	}

	prices := domain.CalculatePrices(items)
	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: trimAddress(input.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		ItemsPrice:      prices.Items,
		TaxPrice:        prices.Tax,
		ShippingPrice:   prices.Shipping,
		TotalPrice:      prices.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_price", order.TotalPrice),
	)

	return order, nil
}

// GetOrder retrieves an order its owner or an admin may read.
func (s *OrderService) GetOrder(ctx context.Context, id string, actor Actor) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", translate(err, "order"))
	}
	if !order.VisibleTo(actor.UserID, actor.Admin) {
		return nil, apperrors.Forbidden("Not authorized to access this order")
	}
	return order, nil
}

// ListOrders returns a page of all orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, page pagination.Params) (pagination.Page[domain.Order], error) {
	return s.list(ctx, repository.OrderFilter{Page: page.Page, PerPage: page.PerPage}, page)
}

// ListUserOrders returns a page of the orders placed by userID.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page pagination.Params) (pagination.Page[domain.Order], error) {
	return s.list(ctx, repository.OrderFilter{UserID: &userID, Page: page.Page, PerPage: page.PerPage}, page)
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter, page pagination.Params) (pagination.Page[domain.Order], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = DefaultOrdersPerPage
	}
	if filter.PerPage > MaxOrdersPerPage {
		filter.PerPage = MaxOrdersPerPage
	}
	page.Page, page.PerPage = filter.Page, filter.PerPage

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewPage(orders, total, page), nil
}

// PayOrder records the payment result of an order. Only the owner or an
// admin may pay, and only once.
func (s *OrderService) PayOrder(ctx context.Context, id string, actor Actor, input domain.PayOrderInput) (*domain.Order, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	result := domain.PaymentResult{
		ID:           input.ID,
		Status:       input.Status,
		UpdateTime:   input.UpdateTime,
		EmailAddress: input.EmailAddress,
	}
	if err := order.MarkPaid(result, time.Now().UTC()); err != nil {
		return nil, translate(err, "order")
	}

	if err := s.repo.MarkPaid(ctx, order); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", translate(err, "order"))
	}

	if err := s.producer.PublishOrderPaid(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.paid event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order paid",
		slog.String("order_id", order.ID),
		slog.String("payment_id", result.ID),
	)

	return order, nil
}

// DeliverOrder marks a paid order as delivered.
func (s *OrderService) DeliverOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for delivery: %w", translate(err, "order"))
	}

	if err := order.MarkDelivered(time.Now().UTC()); err != nil {
		return nil, translate(err, "order")
	}

	if err := s.repo.MarkDelivered(ctx, order); err != nil {
		return nil, fmt.Errorf("mark order delivered: %w", translate(err, "order"))
	}

	if err := s.producer.PublishOrderDelivered(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.delivered event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order delivered", slog.String("order_id", order.ID))

	return order, nil
}

// CountOrders returns the number of orders.
func (s *OrderService) CountOrders(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// TotalSales returns the summed total price of all orders.
func (s *OrderService) TotalSales(ctx context.Context) (int64, error) {
	total, err := s.repo.TotalSales(ctx)
	if err != nil {
		return 0, fmt.Errorf("total sales: %w", err)
	}
	return total, nil
}

// SalesByDate returns paid revenue per UTC day since the given time. A zero
// since covers all time.
func (s *OrderService) SalesByDate(ctx context.Context, since time.Time) ([]domain.SalesTotal, error) {
	totals, err := s.repo.SalesByDate(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("sales by date: %w", err)
	}
	if totals == nil {
		totals = []domain.SalesTotal{}
	}
	return totals, nil
}

func trimAddress(a domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}
