package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository in memory.
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := cloneOrder(o)
	r.s.orders[o.ID] = &stored
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, apperrors.ErrNotFound)
	}
	out := cloneOrder(o)
	return &out, nil
}

// List returns a page of orders, newest first.
func (r *OrderRepository) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]domain.Order, 0)
	for _, o := range r.s.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Page, filter.PerPage), len(matched), nil
}

// MarkPaid copies the payment fields of o onto the stored order.
func (r *OrderRepository) MarkPaid(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[o.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", o.ID, apperrors.ErrNotFound)
	}
	if stored.IsPaid {
		return domain.ErrOrderAlreadyPaid
	}
	paid := cloneOrder(o)
	stored.IsPaid = true
	stored.PaidAt = paid.PaidAt
	stored.PaymentResult = paid.PaymentResult
	stored.UpdatedAt = o.UpdatedAt
	return nil
}

// MarkDelivered copies the delivery fields of o onto the stored order.
func (r *OrderRepository) MarkDelivered(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[o.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", o.ID, apperrors.ErrNotFound)
	}
	if !stored.IsPaid {
		return domain.ErrOrderNotPaid
	}
	if stored.IsDelivered {
		return domain.ErrOrderAlreadyDelivered
	}
	delivered := cloneOrder(o)
	stored.IsDelivered = true
	stored.DeliveredAt = delivered.DeliveredAt
	stored.UpdatedAt = o.UpdatedAt
	return nil
}

func (r *OrderRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.orders), nil
}

func (r *OrderRepository) TotalSales(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total int64
	for _, o := range r.s.orders {
		total += o.TotalPrice
	}
	return total, nil
}

// SalesByDate groups paid order totals by the UTC day they were paid.
func (r *OrderRepository) SalesByDate(_ context.Context, since time.Time) ([]domain.SalesTotal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byDay := make(map[string]int64)
	for _, o := range r.s.orders {
		if !o.IsPaid || o.PaidAt == nil || o.PaidAt.Before(since) {
			continue
		}
		byDay[o.PaidAt.UTC().Format(time.DateOnly)] += o.TotalPrice
	}

	out := make([]domain.SalesTotal, 0, len(byDay))
	for day, total := range byDay {
		out = append(out, domain.SalesTotal{Date: day, TotalSales: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
