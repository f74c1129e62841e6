// Package memory provides in-memory implementations of the repository
// interfaces. All repositories built from one Store share its data and its
// lock, so a review addition is serialized against every other write.
package memory

import (
	"maps"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.ReviewRepository   = (*ReviewRepository)(nil)
	_ repository.CategoryRepository = (*CategoryRepository)(nil)
	_ repository.OrderRepository    = (*OrderRepository)(nil)
)

// Store holds the in-memory data set. Thread-safe via sync.RWMutex.
type Store struct {
	mu         sync.RWMutex
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	orders     map[string]*domain.Order
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]*domain.Product),
		categories: make(map[string]*domain.Category),
		orders:     make(map[string]*domain.Order),
	}
}

// Products returns a product repository backed by s.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Reviews returns a review repository backed by s.
func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{s: s} }

// Categories returns a category repository backed by s.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Orders returns an order repository backed by s.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// Stored values are never handed out; callers get copies.

func cloneProduct(p *domain.Product, withReviews bool) domain.Product {
	out := *p
	out.Metadata = maps.Clone(p.Metadata)
	out.Category = nil
	out.Reviews = []domain.Review{}
	if withReviews {
		out.Reviews = append(out.Reviews, p.Reviews...)
	}
	return out
}

func cloneOrder(o *domain.Order) domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		out.PaymentResult = &pr
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		out.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		out.DeliveredAt = &t
	}
	return out
}

func paginate[T any](items []T, page, perPage int) []T {
	if perPage < 1 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	if page-1 > len(items)/perPage {
		return items[len(items):]
	}
	offset := (page - 1) * perPage
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
