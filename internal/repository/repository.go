package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductFilter selects a page of products for catalog search.
type ProductFilter struct {
	// Keyword matches product names case-insensitively anywhere in the name.
	Keyword string
	Page    int
	PerPage int
}

// ProductSort orders unfiltered product listings.
type ProductSort int

const (
	SortNewest ProductSort = iota
	SortTopRated
)

// ProductRepository defines product persistence operations. Reviews are
// loaded by GetByID only; list methods return products without reviews.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID returns the product with its reviews, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// Update overwrites the product's editable fields, or returns ErrNotFound.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes the product and returns what was deleted. It returns
	// (nil, nil) when no product had that id.
	Delete(ctx context.Context, id string) (*domain.Product, error)

	// Search returns a page of products matching the filter and the total
	// number of matches.
	Search(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// List returns up to limit products in the given order. When
	// withCategory is set the Category field is populated.
	List(ctx context.Context, sort ProductSort, limit int, withCategory bool) ([]domain.Product, error)

	// GetByIDs returns the products with the given ids, in no particular
	// order. Unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	// AddReview appends review to its product and recomputes the product's
	// review count and rating in one step that is serialized per product.
	// It returns the updated product, ErrNotFound for an unknown product, or
	// domain.ErrAlreadyReviewed when the user already reviewed it.
	AddReview(ctx context.Context, review *domain.Review) (*domain.Product, error)

	// ListByProductIDs groups the reviews of the given products by product id,
	// oldest first.
	ListByProductIDs(ctx context.Context, productIDs []string) (map[string][]domain.Review, error)
}

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	// Delete returns domain.ErrCategoryInUse while products reference the
	// category.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Category, error)
}

// OrderFilter selects a page of orders. A nil UserID selects all users.
type OrderFilter struct {
	UserID  *string
	Page    int
	PerPage int
}

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// MarkPaid persists the payment fields of order unless the stored order
	// is already paid, in which case it returns domain.ErrOrderAlreadyPaid.
	MarkPaid(ctx context.Context, order *domain.Order) error

	// MarkDelivered persists the delivery fields of order. It returns
	// domain.ErrOrderNotPaid or domain.ErrOrderAlreadyDelivered when the
	// stored order does not allow the transition.
	MarkDelivered(ctx context.Context, order *domain.Order) error

	// Count returns the number of orders.
	Count(ctx context.Context) (int, error)

	// TotalSales sums the total price of all orders.
	TotalSales(ctx context.Context) (int64, error)

	// SalesByDate sums the total price of paid orders per UTC paid date,
	// oldest first, starting at since (zero means all time).
	SalesByDate(ctx context.Context, since time.Time) ([]domain.SalesTotal, error)
}
