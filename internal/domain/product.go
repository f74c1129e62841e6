package domain

import (
	"errors"
	"time"
)

// Catalog query limits.
const (
	SearchPageSize = 6
	AllProductsMax = 12
	TopProductsMax = 4
	NewProductsMax = 5
)

// ErrAlreadyReviewed is returned when a user reviews the same product twice.
var ErrAlreadyReviewed = errors.New("product already reviewed")

// Product is a catalog entry. Price is in minor currency units.
type Product struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Price        int64          `json:"price"`
	CategoryID   string         `json:"category_id"`
	Category     *Category      `json:"category,omitempty"`
	Quantity     int            `json:"quantity"`
	CountInStock int            `json:"count_in_stock"`
	Brand        string         `json:"brand"`
	Image        string         `json:"image,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Reviews      []Review       `json:"reviews"`
	NumReviews   int            `json:"num_reviews"`
	Rating       float64        `json:"rating"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// HasReviewFrom reports whether userID already reviewed the product.
func (p *Product) HasReviewFrom(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// AddReview appends r and recomputes NumReviews and Rating from the full
// review list. The product is left untouched when the author already has a
// review on it.
func (p *Product) AddReview(r Review) error {
	if p.HasReviewFrom(r.UserID) {
		return ErrAlreadyReviewed
	}
	p.Reviews = append(p.Reviews, r)
	p.RecomputeRating()
	return nil
}

// RecomputeRating derives NumReviews and Rating from Reviews.
func (p *Product) RecomputeRating() {
	p.NumReviews = len(p.Reviews)
	p.Rating = MeanRating(p.Reviews)
}

// MeanRating is the arithmetic mean of the ratings, or 0 for no reviews.
// The result is not rounded.
func MeanRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// CreateProductInput holds the fields accepted when creating a product.
// Required fields are declared in the order they are checked; only the first
// missing one is reported. Zero numbers and empty strings count as missing.
type CreateProductInput struct {
	Name         string         `mapstructure:"name" label:"Name" validate:"required"`
	Description  string         `mapstructure:"description" label:"Description" validate:"required"`
	Price        int64          `mapstructure:"price" label:"Price" validate:"required,gt=0"`
	CategoryID   string         `mapstructure:"category" label:"Category" validate:"required,uuid"`
	Quantity     int            `mapstructure:"quantity" label:"Quantity" validate:"required,gt=0"`
	Brand        string         `mapstructure:"brand" label:"Brand" validate:"required"`
	Image        string         `mapstructure:"image" label:"Image"`
	CountInStock int            `mapstructure:"count_in_stock" label:"CountInStock" validate:"gte=0"`
	Extra        map[string]any `mapstructure:",remain"`
}

// UpdateProductInput is a partial update. Nil fields are left unchanged;
// supplied fields may not be blanked out.
type UpdateProductInput struct {
	Name         *string        `mapstructure:"name" label:"Name" validate:"omitnil,notblank"`
	Description  *string        `mapstructure:"description" label:"Description" validate:"omitnil,notblank"`
	Price        *int64         `mapstructure:"price" label:"Price" validate:"omitnil,gt=0"`
	CategoryID   *string        `mapstructure:"category" label:"Category" validate:"omitnil,uuid"`
	Quantity     *int           `mapstructure:"quantity" label:"Quantity" validate:"omitnil,gte=0"`
	Brand        *string        `mapstructure:"brand" label:"Brand" validate:"omitnil,notblank"`
	Image        *string        `mapstructure:"image" label:"Image"`
	CountInStock *int           `mapstructure:"count_in_stock" label:"CountInStock" validate:"omitnil,gte=0"`
	Extra        map[string]any `mapstructure:",remain"`
}

// NewProduct builds a product from validated input. Extra fields are kept
// as metadata.
func NewProduct(id string, in CreateProductInput, now time.Time) *Product {
	return &Product{
		ID:           id,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		CategoryID:   in.CategoryID,
		Quantity:     in.Quantity,
		CountInStock: in.CountInStock,
		Brand:        in.Brand,
		Image:        in.Image,
		Metadata:     in.Extra,
		Reviews:      []Review{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Apply merges the supplied fields into p. Extra fields are merged into the
// existing metadata key by key.
func (in UpdateProductInput) Apply(p *Product, now time.Time) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
		p.Category = nil
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.CountInStock != nil {
		p.CountInStock = *in.CountInStock
	}
	if len(in.Extra) > 0 {
		if p.Metadata == nil {
			p.Metadata = make(map[string]any, len(in.Extra))
		}
		for k, v := range in.Extra {
			p.Metadata[k] = v
		}
	}
	p.UpdatedAt = now
}
