package domain

import (
	"errors"
	"time"
)

// ErrCategoryInUse is returned when deleting a category that products
// still reference.
var ErrCategoryInUse = errors.New("category is referenced by products")

// Category groups products. Slug is derived from Name.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryInput is the body of create and update category requests.
type CategoryInput struct {
	Name string `json:"name" label:"Name" validate:"required,notblank,max=255"`
}
