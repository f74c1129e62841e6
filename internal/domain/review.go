package domain

import "time"

// Review is a user's rating of a product. Reviews are immutable.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateReviewInput is the validated body of an add-review request.
type CreateReviewInput struct {
	Rating  int    `json:"rating" label:"Rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" label:"Comment" validate:"required,notblank,max=2000"`
}
