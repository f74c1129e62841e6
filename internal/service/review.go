package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// Reviewer identifies the authenticated user writing a review.
type Reviewer struct {
	UserID string
	Name   string
}

// ReviewService implements the business logic for product reviews.
type ReviewService struct {
	repo     repository.ReviewRepository
	cache    cache.Cache
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, c cache.Cache, producer *event.Producer, logger *slog.Logger) *ReviewService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ReviewService{
		repo:     repo,
		cache:    c,
		producer: producer,
		logger:   logger,
	}
}

// AddReview appends a review by reviewer to the product and returns the
// product with its recomputed review count and rating, plus the new review.
func (s *ReviewService) AddReview(ctx context.Context, productID string, reviewer Reviewer, input domain.CreateReviewInput) (*domain.Product, *domain.Review, error) {
	if reviewer.UserID == "" {
		return nil, nil, apperrors.Unauthorized("Not authorized")
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validator.Validate(input); err != nil {
		return nil, nil, err
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    reviewer.UserID,
		Name:      reviewer.Name,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now().UTC(),
	}

	product, err := s.repo.AddReview(ctx, review)
	if err != nil {
		return nil, nil, fmt.Errorf("add review: %w", translate(err, "product"))
	}

	cache.Invalidate(ctx, s.cache, s.logger, cache.CatalogKeys...)

	if err := s.producer.PublishProductReviewed(ctx, product, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.reviewed event",
			slog.String("product_id", product.ID),
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review added",
		slog.String("product_id", product.ID),
		slog.String("review_id", review.ID),
		slog.String("user_id", review.UserID),
		slog.Int("num_reviews", product.NumReviews),
		slog.Float64("rating", product.Rating),
	)

	return product, review, nil
}
