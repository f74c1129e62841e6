package memory

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository in memory.
type ReviewRepository struct {
	s *Store
}

// AddReview appends the review under the store's write lock.
func (r *ReviewRepository) AddReview(_ context.Context, review *domain.Review) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[review.ProductID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", review.ProductID, apperrors.ErrNotFound)
	}
	if err := p.AddReview(*review); err != nil {
		return nil, err
	}
	p.UpdatedAt = review.CreatedAt

	out := cloneProduct(p, true)
	return &out, nil
}

// ListByProductIDs groups the stored reviews by product id.
func (r *ReviewRepository) ListByProductIDs(_ context.Context, productIDs []string) (map[string][]domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string][]domain.Review, len(productIDs))
	for _, id := range productIDs {
		if p, ok := r.s.products[id]; ok && len(p.Reviews) > 0 {
			out[id] = append([]domain.Review(nil), p.Reviews...)
		}
	}
	return out, nil
}
