package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository in memory.
type CategoryRepository struct {
	s *Store
}

func (r *CategoryRepository) nameTaken(name, exceptID string) bool {
	for id, c := range r.s.categories {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (r *CategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(c.Name, "") {
		return apperrors.AlreadyExists("Category already exists")
	}
	stored := *c
	r.s.categories[c.ID] = &stored
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, apperrors.ErrNotFound)
	}
	out := *c
	return &out, nil
}

func (r *CategoryRepository) Update(_ context.Context, c *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.categories[c.ID]
	if !ok {
		return fmt.Errorf("category %s: %w", c.ID, apperrors.ErrNotFound)
	}
	if r.nameTaken(c.Name, c.ID) {
		return apperrors.AlreadyExists("Category already exists")
	}
	stored.Name = c.Name
	stored.Slug = c.Slug
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, apperrors.ErrNotFound)
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return domain.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
