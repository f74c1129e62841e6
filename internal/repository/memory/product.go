package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ProductRepository implements repository.ProductRepository in memory.
type ProductRepository struct {
	s *Store
}

// Create stores a new product. Its category must exist.
func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return apperrors.InvalidInput("Category not found")
	}
	if _, ok := r.s.products[p.ID]; ok {
		return fmt.Errorf("insert product: %w", apperrors.ErrAlreadyExists)
	}
	stored := cloneProduct(p, true)
	r.s.products[p.ID] = &stored
	return nil
}

// GetByID returns a copy of the product with its reviews.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, apperrors.ErrNotFound)
	}
	out := cloneProduct(p, true)
	return &out, nil
}

// Update overwrites the editable fields of a stored product. Reviews and
// rating aggregates are left as stored.
func (r *ProductRepository) Update(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, apperrors.ErrNotFound)
	}
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return apperrors.InvalidInput("Category not found")
	}

	stored.Name = p.Name
	stored.Description = p.Description
	stored.Price = p.Price
	stored.CategoryID = p.CategoryID
	stored.Quantity = p.Quantity
	stored.CountInStock = p.CountInStock
	stored.Brand = p.Brand
	stored.Image = p.Image
	stored.Metadata = cloneProduct(p, false).Metadata
	stored.UpdatedAt = p.UpdatedAt
	return nil
}

// Delete removes a product and its reviews.
func (r *ProductRepository) Delete(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	delete(r.s.products, id)
	out := cloneProduct(p, false)
	return &out, nil
}

// Search matches the keyword against product names, case-insensitively.
func (r *ProductRepository) Search(_ context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	kw := strings.ToLower(strings.TrimSpace(filter.Keyword))
	matched := make([]domain.Product, 0)
	for _, p := range r.s.products {
		if kw != "" && !strings.Contains(strings.ToLower(p.Name), kw) {
			continue
		}
		matched = append(matched, cloneProduct(p, false))
	}
	sortProducts(matched, repository.SortNewest)

	perPage := filter.PerPage
	if perPage < 1 {
		perPage = domain.SearchPageSize
	}
	return paginate(matched, filter.Page, perPage), len(matched), nil
}

// List returns up to limit products in the requested order.
func (r *ProductRepository) List(_ context.Context, order repository.ProductSort, limit int, withCategory bool) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out := cloneProduct(p, false)
		if withCategory {
			if c, ok := r.s.categories[p.CategoryID]; ok {
				cc := *c
				out.Category = &cc
			}
		}
		all = append(all, out)
	}
	sortProducts(all, order)

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// GetByIDs returns copies of the products with the given ids.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, cloneProduct(p, false))
		}
	}
	return out, nil
}

// sortProducts orders products the same way the SQL queries do.
func sortProducts(products []domain.Product, order repository.ProductSort) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if order == repository.SortTopRated {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.NumReviews != b.NumReviews {
				return a.NumReviews > b.NumReviews
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
