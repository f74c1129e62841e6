package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/slug"
	"github.com/utafrali/storefront/pkg/validator"
)

// CategoryService implements the business logic for category operations.
type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		logger: logger,
	}
}

// CreateCategory stores a new category. Names are unique.
func (s *CategoryService) CreateCategory(ctx context.Context, input domain.CategoryInput) (*domain.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Slug:      slug.Generate(input.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
	)

	return category, nil
}

// UpdateCategory renames a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, input domain.CategoryInput) (*domain.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category for update: %w", translate(err, "category"))
	}

	category.Name = input.Name
	category.Slug = slug.Generate(input.Name)
	category.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", translate(err, "category"))
	}

	s.logger.InfoContext(ctx, "category updated", slog.String("category_id", category.ID))

	return category, nil
}

// DeleteCategory removes a category no product references.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", translate(err, "category"))
	}
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}

// GetCategory retrieves a category by its ID.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category by id: %w", translate(err, "category"))
	}
	return category, nil
}

// ListCategories returns every category ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}
