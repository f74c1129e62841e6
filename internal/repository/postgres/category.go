package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "categories_name_key") {
			return apperrors.AlreadyExists("Category already exists")
		}
		return apperrors.Persistence("insert category", err)
	}
	return nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, created_at, updated_at
		FROM categories
		WHERE id = $1`

	var c domain.Category
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get category", err)
	}
	return &c, nil
}

// Update renames an existing category.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Slug, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "categories_name_key") {
			return apperrors.AlreadyExists("Category already exists")
		}
		return apperrors.Persistence("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", c.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a category that no product references.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.ErrCategoryInUse
		}
		return apperrors.Persistence("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, slug, created_at, updated_at
		FROM categories
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Persistence("list categories", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperrors.Persistence("scan category row", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate category rows", err)
	}
	return categories, nil
}
