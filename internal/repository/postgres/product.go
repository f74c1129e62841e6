package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const productColumns = `p.id, p.name, p.description, p.price, p.category_id, p.quantity, p.count_in_stock,
		p.brand, p.image, p.metadata, p.num_reviews, p.rating, p.created_at, p.updated_at`

const categoryJoinColumns = `c.id, c.name, c.slug, c.created_at, c.updated_at`

var (
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.ReviewRepository   = (*ReviewRepository)(nil)
	_ repository.CategoryRepository = (*CategoryRepository)(nil)
	_ repository.OrderRepository    = (*OrderRepository)(nil)
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	metadataJSON, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, description, price, category_id, quantity, count_in_stock,
			brand, image, metadata, num_reviews, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.CategoryID,
		p.Quantity,
		p.CountInStock,
		p.Brand,
		p.Image,
		metadataJSON,
		p.NumReviews,
		p.Rating,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err, "products_category_id_fkey") {
			return apperrors.InvalidInput("Category not found")
		}
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("insert product: %w", apperrors.ErrAlreadyExists)
		}
		return apperrors.Persistence("insert product", err)
	}
	return nil
}

// GetByID retrieves a product and its reviews, oldest review first.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get product", err)
	}

	reviews, err := listReviews(ctx, r.db, []string{id})
	if err != nil {
		return nil, err
	}
	p.Reviews = reviews[id]
	if p.Reviews == nil {
		p.Reviews = []domain.Review{}
	}
	return p, nil
}

// Update overwrites the editable fields of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	metadataJSON, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5, quantity = $6,
			count_in_stock = $7, brand = $8, image = $9, metadata = $10, updated_at = $11
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.CategoryID,
		p.Quantity,
		p.CountInStock,
		p.Brand,
		p.Image,
		metadataJSON,
		p.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err, "products_category_id_fkey") {
			return apperrors.InvalidInput("Category not found")
		}
		return apperrors.Persistence("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a product; its reviews go with it through the foreign key
// cascade. A missing product yields (nil, nil).
func (r *ProductRepository) Delete(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `
		DELETE FROM products p
		WHERE p.id = $1
		RETURNING ` + productColumns

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Persistence("delete product", err)
	}
	p.Reviews = []domain.Review{}
	return p, nil
}

// Search returns one page of products whose name contains the keyword,
// newest first, together with the total number of matches.
func (r *ProductRepository) Search(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int, err error) {
	var (
		where string
		args  []any
	)
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		where = `WHERE p.name ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(kw)+"%")
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = domain.SearchPageSize
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
			count(*) OVER() AS total_count
		FROM products p
		%s
		ORDER BY p.created_at DESC, p.id
		LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2,
	)

	ctx, end := database.TraceQuery(ctx, "SearchProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperrors.Persistence("search products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	total := 0
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			return nil, 0, apperrors.Persistence("scan product row", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Persistence("iterate product rows", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(products) == 0 && offset > 0 {
		countQuery := `SELECT count(*) FROM products p ` + where
		if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, 0, apperrors.Persistence("count products", err)
		}
	}
	return products, total, nil
}

// List returns up to limit products ordered by sort.
func (r *ProductRepository) List(ctx context.Context, sort repository.ProductSort, limit int, withCategory bool) (_ []domain.Product, err error) {
	orderBy := "p.created_at DESC, p.id"
	if sort == repository.SortTopRated {
		orderBy = "p.rating DESC, p.num_reviews DESC, p.created_at DESC"
	}

	columns, from := productColumns, "products p"
	if withCategory {
		columns += ", " + categoryJoinColumns
		from += " JOIN categories c ON c.id = p.category_id"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY %s
		LIMIT $1`, columns, from, orderBy)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Persistence("list products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			p   *domain.Product
			err error
		)
		if withCategory {
			c := &domain.Category{}
			p, err = scanProduct(rows, &c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
			if err == nil {
				p.Category = c
			}
		} else {
			p, err = scanProduct(rows)
		}
		if err != nil {
			return nil, apperrors.Persistence("scan product row", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate product rows", err)
	}
	return products, nil
}

// GetByIDs returns the products with the given ids. Unknown ids are skipped.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (_ []domain.Product, err error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetProductsByIDs", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, apperrors.Persistence("get products by ids", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperrors.Persistence("scan product row", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate product rows", err)
	}
	return products, nil
}

// scanProduct scans productColumns followed by any extra destinations.
func scanProduct(row pgx.Row, extra ...any) (*domain.Product, error) {
	var (
		p            domain.Product
		metadataJSON []byte
	)
	dest := []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.CategoryID,
		&p.Quantity,
		&p.CountInStock,
		&p.Brand,
		&p.Image,
		&metadataJSON,
		&p.NumReviews,
		&p.Rating,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &p, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
