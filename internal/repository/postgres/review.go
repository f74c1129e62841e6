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

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// AddReview locks the product row, appends the review and rewrites the
// product's review count and rating in a single transaction. Concurrent
// reviews of one product queue on the row lock.
func (r *ReviewRepository) AddReview(ctx context.Context, review *domain.Review) (_ *domain.Product, err error) {
	lockQuery := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = $1
		FOR UPDATE`

	ctx, end := database.TraceQuery(ctx, "AddReview", lockQuery)
	defer func() { end(err) }()

	var product *domain.Product
	err = database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		p, err := scanProduct(tx.QueryRow(ctx, lockQuery, review.ProductID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product %s: %w", review.ProductID, apperrors.ErrNotFound)
			}
			return apperrors.Persistence("lock product", err)
		}

		reviews, err := listReviews(ctx, tx, []string{p.ID})
		if err != nil {
			return err
		}
		p.Reviews = reviews[p.ID]

		if err := p.AddReview(*review); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO reviews (id, product_id, user_id, name, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			review.ID,
			review.ProductID,
			review.UserID,
			review.Name,
			review.Rating,
			review.Comment,
			review.CreatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err, "reviews_product_user_key") {
				return domain.ErrAlreadyReviewed
			}
			return apperrors.Persistence("insert review", err)
		}

		p.UpdatedAt = review.CreatedAt
		_, err = tx.Exec(ctx, `
			UPDATE products
			SET num_reviews = $2, rating = $3, updated_at = $4
			WHERE id = $1`,
			p.ID, p.NumReviews, p.Rating, p.UpdatedAt,
		)
		if err != nil {
			return apperrors.Persistence("update product rating", err)
		}

		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ListByProductIDs groups the reviews of the given products by product id.
func (r *ReviewRepository) ListByProductIDs(ctx context.Context, productIDs []string) (map[string][]domain.Review, error) {
	return listReviews(ctx, r.db, productIDs)
}

func listReviews(ctx context.Context, db database.DBTX, productIDs []string) (_ map[string][]domain.Review, err error) {
	out := make(map[string][]domain.Review, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM reviews
		WHERE product_id = ANY($1)
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, apperrors.Persistence("list reviews", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Name,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
		); err != nil {
			return nil, apperrors.Persistence("scan review row", err)
		}
		out[rv.ProductID] = append(out[rv.ProductID], rv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate review rows", err)
	}
	return out, nil
}
