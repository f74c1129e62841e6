package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func expectLockProduct(mock pgxmock.PgxPoolIface, p domain.Product) {
	mock.ExpectQuery("SELECT .+ FROM products p WHERE p.id = .+ FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))
}

func TestReviewRepository_AddReview_RecomputesAggregates(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	p := sampleProduct()
	p.NumReviews, p.Rating = 1, 4
	existing := sampleReview("rev-1", "u1", 4)
	review := sampleReview("rev-2", "u2", 5)

	mock.ExpectBegin()
	expectLockProduct(mock, p)
	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs([]string{p.ID}).
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(existing)...))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(review.ID, review.ProductID, review.UserID, review.Name, review.Rating, review.Comment, review.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE products SET num_reviews").
		WithArgs(p.ID, 2, 4.5, review.CreatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := repo.AddReview(context.Background(), &review)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumReviews)
	assert.InDelta(t, 4.5, got.Rating, 1e-9)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, "u2", got.Reviews[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_AddReview_Duplicate(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	p := sampleProduct()
	p.NumReviews, p.Rating = 1, 4
	existing := sampleReview("rev-1", "u1", 4)
	review := sampleReview("rev-2", "u1", 1)

	mock.ExpectBegin()
	expectLockProduct(mock, p)
	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs([]string{p.ID}).
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(existing)...))
	mock.ExpectRollback()

	got, err := repo.AddReview(context.Background(), &review)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_AddReview_UniqueViolationIsDuplicate(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	p := sampleProduct()
	review := sampleReview("rev-1", "u1", 3)

	mock.ExpectBegin()
	expectLockProduct(mock, p)
	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs([]string{p.ID}).
		WillReturnRows(pgxmock.NewRows(reviewCols))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(review.ID, review.ProductID, review.UserID, review.Name, review.Rating, review.Comment, review.CreatedAt).
		WillReturnError(pgErr("23505", "reviews_product_user_key"))
	mock.ExpectRollback()

	_, err := repo.AddReview(context.Background(), &review)
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_AddReview_ProductNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	review := sampleReview("rev-1", "u1", 3)
	review.ProductID = "missing"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.AddReview(context.Background(), &review)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_AddReview_BeginFails(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	review := sampleReview("rev-1", "u1", 3)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := repo.AddReview(context.Background(), &review)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByProductIDs_Groups(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	r1 := sampleReview("rev-1", "u1", 4)
	r2 := sampleReview("rev-2", "u2", 2)
	r2.ProductID = "prod-2"

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs([]string{"prod-1", "prod-2"}).
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(r1)...).AddRow(reviewRow(r2)...))

	got, err := repo.ListByProductIDs(context.Background(), []string{"prod-1", "prod-2"})
	require.NoError(t, err)
	assert.Len(t, got["prod-1"], 1)
	assert.Len(t, got["prod-2"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
