package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func review(user string, rating int) Review {
	return Review{UserID: user, Name: user, Rating: rating, Comment: "ok"}
}

func TestMeanRating(t *testing.T) {
	assert.Equal(t, 0.0, MeanRating(nil))
	assert.Equal(t, 4.5, MeanRating([]Review{review("a", 4), review("b", 5)}))
	assert.InDelta(t, 3.6666666666, MeanRating([]Review{review("a", 4), review("b", 5), review("c", 2)}), 1e-9)
}

func TestProduct_AddReview_RecomputesAggregates(t *testing.T) {
	p := &Product{ID: "p1", Reviews: []Review{}}

	require.NoError(t, p.AddReview(review("u1", 4)))
	require.NoError(t, p.AddReview(review("u2", 5)))

	assert.Equal(t, 2, p.NumReviews)
	assert.Equal(t, 4.5, p.Rating)
	assert.Len(t, p.Reviews, 2)
}

func TestProduct_AddReview_DuplicateLeavesAggregatesUnchanged(t *testing.T) {
	p := &Product{ID: "p1"}
	require.NoError(t, p.AddReview(review("u1", 2)))

	err := p.AddReview(review("u1", 5))
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.Equal(t, 1, p.NumReviews)
	assert.Equal(t, 2.0, p.Rating)
	assert.Len(t, p.Reviews, 1)
}

func TestProduct_RecomputeRating_FixesDrift(t *testing.T) {
	p := &Product{Reviews: []Review{review("a", 1), review("b", 3)}, NumReviews: 7, Rating: 5}
	p.RecomputeRating()
	assert.Equal(t, 2, p.NumReviews)
	assert.Equal(t, 2.0, p.Rating)
}

func TestNewProduct_KeepsExtraFieldsAsMetadata(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := CreateProductInput{
		Name: "Smartphone X", Description: "6.1in", Price: 79900,
		CategoryID: "c1", Quantity: 10, Brand: "Acme",
		Extra: map[string]any{"color": "black"},
	}

	p := NewProduct("p1", in, now)
	assert.Equal(t, "Smartphone X", p.Name)
	assert.Equal(t, "black", p.Metadata["color"])
	assert.Equal(t, now, p.CreatedAt)
	assert.NotNil(t, p.Reviews)
	assert.Zero(t, p.NumReviews)
}

func TestUpdateProductInput_Apply(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Product{
		Name: "Lamp", Price: 1000, Brand: "Acme", CategoryID: "c1",
		Category: &Category{ID: "c1"}, Metadata: map[string]any{"color": "red"}, UpdatedAt: created,
	}

	name := "Desk Lamp"
	cat := "c2"
	in := UpdateProductInput{Name: &name, CategoryID: &cat, Extra: map[string]any{"size": "L"}}
	now := created.Add(time.Hour)
	in.Apply(p, now)

	assert.Equal(t, "Desk Lamp", p.Name)
	assert.Equal(t, int64(1000), p.Price, "unset fields are untouched")
	assert.Equal(t, "c2", p.CategoryID)
	assert.Nil(t, p.Category, "stale populated category is dropped")
	assert.Equal(t, map[string]any{"color": "red", "size": "L"}, p.Metadata)
	assert.Equal(t, now, p.UpdatedAt)
}
