package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

type reviewResponse struct {
	Data ReviewResponse `json:"data"`
}

func TestAddReview_RecomputesRating(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")
	path := "/api/v1/products/" + id + "/reviews"

	rec := env.doJSON(t, http.MethodPost, path,
		map[string]any{"rating": "4", "comment": "  Solid phone  "}, env.token(t, "u-1", "Jane", "customer"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var first reviewResponse
	decodeBody(t, rec, &first)
	assert.Equal(t, "Review added", first.Data.Message)
	assert.Equal(t, 1, first.Data.NumReviews)
	assert.InDelta(t, 4.0, first.Data.Rating, 1e-9)
	require.NotNil(t, first.Data.Review)
	assert.Equal(t, "Jane", first.Data.Review.Name)
	assert.Equal(t, "Solid phone", first.Data.Review.Comment)

	rec = env.doJSON(t, http.MethodPost, path,
		map[string]any{"rating": 5, "comment": "Great"}, env.token(t, "u-2", "Sam", "customer"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var second reviewResponse
	decodeBody(t, rec, &second)
	assert.Equal(t, 2, second.Data.NumReviews)
	assert.InDelta(t, 4.5, second.Data.Rating, 1e-9)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/products/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var product struct {
		Data domain.Product `json:"data"`
	}
	decodeBody(t, rec, &product)
	assert.Len(t, product.Data.Reviews, 2)
	assert.Equal(t, 2, product.Data.NumReviews)
	assert.InDelta(t, 4.5, product.Data.Rating, 1e-9)
}

func TestAddReview_FormBody(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")

	form := url.Values{}
	form.Set("rating", "3")
	form.Set("comment", "Okay")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+id+"/reviews", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req, env.token(t, "u-1", "Jane", "customer"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp reviewResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 3, resp.Data.Review.Rating)
}

func TestAddReview_DuplicateIsRejected(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")
	path := "/api/v1/products/" + id + "/reviews"
	token := env.token(t, "u-1", "Jane", "customer")

	rec := env.doJSON(t, http.MethodPost, path, map[string]any{"rating": 5, "comment": "Great"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(t, http.MethodPost, path, map[string]any{"rating": 1, "comment": "Changed my mind"}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Product already reviewed", decodeError(t, rec).Error)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/products/"+id, nil, "")
	var product struct {
		Data domain.Product `json:"data"`
	}
	decodeBody(t, rec, &product)
	assert.Equal(t, 1, product.Data.NumReviews)
	assert.InDelta(t, 5.0, product.Data.Rating, 1e-9)
}

func TestAddReview_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")
	path := "/api/v1/products/" + id + "/reviews"
	token := env.token(t, "u-1", "Jane", "customer")

	tests := []struct {
		name    string
		path    string
		body    map[string]any
		token   string
		status  int
		message string
	}{
		{
			name:   "no token",
			path:   path,
			body:   map[string]any{"rating": 5, "comment": "Great"},
			status: http.StatusUnauthorized,
		},
		{
			name:    "missing rating",
			path:    path,
			body:    map[string]any{"comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating is required",
		},
		{
			name:    "rating out of range",
			path:    path,
			body:    map[string]any{"rating": 6, "comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating must be less than or equal to 5",
		},
		{
			name:    "rating not numeric",
			path:    path,
			body:    map[string]any{"rating": "five", "comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating must be an integer between 1 and 5",
		},
		{
			name:    "fractional rating",
			path:    path,
			body:    map[string]any{"rating": 4.5, "comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating must be an integer between 1 and 5",
		},
		{
			name:    "fractional rating string",
			path:    path,
			body:    map[string]any{"rating": "4.5", "comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating must be an integer between 1 and 5",
		},
		{
			name:    "hex rating string",
			path:    path,
			body:    map[string]any{"rating": "0x4", "comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating must be an integer between 1 and 5",
		},
		{
			name:    "leading zero is decimal",
			path:    path,
			body:    map[string]any{"rating": "08", "comment": "Great"},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Rating must be less than or equal to 5",
		},
		{
			name:    "blank comment",
			path:    path,
			body:    map[string]any{"rating": 4, "comment": "   "},
			token:   token,
			status:  http.StatusBadRequest,
			message: "Comment is required",
		},
		{
			name:    "unknown product",
			path:    "/api/v1/products/" + uuid.NewString() + "/reviews",
			body:    map[string]any{"rating": 4, "comment": "Great"},
			token:   token,
			status:  http.StatusNotFound,
			message: "product not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodPost, tt.path, tt.body, tt.token)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeError(t, rec).Error)
			}
		})
	}
}

func TestAddReview_LeadingZeroRating(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")

	rec := env.doJSON(t, http.MethodPost, "/api/v1/products/"+id+"/reviews",
		map[string]any{"rating": "05", "comment": "Great"}, env.token(t, "u-1", "Jane", "customer"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp reviewResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5.0, resp.Data.Rating)
}

func TestAddReview_ConcurrentReviewsAreAllCounted(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")
	path := "/api/v1/products/" + id + "/reviews"

	const reviewers = 20
	tokens := make([]string, reviewers)
	for i := range tokens {
		tokens[i] = env.token(t, fmt.Sprintf("u-%d", i), "User", "customer")
	}

	var wg sync.WaitGroup
	codes := make([]int, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rating := i%5 + 1
			req := httptest.NewRequest(http.MethodPost, path,
				strings.NewReader(fmt.Sprintf(`{"rating":%d,"comment":"review %d"}`, rating, i)))
			req.Header.Set("Content-Type", "application/json")
			codes[i] = env.do(req, tokens[i]).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusCreated, code, "reviewer %d", i)
	}

	rec := env.doJSON(t, http.MethodGet, "/api/v1/products/"+id, nil, "")
	var product struct {
		Data domain.Product `json:"data"`
	}
	decodeBody(t, rec, &product)
	assert.Equal(t, reviewers, product.Data.NumReviews)
	assert.Len(t, product.Data.Reviews, reviewers)
	// Ratings cycle 1..5 evenly, so the mean is 3.
	assert.InDelta(t, 3.0, product.Data.Rating, 1e-9)
}
