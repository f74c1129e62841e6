package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

type productResponse struct {
	Data domain.Product `json:"data"`
}

type productPage struct {
	Items      []domain.Product `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalCount int              `json:"total_count"`
	HasMore    bool             `json:"has_more"`
}

func TestCreateProduct_ThenFetchByID(t *testing.T) {
	env := newTestEnv(t)

	body := productBody("Smartphone X")
	body["image"] = "/images/x.png"
	body["color"] = "black"

	rec := env.doJSON(t, http.MethodPost, "/api/v1/products", body, env.adminToken(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created productResponse
	decodeBody(t, rec, &created)
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "black", created.Data.Metadata["color"])

	rec = env.doJSON(t, http.MethodGet, "/api/v1/products/"+created.Data.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched productResponse
	decodeBody(t, rec, &fetched)
	assert.Equal(t, "Smartphone X", fetched.Data.Name)
	assert.Equal(t, "Test description", fetched.Data.Description)
	assert.Equal(t, int64(19999), fetched.Data.Price)
	assert.Equal(t, testCategoryID, fetched.Data.CategoryID)
	assert.Equal(t, 10, fetched.Data.Quantity)
	assert.Equal(t, "Acme", fetched.Data.Brand)
	assert.Equal(t, "/images/x.png", fetched.Data.Image)
	assert.Empty(t, fetched.Data.Reviews)
	assert.Zero(t, fetched.Data.NumReviews)
}

func TestCreateProduct_FirstMissingFieldReported(t *testing.T) {
	tests := []struct {
		name    string
		drop    []string
		zero    map[string]any
		message string
	}{
		{name: "name", drop: []string{"name"}, message: "Name is required"},
		{name: "description before brand", drop: []string{"brand", "description"}, message: "Description is required"},
		{name: "zero price is missing", zero: map[string]any{"price": 0}, message: "Price is required"},
		{name: "empty category", zero: map[string]any{"category": ""}, message: "Category is required"},
		{name: "quantity", drop: []string{"quantity", "brand"}, message: "Quantity is required"},
		{name: "whitespace brand", zero: map[string]any{"brand": "   "}, message: "Brand is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			body := productBody("Widget")
			for _, k := range tt.drop {
				delete(body, k)
			}
			for k, v := range tt.zero {
				body[k] = v
			}

			rec := env.doJSON(t, http.MethodPost, "/api/v1/products", body, env.adminToken(t))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			errBody := decodeError(t, rec)
			assert.Equal(t, tt.message, errBody.Error)
			assert.Equal(t, "VALIDATION_ERROR", errBody.Code)
		})
	}
}

func TestCreateProduct_MalformedNumbers(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]any
		drop    []string
		message string
		field   string
	}{
		{name: "missing name wins over later bad price", drop: []string{"name"}, set: map[string]any{"price": "abc"}, message: "Name is required", field: "Name"},
		{name: "text price", set: map[string]any{"price": "abc"}, message: "Price must be a whole number", field: "Price"},
		{name: "fractional price", set: map[string]any{"price": 12.99}, message: "Price must be a whole number", field: "Price"},
		{name: "bad price before missing brand", drop: []string{"brand"}, set: map[string]any{"price": "12.5"}, message: "Price must be a whole number", field: "Price"},
		{name: "hex quantity", set: map[string]any{"quantity": "0x10"}, message: "Quantity must be a whole number", field: "Quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			body := productBody("Widget")
			for _, k := range tt.drop {
				delete(body, k)
			}
			for k, v := range tt.set {
				body[k] = v
			}

			rec := env.doJSON(t, http.MethodPost, "/api/v1/products", body, env.adminToken(t))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			errBody := decodeError(t, rec)
			assert.Equal(t, tt.message, errBody.Error)
			assert.Equal(t, tt.field, errBody.Field)
			assert.Equal(t, "VALIDATION_ERROR", errBody.Code)
			assert.NotContains(t, rec.Body.String(), "strconv")
		})
	}
}

func TestCreateProduct_WholeDecimalPriceAccepted(t *testing.T) {
	env := newTestEnv(t)
	body := productBody("Widget")
	body["price"] = "2500.0"

	rec := env.doJSON(t, http.MethodPost, "/api/v1/products", body, env.adminToken(t))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created productResponse
	decodeBody(t, rec, &created)
	assert.Equal(t, int64(2500), created.Data.Price)
}

func TestCreateProduct_FormBodyWithStringNumbers(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("name", "Laptop Pro")
	form.Set("description", "Fast")
	form.Set("price", "125000")
	form.Set("category", testCategoryID)
	form.Set("quantity", "2")
	form.Set("brand", "Acme")
	form.Set("warranty", "2y")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req, env.adminToken(t))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created productResponse
	decodeBody(t, rec, &created)
	assert.Equal(t, int64(125000), created.Data.Price)
	assert.Equal(t, 2, created.Data.Quantity)
	assert.Equal(t, "2y", created.Data.Metadata["warranty"])
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	body := productBody("Widget")
	body["category"] = uuid.NewString()

	rec := env.doJSON(t, http.MethodPost, "/api/v1/products", body, env.adminToken(t))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Category not found", decodeError(t, rec).Error)
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/v1/products", productBody("Widget"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/v1/products", productBody("Widget"), env.token(t, "u-1", "Jane", "customer"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
}

func TestCreateProduct_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req, env.adminToken(t))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestUpdateProduct_PartialMerge(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")

	rec := env.doJSON(t, http.MethodPut, "/api/v1/products/"+id,
		map[string]any{"price": "24999", "color": "blue"}, env.adminToken(t))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated productResponse
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Smartphone X", updated.Data.Name)
	assert.Equal(t, int64(24999), updated.Data.Price)
	assert.Equal(t, "blue", updated.Data.Metadata["color"])
}

func TestUpdateProduct_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")
	admin := env.adminToken(t)

	rec := env.doJSON(t, http.MethodPut, "/api/v1/products/"+uuid.NewString(), map[string]any{"name": "x"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", decodeError(t, rec).Error)

	rec = env.doJSON(t, http.MethodPut, "/api/v1/products/"+id, map[string]any{"name": ""}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodPut, "/api/v1/products/"+id, map[string]any{"price": -5}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Price must be greater than 0", decodeError(t, rec).Error)

	rec = env.doJSON(t, http.MethodPut, "/api/v1/products/"+id, map[string]any{"price": "abc"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Price must be a whole number", decodeError(t, rec).Error)

	rec = env.doJSON(t, http.MethodPut, "/api/v1/products/not-a-uuid", map[string]any{"name": "x"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	id := env.createProduct(t, "Smartphone X")
	admin := env.adminToken(t)

	rec := env.doJSON(t, http.MethodDelete, "/api/v1/products/"+id, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted productResponse
	decodeBody(t, rec, &deleted)
	assert.Equal(t, id, deleted.Data.ID)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/products/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(t, http.MethodDelete, "/api/v1/products/"+id, nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":null}`, rec.Body.String())
}

func TestGetProduct_UnknownIDIsSingle404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decodeError(t, rec)
	assert.Equal(t, "product not found", errBody.Error)
	assert.Equal(t, "NOT_FOUND", errBody.Code)
}

func TestSearchProducts_KeywordIsCaseInsensitiveSubstring(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct(t, "Smartphone X")
	env.createProduct(t, "Laptop")

	rec := env.doJSON(t, http.MethodGet, "/api/v1/products?keyword=PHONE", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var page productPage
	decodeBody(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Smartphone X", page.Items[0].Name)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasMore)
}

func TestSearchProducts_Pagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < domain.SearchPageSize+2; i++ {
		env.createProduct(t, fmt.Sprintf("Item %d", i))
	}

	rec := env.doJSON(t, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var first productPage
	decodeBody(t, rec, &first)
	assert.Len(t, first.Items, domain.SearchPageSize)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasMore)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/products?page=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var second productPage
	decodeBody(t, rec, &second)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)

	rec = env.doJSON(t, http.MethodGet, "/api/v1/products?page=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchProducts_HugePageIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct(t, "Item")

	for _, raw := range []string{"1537228672809129302", "3074457345618258603", "9223372036854775807", "184467440737095516150"} {
		rec := env.doJSON(t, http.MethodGet, "/api/v1/products?page="+raw, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, raw)
		var page productPage
		decodeBody(t, rec, &page)
		assert.Empty(t, page.Items, raw)
		assert.Equal(t, 1, page.TotalCount, raw)
		assert.False(t, page.HasMore, raw)
	}
}

func TestCatalogListings(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 14; i++ {
		env.createProduct(t, fmt.Sprintf("Item %02d", i))
	}

	tests := []struct {
		path string
		max  int
	}{
		{"/api/v1/products/all", domain.AllProductsMax},
		{"/api/v1/products/top", domain.TopProductsMax},
		{"/api/v1/products/new", domain.NewProductsMax},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodGet, tt.path, nil, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

			var resp struct {
				Data []domain.Product `json:"data"`
			}
			decodeBody(t, rec, &resp)
			assert.Len(t, resp.Data, tt.max)
		})
	}

	rec := env.doJSON(t, http.MethodGet, "/api/v1/products/all", nil, "")
	var all struct {
		Data []domain.Product `json:"data"`
	}
	decodeBody(t, rec, &all)
	require.NotEmpty(t, all.Data)
	require.NotNil(t, all.Data[0].Category)
	assert.Equal(t, "Electronics", all.Data[0].Category.Name)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env.doJSON(t, http.MethodGet, "/api/v1/products", nil, "")
	rec = env.doJSON(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
