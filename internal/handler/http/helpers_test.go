package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const testCategoryID = "7d9f2a52-3c5e-4e0b-8f7a-2f6f3b1d9c01"

type testEnv struct {
	handler http.Handler
	store   *memory.Store
	jwt     *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	producer := event.NewProducer(nil, logger)
	jwt := auth.NewJWTManager("handler-test-secret", "", time.Hour)

	require.NoError(t, store.Categories().Create(context.Background(), &domain.Category{
		ID:   testCategoryID,
		Name: "Electronics",
		Slug: "electronics",
	}))

	handler := NewRouter(RouterConfig{
		ServiceName:   "storefront-test",
		Products:      service.NewProductService(store.Products(), store.Reviews(), nil, producer, logger),
		Reviews:       service.NewReviewService(store.Reviews(), nil, producer, logger),
		Categories:    service.NewCategoryService(store.Categories(), logger),
		Orders:        service.NewOrderService(store.Orders(), store.Products(), producer, logger),
		Health:        health.NewHandler(time.Second),
		ValidateToken: jwt.ValidateAccessToken,
		Logger:        logger,
	})

	return &testEnv{handler: handler, store: store, jwt: jwt}
}

func (e *testEnv) token(t *testing.T, userID, name, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(userID, name, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	return e.token(t, "admin-1", "Admin", middleware.RoleAdmin)
}

func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, token)
}

// createProduct creates a product through the API and returns its id.
func (e *testEnv) createProduct(t *testing.T, name string) string {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/api/v1/products", productBody(name), e.adminToken(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data domain.Product `json:"data"`
	}
	decodeBody(t, rec, &resp)
	return resp.Data.ID
}

func productBody(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Test description",
		"price":       19999,
		"category":    testCategoryID,
		"quantity":    10,
		"brand":       "Acme",
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	decodeBody(t, rec, &body)
	return body
}
