package app

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:         "test",
		HTTPPort:            0,
		HTTPReadTimeoutSec:  5,
		HTTPWriteTimeoutSec: 5,
		RequestTimeoutSec:   5,
		StoreDriver:         config.StoreMemory,
		CacheDriver:         config.CacheMemory,
		CacheTTLSeconds:     60,
		CacheCapacity:       100,
		JWTSecret:           "app-test-secret",
		CORSAllowedOrigins:  []string{"*"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.closeResources() })
	return a
}

func TestNewApp_MemoryStore(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/top", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestNewApp_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.CacheDriver = config.CacheRedis
	cfg.RedisHost = host
	cfg.RedisPort, err = strconv.Atoi(port)
	require.NoError(t, err)

	a := newTestApp(t, cfg)
	require.NotNil(t, a.redis)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/new", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("storefront:catalog:new"))

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis"`)
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.CacheDriver = config.CacheRedis
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = 1

	_, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestShutdown_WithoutRun(t *testing.T) {
	cfg := testConfig()
	cfg.CacheDriver = config.CacheNone
	a, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.NoError(t, a.Shutdown())
}
