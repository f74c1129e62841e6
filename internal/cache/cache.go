// Package cache defines the read cache used for catalog listings.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/pkg/tracing"
)

// Catalog listing keys. Every product write and review invalidates all of
// them.
const (
	KeyTopProducts = "catalog:top"
	KeyNewProducts = "catalog:new"
	KeyAllProducts = "catalog:all"
)

// CatalogKeys lists the keys dropped on any product change.
var CatalogKeys = []string{KeyTopProducts, KeyNewProducts, KeyAllProducts}

// Cache stores encoded values under string keys. Entries expire after the
// TTL the implementation was built with.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Delete(context.Context, ...string) error           { return nil }

// generations counts invalidations per Cache. A load that overlaps an
// invalidation must not leave its result behind.
var generations sync.Map

func generation(c Cache) *atomic.Uint64 {
	g, _ := generations.LoadOrStore(c, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Cache failures are logged and fall through to load; they never
// fail the call. A result loaded while the cache was invalidated is returned
// but not kept.
func GetOrLoad[T any](ctx context.Context, c Cache, logger *slog.Logger, key string, load func(context.Context) (T, error)) (T, error) {
	ctx, span := tracing.Start(ctx, "storefront/cache", "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	gen := generation(c)
	startGen := gen.Load()

	if data, ok, err := c.Get(ctx, key); err != nil {
		logger.WarnContext(ctx, "cache get failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			cacheHits.WithLabelValues(key).Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return v, nil
		}
		logger.WarnContext(ctx, "cache entry undecodable", slog.String("key", key))
	}
	cacheMisses.WithLabelValues(key).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.WarnContext(ctx, "cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return v, nil
	}
	if gen.Load() != startGen {
		return v, nil
	}
	if err := c.Set(ctx, key, data); err != nil {
		logger.WarnContext(ctx, "cache set failed", slog.String("key", key), slog.String("error", err.Error()))
		return v, nil
	}
	// Invalidate bumps the generation before deleting, so a bump seen here
	// may have deleted before our Set landed.
	if gen.Load() != startGen {
		Invalidate(ctx, c, logger, key)
	}
	return v, nil
}

// Invalidate drops keys, logging instead of returning failures.
func Invalidate(ctx context.Context, c Cache, logger *slog.Logger, keys ...string) {
	generation(c).Add(1)
	if err := c.Delete(ctx, keys...); err != nil {
		logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
