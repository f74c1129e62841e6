package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_hits_total",
		Help: "Catalog cache hits by key.",
	}, []string{"key"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_misses_total",
		Help: "Catalog cache misses by key.",
	}, []string{"key"})
)
