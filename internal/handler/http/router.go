package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// catalogMaxAge is the Cache-Control max-age of the public catalog listings.
const catalogMaxAge = 60

// RouterConfig holds everything the router mounts.
type RouterConfig struct {
	ServiceName string

	Products   *service.ProductService
	Reviews    *service.ReviewService
	Categories *service.CategoryService
	Orders     *service.OrderService

	Health        *health.Handler
	ValidateToken middleware.TokenValidator

	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
	RequestTimeout     time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int

	Logger *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins}))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Operational endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	requireAuth := middleware.Auth(cfg.ValidateToken, logger)
	requireAdmin := middleware.RequireRole(logger, middleware.RoleAdmin)
	rateLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	productHandler := NewProductHandler(cfg.Products, logger)
	reviewHandler := NewReviewHandler(cfg.Reviews, logger)
	categoryHandler := NewCategoryHandler(cfg.Categories, logger)
	orderHandler := NewOrderHandler(cfg.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(timeout))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.SearchProducts)
			r.Get("/{id}", productHandler.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(catalogMaxAge))
				r.Get("/all", productHandler.ListAllProducts)
				r.Get("/top", productHandler.TopProducts)
				r.Get("/new", productHandler.NewProducts)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, rateLimit)
				r.Post("/{id}/reviews", reviewHandler.AddReview)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/", productHandler.CreateProduct)
					r.Put("/{id}", productHandler.UpdateProduct)
					r.Delete("/{id}", productHandler.DeleteProduct)
				})
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/{id}", categoryHandler.GetCategory)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, rateLimit, requireAdmin)
				r.Post("/", categoryHandler.CreateCategory)
				r.Put("/{id}", categoryHandler.UpdateCategory)
				r.Delete("/{id}", categoryHandler.DeleteCategory)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth, rateLimit)

			r.Post("/", orderHandler.CreateOrder)
			r.Get("/mine", orderHandler.ListMyOrders)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Put("/{id}/pay", orderHandler.PayOrder)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", orderHandler.ListOrders)
				r.Get("/total-orders", orderHandler.TotalOrders)
				r.Get("/total-sales", orderHandler.TotalSales)
				r.Get("/total-sales-by-date", orderHandler.TotalSalesByDate)
				r.Put("/{id}/deliver", orderHandler.DeliverOrder)
			})
		})
	})

	return r
}
