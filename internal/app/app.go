package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/cache"
	memcache "github.com/utafrali/storefront/internal/cache/memory"
	rediscache "github.com/utafrali/storefront/internal/cache/redis"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/repository/postgres/migrations"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/tracing"
)

// tokenExpiry bounds tokens minted by this process. The storefront only
// validates tokens, so it matters for tests and tooling alone.
const tokenExpiry = 15 * time.Minute

// repositories is the storage backend chosen by STORE_DRIVER.
type repositories struct {
	products   repository.ProductRepository
	reviews    repository.ReviewRepository
	categories repository.CategoryRepository
	orders     repository.OrderRepository
}

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	cache          io.Closer
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler(5 * time.Second)

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	repos, err := a.initStore(ctx, healthHandler)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	catalogCache, err := a.initCache(ctx, healthHandler)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	// Kafka is optional; without it events are dropped.
	var sender event.Sender
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		sender = event.NewBreakerSender(a.producer, event.DefaultBreakerConfig("storefront-events"), logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(sender, logger)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, tokenExpiry)

	productService := service.NewProductService(repos.products, repos.reviews, catalogCache, eventProducer, logger)
	reviewService := service.NewReviewService(repos.reviews, catalogCache, eventProducer, logger)
	categoryService := service.NewCategoryService(repos.categories, logger)
	orderService := service.NewOrderService(repos.orders, repos.products, eventProducer, logger)

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:        config.ServiceName,
		Products:           productService,
		Reviews:            reviewService,
		Categories:         categoryService,
		Orders:             orderService,
		Health:             healthHandler,
		ValidateToken:      jwtManager.ValidateAccessToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		RequestTimeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		Logger:             logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) initStore(ctx context.Context, hh *health.Handler) (repositories, error) {
	if a.cfg.StoreDriver == config.StoreMemory {
		a.logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			products:   store.Products(),
			reviews:    store.Reviews(),
			categories: store.Categories(),
			orders:     store.Orders(),
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
	if err != nil {
		return repositories{}, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return repositories{}, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	// Configure slow query logging.
	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	hh.Register("postgres", pool.Ping)

	return repositories{
		products:   postgres.NewProductRepository(pool),
		reviews:    postgres.NewReviewRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		orders:     postgres.NewOrderRepository(pool),
	}, nil
}

func (a *App) initCache(ctx context.Context, hh *health.Handler) (cache.Cache, error) {
	switch a.cfg.CacheDriver {
	case config.CacheNone:
		return cache.Nop{}, nil

	case config.CacheRedis:
		client, err := database.NewRedisClient(ctx, a.cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		hh.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		a.logger.Info("catalog cache: redis", slog.String("addr", a.cfg.Redis().Addr()))
		return rediscache.New(client, a.cfg.CacheTTL()), nil

	default:
		c, err := memcache.New(a.cfg.CacheCapacity, a.cfg.CacheTTL())
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		a.cache = c
		a.logger.Info("catalog cache: memory", slog.Int("capacity", a.cfg.CacheCapacity))
		return c, nil
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer, cache and storage
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything NewApp opened. It is safe to call on a
// partially built App.
func (a *App) closeResources() error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
		a.cache = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
