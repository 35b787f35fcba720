package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/catalog"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/config"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/event"
	handler "github.com/7azemaamer/salla-adv-bundler-sub000/internal/handler/http"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/repository/postgres"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/salla"
	"github.com/7azemaamer/salla-adv-bundler-sub000/internal/service"
	"github.com/7azemaamer/salla-adv-bundler-sub000/migrations"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/health"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/httpclient"
	pkgkafka "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/kafka"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the bundler service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	bundleService  *service.BundleService
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the sweep lock and the analytics hot counters. Both degrade
	// gracefully, so a failed connection is logged but not fatal.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, continuing without counters cache and sweep lock",
			slog.String("error", err.Error()),
		)
		redisClient = nil
	}

	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	if err := producer.Ping(ctx); err != nil {
		logger.Warn("kafka producer ping failed, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Outbound platform client: pooled retrying transport wrapped in a
	// circuit breaker shared by the token source, offer gateway, and catalog.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	platformClient := httpclient.NewBreakerClient(baseClient, httpclient.DefaultBreakerConfig("salla"), logger)

	bundleRepo := postgres.NewBundleRepository(pool)
	offerRepo := postgres.NewOfferRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)

	tokenSource := salla.NewTokenSource(salla.TokenSourceConfig{
		ClientID:     cfg.SallaClientID,
		ClientSecret: cfg.SallaClientSecret,
		TokenURL:     cfg.SallaTokenURL,
	}, storeRepo, platformClient, logger)

	gateway := salla.NewClient(salla.ClientConfig{
		BaseURL:           cfg.SallaAPIBaseURL,
		RequestsPerSecond: cfg.SallaRatePerSec,
		Burst:             cfg.SallaRateBurst,
	}, platformClient, tokenSource, logger)

	catalogAdapter := catalog.NewAdapter(catalog.Config{
		BaseURL: cfg.SallaAPIBaseURL,
	}, platformClient, tokenSource, logger)

	consolidator := service.NewConsolidator(service.ConsolidatorConfig{
		TimezoneOffset: cfg.TimezoneOffset(),
		StartBuffer:    cfg.StartBuffer(),
	}, logger)

	eventProducer := event.NewProducer(producer, logger)

	bundleService := service.NewBundleService(
		bundleRepo, offerRepo, storeRepo,
		gateway, catalogAdapter, consolidator,
		eventProducer, redisClient, logger,
	)
	analyticsService := service.NewAnalyticsService(bundleRepo, redisClient, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	bundleHandler := handler.NewBundleHandler(bundleService, analyticsService, logger)
	router := handler.NewRouter(bundleHandler, healthHandler, cfg.ServiceName, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		bundleService:  bundleService,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the expiry sweep, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go a.runExpirySweep(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// runExpirySweep periodically transitions past-expiry bundles and tears down
// their remote offers.
func (a *App) runExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := a.bundleService.CleanupExpiredBundles(ctx)
			if err != nil {
				a.logger.Error("expiry sweep error", slog.String("error", err.Error()))
			} else if swept > 0 {
				a.logger.Info("expired bundles swept", slog.Int("count", swept))
			}
		}
	}
}

// Shutdown gracefully stops all components: drain HTTP, flush spans, close
// the Kafka producer, Redis, and the PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
