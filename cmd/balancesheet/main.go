package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/balancesheet/balancesheet/internal/alerts"
	alertshttp "github.com/balancesheet/balancesheet/internal/alerts/http"
	"github.com/balancesheet/balancesheet/internal/analytics"
	analytichttp "github.com/balancesheet/balancesheet/internal/analytics/http"
	"github.com/balancesheet/balancesheet/internal/app"
	"github.com/balancesheet/balancesheet/internal/assistant"
	assistanthttp "github.com/balancesheet/balancesheet/internal/assistant/http"
	"github.com/balancesheet/balancesheet/internal/catalog"
	cataloghttp "github.com/balancesheet/balancesheet/internal/catalog/http"
	"github.com/balancesheet/balancesheet/internal/forecast"
	forecasthttp "github.com/balancesheet/balancesheet/internal/forecast/http"
	"github.com/balancesheet/balancesheet/internal/observability"
	"github.com/balancesheet/balancesheet/internal/platform/cache"
	"github.com/balancesheet/balancesheet/internal/platform/db"
	"github.com/balancesheet/balancesheet/internal/sales"
	saleshttp "github.com/balancesheet/balancesheet/internal/sales/http"
	"github.com/balancesheet/balancesheet/jobs"
)

// salesHook invalidates cached stats and schedules an alert scan after new sales land.
type salesHook struct {
	cache  *analytics.Cache
	jobs   *jobs.Client
	logger *slog.Logger
}

func (h salesHook) Bump(ctx context.Context) error {
	if err := h.cache.Bump(ctx); err != nil {
		return err
	}
	if h.jobs == nil {
		return nil
	}
	if _, err := h.jobs.EnqueueAlertScan(ctx, jobs.AlertScanPayload{NotifyNewOnly: true}); err != nil {
		h.logger.Warn("enqueue alert scan", slog.Any("error", err))
	}
	return nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, stats caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	analyticsCache := analytics.NewCache(redisClient, cfg.StatsCacheTTL)
	if redisClient != nil {
		go func() {
			if err := analyticsCache.ListenForInvalidation(ctx, analytics.BumpChannel); err != nil && ctx.Err() == nil {
				logger.Warn("analytics invalidation listener", slog.Any("error", err))
			}
		}()
	}
	analyticsService := analytics.NewService(analytics.NewPGRepository(dbpool), analyticsCache)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)

	var news alerts.NewsSource
	if cfg.NewsFeedEnabled {
		news = alerts.NewMockNewsFeed(time.Now().UnixNano())
	}
	alertService := alerts.NewService(catalogRepo, news)

	salesRepo := sales.NewRepository(dbpool)
	forecastService := forecast.NewService(salesRepo)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	var jobClient *jobs.Client
	var jobHandler *jobs.Handler
	if redisClient != nil {
		jobClient, err = jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}
	salesService := sales.NewService(salesRepo, salesHook{cache: analyticsCache, jobs: jobClient, logger: logger}, logger)

	responder := assistant.NewResponder(analyticsService, forecastService, alertService)

	checks := map[string]app.ReadinessCheck{"postgres": dbpool.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		Checks:           checks,
		CatalogHandler:   cataloghttp.NewHandler(logger, catalogService),
		SalesHandler:     saleshttp.NewHandler(logger, salesService),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService),
		ForecastHandler: forecasthttp.NewHandler(logger, forecastService, forecasthttp.Defaults{
			GrowthRate: cfg.ForecastDefaultGrowth,
			Periods:    cfg.ForecastDefaultPeriods,
		}),
		AlertsHandler:    alertshttp.NewHandler(logger, alertService),
		AssistantHandler: assistanthttp.NewHandler(logger, responder),
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
