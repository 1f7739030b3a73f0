package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	alertshttp "github.com/balancesheet/balancesheet/internal/alerts/http"
	analytichttp "github.com/balancesheet/balancesheet/internal/analytics/http"
	assistanthttp "github.com/balancesheet/balancesheet/internal/assistant/http"
	cataloghttp "github.com/balancesheet/balancesheet/internal/catalog/http"
	forecasthttp "github.com/balancesheet/balancesheet/internal/forecast/http"
	"github.com/balancesheet/balancesheet/internal/observability"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
	saleshttp "github.com/balancesheet/balancesheet/internal/sales/http"
	"github.com/balancesheet/balancesheet/jobs"
)

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Checks  map[string]ReadinessCheck

	CatalogHandler   *cataloghttp.Handler
	SalesHandler     *saleshttp.Handler
	AnalyticsHandler *analytichttp.Handler
	ForecastHandler  *forecasthttp.Handler
	AlertsHandler    *alertshttp.Handler
	AssistantHandler *assistanthttp.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Checks))

	if params.CatalogHandler != nil {
		params.CatalogHandler.MountRoutes(r)
	}
	if params.SalesHandler != nil {
		params.SalesHandler.MountRoutes(r)
	}
	if params.AnalyticsHandler != nil {
		params.AnalyticsHandler.MountRoutes(r)
	}
	if params.ForecastHandler != nil {
		params.ForecastHandler.MountRoutes(r)
	}
	if params.AlertsHandler != nil {
		params.AlertsHandler.MountRoutes(r)
	}
	if params.AssistantHandler != nil {
		params.AssistantHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func readinessHandler(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				if logger != nil {
					logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
				}
				result[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "ok"
		}
		httpx.JSON(w, status, result)
	}
}
