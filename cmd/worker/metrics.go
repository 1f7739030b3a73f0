package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/balancesheet/balancesheet/internal/observability"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// newMetricsServer exposes the worker registry for Prometheus scrapes.
func newMetricsServer(addr string, metrics *observability.Metrics) *http.Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
