package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// exportRequestsPerMinute bounds export downloads per client IP.
const exportRequestsPerMinute = 10

// MountRoutes registers dashboard analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportRequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "export rate limit exceeded")
		}),
	)

	r.Get("/api/stats", h.handleStats)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/api/export", h.handleExport)
	})
}
