package alertshttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/balancesheet/balancesheet/internal/alerts"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// AlertService returns the merged alert list.
type AlertService interface {
	All(ctx context.Context) ([]alerts.Alert, error)
}

// Handler serves GET /api/alerts.
type Handler struct {
	logger  *slog.Logger
	service AlertService
}

// NewHandler builds the alerts handler.
func NewHandler(logger *slog.Logger, service AlertService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the alerts route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/alerts", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.All(r.Context())
	if err != nil {
		h.logger.Error("list alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []alerts.Alert{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alerts": list})
}
