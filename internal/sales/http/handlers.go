package saleshttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/balancesheet/balancesheet/internal/platform/httpx"
	"github.com/balancesheet/balancesheet/internal/sales"
)

// BatchService records bulk sales uploads.
type BatchService interface {
	PostBatch(ctx context.Context, rows []json.RawMessage) (sales.BatchResult, error)
}

// Handler serves the sales entry endpoints.
type Handler struct {
	logger  *slog.Logger
	service BatchService
}

// NewHandler constructs the sales HTTP handler.
func NewHandler(logger *slog.Logger, service BatchService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/api/sales/batch", h.handleBatch)
}

type batchRequest struct {
	Rows *[]json.RawMessage `json:"rows"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Rows == nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request format, expected {\"rows\": [...]}")
		return
	}
	result, err := h.service.PostBatch(r.Context(), *req.Rows)
	if err != nil {
		h.logger.Error("post sales batch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"results": result})
}
