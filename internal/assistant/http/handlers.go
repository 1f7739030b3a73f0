package assistanthttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/balancesheet/balancesheet/internal/assistant"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

const messagesPerMinute = 30

// Responder answers a chat message.
type Responder interface {
	Respond(ctx context.Context, message string) (assistant.Reply, error)
}

// Handler serves POST /api/assistant.
type Handler struct {
	logger    *slog.Logger
	responder Responder
}

// NewHandler builds the assistant handler.
func NewHandler(logger *slog.Logger, responder Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, responder: responder}
}

// MountRoutes registers the assistant route behind a per-IP limiter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(messagesPerMinute, time.Minute)).Post("/api/assistant", h.handleMessage)
}

type messageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := httpx.Validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, "message is required", httpx.ValidationFields(err))
		return
	}

	reply, err := h.responder.Respond(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("assistant respond", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), "failed to process request")
		return
	}
	httpx.JSON(w, http.StatusOK, reply)
}
