package forecasthttp

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/balancesheet/balancesheet/internal/forecast"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// ForecastService runs a forecasting request.
type ForecastService interface {
	Run(ctx context.Context, req forecast.Request) (forecast.Result, error)
}

// Defaults are the parameter values used when the query omits them.
type Defaults struct {
	GrowthRate float64
	Periods    int
}

// Handler serves GET /api/forecast.
type Handler struct {
	logger   *slog.Logger
	service  ForecastService
	defaults Defaults
}

// NewHandler builds the handler. A negative growth rate or non-positive period count
// falls back to the package defaults; a zero growth rate is kept.
func NewHandler(logger *slog.Logger, service ForecastService, defaults Defaults) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.GrowthRate < 0 || math.IsNaN(defaults.GrowthRate) {
		defaults.GrowthRate = forecast.DefaultGrowthRate
	}
	if defaults.Periods <= 0 {
		defaults.Periods = forecast.DefaultPeriods
	}
	return &Handler{logger: logger, service: service, defaults: defaults}
}

// MountRoutes registers the forecast route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/forecast", h.handleForecast)
}

type forecastQuery struct {
	Method     string  `validate:"omitempty,oneof=formula ma linear"`
	ProductID  string  `validate:"omitempty,max=64"`
	GrowthRate float64 `validate:"gte=0,lte=10"`
	Periods    int     `validate:"gte=1,lte=6"`
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		var qErr queryError
		if errors.As(err, &qErr) {
			httpx.ValidationProblem(w, "invalid forecast query", map[string]string{qErr.field: qErr.msg})
			return
		}
		httpx.ValidationProblem(w, "invalid forecast query", httpx.ValidationFields(err))
		return
	}
	method, _ := forecast.ParseMethod(q.Method)

	result, err := h.service.Run(r.Context(), forecast.Request{
		Method:     method,
		ProductID:  q.ProductID,
		GrowthRate: q.GrowthRate,
		Periods:    q.Periods,
	})
	if err != nil {
		if errors.Is(err, forecast.ErrUnknownMethod) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("run forecast", slog.String("method", string(method)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"forecast": result})
}

func (h *Handler) parseQuery(r *http.Request) (forecastQuery, error) {
	values := r.URL.Query()
	q := forecastQuery{
		Method:     strings.ToLower(strings.TrimSpace(values.Get("method"))),
		ProductID:  strings.TrimSpace(values.Get("productId")),
		GrowthRate: h.defaults.GrowthRate,
		Periods:    h.defaults.Periods,
	}
	if raw := strings.TrimSpace(values.Get("growth")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return q, fieldError("growth", "must be a finite number")
		}
		q.GrowthRate = v
	}
	if raw := strings.TrimSpace(values.Get("periods")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, fieldError("periods", "must be an integer")
		}
		q.Periods = v
	}
	if err := httpx.Validator.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

type queryError struct {
	field, msg string
}

func (e queryError) Error() string { return e.field + " " + e.msg }

func fieldError(field, msg string) error { return queryError{field: field, msg: msg} }
