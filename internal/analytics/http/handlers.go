package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/balancesheet/balancesheet/internal/analytics"
	"github.com/balancesheet/balancesheet/internal/analytics/export"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	GetSalesStats(ctx context.Context, filter analytics.StatsFilter) (analytics.SalesStats, error)
	ExportSales(ctx context.Context) ([]analytics.SaleExportRow, error)
	ExportProducts(ctx context.Context) ([]analytics.ProductExportRow, error)
}

// Handler coordinates HTTP requests for dashboard statistics and exports.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	csvPool sync.Pool
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	h := &Handler{logger: logger, service: service}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseStatsFilter(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	stats, err := h.service.GetSalesStats(ctx, filter)
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			httpx.RespondError(w, err)
			return
		}
		h.handleServerError(w, "load stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = "csv"
	}
	kind := strings.ToLower(strings.TrimSpace(query.Get("type")))
	if kind == "" {
		kind = "sales"
	}
	if format != "csv" && format != "json" {
		h.handleFilterError(w, validationError{field: "format"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch kind {
	case "products":
		rows, err := h.service.ExportProducts(ctx)
		if err != nil {
			h.handleServerError(w, "export products", err)
			return
		}
		if format == "json" {
			httpx.JSON(w, http.StatusOK, map[string]any{"products": nonNil(rows)})
			return
		}
		h.writeCSV(w, "products.csv", func(buf *bytes.Buffer) error { return export.WriteProductsCSV(buf, rows) })
	case "sales":
		rows, err := h.service.ExportSales(ctx)
		if err != nil {
			h.handleServerError(w, "export sales", err)
			return
		}
		if format == "json" {
			httpx.JSON(w, http.StatusOK, map[string]any{"data": salesJSON(rows)})
			return
		}
		h.writeCSV(w, "sales-export.csv", func(buf *bytes.Buffer) error { return export.WriteSalesCSV(buf, rows) })
	default:
		h.handleFilterError(w, validationError{field: "type"})
	}
}

type saleJSON struct {
	Date      string   `json:"date"`
	Product   string   `json:"product"`
	SKU       string   `json:"sku"`
	Category  string   `json:"category"`
	UnitsSold int      `json:"unitsSold"`
	Revenue   float64  `json:"revenue"`
	UnitPrice *float64 `json:"unitPrice"`
}

func salesJSON(rows []analytics.SaleExportRow) []saleJSON {
	out := make([]saleJSON, 0, len(rows))
	for _, row := range rows {
		item := saleJSON{
			Date:      row.Date.UTC().Format("2006-01-02"),
			Product:   row.Product,
			SKU:       row.SKU,
			Category:  row.Category,
			UnitsSold: row.UnitsSold,
			Revenue:   row.Revenue,
		}
		if price, ok := row.UnitPrice(); ok {
			item.UnitPrice = &price
		}
		out = append(out, item)
	}
	return out
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func parseStatsFilter(r *http.Request) (analytics.StatsFilter, error) {
	query := r.URL.Query()
	granularity, err := analytics.ParseGranularity(query.Get("granularity"))
	if err != nil {
		return analytics.StatsFilter{}, validationError{field: "granularity"}
	}
	filter := analytics.StatsFilter{
		Granularity: granularity,
		ProductID:   strings.TrimSpace(query.Get("productId")),
	}
	if raw := strings.TrimSpace(query.Get("start")); raw != "" {
		if filter.Start, err = parseTime(raw); err != nil {
			return analytics.StatsFilter{}, validationError{field: "start"}
		}
	}
	if raw := strings.TrimSpace(query.Get("end")); raw != "" {
		if filter.End, err = parseTime(raw); err != nil {
			return analytics.StatsFilter{}, validationError{field: "end"}
		}
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", vErr.Error())
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.Problem(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), "")
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}
