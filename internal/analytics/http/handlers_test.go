package analytichttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/balancesheet/balancesheet/internal/analytics"
)

type stubService struct {
	stats      analytics.SalesStats
	err        error
	lastFilter analytics.StatsFilter
	sales      []analytics.SaleExportRow
	products   []analytics.ProductExportRow
}

func (s *stubService) GetSalesStats(_ context.Context, filter analytics.StatsFilter) (analytics.SalesStats, error) {
	s.lastFilter = filter
	return s.stats, s.err
}

func (s *stubService) ExportSales(context.Context) ([]analytics.SaleExportRow, error) {
	return s.sales, s.err
}

func (s *stubService) ExportProducts(context.Context) ([]analytics.ProductExportRow, error) {
	return s.products, s.err
}

func serve(t *testing.T, svc AnalyticsService, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStatsParsesFilters(t *testing.T) {
	svc := &stubService{stats: analytics.SalesStats{Series: []analytics.SeriesPoint{{Date: "2024-01", Units: 3, Revenue: 9}}}}
	rec := serve(t, svc, "/api/stats?granularity=monthly&productId=p1&start=2024-01-01&end=2024-03-31T23:59:59Z")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastFilter.Granularity != analytics.Monthly || svc.lastFilter.ProductID != "p1" {
		t.Fatalf("unexpected filter %+v", svc.lastFilter)
	}
	if !svc.lastFilter.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", svc.lastFilter.Start)
	}
	var body analytics.SalesStats
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Series) != 1 || body.Series[0].Units != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestStatsRejectsBadInput(t *testing.T) {
	for _, target := range []string{
		"/api/stats?granularity=hourly",
		"/api/stats?start=yesterday",
		"/api/stats?end=2024-13-01",
	} {
		rec := serve(t, &stubService{}, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestStatsServiceFailure(t *testing.T) {
	rec := serve(t, &stubService{err: errors.New("db down")}, "/api/stats")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestExportSalesCSV(t *testing.T) {
	svc := &stubService{sales: []analytics.SaleExportRow{{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Product: "Mug", UnitsSold: 2, Revenue: 9}}}
	rec := serve(t, svc, "/api/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="sales-export.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 || records[1][6] != "4.50" {
		t.Fatalf("unexpected csv %v", records)
	}
}

func TestExportJSONVariants(t *testing.T) {
	svc := &stubService{
		sales:    []analytics.SaleExportRow{{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Product: "Free", UnitsSold: 0}},
		products: []analytics.ProductExportRow{{ID: "p", Name: "Mug"}},
	}
	rec := serve(t, svc, "/api/export?format=json&type=sales")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"unitPrice":null`) {
		t.Fatalf("unexpected sales json %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, svc, "/api/export?format=json&type=products")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"products":[`) {
		t.Fatalf("unexpected products json %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, svc, "/api/export?type=products")
	if rec.Header().Get("Content-Disposition") != `attachment; filename="products.csv"` {
		t.Fatalf("expected products csv, got %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestExportRejectsUnknownParams(t *testing.T) {
	for _, target := range []string{"/api/export?format=xml", "/api/export?type=customers"} {
		rec := serve(t, &stubService{}, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}
