package alertshttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balancesheet/balancesheet/internal/alerts"
)

type stubService struct {
	list []alerts.Alert
	err  error
}

func (s stubService) All(context.Context) ([]alerts.Alert, error) { return s.list, s.err }

func get(t *testing.T, svc AlertService) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	return rec
}

func TestListAlerts(t *testing.T) {
	at := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	rec := get(t, stubService{list: []alerts.Alert{
		{ID: "critical-p1", Type: alerts.TypeCritical, Title: "Critical: Low Stock - Mug", Timestamp: at, ProductID: "p1"},
		{ID: "news-1-0", Type: alerts.TypeNews, Title: "Supply Chain Alert", Timestamp: at},
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Alerts []map[string]any `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 2)
	assert.Equal(t, "critical", body.Alerts[0]["type"])
	assert.Equal(t, "p1", body.Alerts[0]["productId"])
	_, hasProduct := body.Alerts[1]["productId"]
	assert.False(t, hasProduct)
}

func TestListAlertsEmpty(t *testing.T) {
	rec := get(t, stubService{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"alerts":[]}`, rec.Body.String())
}

func TestListAlertsFailure(t *testing.T) {
	rec := get(t, stubService{err: errors.New("catalog offline")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
