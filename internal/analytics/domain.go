package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// Granularity selects the bucket width of a sales series.
type Granularity string

// Supported granularities.
const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// DefaultWindow is the stats range used when no start is given.
const DefaultWindow = 90 * 24 * time.Hour

// ErrInvalidFilter is returned for malformed stats filters.
var ErrInvalidFilter = fmt.Errorf("invalid stats filter: %w", httpx.ErrValidation)

// ParseGranularity maps a query value onto a Granularity; empty means weekly.
func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return Weekly, nil
	case Daily, Weekly, Monthly, Yearly:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidFilter, raw)
	}
}

// StatsFilter scopes a dashboard statistics query.
type StatsFilter struct {
	Granularity Granularity
	ProductID   string
	Start       time.Time
	End         time.Time
}

// Fact is one sale as seen by the analytics queries.
type Fact struct {
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	Date        time.Time `json:"date"`
	UnitsSold   int       `json:"unitsSold"`
	Revenue     float64   `json:"revenue"`
}

// SeriesPoint is one bucket of a sales series.
type SeriesPoint struct {
	Date    string  `json:"date"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

// StatsSummary carries the dashboard KPIs for a range.
type StatsSummary struct {
	TotalUnits     int         `json:"totalUnits"`
	TotalRevenue   float64     `json:"totalRevenue"`
	AvgUnitPrice   float64     `json:"avgUnitPrice"`
	UniqueProducts int         `json:"uniqueProducts"`
	PeriodStart    time.Time   `json:"periodStart"`
	PeriodEnd      time.Time   `json:"periodEnd"`
	Granularity    Granularity `json:"granularity"`
}

// SalesStats is the payload of the stats endpoint.
type SalesStats struct {
	Series  []SeriesPoint `json:"series"`
	Summary StatsSummary  `json:"summary"`
}

// ProductPerformance ranks a product over a period.
type ProductPerformance struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Revenue   float64 `json:"revenue"`
	Units     int     `json:"units"`
}

// PeriodSummary aggregates every sale since a point in time.
type PeriodSummary struct {
	Revenue       float64 `json:"revenue"`
	Units         int     `json:"units"`
	Transactions  int     `json:"transactions"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

// SaleExportRow is one sale joined with its product for export.
type SaleExportRow struct {
	Date      time.Time `json:"date"`
	Product   string    `json:"product"`
	SKU       string    `json:"sku"`
	Category  string    `json:"category"`
	UnitsSold int       `json:"unitsSold"`
	Revenue   float64   `json:"revenue"`
}

// UnitPrice is revenue per unit; ok is false when no units were sold.
func (r SaleExportRow) UnitPrice() (float64, bool) {
	if r.UnitsSold == 0 {
		return 0, false
	}
	return r.Revenue / float64(r.UnitsSold), true
}

// ProductExportRow is one active product for export.
type ProductExportRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SKU             string    `json:"sku"`
	Category        string    `json:"category"`
	InventoryOnHand int       `json:"inventoryOnHand"`
	Cost            string    `json:"cost"`
	Price           string    `json:"price"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
