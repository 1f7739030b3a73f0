package alerts

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	recentWindowDays      = 30
	historyWindowDays     = 60
	criticalDaysLeft      = 10.0
	overstockPercentile   = 0.9
	overstockFallback     = 1000
	overstockMinInventory = 100
	velocityGrowth        = 0.3
	staleDisplayCapDays   = 30
	noSaleSentinelDays    = 999
)

// ProductSnapshot is the catalog state the engine reads for one active product.
type ProductSnapshot struct {
	ID              string
	Name            string
	InventoryOnHand int
}

// SaleEntry is one sale fact inside a product's history window.
type SaleEntry struct {
	Date      time.Time
	UnitsSold int
}

// ProductSales pairs an active product with its sales of the last 60 days.
type ProductSales struct {
	Product ProductSnapshot
	Sales   []SaleEntry
}

// HistoryStart is the earliest sale date the engine looks at.
func HistoryStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -historyWindowDays)
}

// OverstockThreshold returns the 90th percentile inventory level using a plain
// sorted-index lookup, or 1000 when there are no products.
func OverstockThreshold(products []ProductSales) int {
	if len(products) == 0 {
		return overstockFallback
	}
	levels := make([]int, len(products))
	for i, p := range products {
		levels[i] = p.Product.InventoryOnHand
	}
	sort.Ints(levels)
	return levels[int(math.Floor(float64(len(levels))*overstockPercentile))]
}

// ComputeInventoryAlerts scans every active product's recent sales against the
// catalog-wide inventory distribution. The returned slice is unordered; callers sort.
func ComputeInventoryAlerts(products []ProductSales, now time.Time) []Alert {
	threshold := OverstockThreshold(products)
	recentStart := now.AddDate(0, 0, -recentWindowDays)
	historyStart := HistoryStart(now)

	var out []Alert
	for _, ps := range products {
		p := ps.Product
		var last30, prev30 int
		var lastSale time.Time
		for _, sale := range ps.Sales {
			if sale.Date.Before(historyStart) {
				continue
			}
			if sale.Date.After(lastSale) {
				lastSale = sale.Date
			}
			if !sale.Date.Before(recentStart) {
				last30 += sale.UnitsSold
			} else {
				prev30 += sale.UnitsSold
			}
		}
		avgDailySales := float64(last30) / recentWindowDays

		if avgDailySales > 0 {
			daysLeft := float64(p.InventoryOnHand) / avgDailySales
			if daysLeft < criticalDaysLeft {
				out = append(out, Alert{
					ID:    "critical-" + p.ID,
					Type:  TypeCritical,
					Title: "Critical: Low Stock - " + p.Name,
					Message: fmt.Sprintf("Only %d days of inventory remaining (%d units). Avg daily sales: %.1f units.",
						int(math.Floor(daysLeft+0.5)), p.InventoryOnHand, avgDailySales),
					Timestamp: now,
					ProductID: p.ID,
				})
			}
		}

		if lastSale.IsZero() || lastSale.Before(recentStart) {
			daysSince := noSaleSentinelDays
			if !lastSale.IsZero() {
				daysSince = int(now.Sub(lastSale).Hours() / 24)
			}
			out = append(out, Alert{
				ID:    "warning-stale-" + p.ID,
				Type:  TypeWarning,
				Title: "Warning: No Recent Sales - " + p.Name,
				Message: fmt.Sprintf("No sales recorded in the last %d days. Current inventory: %d units.",
					min(daysSince, staleDisplayCapDays), p.InventoryOnHand),
				Timestamp: now,
				ProductID: p.ID,
			})
		}

		if p.InventoryOnHand > threshold && p.InventoryOnHand > overstockMinInventory {
			out = append(out, Alert{
				ID:    "warning-overstock-" + p.ID,
				Type:  TypeWarning,
				Title: "Warning: Overstock - " + p.Name,
				Message: fmt.Sprintf("Inventory (%d units) is in the top 10%% across all products. Consider promotions or discounts.",
					p.InventoryOnHand),
				Timestamp: now,
				ProductID: p.ID,
			})
		}

		if prev30 > 0 {
			growth := float64(last30-prev30) / float64(prev30)
			if growth > velocityGrowth {
				out = append(out, Alert{
					ID:    "info-velocity-" + p.ID,
					Type:  TypeInfo,
					Title: "High Growth: " + p.Name,
					Message: fmt.Sprintf("Sales increased by %.1f%% compared to previous period. Last 30 days: %d units, Previous: %d units.",
						growth*100, last30, prev30),
					Timestamp: now,
					ProductID: p.ID,
				})
			}
		}
	}
	return out
}
