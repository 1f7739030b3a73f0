package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balancesheet/balancesheet/internal/catalog"
)

const (
	historyMonths  = 6
	saleDayChance  = 0.7
	dormantDays    = 40
	growthOverSpan = 0.5
)

type demoProduct struct {
	Name          string
	SKU           string
	Category      string
	Inventory     int
	Cost          decimal.Decimal
	Price         decimal.Decimal
	AvgDailySales float64
	Variance      float64
	// Dormant products stop selling dormantDays before now.
	Dormant bool
	// Growing products ramp up sales by growthOverSpan across the history.
	Growing bool
}

var demoProducts = []demoProduct{
	{Name: "Wireless Headphones", SKU: "WH-001", Category: "Electronics", Inventory: 25, Cost: decimal.RequireFromString("45.00"), Price: decimal.RequireFromString("89.99"), AvgDailySales: 3, Variance: 1.5},
	{Name: "Yoga Mat", SKU: "YM-002", Category: "Fitness", Inventory: 180, Cost: decimal.RequireFromString("12.00"), Price: decimal.RequireFromString("29.99"), AvgDailySales: 5, Variance: 2},
	{Name: "Stainless Steel Water Bottle", SKU: "WB-003", Category: "Accessories", Inventory: 450, Cost: decimal.RequireFromString("8.00"), Price: decimal.RequireFromString("24.99"), AvgDailySales: 4, Variance: 2},
	{Name: "LED Desk Lamp", SKU: "DL-004", Category: "Home Office", Inventory: 95, Cost: decimal.RequireFromString("18.00"), Price: decimal.RequireFromString("39.99"), AvgDailySales: 2, Variance: 1},
	{Name: "Bluetooth Speaker", SKU: "BS-005", Category: "Electronics", Inventory: 15, Cost: decimal.RequireFromString("35.00"), Price: decimal.RequireFromString("79.99"), AvgDailySales: 6, Variance: 2},
	{Name: "Running Shoes", SKU: "RS-006", Category: "Footwear", Inventory: 75, Cost: decimal.RequireFromString("40.00"), Price: decimal.RequireFromString("99.99"), AvgDailySales: 3, Variance: 1.5},
	{Name: "Coffee Maker", SKU: "CM-007", Category: "Kitchen", Inventory: 10, Cost: decimal.RequireFromString("55.00"), Price: decimal.RequireFromString("129.99"), AvgDailySales: 0.5, Variance: 0.5, Dormant: true},
	{Name: "Backpack", SKU: "BP-008", Category: "Bags", Inventory: 120, Cost: decimal.RequireFromString("25.00"), Price: decimal.RequireFromString("59.99"), AvgDailySales: 7, Variance: 3, Growing: true},
}

func (d demoProduct) product(id string, now time.Time) catalog.Product {
	sku, category := d.SKU, d.Category
	return catalog.Product{
		ID:              id,
		Name:            d.Name,
		SKU:             &sku,
		Category:        &category,
		InventoryOnHand: d.Inventory,
		Cost:            decimal.NewNullDecimal(d.Cost),
		Price:           decimal.NewNullDecimal(d.Price),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// generateSales produces one optional sale per day over the last six months.
func generateSales(d demoProduct, productID string, rng *rand.Rand, now time.Time) []catalog.SaleRecord {
	start := now.AddDate(0, -historyMonths, 0)
	lastSaleDay := now
	if d.Dormant {
		lastSaleDay = now.AddDate(0, 0, -dormantDays)
	}
	span := now.Sub(start).Hours() / 24

	var out []catalog.SaleRecord
	for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
		if rng.Float64() >= saleDayChance || day.After(lastSaleDay) {
			continue
		}
		units := int(math.Max(0, math.Round(d.AvgDailySales+(rng.Float64()-0.5)*2*d.Variance)))
		if units == 0 {
			continue
		}
		if d.Growing {
			elapsed := math.Floor(day.Sub(start).Hours() / 24)
			units = int(math.Round(float64(units) * (1 + elapsed/span*growthOverSpan)))
		}
		revenue, _ := d.Price.Mul(decimal.NewFromInt(int64(units))).Float64()
		out = append(out, catalog.SaleRecord{
			ProductID: productID,
			Date:      day,
			UnitsSold: units,
			Revenue:   revenue,
		})
	}
	return out
}
