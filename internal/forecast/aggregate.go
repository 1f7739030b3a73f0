package forecast

import (
	"sort"
	"time"
)

// WindowStart returns the first instant included in a lookback of the given months,
// counted from the start of the current calendar month.
func WindowStart(now time.Time, lookbackMonths int) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()-time.Month(lookbackMonths), 1, 0, 0, 0, 0, time.UTC)
}

// AggregateMonthly groups facts into per-calendar-month totals. Only months with at
// least one matching fact are returned, ordered by month ascending. An empty
// productID keeps facts of every product.
func AggregateMonthly(facts []SaleFact, productID string, lookbackMonths int, now time.Time) []MonthlyAggregate {
	start := WindowStart(now, lookbackMonths)
	buckets := make(map[time.Time]*MonthlyAggregate)
	for _, fact := range facts {
		if productID != "" && fact.ProductID != productID {
			continue
		}
		date := fact.Date.UTC()
		if date.Before(start) {
			continue
		}
		key := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &MonthlyAggregate{Month: key}
			buckets[key] = bucket
		}
		bucket.Units += fact.UnitsSold
		bucket.Revenue += fact.Revenue
	}

	months := make([]MonthlyAggregate, 0, len(buckets))
	for _, bucket := range buckets {
		months = append(months, *bucket)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}
