package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BucketKey labels t for the given granularity. Weeks start on Sunday.
func BucketKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Weekly:
		start := time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// BuildSalesStats buckets facts and computes the range summary. Facts outside the
// filter range are expected to be excluded by the caller.
func BuildSalesStats(facts []Fact, filter StatsFilter) SalesStats {
	type bucket struct {
		units   int
		revenue float64
	}
	buckets := make(map[string]*bucket)
	products := make(map[string]struct{})
	var totalUnits int
	var totalRevenue float64

	for _, f := range facts {
		key := BucketKey(f.Date, filter.Granularity)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.units += f.UnitsSold
		b.revenue += f.Revenue
		totalUnits += f.UnitsSold
		totalRevenue += f.Revenue
		products[f.ProductID] = struct{}{}
	}

	series := make([]SeriesPoint, 0, len(buckets))
	for key, b := range buckets {
		series = append(series, SeriesPoint{Date: key, Units: b.units, Revenue: roundCents(b.revenue)})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	var avg float64
	if totalUnits > 0 {
		avg = totalRevenue / float64(totalUnits)
	}
	return SalesStats{
		Series: series,
		Summary: StatsSummary{
			TotalUnits:     totalUnits,
			TotalRevenue:   roundCents(totalRevenue),
			AvgUnitPrice:   roundCents(avg),
			UniqueProducts: len(products),
			PeriodStart:    filter.Start,
			PeriodEnd:      filter.End,
			Granularity:    filter.Granularity,
		},
	}
}

// RankProducts totals revenue and units per product and returns the top limit by
// revenue. limit <= 0 returns every product.
func RankProducts(facts []Fact, limit int) []ProductPerformance {
	byID := make(map[string]*ProductPerformance)
	for _, f := range facts {
		p, ok := byID[f.ProductID]
		if !ok {
			p = &ProductPerformance{ProductID: f.ProductID, Name: f.ProductName}
			byID[f.ProductID] = p
		}
		p.Revenue += f.Revenue
		p.Units += f.UnitsSold
	}
	out := make([]ProductPerformance, 0, len(byID))
	for _, p := range byID {
		p.Revenue = roundCents(p.Revenue)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarise totals facts into a PeriodSummary.
func Summarise(facts []Fact) PeriodSummary {
	var s PeriodSummary
	for _, f := range facts {
		s.Revenue += f.Revenue
		s.Units += f.UnitsSold
	}
	s.Transactions = len(facts)
	s.AvgOrderValue = roundCents(s.Revenue / float64(max(s.Transactions, 1)))
	s.Revenue = roundCents(s.Revenue)
	return s
}
