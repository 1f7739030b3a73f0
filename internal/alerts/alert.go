package alerts

import (
	"sort"
	"time"
)

// Type classifies an alert's severity or origin.
type Type string

// Supported alert types.
const (
	TypeCritical Type = "critical"
	TypeWarning  Type = "warning"
	TypeInfo     Type = "info"
	TypeNews     Type = "news"
)

// Alert is a derived notification. IDs are stable for a given condition and product
// so clients can de-duplicate across polls.
type Alert struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	ProductID string    `json:"productId,omitempty"`
}

// Merge concatenates inventory alerts with any external alert sources and orders the
// result by timestamp, newest first. Alerts with equal timestamps keep their input
// order.
func Merge(inventory []Alert, external ...[]Alert) []Alert {
	size := len(inventory)
	for _, src := range external {
		size += len(src)
	}
	merged := make([]Alert, 0, size)
	merged = append(merged, inventory...)
	for _, src := range external {
		merged = append(merged, src...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return merged
}

// CountByType tallies alerts per type.
func CountByType(list []Alert) map[Type]int {
	counts := make(map[Type]int, 4)
	for _, a := range list {
		counts[a.Type]++
	}
	return counts
}
