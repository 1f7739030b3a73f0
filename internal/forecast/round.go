package forecast

import (
	"math"

	"github.com/shopspring/decimal"
)

// roundUnits rounds half up (toward positive infinity), so -2.5 becomes -2.
func roundUnits(v float64) int {
	return int(math.Floor(v + 0.5))
}

// money converts an amount to a decimal. decimal panics on non-finite floats, so
// NaN becomes zero and infinities saturate at the largest float64.
func money(v float64) decimal.Decimal {
	switch {
	case math.IsNaN(v):
		return decimal.Zero
	case math.IsInf(v, 1):
		v = math.MaxFloat64
	case math.IsInf(v, -1):
		v = -math.MaxFloat64
	}
	return decimal.NewFromFloat(v)
}

// roundCents rounds a money amount to two decimal places.
func roundCents(v float64) float64 {
	return money(v).Round(2).InexactFloat64()
}

// formatMoney renders an amount with exactly two decimals.
func formatMoney(v float64) string {
	return money(v).StringFixed(2)
}
