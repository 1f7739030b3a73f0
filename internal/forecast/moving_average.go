package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MovingAverage averages the most recent periods months. The confidence band is the
// mean plus or minus the population standard deviation of units; the low bound is
// not clamped at zero.
func MovingAverage(months []MonthlyAggregate, periods int) Result {
	if periods < 1 {
		periods = DefaultPeriods
	}
	if len(months) < periods {
		return Result{
			Method:      MethodMovingAverage,
			UsedPeriods: len(months),
			Explanation: fmt.Sprintf("Insufficient data for %d-period moving average. Need at least %d months of data, found %d.", periods, periods, len(months)),
		}
	}

	recent := months[len(months)-periods:]
	var sumUnits, sumRevenue float64
	for _, m := range recent {
		sumUnits += float64(m.Units)
		sumRevenue += m.Revenue
	}
	avgUnits := sumUnits / float64(periods)
	avgRevenue := sumRevenue / float64(periods)

	var squares float64
	for _, m := range recent {
		diff := float64(m.Units) - avgUnits
		squares += diff * diff
	}
	stdDev := math.Sqrt(squares / float64(periods))

	var b strings.Builder
	fmt.Fprintf(&b, "Moving Average Forecast (%d periods):\n\nCalculation:\n", periods)
	terms := make([]string, 0, len(recent))
	for i, m := range recent {
		fmt.Fprintf(&b, "- Month %d (%s): %d units, $%s\n", i+1, m.Label(), m.Units, formatMoney(m.Revenue))
		terms = append(terms, strconv.Itoa(m.Units))
	}
	fmt.Fprintf(&b, "\nAverage = (%s) / %d = %d units\n", strings.Join(terms, " + "), periods, roundUnits(avgUnits))
	fmt.Fprintf(&b, "Revenue Average = $%s\n", formatMoney(avgRevenue))
	fmt.Fprintf(&b, "Standard Deviation = %.2f units\n\n", stdDev)
	fmt.Fprintf(&b, "This method smooths out short-term fluctuations by averaging the last %d months of sales.", periods)

	return Result{
		Method:              MethodMovingAverage,
		UsedPeriods:         periods,
		PreviousPeriodSales: months[len(months)-1].Units,
		Prediction: Prediction{
			Units:   roundUnits(avgUnits),
			Revenue: roundCents(avgRevenue),
		},
		Confidence: Confidence{
			Low:  roundUnits(avgUnits - stdDev),
			High: roundUnits(avgUnits + stdDev),
		},
		Explanation: b.String(),
	}
}
