package forecast

import (
	"fmt"
	"strconv"
	"strings"
)

// Formula projects the most recent month forward with a constant growth rate:
// forecast = previous period × (1 + growthRate).
func Formula(months []MonthlyAggregate, growthRate float64) Result {
	if len(months) == 0 {
		return Result{
			Method:      MethodFormula,
			Explanation: "No sales data available for forecasting.",
		}
	}

	last := months[len(months)-1]
	predictedUnits := float64(last.Units) * (1 + growthRate)
	predictedRevenue := last.Revenue * (1 + growthRate)
	units := roundUnits(predictedUnits)

	rate := strconv.FormatFloat(growthRate, 'f', -1, 64)
	ratePct := fmt.Sprintf("%.1f%%", growthRate*100)

	var b strings.Builder
	b.WriteString("Formula-based forecast: Forecast = Previous Period Sales × (1 + Growth Rate)\n\n")
	b.WriteString("Calculation:\n")
	fmt.Fprintf(&b, "- Previous Period Sales: %d units\n", last.Units)
	fmt.Fprintf(&b, "- Growth Rate: %s\n", ratePct)
	fmt.Fprintf(&b, "- Forecast = %d × (1 + %s) = %d units\n", last.Units, rate, units)
	fmt.Fprintf(&b, "- Revenue Forecast = $%s × (1 + %s) = $%s\n\n", formatMoney(last.Revenue), rate, formatMoney(predictedRevenue))
	fmt.Fprintf(&b, "This assumes sales will grow at a constant rate of %s based on the most recent month's performance.", ratePct)

	return Result{
		Method:              MethodFormula,
		UsedPeriods:         len(months),
		PreviousPeriodSales: last.Units,
		Prediction: Prediction{
			Units:   units,
			Revenue: roundCents(predictedRevenue),
		},
		Confidence: Confidence{
			Low:  roundUnits(predictedUnits * (1 - formulaConfidenceBand)),
			High: roundUnits(predictedUnits * (1 + formulaConfidenceBand)),
		},
		Explanation: b.String(),
	}
}
