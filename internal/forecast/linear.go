package forecast

import (
	"fmt"
	"math"
	"strings"
)

// fit is an ordinary least-squares line y = Slope·x + Intercept.
type fit struct {
	Slope     float64
	Intercept float64
}

func (f fit) at(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// leastSquares fits ys against x = 0..n-1.
func leastSquares(ys []float64) fit {
	n := float64(len(ys))
	if n == 0 {
		return fit{}
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	return fit{Slope: slope, Intercept: (sumY - slope*sumX) / n}
}

// rSquared is 1 - SS_residual/SS_total. A flat series that the line reproduces
// exactly counts as a perfect fit.
func rSquared(ys []float64, f fit) float64 {
	if len(ys) == 0 {
		return 0
	}
	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	var ssTotal, ssResidual float64
	for i, y := range ys {
		ssTotal += (y - mean) * (y - mean)
		r := y - f.at(float64(i))
		ssResidual += r * r
	}
	if ssTotal == 0 {
		if ssResidual < 1e-12 {
			return 1
		}
		return 0
	}
	return 1 - ssResidual/ssTotal
}

// Linear fits separate trend lines for units and revenue over the aggregated months
// and evaluates them one period past the last month.
func Linear(months []MonthlyAggregate) Result {
	if len(months) < MinRegressionPeriods {
		return Result{
			Method:      MethodLinear,
			UsedPeriods: len(months),
			Explanation: fmt.Sprintf("Insufficient data for linear regression. Need at least %d months of data, found %d.", MinRegressionPeriods, len(months)),
		}
	}

	n := len(months)
	units := make([]float64, n)
	revenue := make([]float64, n)
	for i, m := range months {
		units[i] = float64(m.Units)
		revenue[i] = m.Revenue
	}

	unitFit := leastSquares(units)
	revenueFit := leastSquares(revenue)
	predictedUnits := unitFit.at(float64(n))
	predictedRevenue := revenueFit.at(float64(n))
	r2 := rSquared(units, unitFit)
	margin := math.Abs(predictedUnits * (1 - r2) * 0.5)

	quality := "Lower R² suggests more variability in the data, so treat the trend as variable."
	if r2 > strongFitThreshold {
		quality = "High R² indicates a strong fit and good predictive power."
	}

	var b strings.Builder
	b.WriteString("Linear Regression Forecast:\n\n")
	fmt.Fprintf(&b, "Using least-squares method on %d months of data:\n", n)
	b.WriteString("- Equation: y = mx + b\n")
	fmt.Fprintf(&b, "- Slope (m): %.2f units/month\n", unitFit.Slope)
	fmt.Fprintf(&b, "- Intercept (b): %.2f\n", unitFit.Intercept)
	fmt.Fprintf(&b, "- R² (fit quality): %.1f%%\n\n", r2*100)
	b.WriteString("Prediction for next period:\n")
	fmt.Fprintf(&b, "- Units = %.2f × %d + %.2f = %d units\n", unitFit.Slope, n, unitFit.Intercept, roundUnits(predictedUnits))
	fmt.Fprintf(&b, "- Revenue = $%s\n\n", formatMoney(predictedRevenue))
	fmt.Fprintf(&b, "This method identifies the trend line through historical data. %s", quality)

	return Result{
		Method:              MethodLinear,
		UsedPeriods:         n,
		PreviousPeriodSales: months[n-1].Units,
		Prediction: Prediction{
			Units:   max(0, roundUnits(predictedUnits)),
			Revenue: math.Max(0, roundCents(predictedRevenue)),
		},
		Confidence: Confidence{
			Low:  max(0, roundUnits(predictedUnits-margin)),
			High: roundUnits(predictedUnits + margin),
		},
		Explanation: b.String(),
	}
}
