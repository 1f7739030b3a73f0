package forecast

import (
	"math"
	"strings"
	"testing"
)

func monthsOf(units ...int) []MonthlyAggregate {
	months := make([]MonthlyAggregate, len(units))
	for i, u := range units {
		months[i] = MonthlyAggregate{Month: day(2024, 1, 1).AddDate(0, i, 0), Units: u, Revenue: float64(u) * 10}
	}
	return months
}

func TestFormulaNoData(t *testing.T) {
	res := Formula(nil, DefaultGrowthRate)
	if res.Method != MethodFormula || res.UsedPeriods != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Prediction != (Prediction{}) || res.Confidence != (Confidence{}) {
		t.Fatalf("expected zero prediction, got %+v", res)
	}
	if !strings.Contains(res.Explanation, "No sales data") {
		t.Fatalf("expected no-data explanation, got %q", res.Explanation)
	}
}

func TestFormulaProjectsLastMonth(t *testing.T) {
	months := []MonthlyAggregate{
		{Month: day(2024, 1, 1), Units: 100, Revenue: 1000},
		{Month: day(2024, 2, 1), Units: 120, Revenue: 1500.5},
	}
	res := Formula(months, 0.05)
	if res.UsedPeriods != 2 || res.PreviousPeriodSales != 120 {
		t.Fatalf("unexpected periods %+v", res)
	}
	if res.Prediction.Units != 126 {
		t.Fatalf("expected 126 units, got %d", res.Prediction.Units)
	}
	if math.Abs(res.Prediction.Revenue-1575.53) > 0.011 {
		t.Fatalf("unexpected revenue %.4f", res.Prediction.Revenue)
	}
	if res.Confidence.Low != 107 || res.Confidence.High != 145 {
		t.Fatalf("unexpected confidence %+v", res.Confidence)
	}
	if !strings.Contains(res.Explanation, "Forecast = 120 × (1 + 0.05) = 126 units") {
		t.Fatalf("explanation missing arithmetic: %q", res.Explanation)
	}
	if !strings.Contains(res.Explanation, "Growth Rate: 5.0%") {
		t.Fatalf("explanation missing rate: %q", res.Explanation)
	}
}

func TestFormulaZeroGrowthKeepsPreviousSales(t *testing.T) {
	res := Formula(monthsOf(12, 37), 0)
	if res.Prediction.Units != res.PreviousPeriodSales {
		t.Fatalf("expected prediction %d to equal previous %d", res.Prediction.Units, res.PreviousPeriodSales)
	}
	if res.Confidence.Low != 31 || res.Confidence.High != 43 {
		t.Fatalf("unexpected band %+v", res.Confidence)
	}
	if res.Prediction.Units-res.Confidence.Low != res.Confidence.High-res.Prediction.Units {
		t.Fatalf("expected symmetric band around %d: %+v", res.Prediction.Units, res.Confidence)
	}
}

func TestMovingAverageInsufficient(t *testing.T) {
	res := MovingAverage(monthsOf(10, 20), 3)
	if res.Method != MethodMovingAverage || res.UsedPeriods != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Prediction != (Prediction{}) || res.PreviousPeriodSales != 0 {
		t.Fatalf("expected zero prediction, got %+v", res)
	}
	if !strings.Contains(res.Explanation, "Insufficient data for 3-period moving average") {
		t.Fatalf("unexpected explanation %q", res.Explanation)
	}
}

func TestMovingAverageUsesRecentWindow(t *testing.T) {
	res := MovingAverage(monthsOf(10, 20, 30, 40), 3)
	if res.UsedPeriods != 3 || res.PreviousPeriodSales != 40 {
		t.Fatalf("unexpected periods %+v", res)
	}
	if res.Prediction.Units != 30 || res.Prediction.Revenue != 300 {
		t.Fatalf("unexpected prediction %+v", res.Prediction)
	}
	if res.Confidence.Low != 22 || res.Confidence.High != 38 {
		t.Fatalf("unexpected confidence %+v", res.Confidence)
	}
	if !strings.Contains(res.Explanation, "(20 + 30 + 40) / 3 = 30 units") {
		t.Fatalf("explanation missing average: %q", res.Explanation)
	}
}

func TestMovingAverageFlatSeriesHasZeroSpread(t *testing.T) {
	res := MovingAverage(monthsOf(25, 25, 25), 3)
	if res.Confidence.Low != 25 || res.Confidence.High != 25 || res.Prediction.Units != 25 {
		t.Fatalf("expected [25,25], got %+v", res)
	}
}

func TestMovingAverageLowBoundIsNotClamped(t *testing.T) {
	res := MovingAverage(monthsOf(0, 0, 100), 3)
	if res.Confidence.Low != -14 {
		t.Fatalf("expected negative low bound -14, got %d", res.Confidence.Low)
	}
}

func TestLinearInsufficient(t *testing.T) {
	res := Linear(monthsOf(1, 2))
	if res.Method != MethodLinear || res.UsedPeriods != 2 || res.Prediction.Units != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Explanation, "Insufficient data for linear regression") {
		t.Fatalf("unexpected explanation %q", res.Explanation)
	}
}

func TestLinearPerfectFit(t *testing.T) {
	res := Linear(monthsOf(10, 20, 30, 40))
	if res.Prediction.Units != 50 || res.Prediction.Revenue != 500 {
		t.Fatalf("unexpected prediction %+v", res.Prediction)
	}
	if res.Confidence.Low != 50 || res.Confidence.High != 50 {
		t.Fatalf("expected zero margin, got %+v", res.Confidence)
	}
	f := leastSquares([]float64{10, 20, 30, 40})
	if r2 := rSquared([]float64{10, 20, 30, 40}, f); math.Abs(r2-1) > 1e-9 {
		t.Fatalf("expected R² 1, got %f", r2)
	}
	if !strings.Contains(res.Explanation, "Slope (m): 10.00") || !strings.Contains(res.Explanation, "strong") {
		t.Fatalf("unexpected explanation %q", res.Explanation)
	}
}

func TestLinearVariableFit(t *testing.T) {
	res := Linear(monthsOf(10, 40, 10, 40))
	if res.Prediction.Units != 40 {
		t.Fatalf("expected 40 units, got %d", res.Prediction.Units)
	}
	if res.Confidence.Low != 24 || res.Confidence.High != 56 {
		t.Fatalf("unexpected confidence %+v", res.Confidence)
	}
	if !strings.Contains(res.Explanation, "R² (fit quality): 20.0%") || !strings.Contains(res.Explanation, "variable") {
		t.Fatalf("unexpected explanation %q", res.Explanation)
	}
}

func TestLinearFloorsAtZero(t *testing.T) {
	res := Linear(monthsOf(30, 15, 0))
	if res.Prediction.Units != 0 || res.Prediction.Revenue != 0 {
		t.Fatalf("expected floored prediction, got %+v", res.Prediction)
	}
	if res.Confidence.Low != 0 {
		t.Fatalf("expected floored low bound, got %d", res.Confidence.Low)
	}
}

func TestLinearFlatSeries(t *testing.T) {
	res := Linear(monthsOf(5, 5, 5))
	if res.Prediction.Units != 5 || res.Confidence.Low != 5 || res.Confidence.High != 5 {
		t.Fatalf("unexpected result %+v", res)
	}
	if strings.Contains(res.Explanation, "NaN") {
		t.Fatalf("explanation must not contain NaN: %q", res.Explanation)
	}
}

func TestFormulaOverflowingRevenueDoesNotPanic(t *testing.T) {
	months := []MonthlyAggregate{{Month: day(2024, 1, 1), Units: 10, Revenue: 100}}
	res := Formula(months, 1e308)
	if math.IsInf(res.Prediction.Revenue, 0) || math.IsNaN(res.Prediction.Revenue) {
		t.Fatalf("expected finite revenue, got %v", res.Prediction.Revenue)
	}
	if got := formatMoney(math.NaN()); got != "0.00" {
		t.Fatalf("expected NaN to format as 0.00, got %q", got)
	}
	if got := roundCents(math.Inf(-1)); got != -math.MaxFloat64 {
		t.Fatalf("expected -Inf to saturate, got %v", got)
	}
}
