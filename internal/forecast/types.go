package forecast

import "time"

// Method identifies a forecasting strategy.
type Method string

const (
	// MethodFormula projects the latest month with a constant growth rate.
	MethodFormula Method = "formula"
	// MethodMovingAverage averages the most recent months.
	MethodMovingAverage Method = "ma"
	// MethodLinear fits a least-squares trend line.
	MethodLinear Method = "linear"
)

// Defaults applied when callers omit method parameters.
const (
	DefaultGrowthRate     = 0.05
	MaxGrowthRate         = 10
	DefaultPeriods        = 3
	LookbackMonths        = 6
	MinRegressionPeriods  = 3
	strongFitThreshold    = 0.7
	formulaConfidenceBand = 0.15
)

// ParseMethod maps a query value onto a known Method.
func ParseMethod(value string) (Method, bool) {
	switch Method(value) {
	case MethodFormula, MethodMovingAverage, MethodLinear:
		return Method(value), true
	case "":
		return MethodFormula, true
	default:
		return "", false
	}
}

// SaleFact is the read-only view of a stored sale record used by the engine.
type SaleFact struct {
	ProductID string
	Date      time.Time
	UnitsSold int
	Revenue   float64
}

// MonthlyAggregate is one calendar month's totals for a product scope.
type MonthlyAggregate struct {
	Month   time.Time `json:"month"`
	Units   int       `json:"units"`
	Revenue float64   `json:"revenue"`
}

// Label renders the month as YYYY-MM.
func (m MonthlyAggregate) Label() string {
	return m.Month.Format("2006-01")
}

// Prediction carries the forecast point values.
type Prediction struct {
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

// Confidence is the heuristic low/high band around the predicted units.
type Confidence struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Result is produced by every forecasting method, including the insufficient-data case.
type Result struct {
	Method              Method     `json:"method"`
	UsedPeriods         int        `json:"usedPeriods"`
	PreviousPeriodSales int        `json:"previousPeriodSales"`
	Prediction          Prediction `json:"prediction"`
	Confidence          Confidence `json:"confidence"`
	Explanation         string     `json:"explanation"`
}
