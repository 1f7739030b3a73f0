package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFacts struct {
	facts     []SaleFact
	err       error
	lastQuery FactQuery
	calls     int
}

func (s *stubFacts) SaleFacts(_ context.Context, query FactQuery) ([]SaleFact, error) {
	s.calls++
	s.lastQuery = query
	return s.facts, s.err
}

func newTestService(src FactSource) *Service {
	svc := NewService(src)
	svc.WithNow(func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) })
	return svc
}

func TestServiceScopesQueryToWindow(t *testing.T) {
	src := &stubFacts{facts: []SaleFact{
		{ProductID: "p1", Date: day(2024, 4, 3), UnitsSold: 10, Revenue: 100},
		{ProductID: "p1", Date: day(2024, 5, 3), UnitsSold: 20, Revenue: 200},
		{ProductID: "p2", Date: day(2024, 5, 9), UnitsSold: 7, Revenue: 70},
	}}
	svc := newTestService(src)

	res, err := svc.Formula(context.Background(), "p1", 0.1)
	require.NoError(t, err)
	assert.Equal(t, "p1", src.lastQuery.ProductID)
	assert.True(t, src.lastQuery.Since.Equal(day(2023, 12, 1)), "since=%s", src.lastQuery.Since)
	assert.Equal(t, 2, res.UsedPeriods)
	assert.Equal(t, 20, res.PreviousPeriodSales)
	assert.Equal(t, 22, res.Prediction.Units)
}

func TestServiceRecomputesEveryCall(t *testing.T) {
	src := &stubFacts{}
	svc := newTestService(src)
	ctx := context.Background()

	first, err := svc.Linear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, first.UsedPeriods)

	src.facts = []SaleFact{
		{ProductID: "a", Date: day(2024, 3, 1), UnitsSold: 10},
		{ProductID: "b", Date: day(2024, 4, 1), UnitsSold: 20},
		{ProductID: "a", Date: day(2024, 5, 1), UnitsSold: 30},
	}
	second, err := svc.Linear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, second.UsedPeriods)
	assert.Equal(t, 40, second.Prediction.Units)
	assert.Equal(t, 2, src.calls)
}

func TestServicePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(&stubFacts{err: boom})

	_, err := svc.MovingAverage(context.Background(), "", 3)
	require.ErrorIs(t, err, boom)
}

func TestServiceRunDispatch(t *testing.T) {
	src := &stubFacts{facts: []SaleFact{
		{ProductID: "p", Date: day(2024, 3, 1), UnitsSold: 5},
		{ProductID: "p", Date: day(2024, 4, 1), UnitsSold: 5},
		{ProductID: "p", Date: day(2024, 5, 1), UnitsSold: 5},
	}}
	svc := newTestService(src)
	ctx := context.Background()

	for _, method := range []Method{MethodFormula, MethodMovingAverage, MethodLinear} {
		res, err := svc.Run(ctx, Request{Method: method, GrowthRate: DefaultGrowthRate, Periods: 3})
		require.NoError(t, err)
		assert.Equal(t, method, res.Method)
	}

	_, err := svc.Run(ctx, Request{Method: "arima"})
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod("")
	require.True(t, ok)
	assert.Equal(t, MethodFormula, m)

	m, ok = ParseMethod("ma")
	require.True(t, ok)
	assert.Equal(t, MethodMovingAverage, m)

	_, ok = ParseMethod("prophet")
	assert.False(t, ok)
}
