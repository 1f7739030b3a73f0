package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FactQuery scopes a read of stored sale facts.
type FactQuery struct {
	ProductID string
	Since     time.Time
}

// FactSource is the read-only access to the sale facts table.
type FactSource interface {
	SaleFacts(ctx context.Context, query FactQuery) ([]SaleFact, error)
}

// Request selects a method and its parameters.
type Request struct {
	Method     Method
	ProductID  string
	GrowthRate float64
	Periods    int
}

// ErrUnknownMethod is returned by Run for an unrecognised method.
var ErrUnknownMethod = errors.New("forecast: unknown method")

// Service loads facts and applies a forecasting method. Every call recomputes the
// monthly aggregates.
type Service struct {
	facts FactSource
	now   func() time.Time
}

// NewService constructs a Service reading from the given source.
func NewService(facts FactSource) *Service {
	return &Service{facts: facts, now: time.Now}
}

// WithNow overrides the service clock.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Monthly returns the aggregated months the methods operate on.
func (s *Service) Monthly(ctx context.Context, productID string) ([]MonthlyAggregate, error) {
	if s.facts == nil {
		return nil, errors.New("forecast: fact source not configured")
	}
	now := s.now().UTC()
	facts, err := s.facts.SaleFacts(ctx, FactQuery{
		ProductID: productID,
		Since:     WindowStart(now, LookbackMonths),
	})
	if err != nil {
		return nil, fmt.Errorf("forecast: load sale facts: %w", err)
	}
	return AggregateMonthly(facts, productID, LookbackMonths, now), nil
}

// Formula runs the growth-formula method.
func (s *Service) Formula(ctx context.Context, productID string, growthRate float64) (Result, error) {
	months, err := s.Monthly(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	return Formula(months, growthRate), nil
}

// MovingAverage runs the moving-average method.
func (s *Service) MovingAverage(ctx context.Context, productID string, periods int) (Result, error) {
	months, err := s.Monthly(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	return MovingAverage(months, periods), nil
}

// Linear runs the linear-regression method.
func (s *Service) Linear(ctx context.Context, productID string) (Result, error) {
	months, err := s.Monthly(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	return Linear(months), nil
}

// Run dispatches a Request to the matching method.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	switch req.Method {
	case MethodFormula, "":
		return s.Formula(ctx, req.ProductID, req.GrowthRate)
	case MethodMovingAverage:
		return s.MovingAverage(ctx, req.ProductID, req.Periods)
	case MethodLinear:
		return s.Linear(ctx, req.ProductID)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
}
