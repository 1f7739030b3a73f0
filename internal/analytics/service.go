package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// ExportSalesLimit caps the sales export at the most recent rows.
const ExportSalesLimit = 1000

// loadTimeout bounds a shared cache fill, which outlives any single caller.
const loadTimeout = 30 * time.Second

// Service coordinates analytics queries with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the service clock.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Cache returns the cache used by the service.
func (s *Service) Cache() *Cache {
	return s.cache
}

// NormalizeFilter fills the default range and granularity. The default end is the next
// whole minute so that repeated dashboard loads share a cache key.
func (s *Service) NormalizeFilter(filter StatsFilter) (StatsFilter, error) {
	if filter.Granularity == "" {
		filter.Granularity = Weekly
	}
	if _, err := ParseGranularity(string(filter.Granularity)); err != nil {
		return StatsFilter{}, err
	}
	if filter.End.IsZero() {
		filter.End = s.now().UTC().Truncate(time.Minute).Add(time.Minute)
	}
	if filter.Start.IsZero() {
		filter.Start = filter.End.Add(-DefaultWindow)
	}
	if filter.Start.After(filter.End) {
		return StatsFilter{}, fmt.Errorf("%w: start is after end", ErrInvalidFilter)
	}
	filter.Start = filter.Start.UTC()
	filter.End = filter.End.UTC()
	return filter, nil
}

// GetSalesStats returns the bucketed series and KPIs for the filter.
func (s *Service) GetSalesStats(ctx context.Context, filter StatsFilter) (SalesStats, error) {
	filter, err := s.NormalizeFilter(filter)
	if err != nil {
		return SalesStats{}, err
	}
	var stats SalesStats
	err = s.cached(ctx, keyStats(filter), &stats, func(ctx context.Context) (any, error) {
		facts, err := s.repo.Facts(ctx, filter)
		if err != nil {
			return nil, err
		}
		return BuildSalesStats(facts, filter), nil
	})
	return stats, err
}

// LastMonth is the start of the trailing one-month window used by the summaries.
func (s *Service) LastMonth() time.Time {
	return s.now().UTC().AddDate(0, -1, 0).Truncate(time.Minute)
}

// TopProducts ranks products by revenue since the given time.
func (s *Service) TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductPerformance, error) {
	var top []ProductPerformance
	err := s.cached(ctx, keyTopProducts(since, limit), &top, func(ctx context.Context) (any, error) {
		facts, err := s.repo.FactsSince(ctx, since)
		if err != nil {
			return nil, err
		}
		return RankProducts(facts, limit), nil
	})
	return top, err
}

// Summary totals every sale since the given time.
func (s *Service) Summary(ctx context.Context, since time.Time) (PeriodSummary, error) {
	var summary PeriodSummary
	err := s.cached(ctx, keySummary(since), &summary, func(ctx context.Context) (any, error) {
		facts, err := s.repo.FactsSince(ctx, since)
		if err != nil {
			return nil, err
		}
		return Summarise(facts), nil
	})
	return summary, err
}

// ExportSales returns the most recent sales for export.
func (s *Service) ExportSales(ctx context.Context) ([]SaleExportRow, error) {
	return s.repo.RecentSales(ctx, ExportSalesLimit)
}

// ExportProducts returns the active catalog for export.
func (s *Service) ExportProducts(ctx context.Context) ([]ProductExportRow, error) {
	return s.repo.ActiveProducts(ctx)
}

// cached resolves key through the versioned cache, coalescing concurrent misses.
func (s *Service) cached(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if s.repo == nil {
		return errors.New("analytics: repository not configured")
	}
	versioned, err := s.cache.BuildKey(ctx, key)
	if err != nil {
		return fmt.Errorf("analytics: cache key: %w", err)
	}
	results := s.group.DoChan(versioned, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		var raw json.RawMessage
		if err := s.cache.FetchJSON(loadCtx, versioned, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}
