package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// CatalogSource loads every active product with its sales on or after since.
type CatalogSource interface {
	ActiveWithSalesSince(ctx context.Context, since time.Time) ([]ProductSales, error)
}

// Service derives inventory alerts from the catalog and merges in external news.
type Service struct {
	catalog CatalogSource
	news    NewsSource
	now     func() time.Time
}

// NewService constructs a Service. A nil news source disables news alerts.
func NewService(catalog CatalogSource, news NewsSource) *Service {
	if news == nil {
		news = NoNews{}
	}
	return &Service{catalog: catalog, news: news, now: time.Now}
}

// WithNow overrides the service clock.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Inventory recomputes the inventory alerts for the current catalog state.
func (s *Service) Inventory(ctx context.Context) ([]Alert, error) {
	return s.inventoryAt(ctx, s.now().UTC())
}

func (s *Service) inventoryAt(ctx context.Context, now time.Time) ([]Alert, error) {
	if s.catalog == nil {
		return nil, errors.New("alerts: catalog source not configured")
	}
	products, err := s.catalog.ActiveWithSalesSince(ctx, HistoryStart(now))
	if err != nil {
		return nil, fmt.Errorf("alerts: load catalog: %w", err)
	}
	return ComputeInventoryAlerts(products, now), nil
}

// All loads inventory and news alerts concurrently and returns them newest first.
func (s *Service) All(ctx context.Context) ([]Alert, error) {
	now := s.now().UTC()
	var inventory, news []Alert

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inventory, err = s.inventoryAt(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		news, err = s.news.Headlines(gctx, now)
		if err != nil {
			return fmt.Errorf("alerts: load news: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(inventory, news), nil
}
