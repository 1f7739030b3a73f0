package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// Store is the persistence contract used by the service.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, id string, set map[string]any, at time.Time) (Product, error)
	RecentSales(ctx context.Context, productIDs []string, perProduct int) (map[string][]SaleRecord, error)
}

// Service implements catalog management.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now, newID: uuid.NewString}
}

// WithNow overrides the service clock.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// List returns products, optionally attaching each product's 30 most recent sales.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	products, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !filter.IncludeSales || len(products) == 0 {
		return products, nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	sales, err := s.store.RecentSales(ctx, ids, listSalesLimit)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].SaleRecords = sales[products[i].ID]
	}
	return products, nil
}

// Get returns a product with its 90 most recent sales.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	sales, err := s.store.RecentSales(ctx, []string{id}, detailSalesLimit)
	if err != nil {
		return Product{}, err
	}
	p.SaleRecords = sales[id]
	return p, nil
}

// Create validates and stores a new active product.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validator.Struct(in); err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}
	now := s.now().UTC()
	p := Product{
		ID:              s.newID(),
		Name:            in.Name,
		SKU:             in.SKU,
		Category:        in.Category,
		InventoryOnHand: in.InventoryOnHand,
		Cost:            money(in.Cost),
		Price:           money(in.Price),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update applies a partial patch. An empty patch returns the stored product.
func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if err := httpx.Validator.Struct(patch); err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}
	if patch.Empty() {
		return s.store.Get(ctx, id)
	}
	return s.store.Update(ctx, id, patch.columns(), s.now().UTC())
}

// Deactivate soft-deletes a product; its sales history is kept.
func (s *Service) Deactivate(ctx context.Context, id string) (Product, error) {
	inactive := false
	p, err := s.store.Update(ctx, id, ProductPatch{Active: &inactive}.columns(), s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		return Product{}, fmt.Errorf("deactivate %s: %w", id, err)
	}
	return p, err
}
