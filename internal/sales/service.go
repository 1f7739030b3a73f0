package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/balancesheet/balancesheet/internal/catalog"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// Store is the persistence contract of the service.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// CacheBumper invalidates cached analytics after new sales land.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service implements batch sales entry.
type Service struct {
	store  Store
	cache  CacheBumper
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService constructs a Service. cache may be nil.
func NewService(store Store, cache CacheBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, logger: logger, now: time.Now, newID: uuid.NewString}
}

// WithNow overrides the service clock.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// PostBatch records each row in its own transaction, creating unknown products on the
// fly. Only a cancelled context aborts the batch.
func (s *Service) PostBatch(ctx context.Context, rows []json.RawMessage) (BatchResult, error) {
	result := BatchResult{Errors: []string{}}
	for _, raw := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		row, err := decodeRow(raw)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		updated, err := s.recordRow(ctx, row)
		if err != nil {
			s.logger.Warn("sales batch row failed", slog.String("product", row.productName), slog.Any("error", err))
			result.Errors = append(result.Errors, fmt.Sprintf("process row for %q: %v", row.productName, err))
			continue
		}
		result.Created++
		if updated {
			result.Updated++
		}
	}

	if result.Created > 0 && s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump analytics cache", slog.Any("error", err))
		}
	}
	return result, nil
}

func decodeRow(raw json.RawMessage) (parsedRow, error) {
	var row BatchRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return parsedRow{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	row.ProductName = strings.TrimSpace(row.ProductName)
	if missingRequired(row) {
		return parsedRow{}, fmt.Errorf("%w: missing required fields: %s", ErrInvalidRow, compact(raw))
	}
	if err := httpx.Validator.Struct(row); err != nil {
		return parsedRow{}, fmt.Errorf("%w: %s: %v", ErrInvalidRow, compact(raw), err)
	}
	date, err := ParseDate(row.Date)
	if err != nil {
		return parsedRow{}, err
	}
	return parsedRow{
		productName:     row.ProductName,
		date:            date,
		unitsSold:       int(*row.UnitsSold),
		revenue:         *row.Revenue,
		inventoryOnHand: row.InventoryOnHand,
	}, nil
}

func missingRequired(row BatchRow) bool {
	return row.ProductName == "" || strings.TrimSpace(row.Date) == "" || row.UnitsSold == nil || row.Revenue == nil
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func (s *Service) recordRow(ctx context.Context, row parsedRow) (bool, error) {
	now := s.now().UTC()
	updated := false
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		product, err := tx.FindProductByName(ctx, row.productName)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			product = catalog.Product{
				ID:        s.newID(),
				Name:      row.productName,
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if row.inventoryOnHand != nil {
				product.InventoryOnHand = *row.inventoryOnHand
			}
			if err := tx.CreateProduct(ctx, product); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("find product: %w", err)
		case row.inventoryOnHand != nil:
			if err := tx.SetInventory(ctx, product.ID, *row.inventoryOnHand, now); err != nil {
				return err
			}
			updated = true
		}

		return tx.InsertSale(ctx, catalog.SaleRecord{
			ID:        s.newID(),
			ProductID: product.ID,
			Date:      row.date,
			UnitsSold: row.unitsSold,
			Revenue:   row.revenue,
			CreatedAt: now,
		})
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}
