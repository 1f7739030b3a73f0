package sales

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balancesheet/balancesheet/internal/catalog"
	"github.com/balancesheet/balancesheet/internal/forecast"
	"github.com/balancesheet/balancesheet/internal/platform/db"
)

// TxStore exposes the writes a batch row performs inside its transaction.
type TxStore interface {
	FindProductByName(ctx context.Context, name string) (catalog.Product, error)
	CreateProduct(ctx context.Context, p catalog.Product) error
	SetInventory(ctx context.Context, productID string, units int, at time.Time) error
	InsertSale(ctx context.Context, s catalog.SaleRecord) error
}

// Repository provides PostgreSQL backed persistence for sale records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txStore struct {
	tx pgx.Tx
}

// WithTx wraps fn in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

func (t *txStore) FindProductByName(ctx context.Context, name string) (catalog.Product, error) {
	return catalog.FindByName(ctx, t.tx, name)
}

func (t *txStore) CreateProduct(ctx context.Context, p catalog.Product) error {
	return catalog.InsertProduct(ctx, t.tx, p)
}

func (t *txStore) SetInventory(ctx context.Context, productID string, units int, at time.Time) error {
	return catalog.SetInventory(ctx, t.tx, productID, units, at)
}

func (t *txStore) InsertSale(ctx context.Context, s catalog.SaleRecord) error {
	_, err := db.Exec(ctx, t.tx, db.Psql.Insert("sale_records").
		Columns("id", "product_id", "date", "units_sold", "revenue", "created_at").
		Values(s.ID, s.ProductID, s.Date, s.UnitsSold, s.Revenue, s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// SaleFacts returns the sale facts dated on or after query.Since, optionally for a
// single product.
func (r *Repository) SaleFacts(ctx context.Context, query forecast.FactQuery) ([]forecast.SaleFact, error) {
	stmt := db.Psql.Select("product_id", "date", "units_sold", "revenue").
		From("sale_records").
		OrderBy("date ASC")
	if !query.Since.IsZero() {
		stmt = stmt.Where(sq.GtOrEq{"date": query.Since})
	}
	if query.ProductID != "" {
		stmt = stmt.Where(sq.Eq{"product_id": query.ProductID})
	}
	rows, err := db.Select(ctx, r.pool, stmt)
	if err != nil {
		return nil, fmt.Errorf("sale facts: %w", err)
	}
	defer rows.Close()

	var facts []forecast.SaleFact
	for rows.Next() {
		var f forecast.SaleFact
		if err := rows.Scan(&f.ProductID, &f.Date, &f.UnitsSold, &f.Revenue); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
