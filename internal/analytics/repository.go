package analytics

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balancesheet/balancesheet/internal/platform/db"
)

// Repository exposes the read queries the service relies on.
type Repository interface {
	Facts(ctx context.Context, filter StatsFilter) ([]Fact, error)
	FactsSince(ctx context.Context, since time.Time) ([]Fact, error)
	RecentSales(ctx context.Context, limit int) ([]SaleExportRow, error)
	ActiveProducts(ctx context.Context) ([]ProductExportRow, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func factQuery() sq.SelectBuilder {
	return db.Psql.Select("s.product_id", "p.name", "s.date", "s.units_sold", "s.revenue").
		From("sale_records s").
		Join("products p ON p.id = s.product_id").
		OrderBy("s.date ASC")
}

// Facts returns sales inside the filter's inclusive range.
func (r *PGRepository) Facts(ctx context.Context, filter StatsFilter) ([]Fact, error) {
	query := factQuery().Where(sq.GtOrEq{"s.date": filter.Start}).Where(sq.LtOrEq{"s.date": filter.End})
	if filter.ProductID != "" {
		query = query.Where(sq.Eq{"s.product_id": filter.ProductID})
	}
	return r.facts(ctx, query)
}

// FactsSince returns every sale dated on or after since.
func (r *PGRepository) FactsSince(ctx context.Context, since time.Time) ([]Fact, error) {
	return r.facts(ctx, factQuery().Where(sq.GtOrEq{"s.date": since}))
}

func (r *PGRepository) facts(ctx context.Context, query sq.SelectBuilder) ([]Fact, error) {
	rows, err := db.Select(ctx, r.pool, query)
	if err != nil {
		return nil, fmt.Errorf("analytics: load facts: %w", err)
	}
	defer rows.Close()
	var out []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ProductID, &f.ProductName, &f.Date, &f.UnitsSold, &f.Revenue); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// RecentSales returns the limit most recent sales joined with product details.
func (r *PGRepository) RecentSales(ctx context.Context, limit int) ([]SaleExportRow, error) {
	query := db.Psql.Select("s.date", "p.name", "COALESCE(p.sku, '')", "COALESCE(p.category, '')", "s.units_sold", "s.revenue").
		From("sale_records s").
		Join("products p ON p.id = s.product_id").
		OrderBy("s.date DESC").
		Limit(uint64(limit))
	rows, err := db.Select(ctx, r.pool, query)
	if err != nil {
		return nil, fmt.Errorf("analytics: recent sales: %w", err)
	}
	defer rows.Close()
	var out []SaleExportRow
	for rows.Next() {
		var row SaleExportRow
		if err := rows.Scan(&row.Date, &row.Product, &row.SKU, &row.Category, &row.UnitsSold, &row.Revenue); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ActiveProducts returns active products ordered by name.
func (r *PGRepository) ActiveProducts(ctx context.Context) ([]ProductExportRow, error) {
	query := db.Psql.Select("id", "name", "COALESCE(sku, '')", "COALESCE(category, '')", "inventory_on_hand",
		"cost", "price", "active", "created_at", "updated_at").
		From("products").
		Where(sq.Eq{"active": true}).
		OrderBy("name ASC")
	rows, err := db.Select(ctx, r.pool, query)
	if err != nil {
		return nil, fmt.Errorf("analytics: active products: %w", err)
	}
	defer rows.Close()
	var out []ProductExportRow
	for rows.Next() {
		var (
			row         ProductExportRow
			cost, price pgtype.Numeric
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.SKU, &row.Category, &row.InventoryOnHand,
			&cost, &price, &row.Active, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		if c := db.NumericToDecimal(cost); c.Valid {
			row.Cost = c.Decimal.StringFixed(2)
		}
		if p := db.NumericToDecimal(price); p.Valid {
			row.Price = p.Decimal.StringFixed(2)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
