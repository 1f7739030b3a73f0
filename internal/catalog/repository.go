package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balancesheet/balancesheet/internal/alerts"
	"github.com/balancesheet/balancesheet/internal/platform/db"
)

var productColumns = []string{
	"id", "name", "sku", "category", "inventory_on_hand",
	"cost", "price", "active", "created_at", "updated_at",
}

var saleColumns = []string{"id", "product_id", "date", "units_sold", "revenue", "created_at"}

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p           Product
		cost, price pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.InventoryOnHand,
		&cost, &price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Cost = db.NumericToDecimal(cost)
	p.Price = db.NumericToDecimal(price)
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertProduct writes a new product row using q, which may be a transaction.
func InsertProduct(ctx context.Context, q db.Querier, p Product) error {
	_, err := db.Exec(ctx, q, db.Psql.Insert("products").SetMap(map[string]any{
		"id":                p.ID,
		"name":              p.Name,
		"sku":               p.SKU,
		"category":          p.Category,
		"inventory_on_hand": p.InventoryOnHand,
		"cost":              p.Cost,
		"price":             p.Price,
		"active":            p.Active,
		"created_at":        p.CreatedAt,
		"updated_at":        p.UpdatedAt,
	}))
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// FindByName returns the oldest product with exactly this name.
func FindByName(ctx context.Context, q db.Querier, name string) (Product, error) {
	row, err := db.SelectRow(ctx, q, db.Psql.Select(productColumns...).
		From("products").
		Where(sq.Eq{"name": name}).
		OrderBy("created_at ASC").
		Limit(1))
	if err != nil {
		return Product{}, err
	}
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// SetInventory overwrites the on-hand quantity of a product.
func SetInventory(ctx context.Context, q db.Querier, id string, units int, at time.Time) error {
	tag, err := db.Exec(ctx, q, db.Psql.Update("products").
		Set("inventory_on_hand", units).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set inventory: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// List returns products ordered by name.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := db.Psql.Select(productColumns...).From("products").OrderBy("name ASC")
	if filter.ActiveOnly {
		query = query.Where(sq.Eq{"active": true})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + term + "%"
		query = query.Where(sq.Or{sq.ILike{"name": like}, sq.ILike{"sku": like}, sq.ILike{"category": like}})
	}
	rows, err := db.Select(ctx, r.pool, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

// Get loads a single product.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	row, err := db.SelectRow(ctx, r.pool, db.Psql.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return Product{}, err
	}
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Create persists a new product.
func (r *Repository) Create(ctx context.Context, p Product) error {
	return InsertProduct(ctx, r.pool, p)
}

// Update applies the column set and returns the updated row.
func (r *Repository) Update(ctx context.Context, id string, set map[string]any, at time.Time) (Product, error) {
	query, args, err := db.Psql.Update("products").
		SetMap(set).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(productColumns, ", ")).
		ToSql()
	if err != nil {
		return Product{}, err
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// RecentSales returns up to perProduct most recent sale records for each product id.
func (r *Repository) RecentSales(ctx context.Context, productIDs []string, perProduct int) (map[string][]SaleRecord, error) {
	out := make(map[string][]SaleRecord, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	ranked := db.Psql.Select(saleColumns...).
		Column("ROW_NUMBER() OVER (PARTITION BY product_id ORDER BY date DESC) AS rn").
		From("sale_records").
		Where(sq.Eq{"product_id": productIDs})
	query := db.Psql.Select(saleColumns...).
		FromSelect(ranked, "ranked").
		Where(sq.LtOrEq{"rn": perProduct}).
		OrderBy("product_id", "date DESC")
	rows, err := db.Select(ctx, r.pool, query)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s SaleRecord
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Date, &s.UnitsSold, &s.Revenue, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[s.ProductID] = append(out[s.ProductID], s)
	}
	return out, rows.Err()
}

// ActiveWithSalesSince loads every active product with its sales dated on or after
// since, most recent first.
func (r *Repository) ActiveWithSalesSince(ctx context.Context, since time.Time) ([]alerts.ProductSales, error) {
	products, err := r.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	rows, err := db.Select(ctx, r.pool, db.Psql.Select("product_id", "date", "units_sold").
		From("sale_records").
		Where(sq.Eq{"product_id": ids}).
		Where(sq.GtOrEq{"date": since}).
		OrderBy("date DESC"))
	if err != nil {
		return nil, fmt.Errorf("sales since: %w", err)
	}
	defer rows.Close()
	sales := make(map[string][]alerts.SaleEntry, len(products))
	for rows.Next() {
		var (
			productID string
			entry     alerts.SaleEntry
		)
		if err := rows.Scan(&productID, &entry.Date, &entry.UnitsSold); err != nil {
			return nil, err
		}
		sales[productID] = append(sales[productID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]alerts.ProductSales, 0, len(products))
	for _, p := range products {
		out = append(out, alerts.ProductSales{
			Product: alerts.ProductSnapshot{ID: p.ID, Name: p.Name, InventoryOnHand: p.InventoryOnHand},
			Sales:   sales[p.ID],
		})
	}
	return out, nil
}
