package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Psql builds statements with PostgreSQL $n placeholders.
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Select renders a squirrel SELECT and runs it.
func Select(ctx context.Context, q Querier, b sq.SelectBuilder) (pgx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return q.Query(ctx, query, args...)
}

// SelectRow renders a squirrel SELECT expected to return one row.
func SelectRow(ctx context.Context, q Querier, b sq.SelectBuilder) (pgx.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return q.QueryRow(ctx, query, args...), nil
}

// Exec renders any squirrel statement and executes it.
func Exec(ctx context.Context, q Querier, b sq.Sqlizer) (pgconn.CommandTag, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return q.Exec(ctx, query, args...)
}
