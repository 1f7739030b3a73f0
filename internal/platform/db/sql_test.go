package db

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPsqlUsesDollarPlaceholders(t *testing.T) {
	query, args, err := Psql.Select("id").From("products").
		Where(sq.Eq{"active": true}).
		Where(sq.GtOrEq{"inventory_on_hand": 10}).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM products WHERE active = $1 AND inventory_on_hand >= $2", query)
	assert.Equal(t, []any{true, 10}, args)
}

func TestSchemaDeclaresTables(t *testing.T) {
	ddl := Schema()
	assert.True(t, strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS products"))
	assert.True(t, strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS sale_records"))
	assert.Contains(t, ddl, "inventory_on_hand")
}
