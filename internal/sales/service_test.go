package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balancesheet/balancesheet/internal/catalog"
)

type memoryStore struct {
	products  map[string]catalog.Product
	sales     []catalog.SaleRecord
	failSales bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: map[string]catalog.Product{}}
}

// WithTx stages writes on a copy and applies them only when fn succeeds.
func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	tx := &memoryTx{parent: m, products: map[string]catalog.Product{}}
	for k, v := range m.products {
		tx.products[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.products = tx.products
	m.sales = append(m.sales, tx.sales...)
	return nil
}

type memoryTx struct {
	parent   *memoryStore
	products map[string]catalog.Product
	sales    []catalog.SaleRecord
}

func (t *memoryTx) FindProductByName(_ context.Context, name string) (catalog.Product, error) {
	for _, p := range t.products {
		if p.Name == name {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (t *memoryTx) CreateProduct(_ context.Context, p catalog.Product) error {
	t.products[p.ID] = p
	return nil
}

func (t *memoryTx) SetInventory(_ context.Context, id string, units int, at time.Time) error {
	p := t.products[id]
	p.InventoryOnHand = units
	p.UpdatedAt = at
	t.products[id] = p
	return nil
}

func (t *memoryTx) InsertSale(_ context.Context, s catalog.SaleRecord) error {
	if t.parent.failSales {
		return errors.New("disk full")
	}
	t.sales = append(t.sales, s)
	return nil
}

type countingCache struct {
	bumps int
}

func (c *countingCache) Bump(context.Context) error {
	c.bumps++
	return nil
}

func newTestService(store Store, cache CacheBumper) *Service {
	svc := NewService(store, cache, nil)
	svc.WithNow(func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) })
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc
}

func rawRows(t *testing.T, rows ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		out[i] = json.RawMessage(r)
	}
	return out
}

func TestPostBatchCreatesProductsAndSales(t *testing.T) {
	store := newMemoryStore()
	cache := &countingCache{}
	svc := newTestService(store, cache)

	res, err := svc.PostBatch(context.Background(), rawRows(t,
		`{"productName":"Mug","date":"2024-05-01","unitsSold":3,"revenue":29.97,"inventoryOnHand":40}`,
		`{"productName":"Mug","date":"2024-05-02T10:00:00Z","unitsSold":1,"revenue":9.99}`,
		`{"productName":"Mug","date":"2024-05-02","unitsSold":2,"revenue":19.98,"inventoryOnHand":35}`,
	))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, cache.bumps)

	require.Len(t, store.products, 1)
	for _, p := range store.products {
		assert.Equal(t, "Mug", p.Name)
		assert.True(t, p.Active)
		assert.Equal(t, 35, p.InventoryOnHand)
	}
	require.Len(t, store.sales, 3)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), store.sales[0].Date)
	assert.Equal(t, 3, store.sales[0].UnitsSold)
}

func TestPostBatchCollectsRowErrors(t *testing.T) {
	store := newMemoryStore()
	cache := &countingCache{}
	svc := newTestService(store, cache)

	res, err := svc.PostBatch(context.Background(), rawRows(t,
		`{"productName":"Lamp","unitsSold":1,"revenue":5}`,
		`{"productName":"Lamp","date":"yesterday","unitsSold":1,"revenue":5}`,
		`{"productName":"Lamp","date":"2024-05-01","unitsSold":-2,"revenue":5}`,
		`{"productName":"Lamp","date":"2024-05-01","unitsSold":"many","revenue":5}`,
		`{"productName":"Lamp","date":"2024-05-01","unitsSold":0,"revenue":0}`,
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], "missing required fields")
	assert.Contains(t, res.Errors[1], "unrecognised date")
	assert.Equal(t, 1, cache.bumps)
}

func TestPostBatchRollsBackFailedRow(t *testing.T) {
	store := newMemoryStore()
	store.failSales = true
	cache := &countingCache{}
	svc := newTestService(store, cache)

	res, err := svc.PostBatch(context.Background(), rawRows(t,
		`{"productName":"Desk","date":"2024-05-01","unitsSold":1,"revenue":100}`,
	))
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "disk full")
	assert.Empty(t, store.products, "product creation rolls back with the row")
	assert.Zero(t, cache.bumps)
}

func TestPostBatchStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(newMemoryStore(), nil)
	_, err := svc.PostBatch(ctx, rawRows(t, `{"productName":"A","date":"2024-05-01","unitsSold":1,"revenue":1}`))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2024-03-04", "2024-03-04T00:00:00Z", "2024-03-04T00:00:00", "03/04/2024"} {
		got, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), got, raw)
	}
	_, err := ParseDate("4th of March")
	require.ErrorIs(t, err, ErrInvalidRow)
}
