package catalog

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

type memoryStore struct {
	products map[string]Product
	sales    map[string][]SaleRecord
	limits   []int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: map[string]Product{}, sales: map[string][]SaleRecord{}}
}

func (m *memoryStore) List(_ context.Context, filter ListFilter) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) Create(_ context.Context, p Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *memoryStore) Update(_ context.Context, id string, set map[string]any, at time.Time) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	for col, v := range set {
		switch col {
		case "name":
			p.Name = v.(string)
		case "inventory_on_hand":
			p.InventoryOnHand = v.(int)
		case "active":
			p.Active = v.(bool)
		case "price":
			p.Price = v.(decimal.NullDecimal)
		}
	}
	p.UpdatedAt = at
	m.products[id] = p
	return p, nil
}

func (m *memoryStore) RecentSales(_ context.Context, ids []string, perProduct int) (map[string][]SaleRecord, error) {
	m.limits = append(m.limits, perProduct)
	out := map[string][]SaleRecord{}
	for _, id := range ids {
		list := m.sales[id]
		if len(list) > perProduct {
			list = list[:perProduct]
		}
		out[id] = list
	}
	return out, nil
}

func newTestService(store Store) *Service {
	svc := NewService(store)
	svc.WithNow(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) })
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("prod-%d", seq)
	}
	return svc
}

func TestCreateValidatesAndDefaults(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidProduct)
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Equal(t, "failed required", httpx.ValidationFields(err)["name"])

	_, err = svc.Create(ctx, ProductInput{Name: "Widget", InventoryOnHand: -1})
	require.ErrorIs(t, err, ErrInvalidProduct)

	price := 19.999
	p, err := svc.Create(ctx, ProductInput{Name: " Widget ", InventoryOnHand: 12, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "prod-1", p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.True(t, p.Active)
	assert.False(t, p.Cost.Valid)
	require.True(t, p.Price.Valid)
	assert.Equal(t, "20.00", p.Price.Decimal.StringFixed(2))
	assert.Contains(t, store.products, "prod-1")
}

func TestGetAttachesRecentSales(t *testing.T) {
	store := newMemoryStore()
	store.products["p1"] = Product{ID: "p1", Name: "Lamp", Active: true}
	for i := 0; i < 120; i++ {
		store.sales["p1"] = append(store.sales["p1"], SaleRecord{ID: fmt.Sprintf("s%d", i), ProductID: "p1"})
	}
	svc := newTestService(store)

	p, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, p.SaleRecords, 90)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListActiveWithSales(t *testing.T) {
	store := newMemoryStore()
	store.products["a"] = Product{ID: "a", Name: "Alpha", Active: true}
	store.products["b"] = Product{ID: "b", Name: "Beta", Active: false}
	store.sales["a"] = []SaleRecord{{ID: "s1", ProductID: "a"}}
	svc := newTestService(store)

	list, err := svc.List(context.Background(), ListFilter{ActiveOnly: true, IncludeSales: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Len(t, list[0].SaleRecords, 1)
	assert.Equal(t, []int{30}, store.limits)

	all, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Nil(t, all[0].SaleRecords)
}

func TestUpdateAndDeactivate(t *testing.T) {
	store := newMemoryStore()
	store.products["p"] = Product{ID: "p", Name: "Mug", InventoryOnHand: 3, Active: true}
	svc := newTestService(store)
	ctx := context.Background()

	units := 40
	p, err := svc.Update(ctx, "p", ProductPatch{InventoryOnHand: &units})
	require.NoError(t, err)
	assert.Equal(t, 40, p.InventoryOnHand)
	assert.Equal(t, "Mug", p.Name)

	blank := ""
	_, err = svc.Update(ctx, "p", ProductPatch{Name: &blank})
	require.ErrorIs(t, err, ErrInvalidProduct)

	same, err := svc.Update(ctx, "p", ProductPatch{})
	require.NoError(t, err)
	assert.Equal(t, 40, same.InventoryOnHand)

	gone, err := svc.Deactivate(ctx, "p")
	require.NoError(t, err)
	assert.False(t, gone.Active)
	assert.Equal(t, 40, gone.InventoryOnHand)

	_, err = svc.Deactivate(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPatchColumns(t *testing.T) {
	name := "Desk"
	cost := 12.345
	active := true
	set := ProductPatch{Name: &name, Cost: &cost, Active: &active}.columns()
	assert.Len(t, set, 3)
	assert.Equal(t, "Desk", set["name"])
	assert.Equal(t, true, set["active"])
	assert.True(t, ProductPatch{}.Empty())
}
