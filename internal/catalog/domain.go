package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

var (
	ErrNotFound       = fmt.Errorf("product %w", httpx.ErrNotFound)
	ErrInvalidProduct = fmt.Errorf("invalid product: %w", httpx.ErrValidation)
)

const (
	listSalesLimit   = 30
	detailSalesLimit = 90
)

// Product is a catalog entry. Cost and price are optional.
type Product struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	SKU             *string             `json:"sku"`
	Category        *string             `json:"category"`
	InventoryOnHand int                 `json:"inventoryOnHand"`
	Cost            decimal.NullDecimal `json:"cost"`
	Price           decimal.NullDecimal `json:"price"`
	Active          bool                `json:"active"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	SaleRecords     []SaleRecord        `json:"saleRecords,omitempty"`
}

// SaleRecord is one stored sale fact.
type SaleRecord struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Date      time.Time `json:"date"`
	UnitsSold int       `json:"unitsSold"`
	Revenue   float64   `json:"revenue"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	SKU             *string  `json:"sku" validate:"omitempty,max=64"`
	Category        *string  `json:"category" validate:"omitempty,max=100"`
	InventoryOnHand int      `json:"inventoryOnHand" validate:"gte=0"`
	Cost            *float64 `json:"cost" validate:"omitempty,gte=0"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name            *string  `json:"name" validate:"omitempty,min=1,max=200"`
	SKU             *string  `json:"sku" validate:"omitempty,max=64"`
	Category        *string  `json:"category" validate:"omitempty,max=100"`
	InventoryOnHand *int     `json:"inventoryOnHand" validate:"omitempty,gte=0"`
	Cost            *float64 `json:"cost" validate:"omitempty,gte=0"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Active          *bool    `json:"active"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.SKU == nil && p.Category == nil && p.InventoryOnHand == nil &&
		p.Cost == nil && p.Price == nil && p.Active == nil
}

func (p ProductPatch) columns() map[string]any {
	set := make(map[string]any, 7)
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.SKU != nil {
		set["sku"] = *p.SKU
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.InventoryOnHand != nil {
		set["inventory_on_hand"] = *p.InventoryOnHand
	}
	if p.Cost != nil {
		set["cost"] = money(p.Cost)
	}
	if p.Price != nil {
		set["price"] = money(p.Price)
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}
	return set
}

// ListFilter narrows a product listing.
type ListFilter struct {
	ActiveOnly   bool
	Search       string
	IncludeSales bool
}

func money(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v).Round(2), Valid: true}
}
