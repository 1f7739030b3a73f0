package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRow marks a batch row that fails validation.
var ErrInvalidRow = errors.New("invalid sale row")

// BatchRow is one line of a bulk sales upload.
type BatchRow struct {
	ProductName     string   `json:"productName" validate:"required,max=200"`
	Date            string   `json:"date" validate:"required"`
	UnitsSold       *float64 `json:"unitsSold" validate:"required,gte=0"`
	Revenue         *float64 `json:"revenue" validate:"required,gte=0"`
	InventoryOnHand *int     `json:"inventoryOnHand" validate:"omitempty,gte=0"`
}

// BatchResult summarises a batch upload. Row failures do not abort the batch.
type BatchResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseDate accepts ISO dates, ISO timestamps and US style dates. Dates without a
// zone are read as UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidRow, raw)
}

type parsedRow struct {
	productName     string
	date            time.Time
	unitsSold       int
	revenue         float64
	inventoryOnHand *int
}
