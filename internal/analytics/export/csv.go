package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/balancesheet/balancesheet/internal/analytics"
)

// WriteSalesCSV serialises sales export rows with a header line.
func WriteSalesCSV(w io.Writer, rows []analytics.SaleExportRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "product", "sku", "category", "unitsSold", "revenue", "unitPrice"}); err != nil {
		return err
	}
	for _, row := range rows {
		unitPrice := ""
		if price, ok := row.UnitPrice(); ok {
			unitPrice = formatMoney(price)
		}
		if err := writer.Write([]string{
			row.Date.UTC().Format("2006-01-02"),
			row.Product,
			row.SKU,
			row.Category,
			strconv.Itoa(row.UnitsSold),
			formatMoney(row.Revenue),
			unitPrice,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductsCSV serialises the product export.
func WriteProductsCSV(w io.Writer, rows []analytics.ProductExportRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "name", "sku", "category", "inventoryOnHand", "cost", "price", "active", "createdAt", "updatedAt"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.ID,
			row.Name,
			row.SKU,
			row.Category,
			strconv.Itoa(row.InventoryOnHand),
			row.Cost,
			row.Price,
			strconv.FormatBool(row.Active),
			row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			row.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
