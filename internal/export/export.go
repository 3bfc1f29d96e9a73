// Package export renders order lists as CSV or XLSX downloads.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"

	"github.com/dayyanintl/surgishop/internal/domain"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const sheet = "Sheet1"

// OrderRow is one order flattened for spreadsheets.
type OrderRow struct {
	OrderNo         string `csv:"order_no"`
	OrderID         string `csv:"order_id"`
	UserID          string `csv:"user_id"`
	Status          string `csv:"status"`
	Items           int    `csv:"items"`
	Subtotal        string `csv:"subtotal"`
	Tax             string `csv:"tax"`
	ShippingCost    string `csv:"shipping_cost"`
	TotalAmount     string `csv:"total_amount"`
	ShippingAddress string `csv:"shipping_address"`
	CreatedAt       string `csv:"created_at"`
}

var headers = []string{
	"order_no", "order_id", "user_id", "status", "items", "subtotal",
	"tax", "shipping_cost", "total_amount", "shipping_address", "created_at",
}

func Rows(orders []domain.Order) []*OrderRow {
	rows := make([]*OrderRow, 0, len(orders))
	for _, o := range orders {
		qty := 0
		for _, it := range o.Items {
			qty += it.Quantity
		}
		rows = append(rows, &OrderRow{
			OrderNo:         o.OrderNo,
			OrderID:         o.ID,
			UserID:          o.UserID,
			Status:          o.Status,
			Items:           qty,
			Subtotal:        o.Subtotal.StringFixed(2),
			Tax:             o.Tax.StringFixed(2),
			ShippingCost:    o.ShippingCost.StringFixed(2),
			TotalAmount:     o.TotalAmount.StringFixed(2),
			ShippingAddress: o.ShippingAddress,
			CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

// ContentType returns the MIME type and file extension for format.
func ContentType(format string) (string, error) {
	switch format {
	case FormatCSV, "":
		return "text/csv", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteOrders writes orders to w in format.
func WriteOrders(w io.Writer, format string, orders []domain.Order) error {
	rows := Rows(orders)
	switch format {
	case FormatCSV, "":
		return gocsv.Marshal(rows, w)
	case FormatXLSX:
		return writeXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeXLSX(w io.Writer, rows []*OrderRow) error {
	f := excelize.NewFile()
	for i, h := range headers {
		f.SetCellValue(sheet, cell(i, 1), h)
	}
	for r, row := range rows {
		values := []interface{}{
			row.OrderNo, row.OrderID, row.UserID, row.Status, row.Items, row.Subtotal,
			row.Tax, row.ShippingCost, row.TotalAmount, row.ShippingAddress, row.CreatedAt,
		}
		for i, v := range values {
			f.SetCellValue(sheet, cell(i, r+2), v)
		}
	}
	return f.Write(w)
}

// cell converts a zero based column and one based row to an A1 reference.
func cell(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return fmt.Sprintf("%s%d", name, row)
}
