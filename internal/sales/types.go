// Package sales defines the validated sales record and the mapper that turns
// raw spreadsheet rows into records. This package has no HTTP or database
// dependencies and can be exercised by any frontend.
package sales

import "time"

// Entry is one validated sales transaction line.
//
// Amount is always consistent with Price, Qty and DiscountPercent unless the
// source row supplied an explicit non-zero Amount, in which case the explicit
// value wins.
type Entry struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"` // ISO YYYY-MM-DD
	UPC             string    `json:"upc"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Qty             int       `json:"qty"` // >= 1
	Category        string    `json:"category"`
	Price           float64   `json:"price"`
	DiscountPercent float64   `json:"discountPercent"`
	Amount          float64   `json:"amount"`
	Branch          string    `json:"branch"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ImportResult is the outcome of mapping one uploaded sheet.
//
// Success is true iff at least one record was produced. Errors holds at most
// MaxErrors human-readable row messages; truncation is display-only, all rows
// are still processed.
type ImportResult struct {
	Success bool     `json:"success"`
	Data    []Entry  `json:"data"`
	Errors  []string `json:"errors"`
}

// MaxErrors caps the error list returned to callers.
const MaxErrors = 10

// ExportHeaders is the fixed column order for spreadsheet export.
var ExportHeaders = []string{
	"Date", "UPC", "Product Name", "Description", "Quantity",
	"Category", "Unit Price", "Discount %", "Amount", "Branch", "Created At",
}

// ExportRow returns the entry's cells in ExportHeaders order.
func (e Entry) ExportRow() []any {
	return []any{
		e.Date, e.UPC, e.Name, e.Description, e.Qty,
		e.Category, e.Price, e.DiscountPercent, e.Amount, e.Branch,
		e.CreatedAt.Format(time.RFC3339),
	}
}
