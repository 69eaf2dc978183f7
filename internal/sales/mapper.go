package sales

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"salestrack/internal/parse"
	"salestrack/internal/xlsx"
)

// fieldAliases maps each logical field to its accepted header spellings, in
// lookup order. Matching is case-insensitive, so one lowercase spelling per
// variant is enough.
var fieldAliases = map[string][]string{
	"name":     {"name"},
	"product":  {"product"},
	"branch":   {"branch"},
	"qty":      {"quantity", "qty"},
	"price":    {"price"},
	"discount": {"discount", "discount %"},
	"amount":   {"amount"},
	"date":     {"date"},
	"upc":      {"upc"},
}

// Context carries the import-time inputs the mapper needs beyond the row
// itself: the base month that bare day-of-month cells resolve against, the
// category strategy, and the clock.
type Context struct {
	BaseYear  int
	BaseMonth time.Month
	Category  CategoryExtractor
	Now       func() time.Time
}

// NewContext builds a Context from a reference date. A zero ref means "now".
func NewContext(ref time.Time, category CategoryExtractor) Context {
	if ref.IsZero() {
		ref = time.Now()
	}
	if category == nil {
		category = PrefixExtractor()
	}
	return Context{
		BaseYear:  ref.Year(),
		BaseMonth: ref.Month(),
		Category:  category,
		Now:       time.Now,
	}
}

func (c Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// lookup returns the first non-empty cell among the aliases for field.
// Header matching is case-insensitive.
func lookup(row xlsx.Row, field string) string {
	aliases := fieldAliases[field]
	for _, alias := range aliases {
		for header, val := range row.Cells {
			if strings.EqualFold(strings.TrimSpace(header), alias) {
				if v := strings.TrimSpace(val); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// MapRow validates one raw row and produces zero or one Entry plus zero or
// more error messages. Row-level problems never return a Go error; they
// degrade to defaults or become collected messages, matching how the rest of
// the pipeline treats cell noise.
//
// The returned entry is nil when the row is excluded. A row whose name,
// product, and branch cells are all empty is a blank/separator row and is
// skipped without any message.
func MapRow(row xlsx.Row, ctx Context) (*Entry, []string) {
	name := lookup(row, "name")
	product := lookup(row, "product")
	branch := lookup(row, "branch")

	if name == "" && product == "" && branch == "" {
		return nil, nil
	}

	var errs []string

	// Day-of-month resolution. An unparseable non-empty date cell drops the
	// whole row; an empty cell resolves to the first of the base month.
	day := 1
	if raw := lookup(row, "date"); raw != "" {
		d, ok := parse.Day(raw)
		if !ok {
			return nil, []string{fmt.Sprintf("Row %d: Invalid Date value %q (skipped)", row.Line, raw)}
		}
		day = d
	}

	if name == "" {
		errs = append(errs, fmt.Sprintf("Row %d: Missing name", row.Line))
	}
	if product == "" {
		errs = append(errs, fmt.Sprintf("Row %d: Missing product", row.Line))
	}
	if branch == "" {
		errs = append(errs, fmt.Sprintf("Row %d: Missing branch", row.Line))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	qtyVal, qtyOK := parse.Number(lookup(row, "qty"))
	priceVal, priceOK := parse.Number(lookup(row, "price"))
	discVal, discOK := parse.Number(lookup(row, "discount"))
	amountVal, amountOK := parse.Number(lookup(row, "amount"))

	qty := 1
	if qtyOK && qtyVal > 0 {
		qty = int(math.Round(qtyVal))
		if qty < 1 {
			qty = 1
		}
	}
	price := 0.0
	if priceOK {
		price = priceVal
	}
	discount := 0.0
	if discOK {
		discount = discVal
	}

	computed := parse.Round2(price * float64(qty) * (1 - discount/100))
	amount := computed
	// An explicit zero Amount cell is treated as absent, not as a zero-value
	// sale. Source-observed policy; see DESIGN.md before changing.
	if amountOK && amountVal != 0 {
		amount = amountVal
	}

	date := time.Date(ctx.BaseYear, ctx.BaseMonth, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, day-1)

	return &Entry{
		ID:              uuid.NewString(),
		Date:            date.Format("2006-01-02"),
		UPC:             lookup(row, "upc"),
		Name:            name,
		Description:     product,
		Qty:             qty,
		Category:        ctx.Category(name),
		Price:           price,
		DiscountPercent: discount,
		Amount:          amount,
		Branch:          branch,
		CreatedAt:       ctx.now(),
	}, nil
}

// MapRows runs MapRow over a decoded sheet and assembles the ImportResult.
// Every row is processed; only the error list is truncated, to MaxErrors.
func MapRows(rows []xlsx.Row, ctx Context) ImportResult {
	var (
		data   []Entry
		errors []string
	)

	for _, row := range rows {
		entry, errs := MapRow(row, ctx)
		errors = append(errors, errs...)
		if entry != nil {
			data = append(data, *entry)
		}
	}

	if len(errors) > MaxErrors {
		errors = errors[:MaxErrors]
	}

	return ImportResult{
		Success: len(data) > 0,
		Data:    data,
		Errors:  errors,
	}
}
