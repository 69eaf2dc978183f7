// Package xlsx decodes uploaded spreadsheet files into ordered row mappings
// and builds export workbooks. It is the only package that touches excelize;
// everything downstream works with plain string maps.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when the workbook contains no worksheets.
var ErrNoSheet = errors.New("workbook has no sheets")

// ErrEmptySheet is returned when the first worksheet has no rows.
var ErrEmptySheet = errors.New("worksheet is empty")

// Row is one decoded spreadsheet row. Cells are keyed by the trimmed header
// text of their column; cells missing from short rows default to "".
type Row struct {
	// Line is the 1-based sheet row number (header row is line 1).
	Line  int
	Cells map[string]string
}

// Get returns the cell value for a header, or "" if the column is absent.
func (r Row) Get(header string) string {
	return r.Cells[header]
}

// Decode reads the first worksheet of an xlsx document into an ordered
// sequence of row mappings. The first sheet row is treated as the header and
// excluded from the result. Cell values arrive in their display-formatted
// string representation, as excelize renders them.
func Decode(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]Row, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		cells := make(map[string]string, len(headers))
		for col, h := range headers {
			if h == "" {
				continue
			}
			if col < len(raw) {
				cells[h] = raw[col]
			} else {
				cells[h] = ""
			}
		}
		out = append(out, Row{Line: i + 2, Cells: cells})
	}

	return out, nil
}
