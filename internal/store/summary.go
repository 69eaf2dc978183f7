package store

import (
	"context"
	"fmt"
)

// SummaryRow is one aggregation bucket: total quantity and amount for a
// category, branch, or calendar month.
type SummaryRow struct {
	Key    string  `json:"key"`
	Count  int64   `json:"count"`
	Qty    int64   `json:"qty"`
	Amount float64 `json:"amount"`
}

// SummaryByCategory groups entries by category code. Entries whose category
// could not be inferred land in the "" bucket.
func (s *Store) SummaryByCategory(ctx context.Context) ([]SummaryRow, error) {
	return s.summarize(ctx, `category`)
}

// SummaryByBranch groups entries by branch code.
func (s *Store) SummaryByBranch(ctx context.Context) ([]SummaryRow, error) {
	return s.summarize(ctx, `branch`)
}

// SummaryByMonth groups entries by calendar month (YYYY-MM).
func (s *Store) SummaryByMonth(ctx context.Context) ([]SummaryRow, error) {
	return s.summarize(ctx, `to_char(date, 'YYYY-MM')`)
}

// summarize runs a GROUP BY over the given key expression. The expression is
// one of the fixed strings above, never caller input.
func (s *Store) summarize(ctx context.Context, keyExpr string) ([]SummaryRow, error) {
	q := fmt.Sprintf(`
		SELECT %s AS key, COUNT(*), COALESCE(SUM(qty), 0), COALESCE(SUM(amount), 0)
		FROM sales_entries
		GROUP BY key
		ORDER BY key`, keyExpr)

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("summary query: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.Key, &r.Count, &r.Qty, &r.Amount); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return out, nil
}
