// Package store persists sales entries in PostgreSQL via pgx.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"salestrack/internal/sales"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sales_entries (
	id          UUID PRIMARY KEY,
	date        DATE NOT NULL,
	upc         TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	qty         INTEGER NOT NULL DEFAULT 1,
	category    TEXT NOT NULL DEFAULT '',
	price       DOUBLE PRECISION NOT NULL DEFAULT 0,
	discount    DOUBLE PRECISION NOT NULL DEFAULT 0,
	amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
	branch      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sales_entries_date ON sales_entries (date);
CREATE INDEX IF NOT EXISTS idx_sales_entries_branch ON sales_entries (branch);
CREATE INDEX IF NOT EXISTS idx_sales_entries_category ON sales_entries (category);
`

const insertSQL = `
INSERT INTO sales_entries
	(id, date, upc, name, description, qty, category, price, discount, amount, branch, created_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Store is the pgx-backed record store for sales entries.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the sales_entries table and its indexes if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertMany commits one batch of entries inside a single transaction,
// queued through pgx's batch protocol. Either the whole batch lands or none
// of it does; the caller decides what a failed batch means for the rest of
// an import.
func (s *Store) InsertMany(ctx context.Context, entries []sales.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	batch := &pgx.Batch{}
	for _, e := range entries {
		date, err := parseISODate(e.Date)
		if err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		batch.Queue(insertSQL,
			e.ID,
			pgtype.Date{Time: date, Valid: true},
			e.UPC,
			e.Name,
			e.Description,
			e.Qty,
			e.Category,
			e.Price,
			e.DiscountPercent,
			e.Amount,
			e.Branch,
			pgtype.Timestamptz{Time: e.CreatedAt, Valid: true},
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns all entries ordered by date, then creation time.
func (s *Store) List(ctx context.Context) ([]sales.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, date, upc, name, description, qty, category,
		       price, discount, amount, branch, created_at
		FROM sales_entries
		ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []sales.Entry
	for rows.Next() {
		var (
			e       sales.Entry
			date    pgtype.Date
			created pgtype.Timestamptz
		)
		if err := rows.Scan(&e.ID, &date, &e.UPC, &e.Name, &e.Description,
			&e.Qty, &e.Category, &e.Price, &e.DiscountPercent, &e.Amount,
			&e.Branch, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Date = date.Time.Format("2006-01-02")
		e.CreatedAt = created.Time
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// DeleteAll removes every entry and returns the number deleted.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sales_entries`)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func parseISODate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
