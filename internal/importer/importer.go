// Package importer commits validated sales entries to the record store in
// fixed-size batches, reporting progress as it goes.
//
// At most one import runs per Importer at a time. A second Run while one is
// in flight is rejected with ErrImportInFlight rather than queued;
// interleaving two imports would corrupt the progress counter and risk
// duplicate partial commits.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"salestrack/internal/sales"
)

// ErrImportInFlight is returned when an import is already running.
// Clients should retry after the active import completes.
var ErrImportInFlight = errors.New("an import is already in progress")

// DefaultBatchSize is the number of entries committed per store call.
const DefaultBatchSize = 500

// EntryStore is the subset of the record store the importer needs.
// Satisfied by *store.Store; tests substitute a fake.
type EntryStore interface {
	InsertMany(ctx context.Context, entries []sales.Entry) error
}

// ProgressFunc receives the percentage of batches committed so far (0-100).
type ProgressFunc func(percent int)

// Importer splits an entry set into batches and commits them in order.
type Importer struct {
	store     EntryStore
	batchSize int

	slot     chan struct{} // single-slot semaphore
	progress atomic.Int32
}

// New creates an Importer committing batchSize entries per store call.
// Non-positive sizes fall back to DefaultBatchSize.
func New(store EntryStore, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		store:     store,
		batchSize: batchSize,
		slot:      make(chan struct{}, 1),
	}
}

// Progress returns the percentage of the current (or last) import committed.
func (im *Importer) Progress() int {
	return int(im.progress.Load())
}

// Active reports whether an import is currently running.
func (im *Importer) Active() bool {
	return len(im.slot) > 0
}

// Run commits entries to the store in source order, one batch at a time.
//
// Batches never commit concurrently or out of order. After each batch the
// importer updates Progress, invokes onProgress if non-nil, and yields before
// continuing so the caller's scheduler is not starved during large imports.
//
// If a batch commit fails the remaining batches are abandoned and the error
// is returned; batches committed before the failure stay persisted. Partial
// import is a visible outcome, not a hidden one.
func (im *Importer) Run(ctx context.Context, entries []sales.Entry, onProgress ProgressFunc) error {
	select {
	case im.slot <- struct{}{}:
	default:
		return ErrImportInFlight
	}
	defer func() { <-im.slot }()

	im.progress.Store(0)

	if len(entries) == 0 {
		im.progress.Store(100)
		if onProgress != nil {
			onProgress(100)
		}
		return nil
	}

	totalBatches := (len(entries) + im.batchSize - 1) / im.batchSize

	for b := 0; b < totalBatches; b++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import cancelled before batch %d: %w", b+1, err)
		}

		start := b * im.batchSize
		end := start + im.batchSize
		if end > len(entries) {
			end = len(entries)
		}

		if err := im.store.InsertMany(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("commit batch %d/%d: %w", b+1, totalBatches, err)
		}

		percent := int(math.Round(float64(b+1) / float64(totalBatches) * 100))
		im.progress.Store(int32(percent))
		if onProgress != nil {
			onProgress(percent)
		}

		if b < totalBatches-1 {
			runtime.Gosched()
		}
	}

	return nil
}
