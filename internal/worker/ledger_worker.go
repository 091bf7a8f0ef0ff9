// Package worker reacts to ledger events outside the API process.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"dompet/internal/amqp"
)

// Refresher rebuilds a downstream copy of the ledger.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Stats counts what the worker has seen.
type Stats struct {
	Handled   int64
	Ignored   int64
	Refreshes int64
	Failures  int64
}

// LedgerWorker coalesces ledger events into mirror refreshes. The first
// event after a refresh opens a window of length debounce; every event in
// that window is served by a single refresh when it closes.
type LedgerWorker struct {
	mirror   Refresher
	debounce time.Duration
	trigger  chan struct{}

	handled   atomic.Int64
	ignored   atomic.Int64
	refreshes atomic.Int64
	failures  atomic.Int64
}

// NewLedgerWorker creates a worker. A nil mirror turns events into no-ops.
func NewLedgerWorker(mirror Refresher, debounce time.Duration) *LedgerWorker {
	return &LedgerWorker{
		mirror:   mirror,
		debounce: debounce,
		trigger:  make(chan struct{}, 1),
	}
}

// HandleEvent is an amqp.Handler. It never fails: unknown event types are
// acknowledged and dropped, known ones schedule a refresh.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	if !ev.Type.Known() {
		w.ignored.Add(1)
		slog.WarnContext(ctx, "Ignoring unknown ledger event", "event_type", ev.Type)
		return nil
	}
	w.handled.Add(1)
	slog.DebugContext(ctx, "Received ledger event",
		"event_type", ev.Type,
		"transaction_id", ev.TransactionID,
		"count", ev.Count)

	w.Trigger()
	return nil
}

// Trigger schedules a refresh as if an event had arrived. It never blocks.
func (w *LedgerWorker) Trigger() {
	if w.mirror == nil {
		return
	}
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run performs debounced refreshes until ctx is cancelled.
func (w *LedgerWorker) Run(ctx context.Context) error {
	var (
		timer  *time.Timer
		window <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.trigger:
			if window != nil {
				continue
			}
			if w.debounce <= 0 {
				w.RefreshNow(ctx)
				continue
			}
			timer = time.NewTimer(w.debounce)
			window = timer.C
		case <-window:
			window = nil
			w.RefreshNow(ctx)
		}
	}
}

// RefreshNow refreshes the mirror immediately. Failures are logged and
// retried on the next event.
func (w *LedgerWorker) RefreshNow(ctx context.Context) {
	if w.mirror == nil {
		return
	}
	n, err := w.mirror.Refresh(ctx)
	if err != nil {
		w.failures.Add(1)
		slog.ErrorContext(ctx, "Mirror refresh failed", "error", err)
		return
	}
	w.refreshes.Add(1)
	slog.InfoContext(ctx, "Mirror refreshed", "rows", n)
}

func (w *LedgerWorker) Stats() Stats {
	return Stats{
		Handled:   w.handled.Load(),
		Ignored:   w.ignored.Load(),
		Refreshes: w.refreshes.Load(),
		Failures:  w.failures.Load(),
	}
}
