package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/amqp"
)

type countingMirror struct {
	calls atomic.Int64
	err   error
}

func (m *countingMirror) Refresh(context.Context) (int, error) {
	m.calls.Add(1)
	return 3, m.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLedgerWorkerDebounces(t *testing.T) {
	mirror := &countingMirror{}
	w := NewLedgerWorker(mirror, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 5; i++ {
		if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionCreated)); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}
	waitFor(t, func() bool { return mirror.calls.Load() >= 1 })
	time.Sleep(100 * time.Millisecond)
	if n := mirror.calls.Load(); n != 1 {
		t.Errorf("refreshes = %d, want 1 for a burst", n)
	}

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionDeleted)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return mirror.calls.Load() == 2 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run err = %v", err)
	}
	if s := w.Stats(); s.Handled != 6 || s.Refreshes != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestLedgerWorkerIgnoresUnknownEvents(t *testing.T) {
	mirror := &countingMirror{}
	w := NewLedgerWorker(mirror, 0)

	if err := w.HandleEvent(context.Background(), amqp.LedgerEvent{Type: "expense.sync"}); err != nil {
		t.Errorf("unknown event must be acked, got %v", err)
	}
	if s := w.Stats(); s.Ignored != 1 || s.Handled != 0 {
		t.Errorf("stats = %+v", s)
	}
	select {
	case <-w.trigger:
		t.Error("unknown event must not schedule a refresh")
	default:
	}
}

func TestLedgerWorkerWithoutMirror(t *testing.T) {
	w := NewLedgerWorker(nil, 0)
	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventCategoryCreated)); err != nil {
		t.Fatal(err)
	}
	w.RefreshNow(context.Background())
	if s := w.Stats(); s.Handled != 1 || s.Refreshes != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRefreshNowCountsFailures(t *testing.T) {
	mirror := &countingMirror{err: errors.New("quota exceeded")}
	w := NewLedgerWorker(mirror, 0)
	w.RefreshNow(context.Background())
	if s := w.Stats(); s.Failures != 1 || s.Refreshes != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestTriggerRefreshesWithoutEvent(t *testing.T) {
	mirror := &countingMirror{}
	w := NewLedgerWorker(mirror, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	w.Trigger()
	waitFor(t, func() bool { return mirror.calls.Load() == 1 })
	if s := w.Stats(); s.Handled != 0 || s.Refreshes != 1 {
		t.Errorf("stats = %+v", s)
	}
}
