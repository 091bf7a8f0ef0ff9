package memory

import (
	"context"
	"errors"
	"testing"
)

func TestSheet(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows := [][]any{{"id", "amount"}, {"t1", "10"}}
	if err := s.Update(ctx, "Transactions!A1", rows); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rows[1][0] = "mutated"
	got := s.Rows("Transactions")
	if len(got) != 2 || got[1][0] != "t1" {
		t.Errorf("Rows = %v", got)
	}

	if err := s.Clear(ctx, "Transactions"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Rows("Transactions") != nil {
		t.Error("Clear should drop the tab")
	}

	boom := errors.New("quota")
	s.FailWith(boom)
	if err := s.Update(ctx, "Transactions!A1", rows); !errors.Is(err, boom) {
		t.Errorf("Update err = %v", err)
	}
	if s.Updates() != 1 {
		t.Errorf("Updates = %d, want 1", s.Updates())
	}
}

func TestSheetRowRanges(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := [][]any{{"id"}, {"t1"}, {"t2"}, {"t3"}}
	if err := s.Update(ctx, "T!A1", old); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Update(ctx, "T!A1", [][]any{{"id"}, {"n1"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := s.Rows("T"); len(got) != 4 || got[1][0] != "n1" || got[2][0] != "t2" {
		t.Fatalf("overwrite should keep rows below, got %v", got)
	}

	if err := s.Clear(ctx, "T!A3:Z"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := s.Rows("T"); len(got) != 2 || got[1][0] != "n1" {
		t.Errorf("Clear from row 3 = %v", got)
	}
	if err := s.Clear(ctx, "T!A10:Z"); err != nil || len(s.Rows("T")) != 2 {
		t.Errorf("clearing past the end changed the tab: %v, %v", s.Rows("T"), err)
	}
}
