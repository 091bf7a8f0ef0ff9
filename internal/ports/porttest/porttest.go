// Package porttest holds the behaviour every ports.Store adapter must share.
package porttest

import (
	"context"
	"testing"
	"time"

	"dompet/internal/core"
	"dompet/internal/ports"
)

// Factory returns an empty store. The suite closes it when the test ends.
type Factory func(t *testing.T) ports.Store

// Run exercises the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s ports.Store)
	}{
		{"CategoryLifecycle", testCategoryLifecycle},
		{"CategoryValidation", testCategoryValidation},
		{"CategoryNameUnique", testCategoryNameUnique},
		{"TransactionLifecycle", testTransactionLifecycle},
		{"TransactionValidation", testTransactionValidation},
		{"ListOrderedByDateDesc", testListOrdered},
		{"ListByCategory", testListByCategory},
		{"MissingTransaction", testMissingTransaction},
		{"DeleteAll", testDeleteAll},
		{"DanglingCategoryTolerated", testDanglingCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func mustCategory(t *testing.T, s ports.Store, name, icon string) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.NewCategory{Name: name, Icon: icon})
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", name, err)
	}
	return c
}

func mustTransaction(t *testing.T, s ports.Store, nt core.NewTransaction) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), nt)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func testCategoryLifecycle(t *testing.T, s ports.Store) {
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	food := mustCategory(t, s, "Food", "🍔")
	if food.ID == "" || food.Name != "Food" || food.Icon != "🍔" {
		t.Fatalf("created category = %+v", food)
	}
	mustCategory(t, s, "Transport", "🚗")

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2", len(cats))
	}

	got, err := s.GetCategory(ctx, food.ID)
	if err != nil || got.Name != "Food" {
		t.Fatalf("GetCategory = %+v, %v", got, err)
	}
	byName, err := s.FindCategoryByName(ctx, "Food")
	if err != nil || byName.ID != food.ID {
		t.Fatalf("FindCategoryByName = %+v, %v", byName, err)
	}
	if _, err := s.FindCategoryByName(ctx, "food"); !core.IsNotFound(err) {
		t.Errorf("name lookup must be exact, got %v", err)
	}

	if err := s.DeleteCategory(ctx, food.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := s.GetCategory(ctx, food.ID); !core.IsNotFound(err) {
		t.Errorf("GetCategory after delete err = %v", err)
	}
	if err := s.DeleteCategory(ctx, food.ID); !core.IsNotFound(err) {
		t.Errorf("second DeleteCategory err = %v", err)
	}
}

func testCategoryValidation(t *testing.T, s ports.Store) {
	ctx := context.Background()
	for _, nc := range []core.NewCategory{{Icon: "🍔"}, {Name: "Food"}} {
		if _, err := s.CreateCategory(ctx, nc); !core.IsValidation(err) {
			t.Errorf("CreateCategory(%+v) err = %v, want validation", nc, err)
		}
	}
}

func testCategoryNameUnique(t *testing.T, s ports.Store) {
	mustCategory(t, s, "Food", "🍔")
	_, err := s.CreateCategory(context.Background(), core.NewCategory{Name: "Food", Icon: "🍕"})
	if !core.IsConflict(err) {
		t.Fatalf("duplicate name err = %v, want conflict", err)
	}
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 1 {
		t.Errorf("duplicate must not be stored, have %d categories", len(cats))
	}
}

func testTransactionLifecycle(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", "🍔")
	other := mustCategory(t, s, "Other", "⚡")

	created := mustTransaction(t, s, core.NewTransaction{Amount: 10000, Description: "Lunch", Date: day(5), CategoryID: food.ID})
	if created.ID == "" || created.Amount != 10000 || created.Description != "Lunch" || !created.Date.Equal(day(5)) {
		t.Fatalf("created = %+v", created)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: %+v", created)
	}

	got, err := s.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.CategoryID != food.ID || !got.Date.Equal(day(5)) {
		t.Errorf("GetTransaction = %+v", got)
	}

	amount := 12.5
	desc := "Dinner"
	date := time.Date(2024, 1, 6, 19, 30, 0, 0, time.UTC)
	updated, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{
		Amount: &amount, Description: &desc, Date: &date, CategoryID: &other.ID,
	})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount != 12.5 || updated.Description != "Dinner" || !updated.Date.Equal(date) || updated.CategoryID != other.ID {
		t.Errorf("updated = %+v", updated)
	}

	// A partial patch leaves the other fields alone.
	onlyDesc := "Late dinner"
	partial, err := s.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Description: &onlyDesc})
	if err != nil {
		t.Fatalf("partial UpdateTransaction: %v", err)
	}
	if partial.Amount != 12.5 || partial.Description != "Late dinner" || partial.CategoryID != other.ID {
		t.Errorf("partial = %+v", partial)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := s.GetTransaction(ctx, created.ID); !core.IsNotFound(err) {
		t.Errorf("GetTransaction after delete err = %v", err)
	}
}

func testTransactionValidation(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", "🍔")
	bad := []core.NewTransaction{
		{Amount: 1, CategoryID: food.ID},
		{Amount: 1, Date: day(1)},
	}
	for _, nt := range bad {
		if _, err := s.CreateTransaction(ctx, nt); !core.IsValidation(err) {
			t.Errorf("CreateTransaction(%+v) err = %v, want validation", nt, err)
		}
	}
	// Zero amount and empty description are accepted.
	mustTransaction(t, s, core.NewTransaction{Date: day(1), CategoryID: food.ID})
}

func testListOrdered(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", "🍔")
	for _, d := range []int{3, 9, 1, 5} {
		mustTransaction(t, s, core.NewTransaction{Amount: float64(d), Date: day(d), CategoryID: food.ID})
	}
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("got %d transactions, want 4", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.After(txs[i-1].Date) {
			t.Fatalf("not ordered by date desc at %d: %v after %v", i, txs[i].Date, txs[i-1].Date)
		}
	}
	if !txs[0].Date.Equal(day(9)) {
		t.Errorf("first = %v, want %v", txs[0].Date, day(9))
	}
}

func testListByCategory(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", "🍔")
	bus := mustCategory(t, s, "Transport", "🚗")
	mustTransaction(t, s, core.NewTransaction{Amount: 1, Date: day(1), CategoryID: food.ID})
	mustTransaction(t, s, core.NewTransaction{Amount: 2, Date: day(2), CategoryID: bus.ID})
	mustTransaction(t, s, core.NewTransaction{Amount: 3, Date: day(3), CategoryID: food.ID})

	txs, err := s.ListTransactionsByCategory(ctx, food.ID)
	if err != nil {
		t.Fatalf("ListTransactionsByCategory: %v", err)
	}
	if len(txs) != 2 || txs[0].Amount != 3 || txs[1].Amount != 1 {
		t.Errorf("by category = %+v", txs)
	}
	none, err := s.ListTransactionsByCategory(ctx, "nope")
	if err != nil || len(none) != 0 {
		t.Errorf("unknown category = %+v, %v", none, err)
	}
}

func testMissingTransaction(t *testing.T, s ports.Store) {
	ctx := context.Background()
	const id = "does-not-exist"
	if _, err := s.GetTransaction(ctx, id); !core.IsNotFound(err) {
		t.Errorf("GetTransaction err = %v", err)
	}
	desc := "x"
	if _, err := s.UpdateTransaction(ctx, id, core.TransactionPatch{Description: &desc}); !core.IsNotFound(err) {
		t.Errorf("UpdateTransaction err = %v", err)
	}
	if err := s.DeleteTransaction(ctx, id); !core.IsNotFound(err) {
		t.Errorf("DeleteTransaction err = %v", err)
	}
}

func testDeleteAll(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", "🍔")
	for i := 1; i <= 3; i++ {
		mustTransaction(t, s, core.NewTransaction{Amount: float64(i), Date: day(i), CategoryID: food.ID})
	}
	n, err := s.DeleteAllTransactions(ctx)
	if err != nil {
		t.Fatalf("DeleteAllTransactions: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d, want 3", n)
	}
	txs, err := s.ListTransactions(ctx)
	if err != nil || len(txs) != 0 {
		t.Errorf("after delete all: %+v, %v", txs, err)
	}
	if cats, _ := s.ListCategories(ctx); len(cats) != 1 {
		t.Errorf("categories must survive delete all, have %d", len(cats))
	}
	if n, err := s.DeleteAllTransactions(ctx); err != nil || n != 0 {
		t.Errorf("delete all on empty store = %d, %v", n, err)
	}
}

func testDanglingCategory(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", "🍔")
	tx := mustTransaction(t, s, core.NewTransaction{Amount: 1, Date: day(1), CategoryID: food.ID})
	if err := s.DeleteCategory(ctx, food.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	got, err := s.GetTransaction(ctx, tx.ID)
	if err != nil || got.CategoryID != food.ID {
		t.Fatalf("transaction with deleted category = %+v, %v", got, err)
	}
}
