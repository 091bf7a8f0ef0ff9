package client

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/core"
	apphttp "dompet/internal/http"
	applog "dompet/internal/log"
	"dompet/internal/memory"
	"dompet/internal/services"
)

type apiEnv struct {
	client *Client
	gets   atomic.Int64
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := applog.New(applog.Config{Component: "test", Handler: slog.NewTextHandler(io.Discard, nil)})
	store := memory.New()
	txs := services.NewTransactionService(store, services.WithLocation(time.UTC), services.WithLogger(logger))
	cats := services.NewCategoryService(store, txs, nil)
	srv := apphttp.NewServer(":0", txs, cats, store, apphttp.Options{Logger: logger, RateLimitPerMinute: 1000})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	env := &apiEnv{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			env.gets.Add(1)
		}
		srv.Handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, WithHTTPClient(ts.Client()), WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.client = c
	return env
}

func (e *apiEnv) category(t *testing.T, name, icon string) core.Category {
	t.Helper()
	cat, err := e.client.CreateCategory(context.Background(), core.NewCategory{Name: name, Icon: icon})
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", name, err)
	}
	return cat
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"localhost:8080", "ftp://example.com", "://"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) should fail", raw)
		}
	}
}

func TestCreateAndList(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	food := env.category(t, "Food", "🍔")

	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	created, err := env.client.CreateTransaction(ctx, core.NewTransaction{Amount: 10000, Description: "Lunch", Date: date, CategoryID: food.ID})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == "" || created.Category == nil || created.Category.Name != "Food" {
		t.Fatalf("created = %+v", created)
	}

	txs, err := env.client.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != 10000 || !txs[0].Date.Equal(date) || txs[0].CategoryName() != "Food" {
		t.Fatalf("Transactions = %+v", txs)
	}

	byCat, err := env.client.TransactionsByCategory(ctx, food.ID)
	if err != nil || len(byCat) != 1 {
		t.Errorf("TransactionsByCategory = %+v, %v", byCat, err)
	}
}

func TestReadsAreCachedUntilMutation(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	food := env.category(t, "Food", "🍔")

	for i := 0; i < 3; i++ {
		if _, err := env.client.Transactions(ctx); err != nil {
			t.Fatalf("Transactions: %v", err)
		}
	}
	if got := env.gets.Load(); got != 1 {
		t.Fatalf("cached reads hit the server %d times, want 1", got)
	}

	if _, err := env.client.CreateTransaction(ctx, core.NewTransaction{Amount: 1, Date: time.Now(), CategoryID: food.ID}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	txs, err := env.client.Transactions(ctx)
	if err != nil || len(txs) != 1 {
		t.Fatalf("after create: %+v, %v", txs, err)
	}
	if got := env.gets.Load(); got != 2 {
		t.Errorf("mutation must invalidate the cached list, gets = %d", got)
	}

	// Category reads have their own key.
	if _, err := env.client.Categories(ctx); err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if _, err := env.client.Categories(ctx); err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if got := env.gets.Load(); got != 3 {
		t.Errorf("categories gets = %d, want 3", got)
	}
	env.category(t, "Transport", "🚗")
	cats, err := env.client.Categories(ctx)
	if err != nil || len(cats) != 2 {
		t.Errorf("after category create: %+v, %v", cats, err)
	}
}

func TestCacheDisabled(t *testing.T) {
	env := newAPIEnv(t)
	WithCacheTTL(0)(env.client)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := env.client.Categories(ctx); err != nil {
			t.Fatalf("Categories: %v", err)
		}
	}
	if got := env.gets.Load(); got != 2 {
		t.Errorf("gets = %d, want 2 with caching off", got)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	food := env.category(t, "Food", "🍔")
	created, err := env.client.CreateTransaction(ctx, core.NewTransaction{Amount: 10, Description: "Tea", Date: time.Now(), CategoryID: food.ID})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	desc := "Coffee"
	updated, err := env.client.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Description != "Coffee" || updated.Amount != 10 {
		t.Errorf("updated = %+v", updated)
	}

	_, err = env.client.UpdateTransaction(ctx, "missing", core.TransactionPatch{Description: &desc})
	if !IsNotFound(err) {
		t.Errorf("update missing err = %v, want 404", err)
	}

	if err := env.client.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := env.client.DeleteTransaction(ctx, created.ID); !IsNotFound(err) {
		t.Errorf("second delete err = %v", err)
	}
	txs, err := env.client.Transactions(ctx)
	if err != nil || len(txs) != 0 {
		t.Errorf("after delete: %+v, %v", txs, err)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	env := newAPIEnv(t)
	_, err := env.client.UpdateTransaction(context.Background(), "", core.TransactionPatch{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Transaction ID is required" {
		t.Errorf("APIError = %+v", apiErr)
	}

	env.category(t, "Food", "🍔")
	_, err = env.client.CreateCategory(context.Background(), core.NewCategory{Name: "Food", Icon: "🍕"})
	if apiErr, ok := err.(*APIError); !ok || apiErr.Status != http.StatusConflict {
		t.Errorf("duplicate category err = %v", err)
	}
}

func TestImportExportAndDeleteAll(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	env.category(t, "Food", "🍔")

	csv := "date,category,amount,description\n" +
		"2024-01-06,Food,5000,Snack\n" +
		"2024-01-07,Unknown,7000,Dropped\n" +
		"2024-01-08,Food,abc,Odd\n"
	result, err := env.client.ImportCSV(ctx, "in.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if len(result.Transactions) != 2 || result.Message == "" {
		t.Fatalf("import result = %+v", result)
	}
	var sawNaN bool
	for _, tx := range result.Transactions {
		if math.IsNaN(tx.Amount) {
			sawNaN = true
		}
	}
	if !sawNaN {
		t.Errorf("unparseable amount should round-trip as NaN: %+v", result.Transactions)
	}

	var out strings.Builder
	if err := env.client.ExportCSV(ctx, &out); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.HasPrefix(out.String(), "id,amount,description,date,category\n") || !strings.Contains(out.String(), "Snack") {
		t.Errorf("export = %q", out.String())
	}

	n, err := env.client.DeleteAllTransactions(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAllTransactions = %d, %v", n, err)
	}
	txs, err := env.client.Transactions(ctx)
	if err != nil || len(txs) != 0 {
		t.Errorf("after delete all: %+v, %v", txs, err)
	}
}

func TestSummary(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	food := env.category(t, "Food", "🍔")
	for _, nt := range []core.NewTransaction{
		{Amount: 100, Description: "Rice", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), CategoryID: food.ID},
		{Amount: 300, Description: "Noodles", Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), CategoryID: food.ID},
		{Amount: 999, Description: "Rice", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), CategoryID: food.ID},
	} {
		if _, err := env.client.CreateTransaction(ctx, nt); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	ref := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	local, err := env.client.Summary(ctx, ref, "largest", "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if local.Count != 2 || local.Total != 400 || local.Month != "Januari 2024" {
		t.Errorf("local summary = %+v", local)
	}
	if local.Groups[0].Label != "Sabtu, 6 Januari" {
		t.Errorf("largest first group = %q", local.Groups[0].Label)
	}

	searched, err := env.client.Summary(ctx, ref, "", "rice")
	if err != nil || searched.Count != 1 {
		t.Errorf("searched summary = %+v, %v", searched, err)
	}

	remote, err := env.client.ServerSummary(ctx, 2024, time.January, "largest", "")
	if err != nil {
		t.Fatalf("ServerSummary: %v", err)
	}
	if remote.Count != local.Count || remote.Total != local.Total || remote.Month != local.Month {
		t.Errorf("server summary %+v differs from local %+v", remote, local)
	}
}
