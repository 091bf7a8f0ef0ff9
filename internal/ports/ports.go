package ports

import (
	"context"

	"dompet/internal/core"
)

// Ports implemented by every persistence adapter. Adapters validate input
// with core, report missing records as core.NotFoundError and duplicate
// category names as core.ConflictError.
type (
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id string) (core.Category, error)
		// FindCategoryByName matches the name exactly.
		FindCategoryByName(ctx context.Context, name string) (core.Category, error)
		CreateCategory(ctx context.Context, c core.NewCategory) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	TransactionStore interface {
		// ListTransactions returns every transaction, newest date first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.NewTransaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
		// DeleteAllTransactions removes every transaction and reports how
		// many were removed. Atomicity depends on the adapter.
		DeleteAllTransactions(ctx context.Context) (int, error)
	}

	Store interface {
		CategoryStore
		TransactionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
