package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"dompet/internal/core"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps concurrent imports clear of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, len(rows))
	for i, row := range rows {
		cats[i] = categoryFromRow(row)
	}
	return cats, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	row, err := r.queries.GetCategoryByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category", name)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, err)
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.NewCategory) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	now := r.now().UTC()
	row := CategoryRow{
		ID:        uuid.NewString(),
		Name:      c.Name,
		Icon:      c.Icon,
		CreatedAt: formatTime(now),
		UpdatedAt: formatTime(now),
	}
	if err := r.queries.CreateCategory(ctx, row); err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.DuplicateCategory(c.Name)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", row.ID, "name", row.Name)
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n == 0 {
		return core.NotFound("category", id)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for category %s: %w", categoryID, err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.NewTransaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := r.now().UTC()
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date.UTC(),
		CategoryID:  t.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.queries.CreateTransaction(ctx, transactionToRow(tx)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"amount", tx.Amount,
		"category_id", tx.CategoryID,
		"date", core.FormatTimestamp(tx.Date))
	return tx, nil
}

// UpdateTransaction applies p inside a database transaction so the read and
// write see the same row.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer dbtx.Rollback()
	q := r.queries.WithTx(dbtx)

	row, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction %s: %w", id, err)
	}
	current, err := transactionFromRow(row)
	if err != nil {
		return core.Transaction{}, err
	}

	updated := p.Apply(current)
	updated.Date = updated.Date.UTC()
	updated.UpdatedAt = r.now().UTC()
	if _, err := q.UpdateTransaction(ctx, transactionToRow(updated)); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if err := dbtx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return core.NotFound("transaction", id)
	}
	return nil
}

// DeleteAllTransactions is a single DELETE statement and therefore atomic.
func (r *SQLiteRepository) DeleteAllTransactions(ctx context.Context) (int, error) {
	n, err := r.queries.DeleteAllTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all transactions: %w", err)
	}
	slog.WarnContext(ctx, "All transactions deleted from SQLite", "count", n)
	return int(n), nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func categoryFromRow(row CategoryRow) core.Category {
	created, _ := parseTime(row.CreatedAt)
	updated, _ := parseTime(row.UpdatedAt)
	return core.Category{
		ID:        row.ID,
		Name:      row.Name,
		Icon:      row.Icon,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

func transactionFromRow(row TransactionRow) (core.Transaction, error) {
	date, err := parseTime(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	created, _ := parseTime(row.CreatedAt)
	updated, _ := parseTime(row.UpdatedAt)
	amount := math.NaN()
	if row.Amount.Valid {
		amount = row.Amount.Float64
	}
	return core.Transaction{
		ID:          row.ID,
		Amount:      amount,
		Description: row.Description,
		Date:        date,
		CategoryID:  row.CategoryID,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func transactionsFromRows(rows []TransactionRow) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// transactionToRow stores NaN amounts as NULL; SQLite cannot hold NaN.
func transactionToRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Amount:      sql.NullFloat64{Float64: t.Amount, Valid: !math.IsNaN(t.Amount)},
		Description: t.Description,
		Date:        formatTime(t.Date),
		CategoryID:  t.CategoryID,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}
