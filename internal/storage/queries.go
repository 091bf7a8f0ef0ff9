package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row shapes as stored. Timestamps are fixed-width UTC text so that
// lexical order matches chronological order.
type (
	CategoryRow struct {
		ID        string
		Name      string
		Icon      string
		CreatedAt string
		UpdatedAt string
	}

	TransactionRow struct {
		ID          string
		Amount      sql.NullFloat64
		Description string
		Date        string
		CategoryID  string
		CreatedAt   string
		UpdatedAt   string
	}
)

const listCategories = `SELECT id, name, icon, created_at, updated_at FROM categories ORDER BY created_at, name`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Icon, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getCategory = `SELECT id, name, icon, created_at, updated_at FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (CategoryRow, error) {
	var i CategoryRow
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&i.ID, &i.Name, &i.Icon, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getCategoryByName = `SELECT id, name, icon, created_at, updated_at FROM categories WHERE name = ?`

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (CategoryRow, error) {
	var i CategoryRow
	err := q.db.QueryRowContext(ctx, getCategoryByName, name).Scan(&i.ID, &i.Name, &i.Icon, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createCategory = `INSERT INTO categories (id, name, icon, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg CategoryRow) error {
	_, err := q.db.ExecContext(ctx, createCategory, arg.ID, arg.Name, arg.Icon, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const transactionColumns = `id, amount, description, date, category_id, created_at, updated_at`

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

const listTransactionsByCategory = `SELECT ` + transactionColumns + ` FROM transactions WHERE category_id = ? ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByCategory, categoryID)
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Amount, &i.Description, &i.Date, &i.CategoryID, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	var i TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).
		Scan(&i.ID, &i.Amount, &i.Description, &i.Date, &i.CategoryID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.Amount, arg.Description, arg.Date, arg.CategoryID, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const updateTransaction = `UPDATE transactions SET amount = ?, description = ?, date = ?, category_id = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Amount, arg.Description, arg.Date, arg.CategoryID, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAllTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteAllTransactions(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAllTransactions)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
