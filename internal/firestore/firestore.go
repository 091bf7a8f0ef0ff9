// Package firestore stores the ledger in Cloud Firestore.
//
// Categories and transactions live in two top-level collections. Document
// ids are generated by Firestore. Firestore has no bulk delete, so
// DeleteAllTransactions removes documents one at a time: a failure part way
// leaves the remaining documents in place.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dompet/internal/core"
)

const (
	DefaultCategoriesCollection   = "categories"
	DefaultTransactionsCollection = "transactions"
)

type (
	categoryDoc struct {
		Name      string    `firestore:"name"`
		Icon      string    `firestore:"icon"`
		CreatedAt time.Time `firestore:"createdAt"`
		UpdatedAt time.Time `firestore:"updatedAt"`
	}

	transactionDoc struct {
		Amount      float64   `firestore:"amount"`
		Description string    `firestore:"description"`
		Date        time.Time `firestore:"date"`
		CategoryID  string    `firestore:"categoryId"`
		CreatedAt   time.Time `firestore:"createdAt"`
		UpdatedAt   time.Time `firestore:"updatedAt"`
	}
)

type Store struct {
	client       *fs.Client
	categories   string
	transactions string
	now          func() time.Time
}

type Option func(*Store)

// WithCollections overrides the collection names.
func WithCollections(categories, transactions string) Option {
	return func(s *Store) {
		s.categories = categories
		s.transactions = transactions
	}
}

// Open connects to the given project and database. With
// FIRESTORE_EMULATOR_HOST set the client talks to the emulator instead.
func Open(ctx context.Context, projectID, databaseID string, clientOpts []option.ClientOption, opts ...Option) (*Store, error) {
	if databaseID == "" {
		databaseID = fs.DefaultDatabaseID
	}
	client, err := fs.NewClientWithDatabase(ctx, projectID, databaseID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return New(client, opts...), nil
}

// New wraps an existing client. Close closes the client.
func New(client *fs.Client, opts ...Option) *Store {
	s := &Store{
		client:       client,
		categories:   DefaultCategoriesCollection,
		transactions: DefaultTransactionsCollection,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(s.categories).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	docs, err := s.client.Collection(s.categories).OrderBy("createdAt", fs.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		c, err := categoryFromSnapshot(d)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	snap, err := s.client.Collection(s.categories).Doc(id).Get(ctx)
	if isNotFound(err) {
		return core.Category{}, core.NotFound("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return categoryFromSnapshot(snap)
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	docs, err := s.client.Collection(s.categories).Where("name", "==", name).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, err)
	}
	if len(docs) == 0 {
		return core.Category{}, core.NotFound("category", name)
	}
	return categoryFromSnapshot(docs[0])
}

// CreateCategory checks the name and writes the document in one Firestore
// transaction, so concurrent creates of the same name cannot both succeed.
func (s *Store) CreateCategory(ctx context.Context, nc core.NewCategory) (core.Category, error) {
	if err := nc.Validate(); err != nil {
		return core.Category{}, err
	}
	col := s.client.Collection(s.categories)
	ref := col.NewDoc()
	now := s.now().UTC()
	doc := categoryDoc{Name: nc.Name, Icon: nc.Icon, CreatedAt: now, UpdatedAt: now}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		existing, err := tx.Documents(col.Where("name", "==", nc.Name).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return core.DuplicateCategory(nc.Name)
		}
		return tx.Create(ref, doc)
	})
	if core.IsConflict(err) {
		return core.Category{}, err
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to Firestore", "id", ref.ID, "name", nc.Name)
	return core.Category{ID: ref.ID, Name: doc.Name, Icon: doc.Icon, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.client.Collection(s.categories).Doc(id).Delete(ctx, fs.Exists)
	if isNotFound(err) {
		return core.NotFound("category", id)
	}
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	q := s.client.Collection(s.transactions).OrderBy("date", fs.Desc)
	txs, err := s.queryTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *Store) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	q := s.client.Collection(s.transactions).Where("categoryId", "==", categoryID)
	txs, err := s.queryTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions for category %s: %w", categoryID, err)
	}
	return txs, nil
}

// queryTransactions orders results in memory as well, which breaks date ties
// by creation time without needing a composite index.
func (s *Store) queryTransactions(ctx context.Context, q fs.Query) ([]core.Transaction, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var txs []core.Transaction
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := transactionFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	snap, err := s.client.Collection(s.transactions).Doc(id).Get(ctx)
	if isNotFound(err) {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return transactionFromSnapshot(snap)
}

func (s *Store) CreateTransaction(ctx context.Context, nt core.NewTransaction) (core.Transaction, error) {
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := s.now().UTC()
	doc := transactionDoc{
		Amount:      nt.Amount,
		Description: nt.Description,
		Date:        nt.Date.UTC(),
		CategoryID:  nt.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ref := s.client.Collection(s.transactions).NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Firestore",
		"id", ref.ID,
		"amount", doc.Amount,
		"category_id", doc.CategoryID)
	return doc.toCore(ref.ID), nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	ref := s.client.Collection(s.transactions).Doc(id)

	var updated core.Transaction
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return core.NotFound("transaction", id)
		}
		if err != nil {
			return err
		}
		current, err := transactionFromSnapshot(snap)
		if err != nil {
			return err
		}
		updated = p.Apply(current)
		updated.Date = updated.Date.UTC()
		updated.UpdatedAt = s.now().UTC()
		return tx.Set(ref, transactionDoc{
			Amount:      updated.Amount,
			Description: updated.Description,
			Date:        updated.Date,
			CategoryID:  updated.CategoryID,
			CreatedAt:   updated.CreatedAt,
			UpdatedAt:   updated.UpdatedAt,
		})
	})
	if core.IsNotFound(err) {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.client.Collection(s.transactions).Doc(id).Delete(ctx, fs.Exists)
	if isNotFound(err) {
		return core.NotFound("transaction", id)
	}
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// DeleteAllTransactions deletes documents one by one. It is not atomic; on
// error the count of documents already removed is returned with it.
func (s *Store) DeleteAllTransactions(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.transactions).Documents(ctx)
	defer iter.Stop()

	deleted := 0
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("delete all transactions after %d: %w", deleted, err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return deleted, fmt.Errorf("delete transaction %s after %d: %w", snap.Ref.ID, deleted, err)
		}
		deleted++
	}
	slog.WarnContext(ctx, "All transactions deleted from Firestore", "count", deleted)
	return deleted, nil
}

func isNotFound(err error) bool {
	return err != nil && status.Code(err) == codes.NotFound
}

func categoryFromSnapshot(snap *fs.DocumentSnapshot) (core.Category, error) {
	var d categoryDoc
	if err := snap.DataTo(&d); err != nil {
		return core.Category{}, fmt.Errorf("decode category %s: %w", snap.Ref.ID, err)
	}
	return core.Category{
		ID:        snap.Ref.ID,
		Name:      d.Name,
		Icon:      d.Icon,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func transactionFromSnapshot(snap *fs.DocumentSnapshot) (core.Transaction, error) {
	var d transactionDoc
	if err := snap.DataTo(&d); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", snap.Ref.ID, err)
	}
	return d.toCore(snap.Ref.ID), nil
}

func (d transactionDoc) toCore(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      d.Amount,
		Description: d.Description,
		Date:        d.Date.UTC(),
		CategoryID:  d.CategoryID,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}
