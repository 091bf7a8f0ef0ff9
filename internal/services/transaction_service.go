package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"dompet/internal/aggregate"
	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/csvcodec"
	applog "dompet/internal/log"
	"dompet/internal/ports"
)

const (
	cacheKeyTransactions = "transactions"

	// ImportSuccessMessage accompanies every successful CSV import.
	ImportSuccessMessage = "CSV data imported successfully"

	defaultImportConcurrency = 8

	// loadTimeout bounds a shared list load once it is detached from the
	// caller that started it.
	loadTimeout = 30 * time.Second
)

// errIDRequired is returned when an update or delete carries no id.
var errIDRequired = core.Validation("Transaction ID is required")

// ImportResult is the outcome of a CSV import. Dropped rows are only logged.
type ImportResult struct {
	Message      string                     `json:"message"`
	Transactions []core.EnrichedTransaction `json:"transactions"`
}

// TransactionService orchestrates ledger operations over a store: category
// enrichment, cached listing, CSV import/export and change events.
type TransactionService struct {
	store             ports.Store
	events            EventPublisher
	cache             *cache.LRUCache[[]core.EnrichedTransaction]
	generation        atomic.Uint64
	group             singleflight.Group
	importConcurrency int
	loc               *time.Location
	logger            *applog.StructuredLogger
}

type Option func(*TransactionService)

// WithEvents publishes a ledger event after every mutation.
func WithEvents(p EventPublisher) Option {
	return func(s *TransactionService) { s.events = p }
}

// WithCacheTTL caches the enriched list for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *TransactionService) { s.cache = cache.NewLRUCache[[]core.EnrichedTransaction](1, ttl) }
}

// WithImportConcurrency bounds the number of concurrent creates during import.
func WithImportConcurrency(n int) Option {
	return func(s *TransactionService) {
		if n > 0 {
			s.importConcurrency = n
		}
	}
}

// WithLocation sets the calendar used for month filtering and date labels.
func WithLocation(loc *time.Location) Option {
	return func(s *TransactionService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger replaces the default component logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *TransactionService) {
		if l != nil {
			s.logger = applog.NewStructuredLogger(l)
		}
	}
}

func NewTransactionService(store ports.Store, opts ...Option) *TransactionService {
	s := &TransactionService{
		store:             store,
		cache:             cache.NewLRUCache[[]core.EnrichedTransaction](1, 0),
		importConcurrency: defaultImportConcurrency,
		loc:               time.Local,
		logger: applog.NewStructuredLogger(applog.New(applog.Config{
			Handler:   slog.Default().Handler(),
			Component: applog.ComponentLedger,
		})),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the list cache so it can be registered for periodic cleanup.
func (s *TransactionService) Cache() *cache.LRUCache[[]core.EnrichedTransaction] {
	return s.cache
}

// Location is the calendar used for summaries.
func (s *TransactionService) Location() *time.Location {
	return s.loc
}

// ListEnriched returns every transaction, newest first, joined with its
// category. Concurrent callers share one store round trip. The shared load
// does not inherit any caller's cancellation; each caller stops waiting when
// its own ctx ends.
func (s *TransactionService) ListEnriched(ctx context.Context) ([]core.EnrichedTransaction, error) {
	if txs, ok := s.cache.Get(cacheKeyTransactions); ok {
		return txs, nil
	}

	ch := s.group.DoChan(cacheKeyTransactions, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		gen := s.generation.Load()
		txs, err := s.load(loadCtx)
		if err != nil {
			return nil, err
		}
		// A mutation while loading makes this snapshot stale.
		if s.generation.Load() == gen {
			s.cache.Set(cacheKeyTransactions, txs)
		}
		return txs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]core.EnrichedTransaction), nil
	}
}

// ListByCategory returns the transactions of one category, newest first.
func (s *TransactionService) ListByCategory(ctx context.Context, categoryID string) ([]core.EnrichedTransaction, error) {
	var (
		txs  []core.Transaction
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.store.ListTransactionsByCategory(gctx, categoryID)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.store.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list transactions by category: %w", err)
	}
	return Enrich(txs, cats), nil
}

func (s *TransactionService) load(ctx context.Context) ([]core.EnrichedTransaction, error) {
	var (
		txs  []core.Transaction
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.store.ListTransactions(gctx)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.store.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return Enrich(txs, cats), nil
}

// Enrich joins transactions with their categories. A transaction whose
// category is missing gets a nil Category.
func Enrich(txs []core.Transaction, cats []core.Category) []core.EnrichedTransaction {
	byID := make(map[string]*core.Category, len(cats))
	for i := range cats {
		c := cats[i]
		byID[c.ID] = &c
	}
	out := make([]core.EnrichedTransaction, len(txs))
	for i, t := range txs {
		out[i] = core.EnrichedTransaction{Transaction: t, Category: byID[t.CategoryID]}
	}
	return out
}

func (s *TransactionService) enrichOne(ctx context.Context, t core.Transaction) (core.EnrichedTransaction, error) {
	out := core.EnrichedTransaction{Transaction: t}
	c, err := s.store.GetCategory(ctx, t.CategoryID)
	switch {
	case err == nil:
		out.Category = &c
	case core.IsNotFound(err):
	default:
		return out, fmt.Errorf("resolve category: %w", err)
	}
	return out, nil
}

// Get returns one enriched transaction.
func (s *TransactionService) Get(ctx context.Context, id string) (core.EnrichedTransaction, error) {
	if strings.TrimSpace(id) == "" {
		return core.EnrichedTransaction{}, errIDRequired
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}
	return s.enrichOne(ctx, t)
}

// Create stores a transaction. A category id that does not resolve is
// accepted and rendered with a null category.
func (s *TransactionService) Create(ctx context.Context, nt core.NewTransaction) (core.EnrichedTransaction, error) {
	t, err := s.store.CreateTransaction(ctx, nt)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}
	s.invalidate()
	s.logger.LogTransaction(ctx, applog.OpCreate, t.ID, t.CategoryID, t.Amount)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionCreated)
	ev.TransactionID = t.ID
	ev.CategoryID = t.CategoryID
	publish(ctx, s.events, ev)

	return s.enrichOne(ctx, t)
}

// Update replaces the fields set in patch.
func (s *TransactionService) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.EnrichedTransaction, error) {
	if strings.TrimSpace(id) == "" {
		return core.EnrichedTransaction{}, errIDRequired
	}
	t, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}
	s.invalidate()
	s.logger.LogTransaction(ctx, applog.OpUpdate, t.ID, t.CategoryID, t.Amount)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionUpdated)
	ev.TransactionID = t.ID
	ev.CategoryID = t.CategoryID
	publish(ctx, s.events, ev)

	return s.enrichOne(ctx, t)
}

// Delete removes one transaction.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errIDRequired
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.LogTransaction(ctx, applog.OpDelete, id, "", 0)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionDeleted)
	ev.TransactionID = id
	publish(ctx, s.events, ev)
	return nil
}

// DeleteAll removes every transaction and reports how many were removed.
// On the document store a failure can leave a partial deletion; the count
// then reflects what was removed.
func (s *TransactionService) DeleteAll(ctx context.Context) (int, error) {
	n, err := s.store.DeleteAllTransactions(ctx)
	if n > 0 || err == nil {
		s.invalidate()
	}
	if err != nil {
		return n, fmt.Errorf("delete all transactions: %w", err)
	}
	slog.InfoContext(ctx, "Deleted all transactions", applog.FieldCount, n)

	ev := amqp.NewLedgerEvent(amqp.EventTransactionsCleared)
	ev.Count = n
	publish(ctx, s.events, ev)
	return n, nil
}

// Import parses CSV from r, resolves category names against the current
// categories and creates the resolved rows concurrently. Rows with an
// unknown category or an unreadable date are dropped and only logged.
// Created transactions are returned in CSV order. On failure the rows
// already created stay stored.
func (s *TransactionService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	records, err := csvcodec.Parse(r)
	if err != nil {
		return ImportResult{}, err
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("list categories: %w", err)
	}
	resolved, dropped := csvcodec.Resolve(records, cats)

	created := make([]core.Transaction, len(resolved))
	ok := make([]bool, len(resolved))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.importConcurrency)
	for i, nt := range resolved {
		g.Go(func() error {
			t, err := s.store.CreateTransaction(gctx, nt)
			if err != nil {
				return fmt.Errorf("import row %d: %w", i+1, err)
			}
			created[i], ok[i] = t, true
			return nil
		})
	}
	werr := g.Wait()

	kept := make([]core.Transaction, 0, len(created))
	for i, t := range created {
		if ok[i] {
			kept = append(kept, t)
		}
	}
	if len(kept) > 0 {
		s.invalidate()
	}

	droppedLines := make([]int, len(dropped))
	for i, d := range dropped {
		droppedLines[i] = d.Line
	}
	s.logger.LogImport(ctx, len(kept), droppedLines)

	if werr != nil {
		return ImportResult{}, werr
	}

	ev := amqp.NewLedgerEvent(amqp.EventTransactionsImport)
	ev.Count = len(kept)
	publish(ctx, s.events, ev)

	return ImportResult{
		Message:      ImportSuccessMessage,
		Transactions: Enrich(kept, cats),
	}, nil
}

// Export writes every transaction as CSV.
func (s *TransactionService) Export(ctx context.Context, w io.Writer) error {
	txs, err := s.ListEnriched(ctx)
	if err != nil {
		return err
	}
	return csvcodec.Export(w, txs)
}

// Summary builds the month view for ref: optional description search, then
// month filter, ordering and grouping.
func (s *TransactionService) Summary(ctx context.Context, ref time.Time, mode, term string) (aggregate.Summary, error) {
	txs, err := s.ListEnriched(ctx)
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.Summarize(aggregate.Search(txs, term), ref.In(s.loc), mode, s.loc), nil
}

// Invalidate drops the cached list. Category changes call it too since
// enrichment depends on categories.
func (s *TransactionService) Invalidate() {
	s.invalidate()
}

func (s *TransactionService) invalidate() {
	s.generation.Add(1)
	s.cache.Delete(cacheKeyTransactions)
}
