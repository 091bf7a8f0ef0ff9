// Package memory is an in-process ledger store for development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dompet/internal/core"
)

type entry struct {
	tx  core.Transaction
	seq uint64
}

type Store struct {
	mu     sync.Mutex
	cats   []core.Category
	byName map[string]string
	txs    map[string]entry
	seq    uint64
	now    func() time.Time
}

// New returns a store holding the given categories. Seeds with a blank name
// or a name already present are skipped.
func New(seed ...core.NewCategory) *Store {
	s := &Store{
		byName: map[string]string{},
		txs:    map[string]entry{},
		now:    time.Now,
	}
	for _, c := range seed {
		_, _ = s.CreateCategory(context.Background(), c)
	}
	return s
}

// NewFromFile seeds categories from a file of "name,icon" lines. Blank lines
// and lines starting with # are ignored. A missing file yields an empty store.
func NewFromFile(path string) *Store {
	var seed []core.NewCategory
	for _, line := range readLines(path) {
		name, icon, ok := strings.Cut(line, ",")
		if !ok {
			icon = core.DefaultCategoryIcon
		}
		seed = append(seed, core.NewCategory{Name: strings.TrimSpace(name), Icon: strings.TrimSpace(icon)})
	}
	return New(seed...)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, core.NotFound("category", id)
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	id, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return core.Category{}, core.NotFound("category", name)
	}
	return s.GetCategory(ctx, id)
}

func (s *Store) CreateCategory(_ context.Context, nc core.NewCategory) (core.Category, error) {
	if err := nc.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[nc.Name]; exists {
		return core.Category{}, core.DuplicateCategory(nc.Name)
	}
	now := s.now().UTC()
	c := core.Category{ID: uuid.NewString(), Name: nc.Name, Icon: nc.Icon, CreatedAt: now, UpdatedAt: now}
	s.cats = append(s.cats, c)
	s.byName[c.Name] = c.ID
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c.ID == id {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			delete(s.byName, c.Name)
			return nil
		}
	}
	return core.NotFound("category", id)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	return s.list(func(core.Transaction) bool { return true }), nil
}

func (s *Store) ListTransactionsByCategory(_ context.Context, categoryID string) ([]core.Transaction, error) {
	return s.list(func(t core.Transaction) bool { return t.CategoryID == categoryID }), nil
}

func (s *Store) list(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	entries := make([]entry, 0, len(s.txs))
	for _, e := range s.txs {
		if keep(e.tx) {
			entries = append(entries, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.tx.Date.Equal(b.tx.Date) {
			return a.tx.Date.After(b.tx.Date)
		}
		return a.seq > b.seq
	})
	out := make([]core.Transaction, len(entries))
	for i, e := range entries {
		out[i] = e.tx
	}
	return out
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	return e.tx, nil
}

func (s *Store) CreateTransaction(_ context.Context, nt core.NewTransaction) (core.Transaction, error) {
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      nt.Amount,
		Description: nt.Description,
		Date:        nt.Date.UTC(),
		CategoryID:  nt.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.seq++
	s.txs[tx.ID] = entry{tx: tx, seq: s.seq}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	e.tx = p.Apply(e.tx)
	e.tx.Date = e.tx.Date.UTC()
	e.tx.UpdatedAt = s.now().UTC()
	s.txs[id] = e
	return e.tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return core.NotFound("transaction", id)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) DeleteAllTransactions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.txs)
	s.txs = map[string]entry{}
	return n, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
