package services

import (
	"context"
	"fmt"
	"strings"

	"dompet/internal/amqp"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/ports"
)

// DefaultCategories is the starter set offered to a fresh ledger.
var DefaultCategories = []core.NewCategory{
	{Name: "Makanan", Icon: "🍔"},
	{Name: "Transportasi", Icon: "🚗"},
	{Name: "Belanja", Icon: "🛍️"},
	{Name: "Hiburan", Icon: "🎬"},
	{Name: "Kesehatan", Icon: "💊"},
	{Name: "Edukasi", Icon: "📚"},
	{Name: "Lainnya", Icon: "⚡"},
	{Name: "Gaji", Icon: "💰"},
}

// CategoryService manages categories. Changes invalidate the transaction
// list because enrichment depends on category names and icons.
type CategoryService struct {
	store        ports.CategoryStore
	transactions *TransactionService
	events       EventPublisher
}

func NewCategoryService(store ports.CategoryStore, transactions *TransactionService, events EventPublisher) *CategoryService {
	return &CategoryService{store: store, transactions: transactions, events: events}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create validates and stores a category. Names are unique.
func (s *CategoryService) Create(ctx context.Context, nc core.NewCategory) (core.Category, error) {
	nc.Name = strings.TrimSpace(nc.Name)
	nc.Icon = strings.TrimSpace(nc.Icon)
	if err := nc.Validate(); err != nil {
		return core.Category{}, err
	}
	c, err := s.store.CreateCategory(ctx, nc)
	if err != nil {
		return core.Category{}, err
	}
	s.invalidate()

	ev := amqp.NewLedgerEvent(amqp.EventCategoryCreated)
	ev.CategoryID = c.ID
	publish(ctx, s.events, ev)
	return c, nil
}

// Delete removes a category. Transactions that reference it keep the id
// and render with a null category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return core.Validation("Category ID is required")
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Seed creates every category in seed whose name is not taken yet and
// returns how many were created.
func (s *CategoryService) Seed(ctx context.Context, seed []core.NewCategory) (int, error) {
	created := 0
	for _, nc := range seed {
		_, err := s.store.FindCategoryByName(ctx, nc.Name)
		if err == nil {
			continue
		}
		if !core.IsNotFound(err) {
			return created, fmt.Errorf("seed category %q: %w", nc.Name, err)
		}
		if _, err := s.store.CreateCategory(ctx, nc); err != nil {
			if core.IsConflict(err) {
				continue
			}
			return created, fmt.Errorf("seed category %q: %w", nc.Name, err)
		}
		created++
	}
	if created > 0 {
		s.invalidate()
	}
	return created, nil
}

func (s *CategoryService) invalidate() {
	if s.transactions != nil {
		s.transactions.Invalidate()
	}
}

// LogSeed reports the outcome of a startup seed.
func LogSeed(ctx context.Context, logger *applog.Logger, created int) {
	logger.InfoContext(ctx, "Seeded default categories",
		applog.FieldOperation, applog.OpSeed,
		applog.FieldCount, created)
}
