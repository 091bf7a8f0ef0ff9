package core

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultCategoryIcon is shown for a category that carries no icon.
const DefaultCategoryIcon = "📁"

// UnknownCategoryName labels transactions whose category cannot be resolved.
const UnknownCategoryName = "Unknown"

type (
	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Icon      string    `json:"icon"`
		CreatedAt time.Time `json:"-"`
		UpdatedAt time.Time `json:"-"`
	}

	Transaction struct {
		ID          string
		Amount      float64
		Description string
		Date        time.Time
		CategoryID  string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// EnrichedTransaction is a Transaction joined with its category.
	// Category is nil when the referenced category no longer exists.
	EnrichedTransaction struct {
		Transaction
		Category *Category
	}

	NewCategory struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}

	NewTransaction struct {
		Amount      float64
		Description string
		Date        time.Time
		CategoryID  string
	}

	// TransactionPatch holds the replaceable fields of a transaction; nil
	// fields are left untouched.
	TransactionPatch struct {
		Amount      *float64
		Description *string
		Date        *time.Time
		CategoryID  *string
	}
)

func (c NewCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validation("Category name is required")
	}
	if strings.TrimSpace(c.Icon) == "" {
		return Validation("Category icon is required")
	}
	return nil
}

func (t NewTransaction) Validate() error {
	if t.Date.IsZero() {
		return Validation("Transaction date is required")
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return Validation("Transaction categoryId is required")
	}
	return nil
}

func (p TransactionPatch) Validate() error {
	if p.Date != nil && p.Date.IsZero() {
		return Validation("Transaction date is invalid")
	}
	if p.CategoryID != nil && strings.TrimSpace(*p.CategoryID) == "" {
		return Validation("Transaction categoryId is required")
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.Date == nil && p.CategoryID == nil
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	return t
}

// CategoryName returns the resolved category name or UnknownCategoryName.
func (e EnrichedTransaction) CategoryName() string {
	if e.Category == nil || e.Category.Name == "" {
		return UnknownCategoryName
	}
	return e.Category.Name
}

type transactionJSON struct {
	ID          string     `json:"id"`
	Amount      JSONAmount `json:"amount"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	CategoryID  string     `json:"categoryId"`
	Category    *Category  `json:"category"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Amount:      JSONAmount(t.Amount),
		Description: t.Description,
		Date:        FormatTimestamp(t.Date),
		CategoryID:  t.CategoryID,
	})
}

// MarshalJSON always emits the category key so both backends produce the
// same shape: an object, or null when the category is missing.
func (e EnrichedTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          e.ID,
		Amount:      JSONAmount(e.Amount),
		Description: e.Description,
		Date:        FormatTimestamp(e.Date),
		CategoryID:  e.CategoryID,
		Category:    e.Category,
	})
}

func (e *EnrichedTransaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := ParseTimestamp(raw.Date)
	if err != nil && raw.Date != "" {
		return err
	}
	*e = EnrichedTransaction{
		Transaction: Transaction{
			ID:          raw.ID,
			Amount:      float64(raw.Amount),
			Description: raw.Description,
			Date:        date,
			CategoryID:  raw.CategoryID,
		},
		Category: raw.Category,
	}
	return nil
}
