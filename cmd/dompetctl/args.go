package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"dompet/internal/client"
	"dompet/internal/core"
)

// parseMonth reads YYYY-MM in loc and returns mid-month; empty means the
// current month.
func parseMonth(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		now = now.In(loc)
		return time.Date(now.Year(), now.Month(), 15, 12, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return time.Date(t.Year(), t.Month(), 15, 12, 0, 0, 0, loc), nil
}

// parseDate accepts a local date or date-time, or a full ISO timestamp.
// Empty means now.
func parseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return core.ParseTimestamp(s)
}

func parseAmount(s string) (float64, error) {
	v := core.ParseAmount(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// resolveCategory matches ref against category IDs, then exact names,
// then names ignoring case.
func resolveCategory(ctx context.Context, c *client.Client, ref string) (core.Category, error) {
	cats, err := c.Categories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	return matchCategory(cats, ref)
}

func matchCategory(cats []core.Category, ref string) (core.Category, error) {
	for _, cat := range cats {
		if cat.ID == ref {
			return cat, nil
		}
	}
	for _, cat := range cats {
		if cat.Name == ref {
			return cat, nil
		}
	}
	for _, cat := range cats {
		if strings.EqualFold(cat.Name, ref) {
			return cat, nil
		}
	}
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.Name
	}
	return core.Category{}, fmt.Errorf("no category %q (have: %s)", ref, strings.Join(names, ", "))
}

// resolveTransactionID expands a unique ID prefix as shown by list.
func resolveTransactionID(ctx context.Context, c *client.Client, prefix string) (string, error) {
	txs, err := c.Transactions(ctx)
	if err != nil {
		return "", err
	}
	return matchTransactionID(txs, prefix)
}

func matchTransactionID(txs []core.EnrichedTransaction, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("transaction id is required")
	}
	var found []string
	for _, tx := range txs {
		if tx.ID == prefix {
			return tx.ID, nil
		}
		if strings.HasPrefix(tx.ID, prefix) {
			found = append(found, tx.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no transaction matches %q", prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q matches %d transactions, use more characters", prefix, len(found))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
