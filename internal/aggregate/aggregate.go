// Package aggregate turns a snapshot of enriched transactions into the
// views the ledger screens need: month filtering, ordering, grouping by day
// and per-category totals.
//
// Every function here is pure. Inputs are never mutated; functions that
// reorder return a new slice.
package aggregate

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// FilterLargest is the sort mode that orders transactions by amount.
const FilterLargest = "largest"

type (
	// Group is the set of transactions sharing one formatted date label.
	Group struct {
		Label        string                     `json:"label"`
		Transactions []core.EnrichedTransaction `json:"transactions"`
	}

	// CategoryTotal is the running sum for one category name.
	CategoryTotal struct {
		Name       string  `json:"name"`
		Icon       string  `json:"icon"`
		Amount     float64 `json:"amount"`
		Percentage float64 `json:"percentage"`
	}
)

// MarshalJSON encodes a non-finite Amount as null.
func (c CategoryTotal) MarshalJSON() ([]byte, error) {
	type plain CategoryTotal
	return json.Marshal(struct {
		plain
		Amount core.JSONAmount `json:"amount"`
	}{plain(c), core.JSONAmount(c.Amount)})
}

// SortForFilter orders by amount, largest first, when mode is "largest".
// Any other mode returns txs as given; date ordering is the store's job.
func SortForFilter(txs []core.EnrichedTransaction, mode string) []core.EnrichedTransaction {
	if mode != FilterLargest {
		return txs
	}
	out := clone(txs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// SortByDateDesc returns a copy of txs ordered newest first.
func SortByDateDesc(txs []core.EnrichedTransaction) []core.EnrichedTransaction {
	out := clone(txs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// FilterByMonth keeps transactions in the same calendar year and month as
// ref, both read in ref's location.
func FilterByMonth(txs []core.EnrichedTransaction, ref time.Time) []core.EnrichedTransaction {
	loc := ref.Location()
	year, month := ref.Year(), ref.Month()
	out := make([]core.EnrichedTransaction, 0, len(txs))
	for _, t := range txs {
		d := t.Date.In(loc)
		if d.Year() == year && d.Month() == month {
			out = append(out, t)
		}
	}
	return out
}

// Search keeps transactions whose description contains term, ignoring case.
func Search(txs []core.EnrichedTransaction, term string) []core.EnrichedTransaction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return txs
	}
	out := make([]core.EnrichedTransaction, 0, len(txs))
	for _, t := range txs {
		if strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t)
		}
	}
	return out
}

// GroupByFormattedDate partitions txs by their Indonesian date label.
// Groups appear in the order their label is first seen and keep the input
// order inside each group.
func GroupByFormattedDate(txs []core.EnrichedTransaction, loc *time.Location) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, t := range txs {
		label := FormatDateID(t.Date, loc)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}

// TotalAmount sums every amount in txs.
func TotalAmount(txs []core.EnrichedTransaction) float64 {
	var sum float64
	for _, t := range txs {
		sum += t.Amount
	}
	return sum
}

// CategoryTotals sums amounts per category name, in order of first
// appearance. Transactions without a resolvable category name are left out
// entirely; they are not bucketed as "Unknown".
func CategoryTotals(txs []core.EnrichedTransaction) []CategoryTotal {
	index := make(map[string]int)
	var totals []CategoryTotal
	for _, t := range txs {
		if t.Category == nil || t.Category.Name == "" {
			continue
		}
		name := t.Category.Name
		icon := t.Category.Icon
		if icon == "" {
			icon = core.DefaultCategoryIcon
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Name: name})
		}
		totals[i].Amount += t.Amount
		totals[i].Icon = icon
	}
	return totals
}

// SumCategoryTotals adds up the buckets produced by CategoryTotals.
func SumCategoryTotals(totals []CategoryTotal) float64 {
	var sum float64
	for _, c := range totals {
		sum += c.Amount
	}
	return sum
}

// WithPercentages fills Percentage for each bucket relative to total.
func WithPercentages(totals []CategoryTotal, total float64) []CategoryTotal {
	out := make([]CategoryTotal, len(totals))
	for i, c := range totals {
		c.Percentage = PercentageOfTotal(c.Amount, total)
		out[i] = c
	}
	return out
}

// PercentageOfTotal returns amount/total*100 rounded to two decimals.
// A zero or non-finite total, or a non-finite amount, yields 0.
func PercentageOfTotal(amount, total float64) float64 {
	if total == 0 || !finite(total) || !finite(amount) {
		return 0
	}
	pct := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(total)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := pct.Float64()
	return f
}

// WeeklyBuckets sums amounts into the chart's day-of-month ranges
// 1-7, 8-14, 15-21 and 22 to month end, reading dates in loc.
func WeeklyBuckets(txs []core.EnrichedTransaction, loc *time.Location) [4]float64 {
	var buckets [4]float64
	loc = orLocal(loc)
	for _, t := range txs {
		i := (t.Date.In(loc).Day() - 1) / 7
		if i > 3 {
			i = 3
		}
		buckets[i] += t.Amount
	}
	return buckets
}

// WeeklyBucketLabels names the ranges returned by WeeklyBuckets.
var WeeklyBucketLabels = [4]string{"1-7", "8-14", "15-21", "22-selesai"}

func clone(txs []core.EnrichedTransaction) []core.EnrichedTransaction {
	out := make([]core.EnrichedTransaction, len(txs))
	copy(out, txs)
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
