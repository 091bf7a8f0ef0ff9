package aggregate

import (
	"time"

	"dompet/internal/core"
)

// Summary is the month view: grouped transactions plus the figures the
// dashboard and chart show alongside them.
type Summary struct {
	Month          string          `json:"month"`
	Total          core.JSONAmount `json:"total"`
	Count          int             `json:"count"`
	Groups         []Group         `json:"groups"`
	CategoryTotals []CategoryTotal `json:"categoryTotals"`
	Weekly         []WeeklyBucket  `json:"weekly"`
}

type WeeklyBucket struct {
	Label  string          `json:"label"`
	Amount core.JSONAmount `json:"amount"`
}

// Summarize builds the month view for ref. Transactions are filtered to
// ref's month, ordered per mode and grouped by day label in loc. Category
// percentages are relative to the category-total sum, not Total.
func Summarize(txs []core.EnrichedTransaction, ref time.Time, mode string, loc *time.Location) Summary {
	monthly := FilterByMonth(txs, ref)
	ordered := SortForFilter(monthly, mode)

	totals := CategoryTotals(monthly)
	buckets := WeeklyBuckets(monthly, loc)
	weekly := make([]WeeklyBucket, len(buckets))
	for i, amount := range buckets {
		weekly[i] = WeeklyBucket{Label: WeeklyBucketLabels[i], Amount: core.JSONAmount(amount)}
	}

	groups := GroupByFormattedDate(ordered, loc)
	if groups == nil {
		groups = []Group{}
	}
	return Summary{
		Month:          MonthLabelID(ref),
		Total:          core.JSONAmount(TotalAmount(monthly)),
		Count:          len(monthly),
		Groups:         groups,
		CategoryTotals: WithPercentages(totals, SumCategoryTotals(totals)),
		Weekly:         weekly,
	}
}
