package aggregate

import (
	"math"
	"testing"
	"time"

	"dompet/internal/core"
)

var wib = time.FixedZone("WIB", 7*3600)

func tx(id string, amount float64, date time.Time, cat *core.Category) core.EnrichedTransaction {
	catID := ""
	if cat != nil {
		catID = cat.ID
	}
	return core.EnrichedTransaction{
		Transaction: core.Transaction{ID: id, Amount: amount, Description: "tx " + id, Date: date, CategoryID: catID},
		Category:    cat,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ids(txs []core.EnrichedTransaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterByMonth(t *testing.T) {
	txs := []core.EnrichedTransaction{
		tx("jan", 1, day(2024, 1, 5), nil),
		tx("feb", 1, day(2024, 2, 5), nil),
	}
	got := FilterByMonth(txs, time.Date(2024, 1, 15, 0, 0, 0, 0, wib))
	if !equalIDs(ids(got), []string{"jan"}) {
		t.Fatalf("FilterByMonth = %v, want [jan]", ids(got))
	}

	// 2024-01-31T20:00Z is already February 1st in WIB.
	edge := []core.EnrichedTransaction{tx("edge", 1, time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), nil)}
	if got := FilterByMonth(edge, time.Date(2024, 2, 1, 0, 0, 0, 0, wib)); len(got) != 1 {
		t.Errorf("local calendar not honoured: %v", ids(got))
	}
	if got := FilterByMonth(edge, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); len(got) != 1 {
		t.Errorf("UTC calendar not honoured: %v", ids(got))
	}
}

func TestFilterByMonthIdempotent(t *testing.T) {
	txs := []core.EnrichedTransaction{
		tx("a", 1, day(2024, 1, 1), nil),
		tx("b", 1, time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), nil),
		tx("c", 1, day(2024, 2, 1), nil),
		tx("d", 1, day(2023, 1, 15), nil),
		tx("e", 1, time.Date(2023, 12, 31, 18, 0, 0, 0, time.UTC), nil),
	}
	refs := []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, wib),
		time.Date(2024, 2, 10, 0, 0, 0, 0, wib),
		time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, ref := range refs {
		once := FilterByMonth(txs, ref)
		twice := FilterByMonth(once, ref)
		if !equalIDs(ids(once), ids(twice)) {
			t.Errorf("ref %v: once = %v, twice = %v", ref, ids(once), ids(twice))
		}
	}
}

func TestSortForFilter(t *testing.T) {
	txs := []core.EnrichedTransaction{
		tx("a", 5, day(2024, 1, 1), nil),
		tx("b", 50, day(2024, 1, 2), nil),
		tx("c", 5, day(2024, 1, 3), nil),
		tx("d", 20, day(2024, 1, 4), nil),
	}
	got := SortForFilter(txs, FilterLargest)
	if !equalIDs(ids(got), []string{"b", "d", "a", "c"}) {
		t.Errorf("largest = %v", ids(got))
	}
	if txs[0].ID != "a" {
		t.Errorf("input was reordered")
	}
	if got := SortForFilter(txs, "latest"); !equalIDs(ids(got), ids(txs)) {
		t.Errorf("non-largest mode must keep order, got %v", ids(got))
	}
}

func TestSortByDateDesc(t *testing.T) {
	txs := []core.EnrichedTransaction{
		tx("old", 1, day(2024, 1, 1), nil),
		tx("new", 1, day(2024, 1, 9), nil),
		tx("mid", 1, day(2024, 1, 5), nil),
	}
	if got := SortByDateDesc(txs); !equalIDs(ids(got), []string{"new", "mid", "old"}) {
		t.Errorf("SortByDateDesc = %v", ids(got))
	}
}

func TestSearch(t *testing.T) {
	txs := []core.EnrichedTransaction{tx("a", 1, day(2024, 1, 1), nil), tx("b", 1, day(2024, 1, 1), nil)}
	txs[0].Description = "Nasi Goreng"
	txs[1].Description = "Bus"
	if got := Search(txs, "goreng"); !equalIDs(ids(got), []string{"a"}) {
		t.Errorf("Search = %v", ids(got))
	}
	if got := Search(txs, "  "); len(got) != 2 {
		t.Errorf("blank term should keep everything")
	}
}

func TestGroupByFormattedDate(t *testing.T) {
	txs := []core.EnrichedTransaction{
		tx("a", 1, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), nil),
		tx("b", 1, time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC), nil),
		tx("c", 1, time.Date(2024, 1, 5, 2, 0, 0, 0, time.UTC), nil),
	}
	groups := GroupByFormattedDate(txs, time.UTC)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Label != "Jumat, 5 Januari" || !equalIDs(ids(groups[0].Transactions), []string{"a", "c"}) {
		t.Errorf("first group = %+v", groups[0])
	}
	if groups[1].Label != "Sabtu, 6 Januari" || !equalIDs(ids(groups[1].Transactions), []string{"b"}) {
		t.Errorf("second group = %+v", groups[1])
	}

	// Every input appears in exactly one group.
	var n int
	for _, g := range groups {
		n += len(g.Transactions)
	}
	if n != len(txs) {
		t.Errorf("groups hold %d transactions, want %d", n, len(txs))
	}
}

func TestFormatDateTimeID(t *testing.T) {
	ts := time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC)
	if got := FormatDateID(ts, wib); got != "Sabtu, 6 Januari" {
		t.Errorf("FormatDateID = %q", got)
	}
	if got := FormatTimeID(ts, wib); got != "00.30" {
		t.Errorf("FormatTimeID = %q", got)
	}
	if got := MonthLabelID(day(2024, 8, 1)); got != "Agustus 2024" {
		t.Errorf("MonthLabelID = %q", got)
	}
}

func TestCategoryTotals(t *testing.T) {
	food := &core.Category{ID: "c1", Name: "Food", Icon: "🍔"}
	misc := &core.Category{ID: "c2", Name: "Misc"}
	txs := []core.EnrichedTransaction{
		tx("a", 10000, day(2024, 1, 1), food),
		tx("b", 2500, day(2024, 1, 2), misc),
		tx("c", 5000, day(2024, 1, 3), food),
		tx("d", 99999, day(2024, 1, 4), nil),
	}
	totals := CategoryTotals(txs)
	if len(totals) != 2 {
		t.Fatalf("got %d buckets, want 2: %+v", len(totals), totals)
	}
	if totals[0] != (CategoryTotal{Name: "Food", Icon: "🍔", Amount: 15000}) {
		t.Errorf("food bucket = %+v", totals[0])
	}
	if totals[1].Icon != core.DefaultCategoryIcon || totals[1].Amount != 2500 {
		t.Errorf("misc bucket = %+v", totals[1])
	}
	if got := SumCategoryTotals(totals); got != 17500 {
		t.Errorf("SumCategoryTotals = %v", got)
	}
	if got := TotalAmount(txs); got != 117499 {
		t.Errorf("TotalAmount = %v", got)
	}
}

func TestCategoryTotalsSumToTotalAmount(t *testing.T) {
	food := &core.Category{ID: "c1", Name: "Food", Icon: "🍔"}
	bus := &core.Category{ID: "c2", Name: "Transport", Icon: "🚗"}
	misc := &core.Category{ID: "c3", Name: "Misc"}
	tests := []struct {
		name string
		txs  []core.EnrichedTransaction
	}{
		{"empty", nil},
		{"single", []core.EnrichedTransaction{tx("a", 10000, day(2024, 1, 1), food)}},
		{"mixed", []core.EnrichedTransaction{
			tx("a", 10000, day(2024, 1, 1), food),
			tx("b", 2500, day(2024, 1, 2), bus),
			tx("c", 0, day(2024, 1, 3), misc),
			tx("d", 7500, day(2024, 1, 4), food),
			tx("e", 1250, day(2024, 1, 5), bus),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := TotalAmount(tt.txs)
			sum := SumCategoryTotals(CategoryTotals(tt.txs))
			if total != sum {
				t.Errorf("TotalAmount = %v, sum of category totals = %v", total, sum)
			}
		})
	}
}

func TestPercentageOfTotal(t *testing.T) {
	tests := []struct {
		amount, total, want float64
	}{
		{1, 3, 33.33},
		{2, 3, 66.67},
		{15000, 17500, 85.71},
		{5, 0, 0},
		{5, math.NaN(), 0},
		{math.NaN(), 10, 0},
		{10, 10, 100},
	}
	for _, tt := range tests {
		if got := PercentageOfTotal(tt.amount, tt.total); got != tt.want {
			t.Errorf("PercentageOfTotal(%v, %v) = %v, want %v", tt.amount, tt.total, got, tt.want)
		}
	}
}

func TestWeeklyBuckets(t *testing.T) {
	txs := []core.EnrichedTransaction{
		tx("a", 1, day(2024, 1, 1), nil),
		tx("b", 2, day(2024, 1, 7), nil),
		tx("c", 4, day(2024, 1, 8), nil),
		tx("d", 8, day(2024, 1, 21), nil),
		tx("e", 16, day(2024, 1, 22), nil),
		tx("f", 32, day(2024, 1, 31), nil),
	}
	want := [4]float64{3, 4, 8, 48}
	if got := WeeklyBuckets(txs, time.UTC); got != want {
		t.Errorf("WeeklyBuckets = %v, want %v", got, want)
	}
}

func TestSummarize(t *testing.T) {
	food := &core.Category{ID: "c1", Name: "Food", Icon: "🍔"}
	txs := []core.EnrichedTransaction{
		tx("a", 100, day(2024, 1, 5), food),
		tx("b", 300, day(2024, 1, 6), food),
		tx("c", 50, day(2024, 1, 6), nil),
		tx("feb", 999, day(2024, 2, 1), food),
	}
	s := Summarize(txs, day(2024, 1, 15), FilterLargest, time.UTC)
	if s.Count != 3 || s.Total != 450 {
		t.Fatalf("count/total = %d/%v", s.Count, s.Total)
	}
	if s.Month != "Januari 2024" {
		t.Errorf("month = %q", s.Month)
	}
	if s.Groups[0].Label != "Sabtu, 6 Januari" {
		t.Errorf("largest mode should lead with the 300 transaction, got %q", s.Groups[0].Label)
	}
	if len(s.CategoryTotals) != 1 || s.CategoryTotals[0].Percentage != 100 {
		t.Errorf("category totals = %+v", s.CategoryTotals)
	}
	if len(s.Weekly) != 4 || s.Weekly[0].Amount != 450 || s.Weekly[3].Label != "22-selesai" {
		t.Errorf("weekly = %+v", s.Weekly)
	}

	empty := Summarize(nil, day(2024, 1, 15), "", time.UTC)
	if empty.Groups == nil || empty.CategoryTotals == nil {
		t.Errorf("empty summary must use empty slices, got %+v", empty)
	}
}
