package csvcodec

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"dompet/internal/core"
)

func TestExport(t *testing.T) {
	food := &core.Category{ID: "c1", Name: "Food", Icon: "🍔"}
	txs := []core.EnrichedTransaction{
		{
			Transaction: core.Transaction{ID: "t1", Amount: 10000, Description: "Lunch, spicy", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), CategoryID: "c1"},
			Category:    food,
		},
		{
			Transaction: core.Transaction{ID: "t2", Amount: 12.5, Description: "Orphan", Date: time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC), CategoryID: "gone"},
		},
	}
	var buf bytes.Buffer
	if err := Export(&buf, txs); err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := "id,amount,description,date,category\n" +
		"t1,10000,\"Lunch, spicy\",2024-01-05T00:00:00.000Z,Food\n" +
		"t2,12.5,Orphan,2024-01-06T08:00:00.000Z,Unknown\n"
	if buf.String() != want {
		t.Errorf("Export =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, nil); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if buf.String() != "id,amount,description,date,category\n" {
		t.Errorf("empty export = %q", buf.String())
	}
}

func TestParse(t *testing.T) {
	in := "\ufeffdate, Category ,amount,description,note\n" +
		"2024-01-06,Food,5000,Snack,x\n" +
		"\n" +
		"not-a-date,Food,12abc,Bad date,\n" +
		"2024-01-07,Transport,oops,\"Bus, late\"\n"
	records, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(records), records)
	}

	first := records[0]
	if first.Amount != 5000 || first.Description != "Snack" || first.Category != "Food" {
		t.Errorf("first record = %+v", first)
	}
	if !first.Date.Equal(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)) || first.Line != 2 {
		t.Errorf("first record date/line = %v/%d", first.Date, first.Line)
	}

	if records[1].Amount != 12 || !records[1].Date.IsZero() || records[1].DateRaw != "not-a-date" {
		t.Errorf("second record = %+v", records[1])
	}
	if !math.IsNaN(records[2].Amount) || records[2].AmountRaw != "oops" || records[2].Description != "Bus, late" {
		t.Errorf("third record = %+v", records[2])
	}
}

func TestParseMissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("amount,description,date\n1,a,2024-01-01\n"))
	if !core.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "category") {
		t.Errorf("error should name the missing column: %v", err)
	}
	if _, err := Parse(strings.NewReader("")); !core.IsValidation(err) {
		t.Errorf("empty input err = %v", err)
	}
}

func TestResolve(t *testing.T) {
	cats := []core.Category{{ID: "c1", Name: "Food"}, {ID: "c2", Name: "Transport"}}
	day := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Line: 2, Amount: 5000, Description: "Snack", Date: day, Category: "Unknown"},
		{Line: 3, Amount: 7000, Description: "Bus", Date: day, Category: "Transport"},
		{Line: 4, Amount: 1, Description: "No date", Category: "Food"},
		{Line: 5, Amount: 2, Description: "case", Date: day, Category: "food"},
	}
	resolved, dropped := Resolve(records, cats)
	if len(resolved) != 1 || resolved[0].CategoryID != "c2" || resolved[0].Amount != 7000 {
		t.Errorf("resolved = %+v", resolved)
	}
	if len(dropped) != 3 || dropped[0].Line != 2 || dropped[1].Line != 4 || dropped[2].Line != 5 {
		t.Errorf("dropped = %+v", dropped)
	}
}

func TestExportParseRoundTrip(t *testing.T) {
	food := &core.Category{ID: "c1", Name: "Food", Icon: "🍔"}
	orig := []core.EnrichedTransaction{
		{Transaction: core.Transaction{ID: "t1", Amount: 10000, Description: "Lunch", Date: time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC), CategoryID: "c1"}, Category: food},
		{Transaction: core.Transaction{ID: "t2", Amount: 0.1, Description: "", Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), CategoryID: "c1"}, Category: food},
	}
	var buf bytes.Buffer
	if err := Export(&buf, orig); err != nil {
		t.Fatalf("Export: %v", err)
	}
	records, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	resolved, dropped := Resolve(records, []core.Category{*food})
	if len(dropped) != 0 || len(resolved) != len(orig) {
		t.Fatalf("resolved %d dropped %d", len(resolved), len(dropped))
	}
	for i, nt := range resolved {
		o := orig[i]
		if nt.Amount != o.Amount || nt.Description != o.Description || !nt.Date.Equal(o.Date) || nt.CategoryID != o.CategoryID {
			t.Errorf("row %d: got %+v, want %+v", i, nt, o.Transaction)
		}
	}
}
