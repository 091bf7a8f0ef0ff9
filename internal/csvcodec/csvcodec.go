// Package csvcodec reads and writes the ledger's CSV exchange format.
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"dompet/internal/core"
)

var exportHeader = []string{"id", "amount", "description", "date", "category"}

const (
	colAmount      = "amount"
	colDescription = "description"
	colDate        = "date"
	colCategory    = "category"
)

var requiredColumns = []string{colAmount, colDescription, colDate, colCategory}

// Record is one parsed import row. Amount is NaN and Date is zero when the
// raw value could not be parsed.
type Record struct {
	Line        int
	Amount      float64
	AmountRaw   string
	Description string
	Date        time.Time
	DateRaw     string
	Category    string
}

// Export writes txs with a header row, one line per transaction in the
// order given. Unresolved categories are written as "Unknown".
func Export(w io.Writer, txs []core.EnrichedTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		row := []string{
			t.ID,
			core.FormatAmount(t.Amount),
			t.Description,
			core.FormatTimestamp(t.Date),
			t.CategoryName(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Parse reads an import file. The first row names the columns; amount,
// description, date and category must all be present, in any order.
// Other columns are ignored.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.Validation("CSV file is empty")
	}
	if err != nil {
		return nil, core.Validation(fmt.Sprintf("invalid CSV: %v", err))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, core.Validation("CSV is missing column(s): " + strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.Validation(fmt.Sprintf("invalid CSV: %v", err))
		}
		if blank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		rec := Record{
			Line:        line,
			AmountRaw:   field(row, colAmount),
			Description: field(row, colDescription),
			DateRaw:     field(row, colDate),
			Category:    field(row, colCategory),
		}
		rec.Amount = core.ParseAmount(rec.AmountRaw)
		if d, err := core.ParseTimestamp(rec.DateRaw); err == nil {
			rec.Date = d
		}
		records = append(records, rec)
	}
	return records, nil
}

// Resolve turns records into new transactions by exact category-name match.
// Rows naming no known category, or carrying no usable date, are returned in
// dropped. Both slices keep the input order.
func Resolve(records []Record, categories []core.Category) (resolved []core.NewTransaction, dropped []Record) {
	byName := make(map[string]string, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}
	for _, rec := range records {
		id, ok := byName[rec.Category]
		if !ok || rec.Date.IsZero() {
			dropped = append(dropped, rec)
			continue
		}
		resolved = append(resolved, core.NewTransaction{
			Amount:      rec.Amount,
			Description: rec.Description,
			Date:        rec.Date,
			CategoryID:  id,
		})
	}
	return resolved, dropped
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
