package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// Mirror rewrites one sheet with the current CSV export. Each refresh
// overwrites the tab from A1 and then clears the rows below the export so
// deleted transactions disappear. A failed write leaves the previous
// content in place.
type Mirror struct {
	writer    Writer
	source    Exporter
	sheetName string
}

func NewMirror(writer Writer, source Exporter, sheetName string) *Mirror {
	return &Mirror{writer: writer, source: source, sheetName: sheetName}
}

// Refresh copies the ledger into the sheet and returns the number of data rows.
func (m *Mirror) Refresh(ctx context.Context) (int, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := m.source.Export(ctx, &buf); err != nil {
		return 0, fmt.Errorf("export ledger: %w", err)
	}
	rows, err := csvRows(&buf)
	if err != nil {
		return 0, err
	}

	if err := m.writer.Update(ctx, m.sheetName+"!A1", rows); err != nil {
		return 0, fmt.Errorf("update sheet %s: %w", m.sheetName, err)
	}
	stale := fmt.Sprintf("%s!A%d:Z", m.sheetName, len(rows)+1)
	if err := m.writer.Clear(ctx, stale); err != nil {
		return 0, fmt.Errorf("clear stale rows %s: %w", stale, err)
	}

	n := len(rows) - 1
	if n < 0 {
		n = 0
	}
	slog.InfoContext(ctx, "Mirrored ledger to sheet",
		"sheet", m.sheetName,
		"rows", n,
		"duration", time.Since(start))
	return n, nil
}

func csvRows(buf *bytes.Buffer) ([][]any, error) {
	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = literalCell(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// literalCell quotes text the sheet would otherwise evaluate. Cells are
// written as if typed, so a leading = + - or @ starts a formula. Finite
// numbers such as "-5" are left alone.
func literalCell(v string) string {
	if v == "" || !strings.ContainsRune("=+-@", rune(v[0])) {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) {
		return v
	}
	return "'" + v
}
