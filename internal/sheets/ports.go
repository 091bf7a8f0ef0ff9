// Package sheets mirrors the ledger into a Google Sheets tab.
package sheets

import (
	"context"
	"io"
)

// Ports for outbound adapters.
type (
	// Writer replaces cell ranges of one spreadsheet.
	Writer interface {
		Clear(ctx context.Context, rng string) error
		Update(ctx context.Context, rng string, rows [][]any) error
	}

	// Exporter produces the ledger CSV that the mirror copies.
	Exporter interface {
		Export(ctx context.Context, w io.Writer) error
	}
)
