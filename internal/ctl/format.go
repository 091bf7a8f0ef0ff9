// Package ctl holds the dompetctl configuration file and terminal
// rendering helpers.
package ctl

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// FormatRupiah renders an amount the way the ledger screens do,
// e.g. 1234567.5 -> "Rp 1.234.567,5". Non-finite amounts render as "Rp -".
func FormatRupiah(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "Rp -"
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole)

	s := "Rp " + sign + groupThousands(whole.String())
	if !frac.IsZero() {
		// "0.5" -> "5"
		s += "," + strings.TrimPrefix(frac.String(), "0.")
	}
	return s
}

// groupThousands inserts dot separators into a string of digits.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatPercent renders 85.71 as "85,71%".
func FormatPercent(p float64) string {
	return strings.Replace(strconv.FormatFloat(p, 'f', -1, 64), ".", ",", 1) + "%"
}

// CategoryLabel is the icon and name of a transaction's category.
func CategoryLabel(tx core.EnrichedTransaction) string {
	if tx.Category == nil {
		return core.DefaultCategoryIcon + " " + core.UnknownCategoryName
	}
	icon := tx.Category.Icon
	if icon == "" {
		icon = core.DefaultCategoryIcon
	}
	return icon + " " + tx.Category.Name
}

// Truncate shortens s to max runes, ending with "…" when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
