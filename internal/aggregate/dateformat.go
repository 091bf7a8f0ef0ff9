package aggregate

import (
	"fmt"
	"time"
)

var (
	weekdaysID = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
	monthsID   = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}
)

// FormatDateID renders t in loc as an Indonesian "weekday, day month" label,
// e.g. "Jumat, 5 Januari". The year is intentionally omitted.
func FormatDateID(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Invalid Date"
	}
	t = t.In(orLocal(loc))
	return fmt.Sprintf("%s, %d %s", weekdaysID[t.Weekday()], t.Day(), monthsID[t.Month()-1])
}

// FormatTimeID renders the 24-hour time of t in loc as "15.04".
func FormatTimeID(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Invalid Time"
	}
	t = t.In(orLocal(loc))
	return fmt.Sprintf("%02d.%02d", t.Hour(), t.Minute())
}

// MonthLabelID renders "Januari 2024".
func MonthLabelID(t time.Time) string {
	return fmt.Sprintf("%s %d", monthsID[t.Month()-1], t.Year())
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
