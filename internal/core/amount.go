package core

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// ParseAmount reads the longest leading decimal number of s, the way a
// browser's parseFloat does: "12.5kg" is 12.5, and text with no numeric
// prefix yields NaN instead of an error.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	for _, inf := range []string{"Infinity", "+Infinity"} {
		if strings.HasPrefix(s, inf) {
			return math.Inf(1)
		}
	}
	if strings.HasPrefix(s, "-Infinity") {
		return math.Inf(-1)
	}

	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	digits, seenDot := 0, false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' && !seenDot {
			seenDot = true
		} else {
			break
		}
		end++
	}
	if digits == 0 {
		return math.NaN()
	}
	// Optional exponent, only taken when followed by at least one digit.
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range values saturate like parseFloat does.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v
		}
		return math.NaN()
	}
	return v
}

// FormatAmount renders an amount with the shortest representation that
// round-trips, e.g. 10000, 12.5 or NaN.
func FormatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// JSONAmount is a float64 that encodes non-finite values as null, as JSON.stringify does.
type JSONAmount float64

func (f JSONAmount) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

func (f *JSONAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = JSONAmount(math.NaN())
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		unq, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*f = JSONAmount(ParseAmount(unq))
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return Validation("invalid amount: " + string(data))
	}
	*f = JSONAmount(v)
	return nil
}
