package core

// convert.go turns raw CSV cells into candle field values.
//
// Policies:
//   - timestamps must match TimestampLayout exactly
//   - volume drops every '-' and falls back to 0 for anything but digits
//   - prices are trimmed; an empty cell is an error, not 0.0
//   - NaN and Inf prices are rejected because JSON cannot carry them

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	errEmptyNumber   = errors.New("empty numeric field")
	errInvalidNumber = errors.New("invalid number")
	errNonFinite     = errors.New("number is not finite")
)

// ParseTimestamp joins a date and a time with a single space and parses the
// result as TimestampLayout.
func ParseTimestamp(date, clock string) (time.Time, error) {
	return time.Parse(TimestampLayout, date+" "+clock)
}

// ParseVolume cleans a volume cell. It never fails: surrounding whitespace
// and every '-' are removed, and anything other than a run of ASCII digits
// that fits in an int64 yields 0.
func ParseVolume(raw string) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if !isDigits(s) {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParsePrice parses a price cell after trimming whitespace.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errEmptyNumber
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNonFinite
	}
	return f, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
