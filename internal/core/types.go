package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// TimestampLayout is the format of DATE + " " + TIME, and of the datetime
// field in the JSON output.
const TimestampLayout = "20060102 15:04"

// Candle is one OHLCV price bar. It is built by the row parser only after the
// timestamp parsed, and is read-only afterwards.
type Candle struct {
	symbol    pgtype.Text
	timestamp time.Time
	open      float64
	high      float64
	low       float64
	close     float64
	volume    int64
}

// NewCandle builds a candle. An invalid symbol renders as null.
func NewCandle(symbol pgtype.Text, ts time.Time, open, high, low, close float64, volume int64) Candle {
	return Candle{
		symbol:    symbol,
		timestamp: ts,
		open:      open,
		high:      high,
		low:       low,
		close:     close,
		volume:    volume,
	}
}

func (c Candle) Symbol() pgtype.Text  { return c.symbol }
func (c Candle) Timestamp() time.Time { return c.timestamp }
func (c Candle) Open() float64        { return c.open }
func (c Candle) High() float64        { return c.high }
func (c Candle) Low() float64         { return c.low }
func (c Candle) Close() float64       { return c.close }
func (c Candle) Volume() int64        { return c.volume }

// Datetime returns the timestamp in TimestampLayout.
func (c Candle) Datetime() string {
	return c.timestamp.Format(TimestampLayout)
}

// Timeframe is the bar granularity requested by the caller, in minutes.
// It is recorded with each batch; parsing does not use it.
type Timeframe int

// ParseTimeframe parses a form value such as "5".
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: timeframe is required", ErrInvalidTimeframe)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidTimeframe, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidTimeframe, n)
	}
	return Timeframe(n), nil
}

// SkipReason says why a row produced no candle. The zero value means the
// row parsed.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipTimestamp SkipReason = "timestamp parse failure"
	SkipRow       SkipReason = "generic row failure"
)

// RowOutcome is the result of parsing one row: a Candle when Reason is
// SkipNone, otherwise the skip reason and its cause.
type RowOutcome struct {
	Index  int
	Candle Candle
	Reason SkipReason
	Err    error
}

// OK reports whether the row produced a candle.
func (o RowOutcome) OK() bool {
	return o.Reason == SkipNone
}

// FieldError describes a problem with a single column of a row.
type FieldError struct {
	Field   string
	Value   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Diagnostic records a skipped row.
type Diagnostic struct {
	Row    int               // 0-based data row index
	Line   int               // 1-based line in the source file, 0 if unknown
	Reason SkipReason
	Err    error             // underlying cause
	Fields map[string]string // raw row snapshot, keyed by normalized (lowercased) header name
}

// Message renders the diagnostic for logs and reports.
func (d Diagnostic) Message() string {
	if d.Err == nil {
		return fmt.Sprintf("row %d: %s", d.Row, d.Reason)
	}
	return fmt.Sprintf("row %d: %s: %v", d.Row, d.Reason, d.Err)
}

// BatchResult is the outcome of converting one CSV source.
type BatchResult struct {
	Candles        []Candle
	Diagnostics    []Diagnostic
	TotalRows      int
	MissingColumns []string
	BytesRead      int64
	Duration       time.Duration
}

// Skipped returns the number of rows that produced no candle.
func (r *BatchResult) Skipped() int {
	return len(r.Diagnostics)
}

// BatchSummary describes a finished batch for history listings.
type BatchSummary struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Timeframe  Timeframe `json:"timeframe"`
	TotalRows  int       `json:"totalRows"`
	Converted  int       `json:"converted"`
	Skipped    int       `json:"skipped"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BatchRecord is what a BatchStore persists for one batch.
type BatchRecord struct {
	Summary BatchSummary
	Candles []Candle
}
