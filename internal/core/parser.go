package core

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// RowParser turns rows into candles according to a schema.
// It holds no per-row state and is safe to reuse across batches.
type RowParser struct {
	schema Schema
}

// NewRowParser creates a parser for the given schema.
func NewRowParser(schema Schema) *RowParser {
	return &RowParser{schema: schema}
}

// Parse converts one row. It never panics and never returns an error: every
// failure is reported through the outcome's Reason and Err.
func (p *RowParser) Parse(row Row, index int) (out RowOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = RowOutcome{Index: index, Reason: SkipRow, Err: fmt.Errorf("unexpected error: %v", r)}
		}
	}()

	symbol := p.symbol(row)

	ts, err := p.timestamp(row)
	if err != nil {
		return RowOutcome{Index: index, Reason: SkipTimestamp, Err: err}
	}

	volume, err := p.volume(row)
	if err != nil {
		return RowOutcome{Index: index, Reason: SkipRow, Err: err}
	}

	var prices [4]float64
	for i, spec := range []ColumnSpec{p.schema.Open, p.schema.High, p.schema.Low, p.schema.Close} {
		prices[i], err = p.price(row, spec)
		if err != nil {
			return RowOutcome{Index: index, Reason: SkipRow, Err: err}
		}
	}

	return RowOutcome{
		Index:  index,
		Candle: NewCandle(symbol, ts, prices[0], prices[1], prices[2], prices[3], volume),
	}
}

// symbol is taken verbatim. Absent or missing yields null.
func (p *RowParser) symbol(row Row) pgtype.Text {
	v, state := row.Field(p.schema.Symbol.Name)
	if state != FieldPresent {
		return pgtype.Text{}
	}
	return pgtype.Text{String: v, Valid: true}
}

func (p *RowParser) timestamp(row Row) (time.Time, error) {
	date, err := requireField(row, p.schema.Date)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := requireField(row, p.schema.Time)
	if err != nil {
		return time.Time{}, err
	}

	ts, err := ParseTimestamp(date, clock)
	if err != nil {
		return time.Time{}, &FieldError{
			Field:   p.schema.Date.Name + "+" + p.schema.Time.Name,
			Value:   date + " " + clock,
			Message: "does not match YYYYMMDD HH:MM",
		}
	}
	return ts, nil
}

func (p *RowParser) volume(row Row) (int64, error) {
	spec := p.schema.Volume
	raw, state := row.Field(spec.Name)
	switch state {
	case FieldAbsent:
		raw = spec.Default
	case FieldMissing:
		return 0, &FieldError{Field: spec.Name, Message: "missing field"}
	}
	return ParseVolume(raw), nil
}

func (p *RowParser) price(row Row, spec ColumnSpec) (float64, error) {
	raw, state := row.Field(spec.Name)
	switch state {
	case FieldAbsent:
		raw = spec.Default
	case FieldMissing:
		return 0, &FieldError{Field: spec.Name, Message: "missing field"}
	}

	v, err := ParsePrice(raw)
	if err != nil {
		return 0, &FieldError{Field: spec.Name, Value: raw, Message: err.Error()}
	}
	return v, nil
}

// requireField returns the value of a column that must be present.
func requireField(row Row, spec ColumnSpec) (string, error) {
	v, state := row.Field(spec.Name)
	switch state {
	case FieldAbsent:
		return "", &FieldError{Field: spec.Name, Message: "column not in header"}
	case FieldMissing:
		return "", &FieldError{Field: spec.Name, Message: "missing field"}
	}
	return v, nil
}
