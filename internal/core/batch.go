package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/CandleConvert/internal/logging"
)

// ContextCheckInterval is how often, in rows, Convert checks for cancellation.
var ContextCheckInterval = 100

// Converter drives the row parser over a whole CSV source.
type Converter struct {
	schema Schema
	parser *RowParser
}

// NewConverter creates a converter for the given schema.
func NewConverter(schema Schema) *Converter {
	return &Converter{schema: schema, parser: NewRowParser(schema)}
}

// Convert reads every record of src and returns the surviving candles in
// file order together with a diagnostic for each skipped row.
//
// Row problems never fail the batch. Convert returns an error only when the
// source cannot be read, its header is not valid CSV, or ctx is done.
func (c *Converter) Convert(ctx context.Context, src io.Reader) (*BatchResult, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	source := WrapSource(src)
	reader := csv.NewReader(source)
	reader.FieldsPerRecord = -1

	result := &BatchResult{Candles: []Candle{}}
	finish := func() *BatchResult {
		result.BytesRead = source.BytesRead()
		result.Duration = time.Since(start)
		return result
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return finish(), nil
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: header: %v", ErrInvalidCSV, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}

	// The header is parsed strictly; data records tolerate bare quotes.
	reader.LazyQuotes = true

	resolved := c.schema.Resolve(header)
	result.MissingColumns = resolved.Missing
	if len(resolved.Missing) > 0 {
		logger.Warn("csv header missing required columns", "missing", resolved.Missing, "header", header)
	}
	if len(resolved.Absent) > 0 {
		logger.Debug("csv header missing optional columns, defaults apply", "absent", resolved.Absent)
	}

	for index := 0; ; index++ {
		if index%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
			}
			c.skip(ctx, result, Diagnostic{Row: index, Line: perr.StartLine, Reason: SkipRow, Err: perr.Err})
			result.TotalRows++
			continue
		}
		result.TotalRows++

		row := NewRow(resolved.Index, record)
		outcome := c.parser.Parse(row, index)
		if outcome.OK() {
			result.Candles = append(result.Candles, outcome.Candle)
			continue
		}

		line, _ := reader.FieldPos(0)
		c.skip(ctx, result, Diagnostic{
			Row:    index,
			Line:   line,
			Reason: outcome.Reason,
			Err:    outcome.Err,
			Fields: row.Snapshot(),
		})
	}

	finish()
	logger.Info("csv batch converted",
		"rows", result.TotalRows,
		"converted", len(result.Candles),
		"skipped", result.Skipped(),
		"bytes", result.BytesRead,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (c *Converter) skip(ctx context.Context, result *BatchResult, d Diagnostic) {
	result.Diagnostics = append(result.Diagnostics, d)
	logging.FromContext(ctx).Warn("csv row skipped",
		"row", d.Row,
		"line", d.Line,
		"reason", string(d.Reason),
		"error", d.Err,
	)
}
