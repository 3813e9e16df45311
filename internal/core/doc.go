// Package core converts CSV files of price bars into JSON candle batches.
//
// The package has no transport dependencies: web handlers, CLI tools and
// tests drive it through [Service] or, below that, [Converter] directly.
//
// # Schema
//
// The expected columns are declared once in a [Schema]. [CandleSchema]
// describes the BANKNIFTY export layout:
//
//	BANKNIFTY,DATE,TIME,VOLUME,OPEN,HIGH,LOW,CLOSE
//
// A schema is resolved against the CSV header once per batch. Columns the
// header lacks are reported on the [BatchResult] and surface on each row as
// missing fields instead of failing the batch.
//
// # Row parsing
//
// [RowParser.Parse] turns one [Row] into a [RowOutcome]: either a [Candle]
// or a skip with one of two reasons:
//
//   - SkipTimestamp: DATE + TIME did not parse as YYYYMMDD HH:MM
//   - SkipRow: any other row problem (missing field, bad number, bad CSV record)
//
// Skips never abort the batch. Each one becomes a [Diagnostic] on the result
// and a warning in the log.
//
// # Batch conversion
//
// [Converter.Convert] reads the whole source, keeping surviving candles in
// file order. [EncodeJSON] renders them as a 4-space indented JSON array.
// A batch fails only when its source cannot be fetched or read, its header
// is not valid CSV, or its output cannot be written. Those errors are mapped
// for users by [MapError].
package core
