package core

// schema.go declares the expected CSV columns and resolves them against a
// file's header once per batch.
//
// Every column has one of three states in a given row:
//  1. present: the header names it and the row has a value at its position
//  2. absent: the header does not name it; the column's Default applies
//  3. missing: the header names it but the row is too short to reach it

import (
	"sort"
	"strings"
)

// ColumnKind is the expected content of a column.
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnDate
	ColumnTime
	ColumnPrice
	ColumnVolume
)

// ColumnSpec declares one expected CSV column.
type ColumnSpec struct {
	Name     string     // Header name, matched case-insensitively
	Kind     ColumnKind // Expected content
	Required bool       // Rows cannot produce a candle without it
	Default  string     // Raw value used when the header lacks the column
}

// Schema maps candle fields to CSV columns.
type Schema struct {
	Symbol ColumnSpec
	Date   ColumnSpec
	Time   ColumnSpec
	Volume ColumnSpec
	Open   ColumnSpec
	High   ColumnSpec
	Low    ColumnSpec
	Close  ColumnSpec
}

// CandleSchema is the layout of the BANKNIFTY intraday export.
var CandleSchema = Schema{
	Symbol: ColumnSpec{Name: "BANKNIFTY", Kind: ColumnText},
	Date:   ColumnSpec{Name: "DATE", Kind: ColumnDate, Required: true},
	Time:   ColumnSpec{Name: "TIME", Kind: ColumnTime, Required: true},
	Volume: ColumnSpec{Name: "VOLUME", Kind: ColumnVolume, Default: "0"},
	Open:   ColumnSpec{Name: "OPEN", Kind: ColumnPrice, Default: "0.0"},
	High:   ColumnSpec{Name: "HIGH", Kind: ColumnPrice, Default: "0.0"},
	Low:    ColumnSpec{Name: "LOW", Kind: ColumnPrice, Default: "0.0"},
	Close:  ColumnSpec{Name: "CLOSE", Kind: ColumnPrice, Default: "0.0"},
}

// Columns returns the specs in header order.
func (s Schema) Columns() []ColumnSpec {
	return []ColumnSpec{s.Symbol, s.Date, s.Time, s.Volume, s.Open, s.High, s.Low, s.Close}
}

// Header returns the canonical header line for the schema.
func (s Schema) Header() []string {
	cols := s.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// HeaderIndex maps normalized column names to their position in a record.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header record. When a name
// repeats, the last occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolvedSchema is a schema bound to one file's header.
type ResolvedSchema struct {
	Schema  Schema
	Index   HeaderIndex
	Missing []string // required columns the header lacks
	Absent  []string // optional columns the header lacks
}

// Resolve binds the schema to a header record.
func (s Schema) Resolve(header []string) ResolvedSchema {
	rs := ResolvedSchema{Schema: s, Index: MakeHeaderIndex(header)}
	for _, col := range s.Columns() {
		if _, ok := rs.Index[normalizeHeader(col.Name)]; ok {
			continue
		}
		if col.Required {
			rs.Missing = append(rs.Missing, col.Name)
		} else {
			rs.Absent = append(rs.Absent, col.Name)
		}
	}
	return rs
}

// FieldState is the state of a column within one row.
type FieldState int

const (
	FieldPresent FieldState = iota
	FieldAbsent
	FieldMissing
)

// Row is one CSV record viewed through its header.
type Row struct {
	index  HeaderIndex
	fields []string
}

// NewRow wraps a record. The index is shared between rows of a batch and
// must not be modified.
func NewRow(index HeaderIndex, fields []string) Row {
	return Row{index: index, fields: fields}
}

// RowFromMap builds a row from a column → value mapping. Columns not in the
// map are absent.
func RowFromMap(m map[string]string) Row {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]string, len(names))
	for i, name := range names {
		fields[i] = m[name]
	}
	return Row{index: MakeHeaderIndex(names), fields: fields}
}

// Field returns the raw value of a column and its state.
func (r Row) Field(name string) (string, FieldState) {
	pos, ok := r.index[normalizeHeader(name)]
	if !ok {
		return "", FieldAbsent
	}
	if pos >= len(r.fields) {
		return "", FieldMissing
	}
	return r.fields[pos], FieldPresent
}

// Snapshot copies the row's values keyed by normalized header name.
func (r Row) Snapshot() map[string]string {
	snap := make(map[string]string, len(r.index))
	for name, pos := range r.index {
		if pos < len(r.fields) {
			snap[name] = r.fields[pos]
		}
	}
	return snap
}
