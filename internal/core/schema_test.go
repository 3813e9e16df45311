package core

import (
	"reflect"
	"testing"
)

func TestCandleSchema_Header(t *testing.T) {
	want := []string{"BANKNIFTY", "DATE", "TIME", "VOLUME", "OPEN", "HIGH", "LOW", "CLOSE"}
	if got := CandleSchema.Header(); !reflect.DeepEqual(got, want) {
		t.Errorf("Header() = %v, want %v", got, want)
	}
}

func TestSchema_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		wantMissing []string
		wantAbsent  []string
	}{
		{
			name:   "all columns any order",
			header: []string{"CLOSE", "OPEN", "BANKNIFTY", "TIME", "DATE", "LOW", "HIGH", "VOLUME"},
		},
		{
			name:   "case and whitespace ignored",
			header: []string{" banknifty", "Date", "time ", "volume", "open", "high", "low", "close"},
		},
		{
			name:        "required column missing",
			header:      []string{"BANKNIFTY", "DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"},
			wantMissing: []string{"TIME"},
		},
		{
			name:       "optional columns absent",
			header:     []string{"DATE", "TIME", "OPEN", "HIGH", "LOW", "CLOSE"},
			wantAbsent: []string{"BANKNIFTY", "VOLUME"},
		},
		{
			name:        "unrelated header",
			header:      []string{"a", "b"},
			wantMissing: []string{"DATE", "TIME"},
			wantAbsent:  []string{"BANKNIFTY", "VOLUME", "OPEN", "HIGH", "LOW", "CLOSE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := CandleSchema.Resolve(tt.header)
			if !reflect.DeepEqual(rs.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", rs.Missing, tt.wantMissing)
			}
			if !reflect.DeepEqual(rs.Absent, tt.wantAbsent) {
				t.Errorf("Absent = %v, want %v", rs.Absent, tt.wantAbsent)
			}
		})
	}
}

func TestMakeHeaderIndex_LastDuplicateWins(t *testing.T) {
	idx := MakeHeaderIndex([]string{"OPEN", "DATE", "open"})
	if got := idx["open"]; got != 2 {
		t.Errorf("idx[open] = %d, want 2", got)
	}
}

func TestRow_Field(t *testing.T) {
	index := MakeHeaderIndex([]string{"DATE", "TIME", "OPEN"})
	row := NewRow(index, []string{"20240102", ""})

	tests := []struct {
		column    string
		wantValue string
		wantState FieldState
	}{
		{"DATE", "20240102", FieldPresent},
		{"date", "20240102", FieldPresent},
		{"TIME", "", FieldPresent},
		{"OPEN", "", FieldMissing},
		{"CLOSE", "", FieldAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			v, state := row.Field(tt.column)
			if v != tt.wantValue || state != tt.wantState {
				t.Errorf("Field(%q) = (%q, %d), want (%q, %d)", tt.column, v, state, tt.wantValue, tt.wantState)
			}
		})
	}
}

func TestRow_Snapshot(t *testing.T) {
	row := NewRow(MakeHeaderIndex([]string{"DATE", "TIME", "OPEN"}), []string{"20240102", "09:15"})

	want := map[string]string{"date": "20240102", "time": "09:15"}
	if got := row.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}
