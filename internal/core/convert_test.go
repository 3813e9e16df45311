package core

import (
	"errors"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseTimestamp Tests
// ----------------------------------------------------------------------------

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		clock   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "valid",
			date:  "20240102",
			clock: "09:15",
			want:  time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC),
		},
		{
			name:  "midnight",
			date:  "20231231",
			clock: "00:00",
			want:  time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{name: "dashed date", date: "2024-01-02", clock: "09:15", wantErr: true},
		{name: "seconds present", date: "20240102", clock: "09:15:00", wantErr: true},
		{name: "month out of range", date: "20241302", clock: "09:15", wantErr: true},
		{name: "hour out of range", date: "20240102", clock: "25:00", wantErr: true},
		{name: "garbage time", date: "20240102", clock: "9:1x", wantErr: true},
		{name: "empty", date: "", clock: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.date, tt.clock)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q, %q) = %v, want error", tt.date, tt.clock, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q, %q) error: %v", tt.date, tt.clock, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q, %q) = %v, want %v", tt.date, tt.clock, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseVolume Tests
// ----------------------------------------------------------------------------

func TestParseVolume(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"plain integer", "1500", 1500},
		{"surrounding whitespace", "  42 ", 42},
		{"zero", "0", 0},
		{"lone dash", "-", 0},
		{"dash inside digits", "1-000", 1000},
		{"leading dash is dropped", "-5", 5},
		{"negative looking volume", "-1234", 1234},
		{"empty", "", 0},
		{"letters", "abc", 0},
		{"decimal", "1.5", 0},
		{"plus sign", "+5", 0},
		{"overflows int64", "99999999999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVolume(tt.input); got != tt.want {
				t.Errorf("ParseVolume(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParsePrice Tests
// ----------------------------------------------------------------------------

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr error
	}{
		{name: "integer", input: "101", want: 101},
		{name: "decimal", input: "101.25", want: 101.25},
		{name: "whitespace trimmed", input: " 99.5 ", want: 99.5},
		{name: "negative", input: "-2.5", want: -2.5},
		{name: "exponent", input: "1e3", want: 1000},
		{name: "empty", input: "", wantErr: errEmptyNumber},
		{name: "blank", input: "   ", wantErr: errEmptyNumber},
		{name: "letters", input: "abc", wantErr: errInvalidNumber},
		{name: "thousands separator", input: "1,000", wantErr: errInvalidNumber},
		{name: "nan", input: "NaN", wantErr: errNonFinite},
		{name: "infinity", input: "inf", wantErr: errNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParsePrice(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		input   string
		want    Timeframe
		wantErr bool
	}{
		{"5", 5, false},
		{" 15 ", 15, false},
		{"", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
		{"five", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeframe(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeframe) {
					t.Errorf("ParseTimeframe(%q) error = %v, want ErrInvalidTimeframe", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeframe(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeframe(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
