package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// JSONIndent is the indentation of the converted document.
const JSONIndent = "    "

// CandleRecord is the JSON shape of one candle. Field order is the key order
// of the output.
type CandleRecord struct {
	Symbol   *string `json:"symbol"`
	Datetime string  `json:"datetime"`
	Open     Price   `json:"open"`
	High     Price   `json:"high"`
	Low      Price   `json:"low"`
	Close    Price   `json:"close"`
	Volume   int64   `json:"volume"`
}

// Record returns the JSON shape of the candle. An invalid symbol becomes null.
func (c Candle) Record() CandleRecord {
	var symbol *string
	if c.symbol.Valid {
		symbol = &c.symbol.String
	}
	return CandleRecord{
		Symbol:   symbol,
		Datetime: c.Datetime(),
		Open:     Price(c.open),
		High:     Price(c.high),
		Low:      Price(c.low),
		Close:    Price(c.close),
		Volume:   c.volume,
	}
}

// Records maps candles to their JSON shape, keeping order.
func Records(candles []Candle) []CandleRecord {
	return lo.Map(candles, func(c Candle, _ int) CandleRecord {
		return c.Record()
	})
}

// EncodeJSON writes candles as an indented JSON array. An empty batch is
// written as [].
func EncodeJSON(w io.Writer, candles []Candle) error {
	records := Records(candles)
	if records == nil {
		records = []CandleRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", JSONIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode candles: %w", err)
	}
	return nil
}

// Price is a float that always renders with a fractional part or exponent,
// so whole prices read 101.0 rather than 101.
type Price float64

// MarshalJSON implements json.Marshaler.
func (p Price) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported price %v", f)
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.AppendFloat(nil, f, 'e', -1, 64), nil
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}
