// Package market holds the candle type consumed by the strategy core and the
// integrity checks every candle must pass before it reaches the core.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrDataIntegrity is returned when a candle or candle series is corrupt:
// non-finite or negative prices, an inverted range, or a timestamp that
// moves backwards.
var ErrDataIntegrity = errors.New("data integrity")

// Candle represents one closed (or forming) OHLC interval. Timestamp is the
// interval open time in unix milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Validate checks the single-candle invariants:
// low <= open,close <= high, all prices finite and non-negative.
func (c Candle) Validate() error {
	prices := [...]struct {
		name string
		v    float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
	}
	for _, p := range prices {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrDataIntegrity, p.name)
		}
		if p.v < 0 {
			return fmt.Errorf("%w: %s %.8f is negative", ErrDataIntegrity, p.name, p.v)
		}
	}
	if c.Low > c.High {
		return fmt.Errorf("%w: low %.8f > high %.8f", ErrDataIntegrity, c.Low, c.High)
	}
	if c.Open < c.Low || c.Open > c.High {
		return fmt.Errorf("%w: open %.8f outside [%.8f, %.8f]", ErrDataIntegrity, c.Open, c.Low, c.High)
	}
	if c.Close < c.Low || c.Close > c.High {
		return fmt.Errorf("%w: close %.8f outside [%.8f, %.8f]", ErrDataIntegrity, c.Close, c.Low, c.High)
	}
	return nil
}

// ValidateSeries validates every candle and checks that timestamps are
// non-decreasing. The returned error names the first offending index.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && c.Timestamp < candles[i-1].Timestamp {
			return fmt.Errorf("candle %d: %w: timestamp %d before %d",
				i, ErrDataIntegrity, c.Timestamp, candles[i-1].Timestamp)
		}
	}
	return nil
}

// Closes returns the close prices of candles in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// LowestLow returns the minimum low over candles. ok is false when candles
// is empty.
func LowestLow(candles []Candle) (low float64, ok bool) {
	if len(candles) == 0 {
		return 0, false
	}
	low = candles[0].Low
	for _, c := range candles[1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low, true
}

// HighestHigh returns the maximum high over candles. ok is false when
// candles is empty.
func HighestHigh(candles []Candle) (high float64, ok bool) {
	if len(candles) == 0 {
		return 0, false
	}
	high = candles[0].High
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high, true
}
