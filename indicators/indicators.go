// Package indicators provides technical analysis indicators for trading.
//
// Each indicator comes in two forms: a streaming struct that consumes one
// closed value at a time (deterministic and safe to use in live, replay and
// backtests), and a batch function that runs the streaming form over a whole
// series and returns an aligned Series. A value at index i depends only on
// inputs 0..i, so computing over a full history and reading index i gives the
// same result as computing over the prefix ending at i.
package indicators

import "github.com/rustyeddy/prophunter/market"

// Indicator computes a single streaming value from candles.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many inputs are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready(), it returns 0;
	// callers should always check Ready().
	Value() float64
}

// Series is the aligned output of an indicator over an input series. It is
// shorter than the input by Warmup-1: Values[i] corresponds to input index
// i+Warmup-1. An empty Values means insufficient data, which is a normal
// state and not an error.
type Series struct {
	Warmup int
	Values []float64
}

// At returns the indicator value aligned with input index idx.
func (s Series) At(idx int) (float64, bool) {
	j := idx - (s.Warmup - 1)
	if j < 0 || j >= len(s.Values) {
		return 0, false
	}
	return s.Values[j], true
}

// Last returns the most recent value.
func (s Series) Last() (float64, bool) {
	if len(s.Values) == 0 {
		return 0, false
	}
	return s.Values[len(s.Values)-1], true
}

// Len returns the number of defined values.
func (s Series) Len() int { return len(s.Values) }

// collect runs ind over candles and gathers every ready value.
func collect(ind Indicator, candles []market.Candle) Series {
	s := Series{Warmup: ind.Warmup()}
	if n := len(candles) - ind.Warmup() + 1; n > 0 {
		s.Values = make([]float64, 0, n)
	}
	for _, c := range candles {
		ind.Update(c)
		if ind.Ready() {
			s.Values = append(s.Values, ind.Value())
		}
	}
	return s
}

// valueInput is implemented by indicators that can consume raw values.
type valueInput interface {
	Add(v float64)
	Warmup() int
	Ready() bool
	Value() float64
}

func collectValues(ind valueInput, values []float64) Series {
	s := Series{Warmup: ind.Warmup()}
	if n := len(values) - ind.Warmup() + 1; n > 0 {
		s.Values = make([]float64, 0, n)
	}
	for _, v := range values {
		ind.Add(v)
		if ind.Ready() {
			s.Values = append(s.Values, ind.Value())
		}
	}
	return s
}
