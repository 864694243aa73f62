package indicators

import (
	"fmt"

	"github.com/rustyeddy/prophunter/market"
)

// MACD is a streaming Moving Average Convergence Divergence.
//
//	line   = EMA(fast) - EMA(slow)
//	signal = EMA(signal) over line
//
// The line is defined once the slow EMA is ready; the signal needs another
// signal-1 line values on top of that.
type MACD struct {
	fast, slow, sig int

	fastEMA   *ExponentialMA
	slowEMA   *ExponentialMA
	signalEMA *ExponentialMA

	line float64
}

// NewMACD creates a MACD(fast, slow, signal). The usual choice is 12, 26, 9.
func NewMACD(fast, slow, signal int) *MACD {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		panic("MACD periods must be > 0")
	}
	if fast >= slow {
		panic("MACD requires fast < slow")
	}
	return &MACD{
		fast:      fast,
		slow:      slow,
		sig:       signal,
		fastEMA:   NewEMA(fast),
		slowEMA:   NewEMA(slow),
		signalEMA: NewEMA(signal),
	}
}

func (m *MACD) Name() string { return fmt.Sprintf("MACD(%d,%d,%d)", m.fast, m.slow, m.sig) }

// Warmup is the number of inputs before the signal line is defined.
func (m *MACD) Warmup() int { return m.slow + m.sig - 1 }

// LineWarmup is the number of inputs before the MACD line is defined.
func (m *MACD) LineWarmup() int { return m.slow }

func (m *MACD) Reset() {
	m.fastEMA.Reset()
	m.slowEMA.Reset()
	m.signalEMA.Reset()
	m.line = 0
}

func (m *MACD) Update(c market.Candle) { m.Add(c.Close) }

// Add consumes the next close.
func (m *MACD) Add(v float64) {
	m.fastEMA.Add(v)
	m.slowEMA.Add(v)
	if !m.slowEMA.Ready() {
		return
	}
	m.line = m.fastEMA.Value() - m.slowEMA.Value()
	m.signalEMA.Add(m.line)
}

// LineReady reports whether Line() is meaningful.
func (m *MACD) LineReady() bool { return m.slowEMA.Ready() }

// Ready reports whether both the line and the signal are meaningful.
func (m *MACD) Ready() bool { return m.signalEMA.Ready() }

// Line returns the current MACD line.
func (m *MACD) Line() float64 {
	if !m.LineReady() {
		return 0
	}
	return m.line
}

// Signal returns the current signal line.
func (m *MACD) Signal() float64 { return m.signalEMA.Value() }

// Value returns the histogram (line - signal).
func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.line - m.signalEMA.Value()
}

// MACDSeries holds the MACD line and signal line aligned to the input.
type MACDSeries struct {
	Line   Series
	Signal Series
}

// At returns line and signal at input index idx. ok is false unless both
// are defined.
func (s MACDSeries) At(idx int) (line, signal float64, ok bool) {
	line, okL := s.Line.At(idx)
	signal, okS := s.Signal.At(idx)
	return line, signal, okL && okS
}

// MACDOf returns the MACD line and signal series of closes.
func MACDOf(closes []float64, fast, slow, signal int) MACDSeries {
	m := NewMACD(fast, slow, signal)
	out := MACDSeries{
		Line:   Series{Warmup: m.LineWarmup()},
		Signal: Series{Warmup: m.Warmup()},
	}
	for _, v := range closes {
		m.Add(v)
		if m.LineReady() {
			out.Line.Values = append(out.Line.Values, m.Line())
		}
		if m.Ready() {
			out.Signal.Values = append(out.Signal.Values, m.Signal())
		}
	}
	return out
}
