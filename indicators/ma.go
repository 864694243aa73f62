package indicators

import (
	"fmt"

	"github.com/rustyeddy/prophunter/market"
)

// SimpleMA is a streaming Simple Moving Average over closes.
//
// It keeps a ring of the trailing period values and a running sum that is
// recomputed from the ring on every update, so the result does not drift
// from the arithmetic mean over long series.
type SimpleMA struct {
	period int
	window []float64
	next   int
	count  int
	value  float64
}

// NewMA creates a new Simple Moving Average indicator with the given period.
func NewMA(period int) *SimpleMA {
	if period <= 0 {
		panic("MA period must be > 0")
	}
	return &SimpleMA{
		period: period,
		window: make([]float64, period),
	}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("MA(%d)", m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	for i := range m.window {
		m.window[i] = 0
	}
	m.next = 0
	m.count = 0
	m.value = 0
}

func (m *SimpleMA) Update(c market.Candle) { m.Add(c.Close) }

// Add consumes the next value.
func (m *SimpleMA) Add(v float64) {
	m.window[m.next] = v
	m.next = (m.next + 1) % m.period
	if m.count < m.period {
		m.count++
	}
	if m.count < m.period {
		return
	}

	// Sum oldest to newest so the result matches a plain trailing mean.
	sum := 0.0
	for i := 0; i < m.period; i++ {
		sum += m.window[(m.next+i)%m.period]
	}
	m.value = sum / float64(m.period)
}

func (m *SimpleMA) Ready() bool { return m.count >= m.period }

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.value
}

// ExponentialMA is a streaming Exponential Moving Average. It is seeded by
// the SMA of the first period values, then follows
// ema = v*k + ema*(1-k) with k = 2/(period+1).
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates a new Exponential Moving Average indicator with the given period.
func NewEMA(period int) *ExponentialMA {
	if period <= 0 {
		panic("EMA period must be > 0")
	}
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(c market.Candle) { e.Add(c.Close) }

// Add consumes the next value.
func (e *ExponentialMA) Add(v float64) {
	if e.count < e.period {
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (v-e.ema)*e.multiplier + e.ema
}

func (e *ExponentialMA) Ready() bool { return e.count >= e.period }

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// SMA returns the simple moving average of values.
func SMA(values []float64, period int) Series {
	return collectValues(NewMA(period), values)
}

// EMA returns the exponential moving average of values.
func EMA(values []float64, period int) Series {
	return collectValues(NewEMA(period), values)
}
