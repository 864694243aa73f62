package indicators

import (
	"fmt"

	"github.com/rustyeddy/prophunter/market"
)

// RSI is a streaming Relative Strength Index using Wilder smoothing.
//
// The first average gain/loss is the simple mean over the first period
// changes; afterwards avg = (avg*(period-1) + current) / period. RSI is
// 100 when the average loss is zero. The first value needs period+1 closes.
type RSI struct {
	period  int
	prev    float64
	hasPrev bool
	changes int
	avgGain float64
	avgLoss float64
	value   float64
}

// NewRSI creates a new RSI with the given period (14 is the usual choice).
func NewRSI(period int) *RSI {
	if period <= 0 {
		panic("RSI period must be > 0")
	}
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }
func (r *RSI) Warmup() int  { return r.period + 1 }

func (r *RSI) Reset() {
	*r = RSI{period: r.period}
}

func (r *RSI) Update(c market.Candle) { r.Add(c.Close) }

// Add consumes the next close.
func (r *RSI) Add(v float64) {
	if !r.hasPrev {
		r.prev = v
		r.hasPrev = true
		return
	}

	delta := v - r.prev
	r.prev = v

	var gain, loss float64
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	r.changes++
	p := float64(r.period)
	switch {
	case r.changes < r.period:
		r.avgGain += gain
		r.avgLoss += loss
		return
	case r.changes == r.period:
		r.avgGain = (r.avgGain + gain) / p
		r.avgLoss = (r.avgLoss + loss) / p
	default:
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}

	if r.avgLoss == 0 {
		r.value = 100
		return
	}
	rs := r.avgGain / r.avgLoss
	r.value = 100 - 100/(1+rs)
}

func (r *RSI) Ready() bool { return r.changes >= r.period }

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	return r.value
}

// RSIOf returns the RSI series of closes.
func RSIOf(closes []float64, period int) Series {
	return collectValues(NewRSI(period), closes)
}
