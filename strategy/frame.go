package strategy

import (
	"time"

	"github.com/rustyeddy/prophunter/indicators"
	"github.com/rustyeddy/prophunter/market"
)

// Indicators holds every series the stages read, aligned to the candle
// slice they were computed from.
type Indicators struct {
	Trend     indicators.Series
	FastTrend indicators.Series
	RSI       indicators.Series
	MACD      indicators.MACDSeries
	ADX       indicators.Series
}

// ComputeIndicators runs every indicator Params needs over candles in one
// pass each.
func ComputeIndicators(candles []market.Candle, p Params) *Indicators {
	closes := market.Closes(candles)
	ind := &Indicators{
		Trend: indicators.SMA(closes, p.TrendPeriod),
		RSI:   indicators.RSIOf(closes, p.RSIPeriod),
		MACD:  indicators.MACDOf(closes, p.MACDFast, p.MACDSlow, p.MACDSignal),
		ADX:   indicators.ADXOf(candles, p.ADXPeriod),
	}
	if p.FastTrendPeriod > 0 {
		ind.FastTrend = indicators.EMA(closes, p.FastTrendPeriod)
	}
	return ind
}

// Frame is one evaluation point. Candles[0..Index] are closed; a backtest
// may pass the full series with indicators computed over all of it, and
// stages never read past Index.
type Frame struct {
	Candles []market.Candle
	Index   int

	// Price is the entry price: the live tick, or the last close in a
	// backtest.
	Price float64

	// Now is the evaluation time, used by time-of-day stages.
	Now time.Time

	Ind *Indicators
}

// Closed returns the closed candle at Index.
func (f Frame) Closed() market.Candle { return f.Candles[f.Index] }

// Window returns the trailing n closed candles ending at Index. ok is false
// when fewer than n are available.
func (f Frame) Window(n int) ([]market.Candle, bool) {
	start := f.Index - n + 1
	if n <= 0 || start < 0 {
		return nil, false
	}
	return f.Candles[start : f.Index+1], true
}
