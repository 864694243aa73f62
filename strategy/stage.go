package strategy

import (
	"fmt"
	"time"
)

// Bias is the set of directions a stage permits.
type Bias uint8

const (
	AllowNone  Bias = 0
	AllowLong  Bias = 1 << 0
	AllowShort Bias = 1 << 1
	AllowBoth       = AllowLong | AllowShort
)

// Verdict is a stage's reading of one Frame. Ready is false when the stage
// lacks data (indicator warmup), which is normal and not an error.
type Verdict struct {
	Ready  bool
	Allow  Bias
	Reason string
}

func notReady(name string) Verdict {
	return Verdict{Reason: name + ": insufficient data"}
}

// Stage is one filter in the signal pipeline.
type Stage interface {
	Name() string

	// Warmup is the number of closed candles the stage needs.
	Warmup() int

	Check(f Frame) Verdict
}

// trendStage permits LONG above the moving average and SHORT below it.
type trendStage struct {
	name   string
	period int
	series func(*Indicators) seriesAt
}

type seriesAt interface {
	At(idx int) (float64, bool)
}

func (s trendStage) Name() string { return s.name }
func (s trendStage) Warmup() int  { return s.period }

func (s trendStage) Check(f Frame) Verdict {
	ma, ok := s.series(f.Ind).At(f.Index)
	if !ok {
		return notReady(s.name)
	}
	price := f.Closed().Close
	switch {
	case price > ma:
		return Verdict{Ready: true, Allow: AllowLong}
	case price < ma:
		return Verdict{Ready: true, Allow: AllowShort}
	}
	return Verdict{Ready: true, Allow: AllowNone, Reason: fmt.Sprintf("%s: close on average", s.name)}
}

// NewTrendStage filters on close vs SMA(period).
func NewTrendStage(period int) Stage {
	return trendStage{
		name:   fmt.Sprintf("trend(SMA%d)", period),
		period: period,
		series: func(ind *Indicators) seriesAt { return ind.Trend },
	}
}

// NewFastTrendStage filters on close vs EMA(period).
func NewFastTrendStage(period int) Stage {
	return trendStage{
		name:   fmt.Sprintf("fast_trend(EMA%d)", period),
		period: period,
		series: func(ind *Indicators) seriesAt { return ind.FastTrend },
	}
}

// momentumStage keeps LONG away from overbought and SHORT away from
// oversold.
type momentumStage struct {
	period               int
	overbought, oversold float64
}

// NewMomentumStage filters on RSI bounds.
func NewMomentumStage(period int, overbought, oversold float64) Stage {
	return momentumStage{period: period, overbought: overbought, oversold: oversold}
}

func (s momentumStage) Name() string { return fmt.Sprintf("momentum(RSI%d)", s.period) }
func (s momentumStage) Warmup() int  { return s.period + 1 }

func (s momentumStage) Check(f Frame) Verdict {
	rsi, ok := f.Ind.RSI.At(f.Index)
	if !ok {
		return notReady(s.Name())
	}
	allow := AllowNone
	if rsi < s.overbought {
		allow |= AllowLong
	}
	if rsi > s.oversold {
		allow |= AllowShort
	}
	return Verdict{Ready: true, Allow: allow, Reason: fmt.Sprintf("%s: rsi %.2f out of bounds", s.Name(), rsi)}
}

// strengthStage blocks both directions in range-bound markets.
type strengthStage struct {
	period    int
	threshold float64
}

// NewStrengthStage requires ADX(period) >= threshold.
func NewStrengthStage(period int, threshold float64) Stage {
	return strengthStage{period: period, threshold: threshold}
}

func (s strengthStage) Name() string { return fmt.Sprintf("strength(ADX%d)", s.period) }
func (s strengthStage) Warmup() int  { return 2 * s.period }

func (s strengthStage) Check(f Frame) Verdict {
	adx, ok := f.Ind.ADX.At(f.Index)
	if !ok {
		return notReady(s.Name())
	}
	if adx < s.threshold {
		return Verdict{Ready: true, Allow: AllowNone,
			Reason: fmt.Sprintf("%s: adx %.2f below %.2f", s.Name(), adx, s.threshold)}
	}
	return Verdict{Ready: true, Allow: AllowBoth}
}

// triggerStage fires on a MACD/signal crossover between the previous and
// the last closed candle.
type triggerStage struct {
	fast, slow, signal int
}

// NewTriggerStage detects MACD(fast, slow, signal) crossovers.
func NewTriggerStage(fast, slow, signal int) Stage {
	return triggerStage{fast: fast, slow: slow, signal: signal}
}

func (s triggerStage) Name() string {
	return fmt.Sprintf("trigger(MACD%d,%d,%d)", s.fast, s.slow, s.signal)
}

// Warmup needs two signal-line values.
func (s triggerStage) Warmup() int { return s.slow + s.signal }

func (s triggerStage) Check(f Frame) Verdict {
	line, sig, ok := f.Ind.MACD.At(f.Index)
	if !ok {
		return notReady(s.Name())
	}
	prevLine, prevSig, ok := f.Ind.MACD.At(f.Index - 1)
	if !ok {
		return notReady(s.Name())
	}
	switch {
	case prevLine < prevSig && line > sig:
		return Verdict{Ready: true, Allow: AllowLong}
	case prevLine > prevSig && line < sig:
		return Verdict{Ready: true, Allow: AllowShort}
	}
	return Verdict{Ready: true, Allow: AllowNone, Reason: s.Name() + ": no crossover"}
}

// blackoutStage refuses entries during configured time-of-day windows.
type blackoutStage struct {
	windows []Window
	loc     *time.Location
}

// NewBlackoutStage blocks entries while Frame.Now falls in any window.
func NewBlackoutStage(windows []Window, loc *time.Location) Stage {
	if loc == nil {
		loc = time.UTC
	}
	return blackoutStage{windows: windows, loc: loc}
}

func (s blackoutStage) Name() string { return "blackout" }
func (s blackoutStage) Warmup() int  { return 0 }

func (s blackoutStage) Check(f Frame) Verdict {
	for _, w := range s.windows {
		if w.Contains(f.Now, s.loc) {
			return Verdict{Ready: true, Allow: AllowNone, Reason: fmt.Sprintf("blackout %s", w)}
		}
	}
	return Verdict{Ready: true, Allow: AllowBoth}
}
