package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/prophunter/market"
)

// Generator is the stateless entry decision function. It is safe for
// concurrent use: all per-call data lives in the Frame.
type Generator struct {
	params Params
	stages []Stage
	log    *slog.Logger
}

// NewGenerator validates p and builds its stage pipeline. A nil logger uses
// slog.Default().
func NewGenerator(p Params, log *slog.Logger) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("strategy params: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	g := &Generator{params: p, log: log}
	for _, name := range p.stages() {
		switch name {
		case StageTrend:
			g.stages = append(g.stages, NewTrendStage(p.TrendPeriod))
		case StageFastTrend:
			if p.FastTrendPeriod > 0 {
				g.stages = append(g.stages, NewFastTrendStage(p.FastTrendPeriod))
			}
		case StageMomentum:
			g.stages = append(g.stages, NewMomentumStage(p.RSIPeriod, p.RSIOverbought, p.RSIOversold))
		case StageStrength:
			g.stages = append(g.stages, NewStrengthStage(p.ADXPeriod, p.ADXThreshold))
		case StageTrigger:
			g.stages = append(g.stages, NewTriggerStage(p.MACDFast, p.MACDSlow, p.MACDSignal))
		case StageBlackout:
			if len(p.Blackout) > 0 {
				g.stages = append(g.stages, NewBlackoutStage(p.Blackout, p.location()))
			}
		}
	}
	return g, nil
}

// Params returns the generator's parameters.
func (g *Generator) Params() Params { return g.params }

// Stages returns the names of the active stages in evaluation order.
func (g *Generator) Stages() []string {
	out := make([]string, len(g.stages))
	for i, s := range g.stages {
		out[i] = s.Name()
	}
	return out
}

// Warmup is the number of closed candles needed before any stage can be
// ready and a stop window is available.
func (g *Generator) Warmup() int {
	w := g.params.StopLookback
	for _, s := range g.stages {
		if s.Warmup() > w {
			w = s.Warmup()
		}
	}
	return w
}

// Indicators computes the indicator set for candles.
func (g *Generator) Indicators(candles []market.Candle) *Indicators {
	return ComputeIndicators(candles, g.params)
}

// Generate evaluates closed (history up to and including the last closed
// candle) with entry at price. It fails only on corrupt input data.
func (g *Generator) Generate(closed []market.Candle, price float64, now time.Time) (Signal, error) {
	if err := market.ValidateSeries(closed); err != nil {
		return Signal{}, err
	}
	if len(closed) == 0 {
		return none(-1, "no closed candles"), nil
	}
	return g.Evaluate(Frame{
		Candles: closed,
		Index:   len(closed) - 1,
		Price:   price,
		Now:     now,
		Ind:     g.Indicators(closed),
	}), nil
}

// Evaluate runs the stage pipeline over f.
func (g *Generator) Evaluate(f Frame) Signal {
	idx := f.Index
	if idx < 0 || idx >= len(f.Candles) || f.Ind == nil {
		return none(idx, "insufficient data")
	}

	verdicts := make([]Verdict, len(g.stages))
	for i, s := range g.stages {
		verdicts[i] = s.Check(f)
		if !verdicts[i].Ready {
			g.log.Debug("signal skipped", "index", idx, "reason", verdicts[i].Reason)
			return none(idx, verdicts[i].Reason)
		}
	}

	allow := AllowBoth
	for i, v := range verdicts {
		allow &= v.Allow
		if allow == AllowNone {
			reason := v.Reason
			if v.Allow != AllowNone || reason == "" {
				reason = g.stages[i].Name() + ": direction conflicts with earlier stages"
			}
			g.log.Debug("signal skipped", "index", idx, "reason", reason)
			return none(idx, reason)
		}
	}

	window, ok := f.Window(g.params.StopLookback)
	if !ok {
		return none(idx, "stop window: insufficient data")
	}

	var sig Signal
	switch {
	case allow&AllowLong != 0:
		stop, _ := market.LowestLow(window)
		if stop >= f.Price {
			return none(idx, fmt.Sprintf("long stop %.8f not below entry %.8f", stop, f.Price))
		}
		sig = Signal{
			Direction:  market.Long,
			EntryPrice: f.Price,
			StopLoss:   stop,
			TakeProfit: f.Price + (f.Price-stop)*g.params.RewardMultiple,
		}
	case allow&AllowShort != 0:
		stop, _ := market.HighestHigh(window)
		if stop <= f.Price {
			return none(idx, fmt.Sprintf("short stop %.8f not above entry %.8f", stop, f.Price))
		}
		sig = Signal{
			Direction:  market.Short,
			EntryPrice: f.Price,
			StopLoss:   stop,
			TakeProfit: f.Price - (stop-f.Price)*g.params.RewardMultiple,
		}
	}
	sig.ComputedAt = idx
	sig.Reason = "all stages passed"

	g.log.Info("signal", "index", idx, "direction", sig.Direction,
		"entry", sig.EntryPrice, "stop", sig.StopLoss, "target", sig.TakeProfit)
	return sig
}
