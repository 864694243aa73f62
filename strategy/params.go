// Package strategy turns indicator readings into entry decisions.
//
// A Generator runs an ordered list of filter stages (trend, fast trend,
// momentum, strength, trigger, blackout) over the closed-candle history.
// Each stage says which directions it permits; the signal is LONG or SHORT
// only when every stage permits that direction. Stages are chosen and
// ordered by Params.Stages, so the strategy variants are one pipeline with
// different configuration.
package strategy

import (
	"fmt"
	"time"
)

// Stage names accepted in Params.Stages.
const (
	StageTrend     = "trend"
	StageFastTrend = "fast_trend"
	StageMomentum  = "momentum"
	StageStrength  = "strength"
	StageTrigger   = "trigger"
	StageBlackout  = "blackout"
)

// DefaultStages is the full MACD + RSI + SMA + ADX pipeline.
var DefaultStages = []string{StageTrend, StageFastTrend, StageMomentum, StageStrength, StageTrigger, StageBlackout}

// Params are the strategy parameters.
type Params struct {
	TrendPeriod     int `json:"trendPeriod" yaml:"trendPeriod"`
	FastTrendPeriod int `json:"fastTrendPeriod" yaml:"fastTrendPeriod"` // 0 disables the fast trend stage

	RSIPeriod     int     `json:"rsiPeriod" yaml:"rsiPeriod"`
	RSIOverbought float64 `json:"rsiOverbought" yaml:"rsiOverbought"`
	RSIOversold   float64 `json:"rsiOversold" yaml:"rsiOversold"`

	MACDFast   int `json:"macdFast" yaml:"macdFast"`
	MACDSlow   int `json:"macdSlow" yaml:"macdSlow"`
	MACDSignal int `json:"macdSignal" yaml:"macdSignal"`

	ADXPeriod    int     `json:"adxPeriod" yaml:"adxPeriod"`
	ADXThreshold float64 `json:"adxThreshold" yaml:"adxThreshold"`

	StopLookback   int     `json:"stopLookback" yaml:"stopLookback"`
	RewardMultiple float64 `json:"rewardMultiple" yaml:"rewardMultiple"`

	Stages   []string `json:"stages,omitempty" yaml:"stages,omitempty"`
	Blackout []Window `json:"blackout,omitempty" yaml:"blackout,omitempty"`

	// Location is the timezone blackout windows are expressed in. nil is UTC.
	Location *time.Location `json:"-" yaml:"-"`
}

// DefaultParams returns the parameters of the prop-firm strategy.
func DefaultParams() Params {
	return Params{
		TrendPeriod:    200,
		RSIPeriod:      14,
		RSIOverbought:  70,
		RSIOversold:    30,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		ADXPeriod:      14,
		ADXThreshold:   25,
		StopLookback:   10,
		RewardMultiple: 2,
		Stages:         append([]string(nil), DefaultStages...),
	}
}

// Validate checks the parameters before a Generator is built.
func (p Params) Validate() error {
	if p.TrendPeriod <= 0 {
		return fmt.Errorf("trendPeriod must be positive, got %d", p.TrendPeriod)
	}
	if p.FastTrendPeriod < 0 {
		return fmt.Errorf("fastTrendPeriod must not be negative, got %d", p.FastTrendPeriod)
	}
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("rsiPeriod must be positive, got %d", p.RSIPeriod)
	}
	if p.RSIOversold < 0 || p.RSIOverbought > 100 || p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi bounds must satisfy 0 <= oversold < overbought <= 100, got %.1f/%.1f",
			p.RSIOversold, p.RSIOverbought)
	}
	if p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 {
		return fmt.Errorf("macd periods must be positive")
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macdFast (%d) must be below macdSlow (%d)", p.MACDFast, p.MACDSlow)
	}
	if p.ADXPeriod <= 0 {
		return fmt.Errorf("adxPeriod must be positive, got %d", p.ADXPeriod)
	}
	if p.ADXThreshold < 0 {
		return fmt.Errorf("adxThreshold must not be negative")
	}
	if p.StopLookback <= 0 {
		return fmt.Errorf("stopLookback must be positive, got %d", p.StopLookback)
	}
	if p.RewardMultiple <= 0 {
		return fmt.Errorf("rewardMultiple must be positive, got %.2f", p.RewardMultiple)
	}
	for _, s := range p.stages() {
		switch s {
		case StageTrend, StageFastTrend, StageMomentum, StageStrength, StageTrigger, StageBlackout:
		default:
			return fmt.Errorf("unknown stage %q", s)
		}
	}
	return nil
}

func (p Params) stages() []string {
	if len(p.Stages) == 0 {
		return DefaultStages
	}
	return p.Stages
}

func (p Params) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
