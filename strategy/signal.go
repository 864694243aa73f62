package strategy

import (
	"fmt"

	"github.com/rustyeddy/prophunter/market"
)

// Signal is an entry decision. For LONG stopLoss < entryPrice < takeProfit;
// for SHORT takeProfit < entryPrice < stopLoss. A NONE signal carries only
// ComputedAt and Reason.
type Signal struct {
	Direction  market.Direction `json:"direction"`
	EntryPrice float64          `json:"entryPrice"`
	StopLoss   float64          `json:"stopLoss"`
	TakeProfit float64          `json:"takeProfit"`

	// ComputedAt is the index of the last closed candle the decision used.
	ComputedAt int `json:"computedAt"`

	Reason string `json:"reason,omitempty"`
}

// IsEntry reports whether the signal asks for a position.
func (s Signal) IsEntry() bool { return s.Direction != market.None }

// Risk is the stop distance per unit.
func (s Signal) Risk() float64 {
	if s.EntryPrice > s.StopLoss {
		return s.EntryPrice - s.StopLoss
	}
	return s.StopLoss - s.EntryPrice
}

// Valid checks the price-level ordering invariant for entry signals.
func (s Signal) Valid() error {
	switch s.Direction {
	case market.Long:
		if !(s.StopLoss < s.EntryPrice && s.EntryPrice < s.TakeProfit) {
			return fmt.Errorf("long signal needs stop < entry < target, got %.8f/%.8f/%.8f",
				s.StopLoss, s.EntryPrice, s.TakeProfit)
		}
	case market.Short:
		if !(s.TakeProfit < s.EntryPrice && s.EntryPrice < s.StopLoss) {
			return fmt.Errorf("short signal needs target < entry < stop, got %.8f/%.8f/%.8f",
				s.TakeProfit, s.EntryPrice, s.StopLoss)
		}
	}
	return nil
}

func (s Signal) String() string {
	if !s.IsEntry() {
		return fmt.Sprintf("NONE@%d (%s)", s.ComputedAt, s.Reason)
	}
	return fmt.Sprintf("%s@%d entry=%.8f stop=%.8f target=%.8f",
		s.Direction, s.ComputedAt, s.EntryPrice, s.StopLoss, s.TakeProfit)
}

func none(idx int, reason string) Signal {
	return Signal{Direction: market.None, ComputedAt: idx, Reason: reason}
}
