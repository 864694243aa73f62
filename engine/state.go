// Package engine composes the strategy, risk governor and position state
// machine into evaluation steps over an explicit State value. The same
// transitions drive the live loop and the backtest simulator.
package engine

import (
	"fmt"

	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/risk"
)

// State is everything a restart needs to resume. It is passed into and
// returned from every step; the engine never keeps a copy.
type State struct {
	Position position.Position   `json:"position"`
	Risk     risk.DailyRiskState `json:"risk"`
	Balance  float64             `json:"balance"`

	// LastEntryAt is the timestamp (unix ms) of the closed candle behind
	// the last entry. A signal from the same candle is not taken twice.
	LastEntryAt int64 `json:"lastEntryAt,omitempty"`
}

// NewState returns a flat book holding balance.
func NewState(balance float64) State {
	return State{
		Position: position.Position{Status: position.StatusNone},
		Balance:  balance,
	}
}

// Normalize fills fields a persisted record may omit.
func (s State) Normalize() State {
	if s.Position.Status == "" {
		s.Position.Status = position.StatusNone
	}
	s.Risk.CurrentBalance = s.Balance
	return s
}

func (s State) String() string {
	return fmt.Sprintf("balance=%.2f day=%s halted=%t position=%s",
		s.Balance, s.Risk.TradingDay, s.Risk.HaltedToday, s.Position)
}
