// Package position implements the single-position state machine:
// NONE -> OPEN -> NONE, with a one-shot break-even stop migration and
// stop-first exit resolution on candle ranges.
package position

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/prophunter/market"
)

var (
	// ErrPositionOpen is returned when an open is attempted while a position
	// is already OPEN. It is a caller bug, not a recoverable condition.
	ErrPositionOpen = errors.New("position already open")

	// ErrInvalidOrder rejects orders that could never form a valid position.
	ErrInvalidOrder = errors.New("invalid order")
)

type Status string

const (
	StatusNone Status = "NONE"
	StatusOpen Status = "OPEN"
)

// Position is the persisted trade state. The zero value is a flat book.
type Position struct {
	Status             Status           `json:"status"`
	Direction          market.Direction `json:"direction"`
	EntryPrice         float64          `json:"entryPrice"`
	StopLoss           float64          `json:"stopLoss"`
	TakeProfit         float64          `json:"takeProfit"`
	Quantity           float64          `json:"quantity"`
	BreakEvenActivated bool             `json:"breakEvenActivated"`

	EntryIndex int   `json:"entryIndex,omitempty"`
	EntryTime  int64 `json:"entryTime,omitempty"` // unix ms

	// BreakEvenAt is the timestamp (unix ms) of the candle that activated
	// break-even.
	BreakEvenAt int64 `json:"breakEvenAt,omitempty"`
}

func (p Position) IsOpen() bool { return p.Status == StatusOpen }

// AtRisk is the loss if the current stop is hit. It is zero once the stop
// sits at entry.
func (p Position) AtRisk() float64 {
	d := (p.EntryPrice - p.StopLoss) * p.Direction.Sign()
	if !p.IsOpen() || d <= 0 {
		return 0
	}
	return d * p.Quantity
}

// Unrealized is the open P/L at price.
func (p Position) Unrealized(price float64) float64 {
	if !p.IsOpen() {
		return 0
	}
	return PnL(p.Direction, p.EntryPrice, price, p.Quantity)
}

func (p Position) String() string {
	if !p.IsOpen() {
		return "FLAT"
	}
	be := ""
	if p.BreakEvenActivated {
		be = " BE"
	}
	return fmt.Sprintf("%s %.8f @ %.8f stop=%.8f target=%.8f%s",
		p.Direction, p.Quantity, p.EntryPrice, p.StopLoss, p.TakeProfit, be)
}

// PnL is (exit - entry) * qty signed by direction.
func PnL(dir market.Direction, entry, exit, qty float64) float64 {
	return (exit - entry) * qty * dir.Sign()
}

// Order is a request to open a position.
type Order struct {
	Direction  market.Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Quantity   float64

	Index int
	Time  int64 // unix ms
}

func (o Order) validate() error {
	if o.Direction == market.None {
		return fmt.Errorf("%w: direction NONE", ErrInvalidOrder)
	}
	if !(o.Quantity > 0) {
		return fmt.Errorf("%w: quantity %.8f", ErrInvalidOrder, o.Quantity)
	}
	ok := o.StopLoss < o.EntryPrice && o.EntryPrice < o.TakeProfit
	if o.Direction == market.Short {
		ok = o.TakeProfit < o.EntryPrice && o.EntryPrice < o.StopLoss
	}
	if !ok {
		return fmt.Errorf("%w: %s levels stop=%.8f entry=%.8f target=%.8f",
			ErrInvalidOrder, o.Direction, o.StopLoss, o.EntryPrice, o.TakeProfit)
	}
	return nil
}
