package position

import (
	"fmt"

	"github.com/rustyeddy/prophunter/market"
)

// Options configure the state machine.
type Options struct {
	// BreakEven enables moving the stop to entry once price has covered
	// TriggerFraction of the distance from entry to target.
	BreakEven       bool
	TriggerFraction float64
}

func DefaultOptions() Options {
	return Options{BreakEven: true, TriggerFraction: 0.5}
}

// Outcome reports what one Evaluate call did.
type Outcome struct {
	BreakEven bool
	Closed    bool
	Trade     TradeRecord
}

// Machine applies transitions to Position values. It keeps no state, so one
// Machine serves any number of independent positions.
type Machine struct {
	opts Options
}

func NewMachine(opts Options) (*Machine, error) {
	if opts.BreakEven && !(opts.TriggerFraction > 0 && opts.TriggerFraction <= 1) {
		return nil, fmt.Errorf("breakEvenTriggerFraction must be in (0, 1], got %.3f", opts.TriggerFraction)
	}
	return &Machine{opts: opts}, nil
}

func (m *Machine) Options() Options { return m.opts }

// Open moves p from NONE to OPEN.
func (m *Machine) Open(p Position, o Order) (Position, error) {
	if p.IsOpen() {
		return p, ErrPositionOpen
	}
	if err := o.validate(); err != nil {
		return p, err
	}
	return Position{
		Status:     StatusOpen,
		Direction:  o.Direction,
		EntryPrice: o.EntryPrice,
		StopLoss:   o.StopLoss,
		TakeProfit: o.TakeProfit,
		Quantity:   o.Quantity,
		EntryIndex: o.Index,
		EntryTime:  o.Time,
	}, nil
}

// Evaluate tests p against candle c (index idx). Exits are resolved first
// on the levels in force at the start of the candle, stop-loss before
// take-profit, so a candle touching both closes at the stop. If p survives,
// the candle's favorable extreme may activate break-even, which takes
// effect from the next candle.
func (m *Machine) Evaluate(p Position, c market.Candle, idx int) (Position, Outcome) {
	if !p.IsOpen() {
		return p, Outcome{}
	}

	if exit, reason, hit := checkExit(p, c); hit {
		t := TradeRecord{
			EntryIndex: p.EntryIndex,
			ExitIndex:  idx,
			EntryTime:  p.EntryTime,
			ExitTime:   c.Timestamp,
			Direction:  p.Direction,
			EntryPrice: p.EntryPrice,
			ExitPrice:  exit,
			Quantity:   p.Quantity,
			PnL:        PnL(p.Direction, p.EntryPrice, exit, p.Quantity),
			ExitReason: reason,
			BreakEven:  p.BreakEvenActivated,
		}
		return Position{Status: StatusNone}, Outcome{Closed: true, Trade: t}
	}

	if m.opts.BreakEven && !p.BreakEvenActivated && m.breakEvenReached(p, c) {
		// only ever tightens: the stop is on the losing side of entry at open
		if (p.EntryPrice-p.StopLoss)*p.Direction.Sign() > 0 {
			p.StopLoss = p.EntryPrice
		}
		p.BreakEvenActivated = true
		p.BreakEvenAt = c.Timestamp
		return p, Outcome{BreakEven: true}
	}
	return p, Outcome{}
}

func (m *Machine) breakEvenReached(p Position, c market.Candle) bool {
	need := m.opts.TriggerFraction * (p.TakeProfit - p.EntryPrice) * p.Direction.Sign()
	switch p.Direction {
	case market.Long:
		return c.High-p.EntryPrice >= need
	case market.Short:
		return p.EntryPrice-c.Low >= need
	}
	return false
}

func checkExit(p Position, c market.Candle) (float64, ExitReason, bool) {
	switch p.Direction {
	case market.Long:
		if c.Low <= p.StopLoss {
			return p.StopLoss, ExitStopLoss, true
		}
		if c.High >= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit, true
		}
	case market.Short:
		if c.High >= p.StopLoss {
			return p.StopLoss, ExitStopLoss, true
		}
		if c.Low <= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit, true
		}
	}
	return 0, "", false
}
