package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/risk"
	"github.com/rustyeddy/prophunter/strategy"
)

// Engine wires one symbol's decision components. It is stateless and safe
// for concurrent use across independent States.
type Engine struct {
	Symbol string

	gen *strategy.Generator
	gov *risk.Governor
	pm  *position.Machine
	log *slog.Logger
}

func New(symbol string, gen *strategy.Generator, gov *risk.Governor, pm *position.Machine, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Symbol: symbol, gen: gen, gov: gov, pm: pm, log: log.With("symbol", symbol)}
}

func (e *Engine) Generator() *strategy.Generator { return e.gen }

// Warmup is the number of closed candles needed before any entry.
func (e *Engine) Warmup() int { return e.gen.Warmup() }

// Rollover advances the daily risk state to the trading day of now.
func (e *Engine) Rollover(s State, now time.Time) State {
	prev := s.Risk.TradingDay
	s.Risk = e.gov.Rollover(s.Risk, now, s.Balance)
	if prev != "" && prev != s.Risk.TradingDay {
		e.log.Info("trading day rollover", "day", s.Risk.TradingDay, "startingBalance", s.Balance)
	}
	return s
}

// Manage tests an open position against candle c. On close the balance is
// realized and the trade is returned.
func (e *Engine) Manage(s State, c market.Candle, idx int) (State, []Event, *position.TradeRecord) {
	if !s.Position.IsOpen() {
		return s, nil, nil
	}
	prev := s.Position
	p, out := e.pm.Evaluate(s.Position, c, idx)
	s.Position = p

	switch {
	case out.Closed:
		t := out.Trade
		s.Balance += t.PnL
		s.Risk.CurrentBalance = s.Balance
		e.log.Info("position closed", "index", idx, "direction", t.Direction,
			"reason", t.ExitReason, "exit", t.ExitPrice, "pnl", t.PnL, "balance", s.Balance)
		return s, []Event{{
			Kind:       EventClosed,
			Symbol:     e.Symbol,
			Time:       c.Timestamp,
			Index:      idx,
			Direction:  t.Direction,
			EntryPrice: t.EntryPrice,
			StopLoss:   prev.StopLoss,
			TakeProfit: prev.TakeProfit,
			Quantity:   t.Quantity,
			ExitPrice:  t.ExitPrice,
			ExitReason: t.ExitReason,
			PnL:        t.PnL,
			Balance:    s.Balance,
		}}, &t
	case out.BreakEven:
		e.log.Info("break-even activated", "index", idx, "direction", p.Direction, "stop", p.StopLoss)
		return s, []Event{e.positionEvent(EventBreakEven, p, c.Timestamp, idx, s.Balance)}, nil
	}
	return s, nil, nil
}

// EntryAt locates a prospective fill.
type EntryAt struct {
	Index int
	Time  time.Time

	// ClosedAt is the timestamp of the closed candle the signal was
	// computed on.
	ClosedAt int64
}

// Permit asks the daily risk governor whether a new position may open.
// The first refusal of a day emits EventHalted.
func (e *Engine) Permit(s State, at EntryAt) (State, []Event, bool) {
	wasHalted := s.Risk.HaltedToday
	r, d := e.gov.Permit(s.Risk, s.Balance)
	s.Risk = r
	if d.Allowed {
		return s, nil, true
	}
	if wasHalted {
		return s, nil, false
	}
	e.log.Warn("daily loss limit reached", "day", r.TradingDay,
		"lossToday", d.LossToday, "limit", d.Limit)
	return s, []Event{{
		Kind:    EventHalted,
		Symbol:  e.Symbol,
		Time:    at.Time.UnixMilli(),
		Index:   at.Index,
		Balance: s.Balance,
		Reason:  d.Reason(),
	}}, false
}

// Enter sizes sig and opens a position as of at. NONE signals and
// degenerate sizes are skipped.
// Entering with a position already open fails with
// position.ErrPositionOpen. Callers run Permit first.
func (e *Engine) Enter(s State, sig strategy.Signal, at EntryAt) (State, []Event, error) {
	if s.Position.IsOpen() {
		return s, nil, fmt.Errorf("enter at %d: %w", at.Index, position.ErrPositionOpen)
	}
	if !sig.IsEntry() {
		return s, nil, nil
	}
	qty := e.gov.Size(s.Balance, sig.EntryPrice, sig.StopLoss)
	if qty <= 0 {
		e.log.Info("signal skipped: degenerate size", "index", at.Index, "entry", sig.EntryPrice, "stop", sig.StopLoss)
		return s, nil, nil
	}

	p, err := e.pm.Open(s.Position, position.Order{
		Direction:  sig.Direction,
		EntryPrice: sig.EntryPrice,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Quantity:   qty,
		Index:      at.Index,
		Time:       at.Time.UnixMilli(),
	})
	if err != nil {
		return s, nil, fmt.Errorf("enter at %d: %w", at.Index, err)
	}
	s.Position = p
	s.LastEntryAt = at.ClosedAt

	e.log.Info("position opened", "index", at.Index, "direction", p.Direction,
		"entry", p.EntryPrice, "stop", p.StopLoss, "target", p.TakeProfit, "qty", p.Quantity)
	ev := e.positionEvent(EventOpened, p, at.Time.UnixMilli(), at.Index, s.Balance)
	ev.Risked = risk.PlannedRisk(p.Quantity, p.EntryPrice, p.StopLoss)
	return s, []Event{ev}, nil
}

func (e *Engine) positionEvent(kind EventKind, p position.Position, ts int64, idx int, balance float64) Event {
	return Event{
		Kind:       kind,
		Symbol:     e.Symbol,
		Time:       ts,
		Index:      idx,
		Direction:  p.Direction,
		EntryPrice: p.EntryPrice,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		Quantity:   p.Quantity,
		Balance:    balance,
	}
}
