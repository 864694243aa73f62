package engine

import (
	"fmt"
	"time"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/strategy"
)

// Tick is one live evaluation input.
type Tick struct {
	// Closed is the confirmed history, oldest first.
	Closed []market.Candle

	// Forming is the still-open candle, if the feed provides one.
	Forming *market.Candle

	// Price is the latest traded price.
	Price float64

	Now time.Time
}

// Result is the outcome of one Step.
type Result struct {
	State  State
	Events []Event
	Trades []position.TradeRecord
	Signal strategy.Signal
}

// Step runs one live evaluation: day rollover, exit management on the
// forming candle, then (when flat) an entry decision on the closed history
// with entry at the live price. Corrupt input fails with
// market.ErrDataIntegrity and leaves s untouched.
func (e *Engine) Step(s State, tk Tick) (Result, error) {
	if err := market.ValidateSeries(tk.Closed); err != nil {
		return Result{State: s}, fmt.Errorf("closed candles: %w", err)
	}
	live := e.liveCandle(s, tk)
	if err := live.Validate(); err != nil {
		return Result{State: s}, fmt.Errorf("live candle: %w", err)
	}

	next := e.Rollover(s.Normalize(), tk.Now)
	res := Result{}
	idx := len(tk.Closed)

	if next.Position.IsOpen() {
		var evs []Event
		var tr *position.TradeRecord
		next, evs, tr = e.Manage(next, live, idx)
		res.Events = append(res.Events, evs...)
		if tr != nil {
			res.Trades = append(res.Trades, *tr)
		}
		// a close frees the book from the next tick on
		res.State = next
		return res, nil
	}

	if len(tk.Closed) == 0 {
		res.State = next
		return res, nil
	}
	at := EntryAt{Index: idx, Time: tk.Now, ClosedAt: tk.Closed[len(tk.Closed)-1].Timestamp}
	next, evs, ok := e.Permit(next, at)
	res.Events = append(res.Events, evs...)
	if !ok {
		res.State = next
		return res, nil
	}

	res.Signal = e.gen.Evaluate(strategy.Frame{
		Candles: tk.Closed,
		Index:   len(tk.Closed) - 1,
		Price:   tk.Price,
		Now:     tk.Now,
		Ind:     e.gen.Indicators(tk.Closed),
	})
	// every poll sees the same closed history until the next candle closes
	if res.Signal.IsEntry() && next.LastEntryAt != 0 && at.ClosedAt <= next.LastEntryAt {
		e.log.Debug("signal already taken", "index", at.Index, "closedAt", at.ClosedAt)
		res.State = next
		return res, nil
	}
	next, evs, err := e.Enter(next, res.Signal, at)
	if err != nil {
		return Result{State: s}, err
	}
	res.Events = append(res.Events, evs...)
	res.State = next
	return res, nil
}

// liveCandle is the range exits are tested against. A forming candle that
// started at or before the entry, or before the break-even activation, may
// hold prices printed ahead of the levels now in force, so only the live
// price is used in that case.
func (e *Engine) liveCandle(s State, tk Tick) market.Candle {
	point := market.Candle{Timestamp: tk.Now.UnixMilli(), Open: tk.Price, High: tk.Price, Low: tk.Price, Close: tk.Price}
	if tk.Forming == nil {
		return point
	}
	if p := s.Position; p.IsOpen() && tk.Forming.Timestamp <= max(p.EntryTime, p.BreakEvenAt) {
		return point
	}
	return *tk.Forming
}
