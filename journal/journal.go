// Package journal persists closed trades, equity points and backtest runs
// for later review: SQLite for querying, CSV for spreadsheets and Org-mode
// for notes.
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/pkg/id"
	"github.com/rustyeddy/prophunter/position"
)

// TradeEntry is a journaled trade.
type TradeEntry struct {
	TradeID   string
	RunID     string // empty for live trades
	Symbol    string
	Direction market.Direction
	Quantity  float64

	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64
	Reason     string
	BreakEven  bool
}

// FromTrade converts a closed trade into a journal entry with a fresh id.
func FromTrade(runID, symbol string, t position.TradeRecord) TradeEntry {
	closeT := time.UnixMilli(t.ExitTime).UTC()
	return TradeEntry{
		TradeID:    id.At(closeT),
		RunID:      runID,
		Symbol:     symbol,
		Direction:  t.Direction,
		Quantity:   t.Quantity,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		OpenTime:   time.UnixMilli(t.EntryTime).UTC(),
		CloseTime:  closeT,
		PnL:        t.PnL,
		Reason:     string(t.ExitReason),
		BreakEven:  t.BreakEven,
	}
}

// EquityPoint is the balance after a trade closes.
type EquityPoint struct {
	RunID   string
	Time    time.Time
	Balance float64
}

type Journal interface {
	RecordTrade(TradeEntry) error
	RecordEquity(EquityPoint) error
	Close() error
}

// Recorder adapts a Journal to the engine's trade sink.
type Recorder struct {
	J     Journal
	RunID string
}

func (r Recorder) RecordTrade(_ context.Context, symbol string, t position.TradeRecord) error {
	return r.J.RecordTrade(FromTrade(r.RunID, symbol, t))
}

func (r Recorder) RecordEquity(_ context.Context, at time.Time, balance float64) error {
	return r.J.RecordEquity(EquityPoint{RunID: r.RunID, Time: at.UTC(), Balance: balance})
}

// Discard is a Journal that records nothing.
type Discard struct{}

func (Discard) RecordTrade(TradeEntry) error   { return nil }
func (Discard) RecordEquity(EquityPoint) error { return nil }
func (Discard) Close() error                   { return nil }
