package engine

import (
	"context"
	"time"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
)

type EventKind string

const (
	EventOpened    EventKind = "OPEN"
	EventBreakEven EventKind = "BREAKEVEN"
	EventClosed    EventKind = "CLOSE"
	EventHalted    EventKind = "HALTED"
)

// Event is an externally observable transition. It carries the levels
// involved and the balance after the transition; rendering is the
// notifier's concern.
type Event struct {
	Kind      EventKind        `json:"kind"`
	Symbol    string           `json:"symbol,omitempty"`
	Time      int64            `json:"time"` // unix ms
	Index     int              `json:"index"`
	Direction market.Direction `json:"direction"`

	EntryPrice float64 `json:"entryPrice,omitempty"`
	StopLoss   float64 `json:"stopLoss,omitempty"`
	TakeProfit float64 `json:"takeProfit,omitempty"`
	Quantity   float64 `json:"quantity,omitempty"`
	Risked     float64 `json:"risked,omitempty"`

	ExitPrice  float64             `json:"exitPrice,omitempty"`
	ExitReason position.ExitReason `json:"exitReason,omitempty"`
	PnL        float64             `json:"pnl,omitempty"`

	Balance float64 `json:"balance"`
	Reason  string  `json:"reason,omitempty"`
}

func (e Event) At() time.Time { return time.UnixMilli(e.Time).UTC() }

// Repository persists State between steps.
type Repository interface {
	// Load returns the saved state or an error wrapping store.ErrNotFound.
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// Notifier delivers events to the outside world.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// TradeSink receives every closed trade and the balance it leaves, e.g. a
// journal.
type TradeSink interface {
	RecordTrade(ctx context.Context, symbol string, t position.TradeRecord) error
	RecordEquity(ctx context.Context, at time.Time, balance float64) error
}
