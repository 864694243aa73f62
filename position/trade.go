package position

import "github.com/rustyeddy/prophunter/market"

type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
)

// TradeRecord is a closed trade. It is never modified after creation.
type TradeRecord struct {
	EntryIndex int              `json:"entryIndex"`
	ExitIndex  int              `json:"exitIndex"`
	EntryTime  int64            `json:"entryTime"`
	ExitTime   int64            `json:"exitTime"`
	Direction  market.Direction `json:"direction"`
	EntryPrice float64          `json:"entryPrice"`
	ExitPrice  float64          `json:"exitPrice"`
	Quantity   float64          `json:"quantity"`
	PnL        float64          `json:"pnl"`
	ExitReason ExitReason       `json:"exitReason"`
	BreakEven  bool             `json:"breakEven"`
}

// Win reports a strictly positive result. A break-even stop-out is a loss.
func (t TradeRecord) Win() bool { return t.PnL > 0 }
