package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/prophunter/position"
)

// Result is one simulation's output. Two runs over the same candles and
// parameters produce identical Results.
type Result struct {
	Trades         []position.TradeRecord `json:"trades"`
	InitialBalance float64                `json:"initialBalance"`
	FinalBalance   float64                `json:"finalBalance"`
	WinCount       int                    `json:"winCount"`
	LossCount      int                    `json:"lossCount"`

	// OpenAtEnd is a position still open when the data ran out. It is not
	// part of the closed-trade statistics.
	OpenAtEnd *position.Position `json:"openAtEnd,omitempty"`

	Candles    int   `json:"candles"`
	Start      int64 `json:"start"` // unix ms
	End        int64 `json:"end"`
	HaltedDays int   `json:"haltedDays"`
}

func (r *Result) add(t position.TradeRecord) {
	r.Trades = append(r.Trades, t)
	if t.Win() {
		r.WinCount++
	} else {
		r.LossCount++
	}
}

func (r Result) StartTime() time.Time { return time.UnixMilli(r.Start).UTC() }
func (r Result) EndTime() time.Time   { return time.UnixMilli(r.End).UTC() }

// Stats are derived from the closed trades.
type Stats struct {
	Trades         int
	Wins           int
	Losses         int
	WinRate        float64 // percent
	NetPL          float64
	ReturnPct      float64
	GrossProfit    float64
	GrossLoss      float64 // positive
	ProfitFactor   float64 // 0 when there are no losses
	MaxDrawdown    float64
	MaxDrawdownPct float64
}

func (r Result) Stats() Stats {
	s := Stats{
		Trades: len(r.Trades),
		Wins:   r.WinCount,
		Losses: r.LossCount,
		NetPL:  r.FinalBalance - r.InitialBalance,
	}
	if s.Trades > 0 {
		s.WinRate = 100 * float64(s.Wins) / float64(s.Trades)
	}
	if r.InitialBalance > 0 {
		s.ReturnPct = 100 * s.NetPL / r.InitialBalance
	}

	equity, peak := r.InitialBalance, r.InitialBalance
	for _, t := range r.Trades {
		if t.PnL > 0 {
			s.GrossProfit += t.PnL
		} else {
			s.GrossLoss -= t.PnL
		}
		equity += t.PnL
		peak = math.Max(peak, equity)
		if dd := peak - equity; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
			if peak > 0 {
				s.MaxDrawdownPct = 100 * dd / peak
			}
		}
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}
