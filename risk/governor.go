package risk

import (
	"fmt"
	"time"
)

// DayLayout formats a trading day.
const DayLayout = "2006-01-02"

// DailyRiskState is the kill-switch state for one trading day.
// CurrentBalance is not persisted; it mirrors the running balance the
// caller already stores.
type DailyRiskState struct {
	TradingDay      string  `json:"tradingDay"`
	StartingBalance float64 `json:"startingBalance"`
	CurrentBalance  float64 `json:"-"`
	HaltedToday     bool    `json:"haltedToday"`
}

// LossToday is the realized drawdown from the day's starting balance.
func (s DailyRiskState) LossToday() float64 {
	return s.StartingBalance - s.CurrentBalance
}

type Violation struct {
	Code string
	Msg  string
}

// Decision is the governor's answer to "may a new position open now".
type Decision struct {
	Allowed    bool
	Violations []Violation

	LossToday float64
	Limit     float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason joins the violation messages.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	out := d.Violations[0].Msg
	for _, v := range d.Violations[1:] {
		out += "; " + v.Msg
	}
	return out
}

// Governor owns every DailyRiskState transition. It holds no state itself:
// each method takes the current state and returns the next one.
type Governor struct {
	policy Policy
}

func NewGovernor(p Policy) (*Governor, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("risk policy: %w", err)
	}
	return &Governor{policy: p}, nil
}

func (g *Governor) Policy() Policy { return g.policy }

// TradingDay returns the calendar date of t in the policy timezone.
func (g *Governor) TradingDay(t time.Time) string {
	return t.In(g.policy.location()).Format(DayLayout)
}

// Rollover starts a new trading day when now falls on a different day than
// s. The new day's starting balance is balance and the halt is cleared.
// The zero state rolls over on first use.
func (g *Governor) Rollover(s DailyRiskState, now time.Time, balance float64) DailyRiskState {
	day := g.TradingDay(now)
	s.CurrentBalance = balance
	if day == s.TradingDay {
		return s
	}
	return DailyRiskState{
		TradingDay:      day,
		StartingBalance: balance,
		CurrentBalance:  balance,
	}
}

// Permit decides whether a new position may open at balance. Reaching the
// limit latches HaltedToday until the next rollover. Halting never touches
// an already open position.
func (g *Governor) Permit(s DailyRiskState, balance float64) (DailyRiskState, Decision) {
	s.CurrentBalance = balance
	d := Decision{
		Allowed:   true,
		LossToday: s.LossToday(),
		Limit:     s.StartingBalance * g.policy.DailyLossLimitPct / 100,
	}
	if s.HaltedToday {
		d.add("HALTED_TODAY", fmt.Sprintf("trading halted for %s", s.TradingDay))
		return s, d
	}
	if d.LossToday >= d.Limit {
		s.HaltedToday = true
		d.add("DAILY_LOSS_LIMIT",
			fmt.Sprintf("loss today %.2f >= limit %.2f (%.2f%% of %.2f)",
				d.LossToday, d.Limit, g.policy.DailyLossLimitPct, s.StartingBalance))
	}
	return s, d
}

// Size returns the quantity for entry/stop at balance under the policy.
func (g *Governor) Size(balance, entry, stop float64) float64 {
	return SizePosition(balance, g.policy.RiskPerTradePct, entry, stop)
}
