package risk

import (
	"fmt"
	"time"
)

// Policy holds the account-level risk limits.
type Policy struct {
	RiskPerTradePct   float64 // 1 = 1% of balance per trade
	DailyLossLimitPct float64 // 4 = halt after losing 4% of the day's starting balance

	// Location defines the trading day boundary. nil is UTC.
	Location *time.Location
}

// DefaultPolicy returns the prop-firm limits: 1% per trade, 4% per day.
func DefaultPolicy() Policy {
	return Policy{RiskPerTradePct: 1, DailyLossLimitPct: 4, Location: time.UTC}
}

func (p Policy) Validate() error {
	if p.RiskPerTradePct <= 0 || p.RiskPerTradePct > 100 {
		return fmt.Errorf("riskPerTradePct must be in (0, 100], got %.2f", p.RiskPerTradePct)
	}
	if p.DailyLossLimitPct <= 0 || p.DailyLossLimitPct > 100 {
		return fmt.Errorf("dailyLossLimitPct must be in (0, 100], got %.2f", p.DailyLossLimitPct)
	}
	return nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
