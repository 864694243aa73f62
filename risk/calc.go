// Package risk sizes positions and enforces the daily loss limit.
package risk

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// SizePosition returns the quantity whose stop-out loses riskPct percent of
// balance: (balance * riskPct/100) / |entry - stop|. A zero stop distance
// or a non-positive budget returns 0 and the caller must not open.
func SizePosition(balance, riskPct, entry, stop float64) float64 {
	distance := abs(entry - stop)
	if distance == 0 {
		return 0
	}
	budget := RiskAmount(balance, riskPct)
	if budget <= 0 {
		return 0
	}
	return budget / distance
}

// RiskAmount is the account currency put at risk per trade.
func RiskAmount(balance, riskPct float64) float64 {
	return balance * riskPct / 100
}

// PlannedRisk is the loss if a position of qty is stopped out.
func PlannedRisk(qty, entry, stop float64) float64 {
	return qty * abs(entry-stop)
}

// RR is the reward to risk ratio of a set of levels.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}
