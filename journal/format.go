package journal

import "github.com/shopspring/decimal"

// Amounts are rounded half away from zero in decimal, so 0.125 renders as
// 0.13 rather than whatever its binary expansion rounds to.

func money(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

func price(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(8)
}

func quantity(x float64) string {
	return decimal.NewFromFloat(x).Round(8).String()
}
