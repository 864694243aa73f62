// Package feed supplies candles to the backtest and the live loop. Rows
// with missing or unparseable fields are dropped here, before anything
// reaches the strategy core; semantic checks stay in market.ValidateSeries.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/prophunter/market"
)

// Source returns up to limit recent candles, oldest first. The last one
// may still be forming.
type Source interface {
	Candles(ctx context.Context, limit int) ([]market.Candle, error)
}

// PriceSource returns the latest traded price.
type PriceSource interface {
	Price(ctx context.Context) (float64, error)
}

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// Interval maps an exchange timeframe such as "1h" to its duration.
func Interval(tf string) (time.Duration, error) {
	d, ok := intervals[tf]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
	return d, nil
}

// Split separates the closed history from the candle still forming at
// now. A candle is closed once its full interval has elapsed.
func Split(candles []market.Candle, interval time.Duration, now time.Time) (closed []market.Candle, forming *market.Candle) {
	if len(candles) == 0 {
		return nil, nil
	}
	last := candles[len(candles)-1]
	if last.Timestamp+interval.Milliseconds() > now.UnixMilli() {
		c := last
		return candles[:len(candles)-1], &c
	}
	return candles, nil
}

// Tidy sorts candles by time and drops repeated timestamps, keeping the
// later row.
func Tidy(candles []market.Candle) []market.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Timestamp == c.Timestamp {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// Last returns the most recent n candles.
func Last(candles []market.Candle, n int) []market.Candle {
	if n <= 0 || len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
