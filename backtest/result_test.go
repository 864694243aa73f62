package backtest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() Result {
	r := Result{InitialBalance: 1000, FinalBalance: 1200, Candles: 500, Start: 1704067200000, End: 1705867200000}
	for _, pnl := range []float64{100, -50, -50, 200} {
		r.add(position.TradeRecord{PnL: pnl, Direction: market.Long})
	}
	return r
}

func TestStats(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	assert.Equal(t, 2, r.WinCount)
	assert.Equal(t, 2, r.LossCount)

	s := r.Stats()
	assert.Equal(t, 4, s.Trades)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.InDelta(t, 200.0, s.NetPL, 1e-9)
	assert.InDelta(t, 20.0, s.ReturnPct, 1e-9)
	assert.InDelta(t, 300.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 100.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 3.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 100.0, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 100.0/1100*100, s.MaxDrawdownPct, 1e-9)
}

func TestStats_BreakEvenCountsAsLoss(t *testing.T) {
	t.Parallel()

	var r Result
	r.add(position.TradeRecord{PnL: 0})
	assert.Equal(t, 0, r.WinCount)
	assert.Equal(t, 1, r.LossCount)
	assert.Equal(t, 0.0, r.Stats().ProfitFactor)
}

func TestNewRunAndPrint(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	r.OpenAtEnd = &position.Position{Status: position.StatusOpen, Direction: market.Short, EntryPrice: 100, StopLoss: 105, TakeProfit: 90, Quantity: 1}
	r.HaltedDays = 2

	p := strategy.DefaultParams()
	run := NewRun(RunInfo{
		Symbol: "BTCUSDT", Timeframe: "1h", Dataset: "btc.csv",
		Params: p, Stages: []string{"trend(SMA200)", "trigger(MACD12,26,9)"},
		RiskPct: 1, DailyLossPct: 4,
	}, r)

	assert.Len(t, run.RunID, 26)
	assert.Equal(t, "trend(SMA200) > trigger(MACD12,26,9)", run.Strategy)
	assert.Equal(t, 4, run.Trades)
	assert.InDelta(t, 3.0, run.ProfitFactor, 1e-9)
	assert.True(t, run.OpenAtEnd)
	assert.Equal(t, 2.0, run.RR)
	assert.Equal(t, "2024-01-01", run.Start.Format("2006-01-02"))
	require.Len(t, run.Notes, 2)

	var cfg strategy.Params
	require.NoError(t, json.Unmarshal(run.Config, &cfg))
	assert.Equal(t, p.TrendPeriod, cfg.TrendPeriod)

	var buf bytes.Buffer
	PrintBacktestRun(&buf, run)
	out := buf.String()
	assert.Contains(t, out, "Symbol:        BTCUSDT")
	assert.Contains(t, out, "Net P/L:       200.00")
	assert.Contains(t, out, "Profit Factor: 3.00")
	assert.Contains(t, out, "Halted Days:   2")
	assert.Contains(t, out, "open at end: SHORT")
}
