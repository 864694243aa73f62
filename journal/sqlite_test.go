package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id string, closeT time.Time, pnl float64) TradeEntry {
	return TradeEntry{
		TradeID:    id,
		RunID:      "RUN1",
		Symbol:     "BTCUSDT",
		Direction:  market.Short,
		Quantity:   0.1,
		EntryPrice: 50000,
		ExitPrice:  49000,
		OpenTime:   closeT.Add(-2 * time.Hour),
		CloseTime:  closeT,
		PnL:        pnl,
		Reason:     string(position.ExitTakeProfit),
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity','backtest_runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
	assert.True(t, found["backtest_runs"])
}

func TestSQLiteRecordAndGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	rec := sampleTrade("T1", closeT, 100)
	rec.BreakEven = true
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.Symbol, got.Symbol)
	assert.Equal(t, market.Short, got.Direction)
	assert.InDelta(t, 0.1, got.Quantity, 1e-12)
	assert.True(t, got.CloseTime.Equal(closeT))
	assert.True(t, got.OpenTime.Equal(rec.OpenTime))
	assert.True(t, got.BreakEven)
	assert.Equal(t, "TAKE_PROFIT", got.Reason)

	_, err = j.GetTrade("missing")
	assert.Error(t, err)
}

func TestSQLiteListTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("B", base.Add(2*time.Hour), -50)))
	require.NoError(t, j.RecordTrade(sampleTrade("A", base.Add(time.Hour), 100)))
	other := sampleTrade("C", base.Add(3*time.Hour), 10)
	other.RunID = "RUN2"
	require.NoError(t, j.RecordTrade(other))

	got, err := j.ListTradesByRunID(context.Background(), "RUN1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].TradeID)
	assert.Equal(t, "B", got[1].TradeID)

	between, err := j.ListTradesClosedBetween(base.Add(90*time.Minute), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "B", between[0].TradeID)

	east := time.FixedZone("UTC+9", 9*60*60)
	between, err = j.ListTradesClosedBetween(base.Add(90*time.Minute).In(east), base.Add(3*time.Hour).In(east))
	require.NoError(t, err)
	require.Len(t, between, 1, "bounds outside UTC")
	assert.Equal(t, "B", between[0].TradeID)
}

func TestSQLiteEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordEquity(EquityPoint{RunID: "R", Time: base.Add(time.Hour), Balance: 10100}))
	require.NoError(t, j.RecordEquity(EquityPoint{RunID: "R", Time: base, Balance: 10000}))

	got, err := j.ListEquityByRunID(context.Background(), "R")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10000.0, got[0].Balance)
	assert.Equal(t, 10100.0, got[1].Balance)
}

func sampleRun() BacktestRun {
	return BacktestRun{
		RunID:        "01HRUN",
		Created:      time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		Timeframe:    "1h",
		Dataset:      "btc.csv",
		Symbol:       "BTCUSDT",
		Strategy:     "trend(SMA200) > trigger(MACD12,26,9)",
		Config:       []byte(`{"trendPeriod":200}`),
		RiskPct:      1,
		DailyLossPct: 4,
		RR:           2,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Candles:      2000,
		Trades:       10,
		Wins:         4,
		Losses:       6,
		OpenAtEnd:    true,
		HaltedDays:   1,
		StartBalance: 10000,
		EndBalance:   10200,
		NetPL:        200,
		ReturnPct:    2,
		WinRate:      40,
		ProfitFactor: 1.33,
		MaxDDPct:     3.5,
	}
}

func TestSQLiteBacktestRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, j.RecordBacktest(ctx, run))
	require.NoError(t, j.RecordTrade(sampleTrade("T1", run.End, 100)))
	require.NoError(t, j.RecordTrade(TradeEntry{TradeID: "T2", RunID: run.RunID, Symbol: "BTCUSDT", Direction: market.Long, CloseTime: run.End, OpenTime: run.Start, Reason: "STOP_LOSS"}))

	got, err := j.GetBacktestRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Symbol, got.Symbol)
	assert.Equal(t, run.Trades, got.Trades)
	assert.Equal(t, run.Config, got.Config)
	assert.True(t, got.OpenAtEnd)
	assert.True(t, got.Start.Equal(run.Start))

	_, err = j.GetBacktestRun(ctx, "nope")
	assert.Error(t, err)

	// T1 was recorded under RUN1
	org, err := j.ExportBacktestOrg(ctx, run.RunID)
	require.NoError(t, err)
	assert.Contains(t, org, "* BACKTEST: BTCUSDT 1h")
	assert.Contains(t, org, "** Trades")
	assert.Contains(t, org, ":TRADE_ID: T2")
	assert.NotContains(t, org, ":TRADE_ID: T1")
}
