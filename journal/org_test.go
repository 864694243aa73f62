package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	open := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	close := time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC)

	trade := TradeEntry{
		TradeID:    "01HTRADE12345678",
		Symbol:     "BTCUSDT",
		Direction:  market.Long,
		Quantity:   0.123456789,
		EntryPrice: 50000,
		ExitPrice:  49000.5,
		OpenTime:   open,
		CloseTime:  close,
		PnL:        -0.125,
		Reason:     "STOP_LOSS",
		BreakEven:  true,
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "*** Trade: BTCUSDT LONG (01HTRADE)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HTRADE12345678")
	assert.NotContains(t, result, ":RUN_ID:")
	assert.Contains(t, result, ":QUANTITY: 0.12345679")
	assert.Contains(t, result, ":ENTRY_PRICE: 50000.00000000")
	assert.Contains(t, result, ":EXIT_PRICE: 49000.50000000")
	assert.Contains(t, result, ":OPEN_TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":PNL: -0.13")
	assert.Contains(t, result, ":BREAK_EVEN: t")
	assert.Contains(t, result, "**** Review")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	out := FormatTradesOrg([]TradeEntry{{TradeID: "A"}, {TradeID: "B"}})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	run := sampleRun()
	run.Notes = []string{"halted on 2024-02-10"}
	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteBacktestOrg())

	b, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, ":RUN_ID:      01HRUN")
	assert.Contains(t, out, ":STRATEGY:    trend(SMA200) > trigger(MACD12,26,9)")
	assert.Contains(t, out, ":START_BAL:   10000.00")
	assert.Contains(t, out, ":OPEN_AT_END: yes")
	assert.Contains(t, out, ":PROFIT_FAC:  1.33")
	assert.Contains(t, out, "- halted on 2024-02-10")
	assert.Contains(t, out, `| Config            | {"trendPeriod":200} |`)

	empty := BacktestRun{}
	assert.Error(t, empty.WriteBacktestOrg())
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	exit := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tr := position.TradeRecord{
		EntryTime: exit.Add(-time.Hour).UnixMilli(), ExitTime: exit.UnixMilli(),
		Direction: market.Long, EntryPrice: 100, ExitPrice: 110, Quantity: 2, PnL: 20,
		ExitReason: position.ExitTakeProfit,
	}
	require.NoError(t, Recorder{J: j, RunID: "R"}.RecordTrade(context.Background(), "ETHUSDT", tr))

	got, err := j.ListTradesClosedBetween(exit, exit.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ETHUSDT", got[0].Symbol)
	assert.Equal(t, "R", got[0].RunID)
	assert.Len(t, got[0].TradeID, 26)
	assert.Equal(t, 20.0, got[0].PnL)

	require.NoError(t, Recorder{J: j, RunID: "R"}.RecordEquity(context.Background(), exit, 10020))
	eq, err := j.ListEquityByRunID(context.Background(), "R")
	require.NoError(t, err)
	require.Len(t, eq, 1)
	assert.True(t, eq[0].Time.Equal(exit))
	assert.Equal(t, 10020.0, eq[0].Balance)
}
