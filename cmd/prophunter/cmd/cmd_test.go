package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/prophunter/config"
	"github.com/rustyeddy/prophunter/feed"
	"github.com/rustyeddy/prophunter/journal"
	"github.com/rustyeddy/prophunter/market"
)

func TestDayBounds(t *testing.T) {
	start, end, err := dayBounds(time.UTC, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start, end, err = dayBounds(ny, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 23*time.Hour, end.Sub(start), "spring-forward day")

	_, _, err = dayBounds(time.UTC, "06/03/2024")
	assert.Error(t, err)
}

func TestJournalDayUsesTradingTimezone(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.sqlite")

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	closeT := time.Date(2024, 6, 2, 20, 0, 0, 0, time.UTC) // 05:00 on the 3rd in Tokyo
	require.NoError(t, j.RecordTrade(journal.TradeEntry{
		TradeID:    "01J0TOKYOTRADE0000000000000",
		Symbol:     "BTCUSDT",
		Direction:  market.Long,
		Quantity:   0.1,
		EntryPrice: 100,
		ExitPrice:  110,
		OpenTime:   closeT.Add(-time.Hour),
		CloseTime:  closeT,
		PnL:        1,
		Reason:     "TAKE_PROFIT",
	}))
	require.NoError(t, j.Close())

	cfgPath := filepath.Join(dir, "bot.yaml")
	cfg := config.Default()
	cfg.Timezone = "Asia/Tokyo"
	require.NoError(t, cfg.SaveToFile(cfgPath))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	list := func(day string) string {
		out.Reset()
		rootCmd.SetArgs([]string{"journal", "day", day, "-c", cfgPath,
			"--env", filepath.Join(dir, "none.env"), "--db", db})
		require.NoError(t, Execute())
		return out.String()
	}
	assert.Contains(t, list("2024-06-03"), "01J0TOKYOTRADE0000000000000")
	assert.NotContains(t, list("2024-06-02"), "01J0TOKYOTRADE0000000000000")
}

// zigzag builds hourly candles that trend and reverse so the pipeline has
// something to trade.
func zigzag(n int) []market.Candle {
	out := make([]market.Candle, n)
	p := 100.0
	for i := range out {
		step := 0.6
		if (i/60)%2 == 1 {
			step = -0.6
		}
		if i%7 == 3 {
			step = -step * 1.5
		}
		open := p
		p += step
		hi, lo := open, p
		if p > open {
			hi, lo = p, open
		}
		out[i] = market.Candle{Timestamp: int64(i) * 3_600_000, Open: open, High: hi + 0.3, Low: lo - 0.3, Close: p}
	}
	return out
}

func TestBacktestCommand(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "candles.csv")
	var buf bytes.Buffer
	require.NoError(t, feed.WriteCSV(&buf, zigzag(600)))
	require.NoError(t, os.WriteFile(data, buf.Bytes(), 0o644))

	cfgPath := filepath.Join(dir, "bot.yaml")
	cfg := config.Default()
	cfg.Strategy.TrendPeriod = 50
	require.NoError(t, cfg.SaveToFile(cfgPath))

	org := filepath.Join(dir, "report.org")
	rootCmd.SetArgs([]string{
		"backtest", "-c", cfgPath, "--env", filepath.Join(dir, "none.env"),
		"--log-level", "warn",
		"--data", data, "--db", filepath.Join(dir, "bt.sqlite"), "--org", org,
		"--trades-csv", filepath.Join(dir, "trades.csv"),
	})
	require.NoError(t, Execute())

	body, err := os.ReadFile(org)
	require.NoError(t, err)
	assert.Contains(t, string(body), "* BACKTEST: BTCUSDT 1h")
	assert.Contains(t, string(body), `"trendPeriod":50`, "run records the engine's params")

	trades, err := os.ReadFile(filepath.Join(dir, "trades.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(trades), "trade_id,run_id,symbol")
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")

	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	require.NoError(t, Execute())

	rootCmd.SetArgs([]string{"config", "validate", "-f", path, "--env", filepath.Join(dir, "none.env")})
	require.NoError(t, Execute())
}
