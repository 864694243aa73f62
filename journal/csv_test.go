package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tp := filepath.Join(dir, "trades.csv")
	ep := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tp, ep)
	require.NoError(t, err)

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("T1", closeT, 100.005)))
	require.NoError(t, j.RecordEquity(EquityPoint{RunID: "RUN1", Time: closeT, Balance: 10100.005}))
	require.NoError(t, j.Close())

	trades := readCSV(t, tp)
	require.Len(t, trades, 2)
	assert.Equal(t, tradeHeader, trades[0])
	assert.Equal(t, []string{
		"T1", "RUN1", "BTCUSDT", "SHORT", "0.1", "50000.00000000", "49000.00000000",
		"2024-01-02T02:05:06Z", "2024-01-02T04:05:06Z", "100.01", "TAKE_PROFIT", "false",
	}, trades[1])

	equity := readCSV(t, ep)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"RUN1", "2024-01-02T04:05:06Z", "10100.01"}, equity[1])
}

func TestCSVJournal_NoEquityFile(t *testing.T) {
	t.Parallel()

	tp := filepath.Join(t.TempDir(), "trades.csv")
	j, err := NewCSV(tp, "")
	require.NoError(t, err)
	require.NoError(t, j.RecordEquity(EquityPoint{Balance: 1}))
	require.NoError(t, j.Close())
	assert.Len(t, readCSV(t, tp), 1)
}

func TestNewCSV_BadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "t.csv"), "")
	assert.Error(t, err)
}
