package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/prophunter/feed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download closed klines from Binance to CSV",
	Long: `Fetch downloads the most recent closed candles for the configured symbol
and timeframe, paging backwards 1000 at a time, and writes them as
timestamp,open,high,low,close rows.

Example:
  prophunter fetch --symbol BTCUSDT --timeframe 1h -n 2500 -o data/btcusdt-1h.csv`,
	RunE: runFetch,
}

var (
	fetchOut       string
	fetchCount     int
	fetchSymbol    string
	fetchTimeframe string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOut, "output", "o", "", "output CSV path (required)")
	fetchCmd.Flags().IntVarP(&fetchCount, "candles", "n", 2500, "number of closed candles")
	fetchCmd.Flags().StringVar(&fetchSymbol, "symbol", "", "symbol (default from config)")
	fetchCmd.Flags().StringVar(&fetchTimeframe, "timeframe", "", "timeframe (default from config)")
	fetchCmd.MarkFlagRequired("output")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fetchSymbol != "" {
		cfg.Symbol = fetchSymbol
	}
	if fetchTimeframe != "" {
		cfg.Timeframe = fetchTimeframe
	}
	interval, err := feed.Interval(cfg.Timeframe)
	if err != nil {
		return err
	}

	b := feed.NewBinance(cfg.Feed.BaseURL, cfg.Symbol, cfg.Timeframe)
	raw, err := b.Candles(cmd.Context(), fetchCount+1)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	closed, _ := feed.Split(raw, interval, time.Now())
	closed = feed.Last(closed, fetchCount)

	f, err := os.Create(fetchOut)
	if err != nil {
		return err
	}
	if err := feed.WriteCSV(f, closed); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("✓ Wrote %d candles to %s\n", len(closed), fetchOut)
	if len(closed) > 0 {
		fmt.Printf("  From: %s\n", closed[0].Time().Format(time.RFC3339))
		fmt.Printf("  To:   %s\n", closed[len(closed)-1].Time().Format(time.RFC3339))
	}
	return nil
}
