package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/prophunter/backtest"
	"github.com/rustyeddy/prophunter/config"
	"github.com/rustyeddy/prophunter/feed"
	"github.com/rustyeddy/prophunter/journal"
	"github.com/rustyeddy/prophunter/market"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the strategy over historical candles",
	Long: `Backtest replays closed candles through the same engine the live bot uses.
Decisions at candle i only see candles before i; exits are tested against
candle i with stop-loss winning a same-candle tie.

Candles come from --data (CSV: timestamp,open,high,low,close) or, if not
given, are downloaded from Binance (--candles most recent, paged by 1000).

Examples:
  prophunter backtest --data data/btcusdt-1h.csv
  prophunter backtest -c bot.yaml --candles 2500 --db backtest.sqlite --org report.org`,
	RunE: runBacktest,
}

var (
	btDataPath  string
	btCandles   int
	btDBPath    string
	btOrgPath   string
	btTradesCSV string
	btBalance   float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "candle CSV; empty downloads from Binance")
	backtestCmd.Flags().IntVarP(&btCandles, "candles", "n", 2500, "candles to download when --data is empty")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "SQLite journal for run summary, trades and equity")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an Org-mode report to this path")
	backtestCmd.Flags().StringVar(&btTradesCSV, "trades-csv", "", "write closed trades to this CSV")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "initial capital (default from config)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if btBalance > 0 {
		cfg.Account.InitialCapital = btBalance
	}
	ctx := cmd.Context()

	candles, dataset, err := backtestCandles(ctx, cfg)
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	sim := &backtest.Simulator{Engine: eng, InitialBalance: cfg.Account.InitialCapital, Log: log}

	fmt.Printf("Running backtest: %s %s\n", cfg.Symbol, cfg.Timeframe)
	fmt.Printf("  Data: %s (%d candles)\n", dataset, len(candles))
	fmt.Printf("  Stages: %v\n\n", eng.Generator().Stages())

	res, err := sim.Run(ctx, candles)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	run := backtest.NewRun(backtest.RunInfo{
		Symbol:       cfg.Symbol,
		Timeframe:    cfg.Timeframe,
		Dataset:      dataset,
		Params:       eng.Generator().Params(),
		Stages:       eng.Generator().Stages(),
		RiskPct:      cfg.Risk.RiskPerTradePct,
		DailyLossPct: cfg.Risk.DailyLossLimitPct,
	}, res)
	run.OrgPath = btOrgPath

	if err := saveBacktest(ctx, cfg.Symbol, run, res); err != nil {
		return err
	}
	if run.OrgPath != "" {
		if err := run.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	backtest.PrintBacktestRun(os.Stdout, run)
	return nil
}

func backtestCandles(ctx context.Context, cfg *config.Config) ([]market.Candle, string, error) {
	if btDataPath != "" {
		c, err := feed.NewCSV(btDataPath).Candles(ctx, 0)
		if err != nil {
			return nil, "", fmt.Errorf("load candles: %w", err)
		}
		return c, btDataPath, nil
	}

	interval, err := feed.Interval(cfg.Timeframe)
	if err != nil {
		return nil, "", err
	}
	b := feed.NewBinance(cfg.Feed.BaseURL, cfg.Symbol, cfg.Timeframe)
	// one extra so the forming candle can be dropped
	raw, err := b.Candles(ctx, btCandles+1)
	if err != nil {
		return nil, "", fmt.Errorf("download candles: %w", err)
	}
	closed, _ := feed.Split(raw, interval, time.Now())
	return feed.Last(closed, btCandles), fmt.Sprintf("binance:%s:%s", cfg.Symbol, cfg.Timeframe), nil
}

// saveBacktest writes the run to the SQLite journal and trades to CSV when
// requested.
func saveBacktest(ctx context.Context, symbol string, run journal.BacktestRun, res backtest.Result) error {
	var sinks []journal.Journal
	if btDBPath != "" {
		sq, err := journal.NewSQLite(btDBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sq.Close()
		if err := sq.RecordBacktest(ctx, run); err != nil {
			return err
		}
		sinks = append(sinks, sq)
	}
	if btTradesCSV != "" {
		c, err := journal.NewCSV(btTradesCSV, "")
		if err != nil {
			return fmt.Errorf("open trades csv: %w", err)
		}
		defer c.Close()
		sinks = append(sinks, c)
	}

	balance := res.InitialBalance
	for _, t := range res.Trades {
		balance += t.PnL
		entry := journal.FromTrade(run.RunID, symbol, t)
		for _, j := range sinks {
			if err := j.RecordTrade(entry); err != nil {
				return fmt.Errorf("record trade: %w", err)
			}
			if err := j.RecordEquity(journal.EquityPoint{RunID: run.RunID, Time: entry.CloseTime, Balance: balance}); err != nil {
				return fmt.Errorf("record equity: %w", err)
			}
		}
	}
	return nil
}
