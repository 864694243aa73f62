package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/prophunter/feed"
	"github.com/rustyeddy/prophunter/journal"
	"github.com/rustyeddy/prophunter/live"
	"github.com/rustyeddy/prophunter/metrics"
	"github.com/rustyeddy/prophunter/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live signal bot",
	Long: `Run polls the candle feed every feed.pollInterval and evaluates one step:
exits on the forming candle, then (when flat) an entry decision on the
closed history at the live price. State is saved before any notification
goes out, so a restart resumes the position, the trading day and the
daily halt.

Example:
  prophunter run -c bot.yaml`,
	RunE: runRun,
}

var runOnce bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single step and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	interval, err := feed.Interval(cfg.Timeframe)
	if err != nil {
		return err
	}
	poll, err := cfg.Feed.ParsePollInterval()
	if err != nil {
		return err
	}
	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	repo, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, log)
		srv.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(sctx)
		}()
	}

	src, prices := buildFeed(cfg)
	r := &live.Runner{
		Engine:         eng,
		Feed:           src,
		Prices:         prices,
		Interval:       interval,
		Limit:          cfg.Feed.Limit,
		Poll:           poll,
		Repo:           repo,
		InitialBalance: cfg.Account.InitialCapital,
		Notifier:       notifier,
		Trades:         journal.Recorder{J: j},
		Metrics:        m,
		Log:            log,
	}

	fmt.Printf("Running %s %s (poll %s, store %s, journal %s)\n",
		cfg.Symbol, cfg.Timeframe, poll, cfg.Store.Type, cfg.Journal.Type)

	if runOnce {
		s, _, err := store.LoadOrNew(ctx, repo, cfg.Account.InitialCapital)
		if err != nil {
			return err
		}
		s, err = r.Once(ctx, s)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}
	return r.Run(ctx)
}
