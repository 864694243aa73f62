package cmd

import (
	"fmt"
	"log/slog"

	"github.com/rustyeddy/prophunter/config"
	"github.com/rustyeddy/prophunter/engine"
	"github.com/rustyeddy/prophunter/feed"
	"github.com/rustyeddy/prophunter/journal"
	"github.com/rustyeddy/prophunter/notify"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/risk"
	"github.com/rustyeddy/prophunter/strategy"
)

// loadConfig reads the config file (or defaults) and the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildEngine(cfg *config.Config, log *slog.Logger) (*engine.Engine, error) {
	params, err := cfg.StrategyParams()
	if err != nil {
		return nil, err
	}
	gen, err := strategy.NewGenerator(params, log)
	if err != nil {
		return nil, err
	}
	gov, err := risk.NewGovernor(cfg.RiskPolicy())
	if err != nil {
		return nil, err
	}
	pm, err := position.NewMachine(cfg.PositionOptions())
	if err != nil {
		return nil, err
	}
	return engine.New(cfg.Symbol, gen, gov, pm, log), nil
}

func buildFeed(cfg *config.Config) (feed.Source, feed.PriceSource) {
	if cfg.Feed.Type == "csv" {
		f := feed.NewCSV(cfg.Feed.Path)
		f.Log = log
		return f, nil
	}
	b := feed.NewBinance(cfg.Feed.BaseURL, cfg.Symbol, cfg.Timeframe)
	return b, b
}

// openJournal opens the live trade journal named by the config.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	var (
		j   journal.Journal
		err error
	)
	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	default:
		j = journal.Discard{}
	}
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	return j, nil
}

func buildNotifier(cfg *config.Config, log *slog.Logger) (engine.Notifier, error) {
	if err := cfg.ValidateSecrets(); err != nil {
		return nil, err
	}
	m := notify.Multi{notify.NewLog(log)}
	if cfg.Notify.Telegram {
		m = append(m, notify.NewTelegram(cfg.Secrets.TelegramToken, cfg.Secrets.TelegramChatID))
	}
	if cfg.Notify.Webhook {
		m = append(m, notify.NewWebhook(cfg.Secrets.WebhookURL))
	}
	return m, nil
}
