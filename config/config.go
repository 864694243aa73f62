package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/prophunter/feed"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/risk"
	"github.com/rustyeddy/prophunter/store"
	"github.com/rustyeddy/prophunter/strategy"
)

// Config represents the complete bot and backtest configuration
type Config struct {
	Symbol    string `json:"symbol" yaml:"symbol"`
	Timeframe string `json:"timeframe" yaml:"timeframe"`
	Timezone  string `json:"timezone" yaml:"timezone"` // IANA name, trading day boundary

	Account  AccountConfig  `json:"account" yaml:"account"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Feed     FeedConfig     `json:"feed" yaml:"feed"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Notify   NotifyConfig   `json:"notify" yaml:"notify"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`

	// Secrets come from the environment only.
	Secrets Secrets `json:"-" yaml:"-"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCapital float64 `json:"initialCapital" yaml:"initialCapital"`
}

// RiskConfig contains the prop-firm risk limits in percent
type RiskConfig struct {
	RiskPerTradePct   float64 `json:"riskPerTradePct" yaml:"riskPerTradePct"`
	DailyLossLimitPct float64 `json:"dailyLossLimitPct" yaml:"dailyLossLimitPct"`
}

// StrategyConfig contains strategy and position management parameters
type StrategyConfig struct {
	TrendPeriod     int `json:"trendPeriod" yaml:"trendPeriod"`
	FastTrendPeriod int `json:"fastTrendPeriod" yaml:"fastTrendPeriod"`

	RSIPeriod     int     `json:"rsiPeriod" yaml:"rsiPeriod"`
	RSIOverbought float64 `json:"rsiOverbought" yaml:"rsiOverbought"`
	RSIOversold   float64 `json:"rsiOversold" yaml:"rsiOversold"`

	MACDFast   int `json:"macdFast" yaml:"macdFast"`
	MACDSlow   int `json:"macdSlow" yaml:"macdSlow"`
	MACDSignal int `json:"macdSignal" yaml:"macdSignal"`

	ADXPeriod    int     `json:"adxPeriod" yaml:"adxPeriod"`
	ADXThreshold float64 `json:"adxThreshold" yaml:"adxThreshold"`

	StopLookback   int     `json:"stopLookback" yaml:"stopLookback"`
	RewardMultiple float64 `json:"rewardMultiple" yaml:"rewardMultiple"`

	BreakEven                bool    `json:"breakEven" yaml:"breakEven"`
	BreakEvenTriggerFraction float64 `json:"breakEvenTriggerFraction" yaml:"breakEvenTriggerFraction"`

	Stages   []string `json:"stages,omitempty" yaml:"stages,omitempty"`
	Blackout []string `json:"blackout,omitempty" yaml:"blackout,omitempty"` // "HH:MM-HH:MM"
}

// FeedConfig selects the candle source
type FeedConfig struct {
	Type         string `json:"type" yaml:"type"` // "csv" or "binance"
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	BaseURL      string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Limit        int    `json:"limit" yaml:"limit"`
	PollInterval string `json:"pollInterval" yaml:"pollInterval"` // e.g. "60s"
}

// ParsePollInterval converts the poll interval string to time.Duration
func (f FeedConfig) ParsePollInterval() (time.Duration, error) {
	if f.PollInterval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(f.PollInterval)
}

// StoreConfig selects where live state is persisted
type StoreConfig struct {
	Type      string `json:"type" yaml:"type"` // memory, file, sqlite, redis
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	RedisAddr string `json:"redisAddr,omitempty" yaml:"redisAddr,omitempty"`
	RedisDB   int    `json:"redisDB,omitempty" yaml:"redisDB,omitempty"`
	Key       string `json:"key,omitempty" yaml:"key,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"tradesFile,omitempty" yaml:"tradesFile,omitempty"`
	EquityFile string `json:"equityFile,omitempty" yaml:"equityFile,omitempty"`
	DBPath     string `json:"dbPath,omitempty" yaml:"dbPath,omitempty"`
	OrgPath    string `json:"orgPath,omitempty" yaml:"orgPath,omitempty"`
}

// NotifyConfig enables the notification channels
type NotifyConfig struct {
	Telegram bool `json:"telegram" yaml:"telegram"`
	Webhook  bool `json:"webhook" yaml:"webhook"`
}

// MetricsConfig configures the Prometheus endpoint; an empty Addr disables it
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON). Fields the
// file leaves out keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if _, err := feed.Interval(c.Timeframe); err != nil {
		return fmt.Errorf("timeframe: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initialCapital must be positive")
	}
	if err := c.RiskPolicy().Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	params, err := c.StrategyParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.Strategy.BreakEven && (c.Strategy.BreakEvenTriggerFraction <= 0 || c.Strategy.BreakEvenTriggerFraction > 1) {
		return fmt.Errorf("strategy.breakEvenTriggerFraction must be in (0, 1]")
	}

	switch c.Feed.Type {
	case "csv":
		if c.Feed.Path == "" {
			return fmt.Errorf("feed.path required for CSV type")
		}
	case "binance":
	default:
		return fmt.Errorf("feed.type must be 'csv' or 'binance'")
	}
	if c.Feed.Limit <= 0 {
		return fmt.Errorf("feed.limit must be positive")
	}
	if d, err := c.Feed.ParsePollInterval(); err != nil || d <= 0 {
		return fmt.Errorf("feed.pollInterval must be a positive duration")
	}

	switch c.Store.Type {
	case "", "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for %s type", c.Store.Type)
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redisAddr required for redis type")
		}
	default:
		return fmt.Errorf("store.type must be one of memory, file, sqlite, redis")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal tradesFile required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal dbPath required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Location loads the configured timezone. Empty is UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StrategyParams projects the strategy section onto strategy.Params.
func (c *Config) StrategyParams() (strategy.Params, error) {
	s := c.Strategy
	p := strategy.Params{
		TrendPeriod:     s.TrendPeriod,
		FastTrendPeriod: s.FastTrendPeriod,
		RSIPeriod:       s.RSIPeriod,
		RSIOverbought:   s.RSIOverbought,
		RSIOversold:     s.RSIOversold,
		MACDFast:        s.MACDFast,
		MACDSlow:        s.MACDSlow,
		MACDSignal:      s.MACDSignal,
		ADXPeriod:       s.ADXPeriod,
		ADXThreshold:    s.ADXThreshold,
		StopLookback:    s.StopLookback,
		RewardMultiple:  s.RewardMultiple,
		Stages:          append([]string(nil), s.Stages...),
	}
	for _, raw := range s.Blackout {
		w, err := strategy.ParseWindow(raw)
		if err != nil {
			return strategy.Params{}, fmt.Errorf("strategy.blackout: %w", err)
		}
		p.Blackout = append(p.Blackout, w)
	}
	loc, err := c.Location()
	if err != nil {
		return strategy.Params{}, err
	}
	p.Location = loc
	return p, nil
}

// RiskPolicy projects the risk section and timezone onto risk.Policy. An
// unloadable timezone falls back to UTC; Validate reports it.
func (c *Config) RiskPolicy() risk.Policy {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	return risk.Policy{
		RiskPerTradePct:   c.Risk.RiskPerTradePct,
		DailyLossLimitPct: c.Risk.DailyLossLimitPct,
		Location:          loc,
	}
}

func (c *Config) PositionOptions() position.Options {
	return position.Options{
		BreakEven:       c.Strategy.BreakEven,
		TriggerFraction: c.Strategy.BreakEvenTriggerFraction,
	}
}

// StoreOptions returns the repository options, keyed per symbol unless a
// key is configured.
func (c *Config) StoreOptions() store.Options {
	key := c.Store.Key
	if key == "" {
		key = "prophunter:" + c.Symbol
	}
	return store.Options{
		Type:          c.Store.Type,
		Path:          c.Store.Path,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Secrets.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		Key:           key,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Timezone:  "UTC",
		Account: AccountConfig{
			InitialCapital: 10000,
		},
		Risk: RiskConfig{
			RiskPerTradePct:   1,
			DailyLossLimitPct: 4,
		},
		Strategy: StrategyConfig{
			TrendPeriod:              200,
			RSIPeriod:                14,
			RSIOverbought:            70,
			RSIOversold:              30,
			MACDFast:                 12,
			MACDSlow:                 26,
			MACDSignal:               9,
			ADXPeriod:                14,
			ADXThreshold:             25,
			StopLookback:             10,
			RewardMultiple:           2,
			BreakEven:                true,
			BreakEvenTriggerFraction: 0.5,
			Stages:                   append([]string(nil), strategy.DefaultStages...),
		},
		Feed: FeedConfig{
			Type:         "binance",
			BaseURL:      feed.BinanceAPI,
			Limit:        300,
			PollInterval: "60s",
		},
		Store: StoreConfig{
			Type: "file",
			Path: "./state.json",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
