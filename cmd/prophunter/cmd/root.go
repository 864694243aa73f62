package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/prophunter/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "prophunter",
	Short: "A rule-based crypto trend strategy: backtester and live signal bot",
	Long: `Prophunter evaluates a MACD + RSI + SMA + ADX strategy under prop-firm
risk rules (fixed risk per trade, daily loss kill switch).

It provides tools for:
  - Backtesting the strategy over CSV or exchange history without lookahead
  - Running the live polling bot with persisted state and notifications
  - Downloading kline history from Binance
  - Generating and validating configuration files
  - Querying the trade and backtest journal

Secrets (TELEGRAM_TOKEN, TELEGRAM_CHAT_ID, WEBHOOK_URL, REDIS_PASSWORD, ...)
are read from the environment or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.Init("prophunter", logLevel, logFormat)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	log = slog.Default()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with secrets (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}
