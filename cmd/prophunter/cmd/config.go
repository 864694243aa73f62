package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/prophunter/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage bot and backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  prophunter config init -o bot.yaml
  prophunter config validate -f bot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  prophunter config init -o bot.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded, and that every
enabled notification channel has its secrets in the environment.

Example:
  prophunter config validate -f bot.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "prophunter.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  prophunter backtest -c %s\n", configInitOutput)
	fmt.Printf("  prophunter run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		return err
	}
	if err := cfg.ValidateSecrets(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Market: %s %s (%s)\n", cfg.Symbol, cfg.Timeframe, cfg.Timezone)
	fmt.Printf("  Account: $%.2f\n", cfg.Account.InitialCapital)
	fmt.Printf("  Risk: %.2f%% per trade, %.2f%% daily limit\n", cfg.Risk.RiskPerTradePct, cfg.Risk.DailyLossLimitPct)
	fmt.Printf("  Stages: %v\n", cfg.Strategy.Stages)
	fmt.Printf("  Feed: %s  Store: %s  Journal: %s\n", cfg.Feed.Type, cfg.Store.Type, cfg.Journal.Type)
	return nil
}
