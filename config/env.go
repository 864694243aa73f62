package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Secrets are credentials read from the environment, never from the
// config file.
type Secrets struct {
	TelegramToken  string
	TelegramChatID string
	BinanceAPIKey  string
	BinanceSecret  string
	WebhookURL     string
	RedisPassword  string
}

// LoadEnv reads .env style files into the process environment without
// overriding variables already set, then fills c.Secrets. Missing files
// are ignored; with no files, ./.env is tried.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	c.Secrets = SecretsFromEnv()
	return nil
}

func SecretsFromEnv() Secrets {
	return Secrets{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		BinanceAPIKey:  os.Getenv("BINANCE_API_KEY"),
		BinanceSecret:  os.Getenv("BINANCE_SECRET"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
	}
}

// ValidateSecrets checks that every enabled channel has its credentials.
func (c *Config) ValidateSecrets() error {
	if c.Notify.Telegram && (c.Secrets.TelegramToken == "" || c.Secrets.TelegramChatID == "") {
		return fmt.Errorf("notify.telegram needs TELEGRAM_TOKEN and TELEGRAM_CHAT_ID")
	}
	if c.Notify.Webhook && c.Secrets.WebhookURL == "" {
		return fmt.Errorf("notify.webhook needs WEBHOOK_URL")
	}
	return nil
}
