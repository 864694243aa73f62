package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/prophunter/engine"
)

const telegramAPI = "https://api.telegram.org"

// Telegram sends events through the Bot API sendMessage call as plain text.
type Telegram struct {
	// BaseURL overrides the API host, e.g. in tests.
	BaseURL string

	token  string
	chatID string
	client *http.Client
}

// NewTelegram creates a Telegram notifier for one chat.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		BaseURL: telegramAPI,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Notify(ctx context.Context, e engine.Event) error {
	title, body := Format(e)
	payload, err := json.Marshal(map[string]any{
		"chat_id": t.chatID,
		"text":    title + "\n\n" + body,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.BaseURL, "/"), t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}
