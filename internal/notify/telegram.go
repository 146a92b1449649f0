package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// Telegram delivers messages through the Telegram bot API. The target
// address is the chat id of the recipient's conversation with the bot.
type Telegram struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewTelegram(token string) *Telegram {
	return &Telegram{
		token:      token,
		baseURL:    telegramAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts the message to every target's chat. Per-target failures are
// collected, not aborted on.
func (t *Telegram) Send(ctx context.Context, title, body string, targets []Target) error {
	var errs []error
	for _, target := range targets {
		chatID, ok := target.Addresses[t.Name()]
		if !ok || chatID == "" {
			continue
		}
		if err := t.sendOne(ctx, chatID, title+"\n"+body); err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Telegram) sendOne(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage: bad status: %s", resp.Status)
	}
	return nil
}
