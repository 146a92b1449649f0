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

// Webhook posts the message as JSON to a per-target URL. Covers anything
// with an inbound hook (chat bridges, home automation, paging services).
type Webhook struct {
	httpClient *http.Client
}

func NewWebhook() *Webhook {
	return &Webhook{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, title, body string, targets []Target) error {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, target := range targets {
		url, ok := target.Addresses[w.Name()]
		if !ok || url == "" {
			continue
		}
		if err := w.post(ctx, url, payload); err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (w *Webhook) post(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	return nil
}
