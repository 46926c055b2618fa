package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/separation-management/internal"
)

type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

// NewSender posts to the configured webhook, or only logs when none is set.
func NewSender(cfg internal.NotificationConfig, logger *slog.Logger) Sender {
	if cfg.WebhookURL == "" {
		return NewLogSender(logger)
	}
	return NewWebhookSender(cfg.WebhookURL, cfg.FromAddress, cfg.Timeout, logger)
}

type WebhookSender struct {
	url    string
	from   string
	client *http.Client
	logger *slog.Logger
}

func NewWebhookSender(url, from string, timeout time.Duration, logger *slog.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    url,
		from:   from,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type webhookPayload struct {
	ID        int64  `json:"id"`
	CaseID    int64  `json:"case_id"`
	EventType string `json:"event_type"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

func (s *WebhookSender) Send(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(webhookPayload{
		ID:        n.ID,
		CaseID:    n.CaseID,
		EventType: n.EventType,
		From:      s.from,
		To:        n.RecipientEmail,
		Subject:   n.Subject,
		Body:      n.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info("notification delivered",
		"notification_id", n.ID,
		"recipient", n.RecipientEmail,
		"status_code", resp.StatusCode)
	return nil
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n *Notification) error {
	s.logger.Info("notification",
		"notification_id", n.ID,
		"case_id", n.CaseID,
		"to", n.RecipientEmail,
		"subject", n.Subject)
	return nil
}
