package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

// WebhookSinkSettings configures the webhook sink.
type WebhookSinkSettings struct {
	URL       string `mapstructure:"url" validate:"required,url"`
	TimeoutMs int    `mapstructure:"timeout_ms" default:"5000" validate:"gte=100"`
}

// WebhookSink POSTs announcements as JSON to an HTTP endpoint.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(settings WebhookSinkSettings) *WebhookSink {
	return &WebhookSink{
		url: settings.URL,
		httpClient: &http.Client{
			Timeout: time.Duration(settings.TimeoutMs) * time.Millisecond,
		},
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string {
	return "webhook"
}

// Send implements Sink.
func (s *WebhookSink) Send(ctx context.Context, a Announcement) error {
	body, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "failed to encode announcement")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "webhook request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Newf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
