package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const webhookTimeout = 10 * time.Second

// Webhook delivers events to a single Slack, Teams, or generic HTTP target.
type Webhook struct {
	kind   string
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook of the given kind: slack | teams | http.
func NewWebhook(kind, url string) (*Webhook, error) {
	switch kind {
	case "slack", "teams", "http":
	default:
		return nil, fmt.Errorf("notify: unknown webhook type %q", kind)
	}
	if url == "" {
		return nil, fmt.Errorf("notify: webhook %q: url is empty", kind)
	}
	return &Webhook{
		kind:   kind,
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
	}, nil
}

// Kind returns the webhook type identifier.
func (w *Webhook) Kind() string { return w.kind }

// Send implements Notifier.
func (w *Webhook) Send(ctx context.Context, e Event) error {
	var body []byte
	switch w.kind {
	case "slack":
		body, _ = json.Marshal(map[string]string{
			"text": fmt.Sprintf("*%s* %s", severityLabel(e.Severity), e.Message),
		})
	case "teams":
		body, _ = json.Marshal(map[string]interface{}{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": severityColor(e.Severity),
			"summary":    fmt.Sprintf("Temperature alert %s", e.Transition),
			"title":      fmt.Sprintf("tempwatch: alert %s", e.Transition),
			"text":       e.Message,
		})
	case "http":
		body, _ = json.Marshal(map[string]interface{}{"event": e})
	}
	return w.post(ctx, body)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case SeverityCritical:
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case SeverityCritical:
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
