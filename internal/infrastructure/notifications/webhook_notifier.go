package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/notification"
)

// defaultWebhookTimeout bounds one webhook delivery
const defaultWebhookTimeout = 5 * time.Second

// WebhookNotifier delivers desktop notifications as JSON POSTs to a
// configured URL. Plain HTTP is only accepted for loopback hosts so a
// misconfigured webhook cannot leak alert contents over the wire.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     ports.LoggingGateway
}

// webhookPayload is the POST body for one dispatched notification
type webhookPayload struct {
	ItemID    string    `json:"item_id"`
	ServiceID string    `json:"service_id"`
	Kind      string    `json:"kind"`
	Severity  string    `json:"severity,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	PlaySound bool      `json:"play_sound"`
	SentAt    time.Time `json:"sent_at"`
}

// NewWebhookNotifier creates a webhook-backed notifier
func NewWebhookNotifier(webhookURL string, logger ports.LoggingGateway) *WebhookNotifier {
	return &WebhookNotifier{
		url: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
		logger: logger,
	}
}

// RequestPermission validates the configured URL
func (n *WebhookNotifier) RequestPermission(ctx context.Context) error {
	if n.url == "" {
		return fmt.Errorf("no webhook URL configured: %w", ports.ErrPermissionDenied)
	}

	u, err := url.Parse(n.url)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", ports.ErrPermissionDenied)
	}

	switch u.Scheme {
	case "https":
		// Always acceptable
	case "http":
		if !isLoopbackHost(u.Host) {
			return fmt.Errorf("plain HTTP webhook requires a loopback host: %w", ports.ErrPermissionDenied)
		}
	default:
		return fmt.Errorf("unsupported webhook scheme %q: %w", u.Scheme, ports.ErrPermissionDenied)
	}

	if u.Host == "" {
		return fmt.Errorf("webhook URL missing host: %w", ports.ErrPermissionDenied)
	}

	return nil
}

// Show posts one decision to the webhook
func (n *WebhookNotifier) Show(ctx context.Context, decision notification.Decision) error {
	payload := webhookPayload{
		ItemID:    decision.ItemID.Value(),
		ServiceID: decision.ServiceID.String(),
		Kind:      decision.Kind.String(),
		Severity:  decision.Severity.String(),
		Title:     decision.Title,
		Body:      decision.Body,
		PlaySound: decision.PlaySound,
		SentAt:    time.Now().UTC(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "minu-hub/1.0")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Name identifies the backing channel for logs
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// isLoopbackHost reports whether a URL host refers to this machine
func isLoopbackHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
