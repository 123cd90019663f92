package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"minu.io/hub/internal/core/feed"
	"minu.io/hub/internal/core/grouping"
)

// MaxNotifyRatePerMinute bounds the desktop notification budget. Ten per
// second is already well past the point where notifications stop being
// read.
const MaxNotifyRatePerMinute = 600

// ConfigValidator validates configuration values
type ConfigValidator struct{}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateStreamURL validates the realtime stream endpoint URL
func (v *ConfigValidator) ValidateStreamURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("stream URL cannot be empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported URL scheme: %s (must be ws or wss)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}

	return nil
}

// ValidateAPIEndpoint validates an API endpoint URL
func (v *ConfigValidator) ValidateAPIEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("API endpoint cannot be empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (must be http or https)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}

	// Warn about non-HTTPS for anything that is not a local endpoint
	if u.Scheme == "http" && !strings.Contains(u.Host, "localhost") && !strings.Contains(u.Host, "127.0.0.1") {
		fmt.Fprintf(os.Stderr, "Warning: Using non-HTTPS endpoint for non-localhost URL: %s\n", endpoint)
	}

	return nil
}

// ValidateAPIKey validates an API key format
func (v *ConfigValidator) ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if len(key) < 20 {
		return fmt.Errorf("API key too short (minimum 20 characters)")
	}

	if len(key) > 256 {
		return fmt.Errorf("API key too long (maximum 256 characters)")
	}

	if strings.Contains(key, " ") {
		return fmt.Errorf("API key cannot contain spaces")
	}

	if strings.Contains(key, "\n") || strings.Contains(key, "\r") || strings.Contains(key, "\t") {
		return fmt.Errorf("API key cannot contain whitespace characters")
	}

	// Check for common placeholder values
	placeholders := []string{
		"your-api-key-here",
		"xxxx-xxxx-xxxx-xxxx",
		"<api-key>",
		"[api-key]",
		"${API_KEY}",
		"$API_KEY",
		"REPLACE_ME",
		"CHANGE_ME",
	}

	lowerKey := strings.ToLower(key)
	for _, placeholder := range placeholders {
		if strings.Contains(lowerKey, strings.ToLower(placeholder)) {
			return fmt.Errorf("API key appears to be a placeholder value")
		}
	}

	return nil
}

// ValidateBufferSize validates the feed buffer capacity
func (v *ConfigValidator) ValidateBufferSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("buffer size must be greater than 0")
	}

	if size > feed.MaxCapacity {
		return fmt.Errorf("buffer size too large (maximum %d)", feed.MaxCapacity)
	}

	return nil
}

// ValidateGroupBy validates the initial dashboard grouping mode. Empty
// means the flat ungrouped view.
func (v *ConfigValidator) ValidateGroupBy(mode string) error {
	if mode == "" {
		return nil
	}

	if _, err := grouping.ParseMode(mode); err != nil {
		return fmt.Errorf("invalid group-by mode: %w", err)
	}

	return nil
}

// ValidateWebhookURL validates the notification webhook URL. Empty
// disables the webhook channel.
func (v *ConfigValidator) ValidateWebhookURL(endpoint string) error {
	if endpoint == "" {
		return nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid webhook URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported webhook URL scheme: %s (must be http or https)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("webhook URL must include host")
	}

	return nil
}

// ValidateNotifyRate validates the desktop notification budget. Zero
// means unlimited.
func (v *ConfigValidator) ValidateNotifyRate(perMinute int) error {
	if perMinute < 0 {
		return fmt.Errorf("notification rate cannot be negative")
	}

	if perMinute > MaxNotifyRatePerMinute {
		return fmt.Errorf("notification rate too high (maximum %d per minute)", MaxNotifyRatePerMinute)
	}

	return nil
}

// ValidateLogLevel validates log level value
func (v *ConfigValidator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}

	normalizedLevel := strings.ToLower(strings.TrimSpace(level))

	for _, valid := range validLevels {
		if normalizedLevel == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid log level: %s (valid levels: %s)", level, strings.Join(validLevels, ", "))
}

// ExpandPath expands ~ and environment variables in paths
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", homeDir, 1)
		}
	}

	return os.ExpandEnv(path)
}
