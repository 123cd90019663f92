package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"minu.io/hub/internal/core/feed"
)

func TestConfigValidator_ValidateStreamURL(t *testing.T) {
	validator := NewConfigValidator()

	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid_wss_endpoint",
			endpoint: "wss://stream.minu.io/v1/alerts",
			wantErr:  false,
		},
		{
			name:     "valid_ws_localhost",
			endpoint: "ws://localhost:7040/alerts",
			wantErr:  false,
		},
		{
			name:     "empty_endpoint",
			endpoint: "",
			wantErr:  true,
			errMsg:   "stream URL cannot be empty",
		},
		{
			name:     "http_scheme_rejected",
			endpoint: "https://stream.minu.io/v1/alerts",
			wantErr:  true,
			errMsg:   "unsupported URL scheme",
		},
		{
			name:     "missing_host",
			endpoint: "wss://",
			wantErr:  true,
			errMsg:   "URL must include host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStreamURL(tt.endpoint)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidator_ValidateAPIEndpoint(t *testing.T) {
	validator := NewConfigValidator()

	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid_https_endpoint",
			endpoint: "https://api.minu.io",
			wantErr:  false,
		},
		{
			name:     "valid_http_localhost",
			endpoint: "http://localhost:7040",
			wantErr:  false,
		},
		{
			name:     "valid_endpoint_with_path",
			endpoint: "https://api.minu.io/v1",
			wantErr:  false,
		},
		{
			name:     "empty_endpoint",
			endpoint: "",
			wantErr:  true,
			errMsg:   "API endpoint cannot be empty",
		},
		{
			name:     "invalid_scheme",
			endpoint: "ftp://api.minu.io",
			wantErr:  true,
			errMsg:   "unsupported URL scheme",
		},
		{
			name:     "missing_host",
			endpoint: "https://",
			wantErr:  true,
			errMsg:   "URL must include host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateAPIEndpoint(tt.endpoint)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidator_ValidateAPIKey(t *testing.T) {
	validator := NewConfigValidator()

	tests := []struct {
		name    string
		key     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid_key",
			key:     "mk-live-0123456789abcdef0123",
			wantErr: false,
		},
		{
			name:    "empty_key",
			key:     "",
			wantErr: true,
			errMsg:  "API key cannot be empty",
		},
		{
			name:    "too_short",
			key:     "short-key",
			wantErr: true,
			errMsg:  "API key too short",
		},
		{
			name:    "too_long",
			key:     strings.Repeat("a", 257),
			wantErr: true,
			errMsg:  "API key too long",
		},
		{
			name:    "contains_space",
			key:     "mk-live-0123456789 abcdef0123",
			wantErr: true,
			errMsg:  "cannot contain spaces",
		},
		{
			name:    "placeholder_value",
			key:     "your-api-key-here-padding",
			wantErr: true,
			errMsg:  "placeholder value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateAPIKey(tt.key)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidator_ValidateBufferSize(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateBufferSize(1))
	assert.NoError(t, validator.ValidateBufferSize(feed.DefaultCapacity))
	assert.NoError(t, validator.ValidateBufferSize(feed.MaxCapacity))

	assert.Error(t, validator.ValidateBufferSize(0))
	assert.Error(t, validator.ValidateBufferSize(-1))
	assert.Error(t, validator.ValidateBufferSize(feed.MaxCapacity+1))
}

func TestConfigValidator_ValidateGroupBy(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateGroupBy(""), "empty means the flat view")
	assert.NoError(t, validator.ValidateGroupBy("service"))
	assert.NoError(t, validator.ValidateGroupBy("date"))
	assert.NoError(t, validator.ValidateGroupBy("severity"))

	assert.Error(t, validator.ValidateGroupBy("priority"))
}

func TestConfigValidator_ValidateWebhookURL(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateWebhookURL(""), "empty disables the webhook channel")
	assert.NoError(t, validator.ValidateWebhookURL("https://hooks.example.com/minu"))

	assert.Error(t, validator.ValidateWebhookURL("wss://hooks.example.com/minu"))
	assert.Error(t, validator.ValidateWebhookURL("https://"))
}

func TestConfigValidator_ValidateNotifyRate(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateNotifyRate(0), "zero means unlimited")
	assert.NoError(t, validator.ValidateNotifyRate(10))
	assert.NoError(t, validator.ValidateNotifyRate(MaxNotifyRatePerMinute))

	assert.Error(t, validator.ValidateNotifyRate(-1))
	assert.Error(t, validator.ValidateNotifyRate(MaxNotifyRatePerMinute+1))
}

func TestConfigValidator_ValidateLogLevel(t *testing.T) {
	validator := NewConfigValidator()

	for _, level := range []string{"debug", "info", "warn", "error", " INFO "} {
		assert.NoError(t, validator.ValidateLogLevel(level), "level %q should be accepted", level)
	}

	assert.Error(t, validator.ValidateLogLevel("trace"))
	assert.Error(t, validator.ValidateLogLevel(""))
}
