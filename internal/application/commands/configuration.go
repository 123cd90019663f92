package commands

import (
	"fmt"
	"strings"

	"minu.io/hub/internal/core/stream"
)

// Settings scopes addressable by UpdateSettingsCommand
const (
	SettingsScopeBrowser  = "browser"
	SettingsScopeSound    = "sound"
	SettingsScopeService  = "service"
	SettingsScopeSeverity = "severity"
)

// UpdateSettingsCommand mutates one notification settings knob
type UpdateSettingsCommand struct {
	BaseCommand
	Scope   string `json:"scope"`
	Key     string `json:"key,omitempty"`
	Enabled bool   `json:"enabled"`
}

// NewUpdateSettingsCommand creates a new update settings command
func NewUpdateSettingsCommand(scope, key string, enabled bool) *UpdateSettingsCommand {
	return &UpdateSettingsCommand{
		BaseCommand: NewBaseCommand("update_settings"),
		Scope:       strings.ToLower(scope),
		Key:         key,
		Enabled:     enabled,
	}
}

// Validate validates the update settings command
func (c *UpdateSettingsCommand) Validate() error {
	if err := c.BaseCommand.Validate(); err != nil {
		return err
	}

	switch c.Scope {
	case SettingsScopeBrowser, SettingsScopeSound:
		if c.Key != "" {
			return NewValidationError(fmt.Sprintf("%s settings take no key", c.Scope))
		}
	case SettingsScopeService:
		if c.Key == "" {
			return NewValidationError("service settings require a service ID")
		}
	case SettingsScopeSeverity:
		if _, err := stream.NewSeverity(c.Key); err != nil {
			return NewValidationError(fmt.Sprintf("invalid severity: %s", c.Key))
		}
	default:
		return NewValidationError(fmt.Sprintf("unknown settings scope: %s", c.Scope))
	}
	return nil
}

// UpdateConfigurationCommand updates application configuration
type UpdateConfigurationCommand struct {
	StreamURL   string `json:"stream_url,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	BufferSize  *int   `json:"buffer_size,omitempty"`
}

// NewUpdateConfigurationCommand creates a new update configuration command
func NewUpdateConfigurationCommand() *UpdateConfigurationCommand {
	return &UpdateConfigurationCommand{}
}

// Validate validates the update configuration command
func (c *UpdateConfigurationCommand) Validate() error {
	if c.StreamURL == "" && c.APIEndpoint == "" && c.APIKey == "" && c.BufferSize == nil {
		return fmt.Errorf("nothing to update")
	}
	if c.StreamURL != "" && !strings.HasPrefix(c.StreamURL, "ws://") && !strings.HasPrefix(c.StreamURL, "wss://") {
		return fmt.Errorf("stream URL must use ws:// or wss://")
	}
	if c.APIEndpoint != "" && !strings.HasPrefix(c.APIEndpoint, "http://") && !strings.HasPrefix(c.APIEndpoint, "https://") {
		return fmt.Errorf("API endpoint must use http:// or https://")
	}
	if c.BufferSize != nil && *c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be greater than 0")
	}
	return nil
}

// GetConfigurationCommand retrieves current configuration
type GetConfigurationCommand struct {
	// No fields needed for get operation
}

// NewGetConfigurationCommand creates a new get configuration command
func NewGetConfigurationCommand() *GetConfigurationCommand {
	return &GetConfigurationCommand{}
}

// Validate validates the get configuration command
func (c *GetConfigurationCommand) Validate() error {
	// No validation needed for get operation
	return nil
}
