package services

import (
	"fmt"

	"minu.io/hub/internal/application/commands"
	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// SettingsService manages the persisted notification settings through
// a load-modify-save cycle against the settings store.
type SettingsService struct {
	store  ports.SettingsStore
	logger ports.LoggingGateway
}

// NewSettingsService creates a new settings service
func NewSettingsService(store ports.SettingsStore, logger ports.LoggingGateway) *SettingsService {
	return &SettingsService{
		store:  store,
		logger: logger,
	}
}

// Current returns the persisted settings
func (s *SettingsService) Current() (notification.Settings, error) {
	settings, err := s.store.Load()
	if err != nil {
		return notification.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Update applies one settings change and persists the result
func (s *SettingsService) Update(cmd *commands.UpdateSettingsCommand) (notification.Settings, error) {
	if err := cmd.Validate(); err != nil {
		return notification.Settings{}, fmt.Errorf("command validation failed: %w", err)
	}

	settings, err := s.store.Load()
	if err != nil {
		return notification.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	switch cmd.Scope {
	case commands.SettingsScopeBrowser:
		settings.EnableBrowserNotifications = cmd.Enabled
	case commands.SettingsScopeSound:
		settings.EnableSound = cmd.Enabled
	case commands.SettingsScopeService:
		serviceID, err := stream.NewServiceID(cmd.Key)
		if err != nil {
			return notification.Settings{}, fmt.Errorf("invalid service id: %w", err)
		}
		settings.SetService(serviceID, cmd.Enabled)
	case commands.SettingsScopeSeverity:
		severity, err := stream.NewSeverity(cmd.Key)
		if err != nil {
			return notification.Settings{}, fmt.Errorf("invalid severity: %w", err)
		}
		settings.SetSeverity(severity, cmd.Enabled)
	}

	if err := s.store.Save(settings); err != nil {
		return notification.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Log(ports.LogLevelInfo, "Notification settings updated", map[string]interface{}{
		"scope":   cmd.Scope,
		"key":     cmd.Key,
		"enabled": cmd.Enabled,
	})
	return settings, nil
}

// Reset restores the default settings
func (s *SettingsService) Reset() (notification.Settings, error) {
	defaults := notification.DefaultSettings()
	if err := s.store.Save(defaults); err != nil {
		return notification.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Log(ports.LogLevelInfo, "Notification settings reset to defaults", nil)
	return defaults, nil
}

// Path returns the settings file location
func (s *SettingsService) Path() string {
	return s.store.Path()
}
