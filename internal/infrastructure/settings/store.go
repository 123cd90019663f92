package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// FileSettingsStore persists notification settings as a YAML file. A
// missing file is not an error: it yields the defaults, and the file is
// created on the first save.
type FileSettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSettingsStore creates a store backed by the given path. An
// empty path selects the default location under the user config
// directory.
func NewFileSettingsStore(path string) *FileSettingsStore {
	if path == "" {
		path = defaultSettingsPath()
	}

	return &FileSettingsStore{path: path}
}

// Load reads the persisted settings
func (s *FileSettingsStore) Load() (notification.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return notification.DefaultSettings(), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return notification.DefaultSettings(), fmt.Errorf("failed to read settings file: %w", err)
	}

	var loaded notification.Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return notification.DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}

	return normalize(loaded), nil
}

// Save persists the settings
func (s *FileSettingsStore) Save(settings notification.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(normalize(settings))
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// Path returns the location of the backing store for display
func (s *FileSettingsStore) Path() string {
	return s.path
}

// normalize guarantees non-nil maps and drops keys a hand-edited file
// may have corrupted. Unknown services or severities are skipped rather
// than failing the whole load.
func normalize(settings notification.Settings) notification.Settings {
	result := notification.Settings{
		ServiceNotifications:       make(map[stream.ServiceID]bool, len(settings.ServiceNotifications)),
		SeverityNotifications:      make(map[stream.Severity]bool, len(settings.SeverityNotifications)),
		EnableBrowserNotifications: settings.EnableBrowserNotifications,
		EnableSound:                settings.EnableSound,
	}

	for id, enabled := range settings.ServiceNotifications {
		validated, err := stream.NewServiceID(id.String())
		if err != nil {
			continue
		}
		result.ServiceNotifications[validated] = enabled
	}

	for severity, enabled := range settings.SeverityNotifications {
		validated, err := stream.NewSeverity(severity.String())
		if err != nil {
			continue
		}
		result.SeverityNotifications[validated] = enabled
	}

	return result
}

// defaultSettingsPath returns the default settings file path
func defaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".minu-hub-settings.yaml"
	}

	return filepath.Join(homeDir, ".config", "minu-hub", "settings.yaml")
}
