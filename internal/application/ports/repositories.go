package ports

// ConfigurationRepository defines the interface for configuration persistence
type ConfigurationRepository interface {
	// Load retrieves the current configuration
	Load() (*Configuration, error)

	// Save persists the configuration
	Save(config *Configuration) error

	// LoadDefault returns the default configuration
	LoadDefault() *Configuration

	// Validate validates the configuration
	Validate(config *Configuration) error

	// GetConfigPath returns the path to the configuration file
	GetConfigPath() string

	// BackupConfig creates a backup of the current configuration
	BackupConfig() error

	// RestoreConfig restores configuration from backup
	RestoreConfig() error
}

// Configuration represents the application configuration
type Configuration struct {
	// StreamURL is the websocket endpoint of the realtime alert stream
	StreamURL string `yaml:"stream_url"`

	// APIEndpoint is the base URL of the backend REST API
	APIEndpoint string `yaml:"api_endpoint"`

	// APIKey authenticates both the stream and the REST API
	APIKey string `yaml:"api_key,omitempty"`

	// BufferSize is the feed buffer capacity
	BufferSize int `yaml:"buffer_size"`

	// GroupBy selects the initial dashboard grouping mode; empty means
	// the flat ungrouped view.
	GroupBy string `yaml:"group_by,omitempty"`

	// NotifyCommand is the executable run per desktop notification;
	// empty disables the command channel.
	NotifyCommand string `yaml:"notify_command,omitempty"`

	// WebhookURL receives dispatched notifications as JSON POSTs; empty
	// disables the webhook channel.
	WebhookURL string `yaml:"webhook_url,omitempty"`

	// NotifyRatePerMinute caps desktop notifications; zero means
	// unlimited.
	NotifyRatePerMinute int `yaml:"notify_rate_per_minute,omitempty"`

	// HistoryPath overrides the dispatch audit trail location
	HistoryPath string `yaml:"history_path,omitempty"`

	// LogLevel sets the logging verbosity
	LogLevel string `yaml:"log_level,omitempty"`

	// Debug enables debug logging regardless of LogLevel
	Debug bool `yaml:"debug,omitempty"`
}
