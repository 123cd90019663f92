package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/feed"
)

// CompositeConfigRepository implements the ConfigurationRepository interface
type CompositeConfigRepository struct {
	sources    []ConfigSource
	cache      *ConfigCache
	validator  *ConfigValidator
	configPath string
}

// ConfigSource defines the interface for configuration sources
type ConfigSource interface {
	Load() (*ports.Configuration, error)
	Priority() int
	Name() string
}

// ConfigCache provides caching for configuration
type ConfigCache struct {
	config    *ports.Configuration
	timestamp time.Time
	ttl       time.Duration
}

// NewCompositeConfigRepository creates a new configuration repository
func NewCompositeConfigRepository() *CompositeConfigRepository {
	return NewCompositeConfigRepositoryAt("")
}

// NewCompositeConfigRepositoryAt creates a repository reading the given
// config file. An empty path falls back to HUB_CONFIG_FILE and then the
// default location.
func NewCompositeConfigRepositoryAt(configPath string) *CompositeConfigRepository {
	if configPath == "" {
		configPath = os.Getenv("HUB_CONFIG_FILE")
	}
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	repo := &CompositeConfigRepository{
		sources: make([]ConfigSource, 0),
		cache: &ConfigCache{
			ttl: 5 * time.Minute,
		},
		validator:  NewConfigValidator(),
		configPath: configPath,
	}

	// Add default sources in priority order
	repo.AddSource(NewEnvironmentConfigSource())
	repo.AddSource(NewFileConfigSource(repo.configPath))

	return repo
}

// AddSource adds a configuration source
func (r *CompositeConfigRepository) AddSource(source ConfigSource) {
	r.sources = append(r.sources, source)
}

// Load retrieves the current configuration
func (r *CompositeConfigRepository) Load() (*ports.Configuration, error) {
	// Check cache first
	if r.cache.config != nil && time.Since(r.cache.timestamp) < r.cache.ttl {
		return r.cache.config, nil
	}

	// Start with default configuration
	config := r.LoadDefault()

	// Lower number = higher priority. Apply low-priority sources first so
	// that higher-priority sources merge last and their values win.
	sortedSources := make([]ConfigSource, len(r.sources))
	copy(sortedSources, r.sources)
	sort.SliceStable(sortedSources, func(i, j int) bool {
		return sortedSources[i].Priority() > sortedSources[j].Priority()
	})

	for _, source := range sortedSources {
		sourceConfig, err := source.Load()
		if err != nil {
			// A broken source must not take the whole client down
			continue
		}

		if sourceConfig != nil {
			config = r.mergeConfigurations(config, sourceConfig)
		}
	}

	// Validate final configuration
	if err := r.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Cache the result
	r.cache.config = config
	r.cache.timestamp = time.Now()

	return config, nil
}

// Save persists the configuration
func (r *CompositeConfigRepository) Save(config *ports.Configuration) error {
	if err := r.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(r.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	// The file may hold an API key, keep it private
	if err := os.WriteFile(r.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	// Invalidate cache
	r.cache.config = nil

	return nil
}

// LoadDefault returns the default configuration
func (r *CompositeConfigRepository) LoadDefault() *ports.Configuration {
	return &ports.Configuration{
		StreamURL:           "wss://stream.minu.io/v1/alerts",
		APIEndpoint:         "https://api.minu.io",
		APIKey:              "",
		BufferSize:          feed.DefaultCapacity,
		GroupBy:             "",
		NotifyCommand:       "",
		WebhookURL:          "",
		NotifyRatePerMinute: 0,
		HistoryPath:         "",
		LogLevel:            "info",
		Debug:               false,
	}
}

// Validate validates the configuration
func (r *CompositeConfigRepository) Validate(config *ports.Configuration) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := r.validator.ValidateStreamURL(config.StreamURL); err != nil {
		return err
	}

	if err := r.validator.ValidateAPIEndpoint(config.APIEndpoint); err != nil {
		return err
	}

	// An empty key is fine, the stream may be open
	if config.APIKey != "" {
		if err := r.validator.ValidateAPIKey(config.APIKey); err != nil {
			return err
		}
	}

	if err := r.validator.ValidateBufferSize(config.BufferSize); err != nil {
		return err
	}

	if err := r.validator.ValidateGroupBy(config.GroupBy); err != nil {
		return err
	}

	if err := r.validator.ValidateWebhookURL(config.WebhookURL); err != nil {
		return err
	}

	if err := r.validator.ValidateNotifyRate(config.NotifyRatePerMinute); err != nil {
		return err
	}

	if config.LogLevel != "" {
		if err := r.validator.ValidateLogLevel(config.LogLevel); err != nil {
			return err
		}
	}

	return nil
}

// GetConfigPath returns the path to the configuration file
func (r *CompositeConfigRepository) GetConfigPath() string {
	return r.configPath
}

// BackupConfig creates a backup of the current configuration
func (r *CompositeConfigRepository) BackupConfig() error {
	if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
		return nil // No config file to backup
	}

	backupPath := r.configPath + ".backup." + time.Now().Format("20060102-150405")

	data, err := os.ReadFile(r.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file for backup: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	return nil
}

// RestoreConfig restores configuration from backup
func (r *CompositeConfigRepository) RestoreConfig() error {
	backupPattern := r.configPath + ".backup.*"
	matches, err := filepath.Glob(backupPattern)
	if err != nil {
		return fmt.Errorf("failed to find backup files: %w", err)
	}

	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}

	// The timestamp suffix sorts lexically, so the last match is the newest
	sort.Strings(matches)
	latestBackup := matches[len(matches)-1]

	data, err := os.ReadFile(latestBackup)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	if err := os.WriteFile(r.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to restore config file: %w", err)
	}

	// Invalidate cache
	r.cache.config = nil

	return nil
}

// mergeConfigurations merges two configurations (source overwrites target)
func (r *CompositeConfigRepository) mergeConfigurations(target, source *ports.Configuration) *ports.Configuration {
	if source == nil {
		return target
	}
	if target == nil {
		return source
	}

	result := *target // Copy target

	// String fields - override if not empty
	if source.StreamURL != "" {
		result.StreamURL = source.StreamURL
	}
	if source.APIEndpoint != "" {
		result.APIEndpoint = source.APIEndpoint
	}
	if source.APIKey != "" {
		result.APIKey = source.APIKey
	}
	if source.GroupBy != "" {
		result.GroupBy = source.GroupBy
	}
	if source.NotifyCommand != "" {
		result.NotifyCommand = source.NotifyCommand
	}
	if source.WebhookURL != "" {
		result.WebhookURL = source.WebhookURL
	}
	if source.HistoryPath != "" {
		result.HistoryPath = source.HistoryPath
	}
	if source.LogLevel != "" {
		result.LogLevel = source.LogLevel
	}

	// Integer fields - override if not zero. Zero means "not set" for the
	// buffer and "unlimited" for the notification rate, which coincides
	// with the default either way.
	if source.BufferSize != 0 {
		result.BufferSize = source.BufferSize
	}
	if source.NotifyRatePerMinute != 0 {
		result.NotifyRatePerMinute = source.NotifyRatePerMinute
	}

	// Debug can be switched on by any source but never off
	result.Debug = result.Debug || source.Debug

	return &result
}

// FileConfigSource loads configuration from a YAML file
type FileConfigSource struct {
	filePath string
}

// NewFileConfigSource creates a new file configuration source
func NewFileConfigSource(filePath string) *FileConfigSource {
	return &FileConfigSource{
		filePath: filePath,
	}
}

// Load loads configuration from file
func (f *FileConfigSource) Load() (*ports.Configuration, error) {
	if _, err := os.Stat(f.filePath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist, return nil config
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ports.Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Priority returns the priority of this source (lower number = higher priority)
func (f *FileConfigSource) Priority() int {
	return 100 // Low priority
}

// Name returns the name of this source
func (f *FileConfigSource) Name() string {
	return "file"
}

// EnvironmentConfigSource loads configuration from environment variables
type EnvironmentConfigSource struct{}

// NewEnvironmentConfigSource creates a new environment configuration source
func NewEnvironmentConfigSource() *EnvironmentConfigSource {
	return &EnvironmentConfigSource{}
}

// Load loads configuration from environment variables
func (e *EnvironmentConfigSource) Load() (*ports.Configuration, error) {
	config := &ports.Configuration{}

	// Endpoints
	if val := os.Getenv("HUB_STREAM_URL"); val != "" {
		config.StreamURL = val
	}
	if val := os.Getenv("HUB_API_URL"); val != "" {
		config.APIEndpoint = val
	}
	if val := os.Getenv("HUB_API_KEY"); val != "" {
		config.APIKey = val
	}

	// Feed configuration
	if val := os.Getenv("HUB_BUFFER_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			config.BufferSize = size
		}
	}
	if val := os.Getenv("HUB_GROUP_BY"); val != "" {
		config.GroupBy = val
	}

	// Notification channels
	if val := os.Getenv("HUB_NOTIFY_COMMAND"); val != "" {
		config.NotifyCommand = val
	}
	if val := os.Getenv("HUB_WEBHOOK_URL"); val != "" {
		config.WebhookURL = val
	}
	if val := os.Getenv("HUB_NOTIFY_RATE"); val != "" {
		if rate, err := strconv.Atoi(val); err == nil && rate >= 0 {
			config.NotifyRatePerMinute = rate
		}
	}
	if val := os.Getenv("HUB_HISTORY_PATH"); val != "" {
		config.HistoryPath = val
	}

	// Logging
	if val := os.Getenv("HUB_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}
	if val := os.Getenv("HUB_DEBUG"); val == "true" {
		config.Debug = true
	}

	return config, nil
}

// Priority returns the priority of this source (lower number = higher priority)
func (e *EnvironmentConfigSource) Priority() int {
	return 10 // High priority
}

// Name returns the name of this source
func (e *EnvironmentConfigSource) Name() string {
	return "environment"
}

// getDefaultConfigPath returns the default configuration file path
func getDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory
		return ".minu-hub.yaml"
	}

	return filepath.Join(homeDir, ".config", "minu-hub", "config.yaml")
}
