package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/feed"
)

// newTestRepository points the repository at a throwaway config path and
// clears the environment variables the tests assert on.
func newTestRepository(t *testing.T) *CompositeConfigRepository {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("HUB_CONFIG_FILE", configPath)
	for _, key := range []string{
		"HUB_STREAM_URL", "HUB_API_URL", "HUB_API_KEY",
		"HUB_BUFFER_SIZE", "HUB_GROUP_BY", "HUB_NOTIFY_COMMAND",
		"HUB_WEBHOOK_URL", "HUB_NOTIFY_RATE", "HUB_HISTORY_PATH",
		"HUB_LOG_LEVEL", "HUB_DEBUG",
	} {
		t.Setenv(key, "")
	}

	return NewCompositeConfigRepository()
}

func TestLoadDefault_ReturnsUsableConfiguration(t *testing.T) {
	repo := newTestRepository(t)

	config := repo.LoadDefault()

	assert.Equal(t, "wss://stream.minu.io/v1/alerts", config.StreamURL)
	assert.Equal(t, "https://api.minu.io", config.APIEndpoint)
	assert.Equal(t, feed.DefaultCapacity, config.BufferSize)
	assert.Equal(t, "info", config.LogLevel)
	assert.Empty(t, config.GroupBy, "default view is ungrouped")
	assert.Zero(t, config.NotifyRatePerMinute, "default rate is unlimited")

	assert.NoError(t, repo.Validate(config), "defaults must validate")
}

func TestLoad_WithNoSourcesReturnsDefaults(t *testing.T) {
	repo := newTestRepository(t)

	config, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, repo.LoadDefault(), config)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	repo := newTestRepository(t)

	fileContent := `stream_url: wss://stream.staging.minu.io/v1/alerts
buffer_size: 300
group_by: severity
debug: true
`
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.GetConfigPath()), 0755))
	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(fileContent), 0600))

	config, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://stream.staging.minu.io/v1/alerts", config.StreamURL)
	assert.Equal(t, 300, config.BufferSize)
	assert.Equal(t, "severity", config.GroupBy)
	assert.True(t, config.Debug)
	assert.Equal(t, "https://api.minu.io", config.APIEndpoint, "unset fields keep defaults")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	repo := newTestRepository(t)

	fileContent := `buffer_size: 300
log_level: warn
`
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.GetConfigPath()), 0755))
	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(fileContent), 0600))

	t.Setenv("HUB_BUFFER_SIZE", "400")
	t.Setenv("HUB_DEBUG", "true")

	config, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, 400, config.BufferSize, "environment wins over the file")
	assert.Equal(t, "warn", config.LogLevel, "file value survives where env is silent")
	assert.True(t, config.Debug)
}

func TestLoad_InvalidMergedConfigurationFails(t *testing.T) {
	repo := newTestRepository(t)

	fileContent := "buffer_size: 5000\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.GetConfigPath()), 0755))
	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(fileContent), 0600))

	_, err := repo.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoad_CachesUntilSave(t *testing.T) {
	repo := newTestRepository(t)

	first, err := repo.Load()
	require.NoError(t, err)

	// A file edit behind the cache's back is not picked up
	fileContent := "buffer_size: 42\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.GetConfigPath()), 0755))
	require.NoError(t, os.WriteFile(repo.GetConfigPath(), []byte(fileContent), 0600))

	cached, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, first.BufferSize, cached.BufferSize, "second load should come from cache")

	// Save invalidates the cache
	updated := repo.LoadDefault()
	updated.BufferSize = 200
	require.NoError(t, repo.Save(updated))

	reloaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 200, reloaded.BufferSize)
}

func TestSave_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	config := repo.LoadDefault()
	config.APIKey = "mk-live-0123456789abcdef0123"
	config.BufferSize = 250
	config.WebhookURL = "https://hooks.example.com/minu"
	config.NotifyRatePerMinute = 12

	require.NoError(t, repo.Save(config))

	info, err := os.Stat(repo.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "config file may hold an API key")

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, "mk-live-0123456789abcdef0123", loaded.APIKey)
	assert.Equal(t, 250, loaded.BufferSize)
	assert.Equal(t, "https://hooks.example.com/minu", loaded.WebhookURL)
	assert.Equal(t, 12, loaded.NotifyRatePerMinute)
}

func TestSave_RejectsInvalidConfiguration(t *testing.T) {
	repo := newTestRepository(t)

	config := repo.LoadDefault()
	config.APIEndpoint = ""

	err := repo.Save(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")

	_, statErr := os.Stat(repo.GetConfigPath())
	assert.True(t, os.IsNotExist(statErr), "invalid config must not be written")
}

func TestBackupAndRestore(t *testing.T) {
	repo := newTestRepository(t)

	original := repo.LoadDefault()
	original.BufferSize = 111
	require.NoError(t, repo.Save(original))

	require.NoError(t, repo.BackupConfig())

	changed := repo.LoadDefault()
	changed.BufferSize = 222
	require.NoError(t, repo.Save(changed))

	require.NoError(t, repo.RestoreConfig())

	restored, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 111, restored.BufferSize)
}

func TestBackupConfig_NoFileIsNotAnError(t *testing.T) {
	repo := newTestRepository(t)

	assert.NoError(t, repo.BackupConfig())
}

func TestRestoreConfig_WithoutBackupFails(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.RestoreConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backup files found")
}

func TestGetConfigPath_HonorsEnvironmentOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "elsewhere", "hub.yaml")
	t.Setenv("HUB_CONFIG_FILE", override)

	repo := NewCompositeConfigRepository()

	assert.Equal(t, override, repo.GetConfigPath())
}

func TestMergeConfigurations(t *testing.T) {
	repo := newTestRepository(t)

	target := repo.LoadDefault()
	target.Debug = true
	target.LogLevel = "warn"

	source := &ports.Configuration{
		APIKey:     "mk-live-0123456789abcdef0123",
		BufferSize: 500,
	}

	merged := repo.mergeConfigurations(target, source)

	assert.Equal(t, "mk-live-0123456789abcdef0123", merged.APIKey)
	assert.Equal(t, 500, merged.BufferSize)
	assert.Equal(t, "warn", merged.LogLevel, "empty source strings never override")
	assert.True(t, merged.Debug, "a source cannot switch debug back off")
	assert.Equal(t, target.StreamURL, merged.StreamURL)
}

func TestEnvironmentConfigSource_ParsesAllVariables(t *testing.T) {
	t.Setenv("HUB_STREAM_URL", "wss://stream.local/alerts")
	t.Setenv("HUB_API_URL", "http://localhost:7040")
	t.Setenv("HUB_API_KEY", "mk-test-0123456789abcdef")
	t.Setenv("HUB_BUFFER_SIZE", "64")
	t.Setenv("HUB_GROUP_BY", "service")
	t.Setenv("HUB_NOTIFY_COMMAND", "notify-send")
	t.Setenv("HUB_WEBHOOK_URL", "https://hooks.example.com/x")
	t.Setenv("HUB_NOTIFY_RATE", "30")
	t.Setenv("HUB_HISTORY_PATH", "/tmp/history.jsonl")
	t.Setenv("HUB_LOG_LEVEL", "debug")
	t.Setenv("HUB_DEBUG", "true")

	config, err := NewEnvironmentConfigSource().Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://stream.local/alerts", config.StreamURL)
	assert.Equal(t, "http://localhost:7040", config.APIEndpoint)
	assert.Equal(t, "mk-test-0123456789abcdef", config.APIKey)
	assert.Equal(t, 64, config.BufferSize)
	assert.Equal(t, "service", config.GroupBy)
	assert.Equal(t, "notify-send", config.NotifyCommand)
	assert.Equal(t, "https://hooks.example.com/x", config.WebhookURL)
	assert.Equal(t, 30, config.NotifyRatePerMinute)
	assert.Equal(t, "/tmp/history.jsonl", config.HistoryPath)
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.Debug)
}

func TestEnvironmentConfigSource_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("HUB_BUFFER_SIZE", "not-a-number")
	t.Setenv("HUB_NOTIFY_RATE", "-5")

	config, err := NewEnvironmentConfigSource().Load()
	require.NoError(t, err)

	assert.Zero(t, config.BufferSize)
	assert.Zero(t, config.NotifyRatePerMinute)
}

func TestFileConfigSource_MissingFileReturnsNil(t *testing.T) {
	source := NewFileConfigSource(filepath.Join(t.TempDir(), "absent.yaml"))

	config, err := source.Load()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestFileConfigSource_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buffer_size: [broken"), 0600))

	_, err := NewFileConfigSource(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs"), ExpandPath("~/logs"))
	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/var/log/hub", ExpandPath("/var/log/hub"))
}
