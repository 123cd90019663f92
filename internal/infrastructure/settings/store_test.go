package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
	"minu.io/hub/internal/core/testfixtures"
)

func newTestStore(t *testing.T) *FileSettingsStore {
	t.Helper()
	return NewFileSettingsStore(filepath.Join(t.TempDir(), "settings.yaml"))
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, notification.DefaultSettings(), loaded)
	assert.NotNil(t, loaded.ServiceNotifications)
	assert.NotNil(t, loaded.SeverityNotifications)
	assert.False(t, loaded.EnableBrowserNotifications, "desktop channel is opt-in")
	assert.True(t, loaded.EnableSound)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := testfixtures.NewSettingsBuilder().
		WithDesktop().
		WithoutSound().
		WithServiceDisabled("minu-bill").
		WithSeverityDisabled(stream.SeverityLow).
		Build()

	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.True(t, loaded.EnableBrowserNotifications)
	assert.False(t, loaded.EnableSound)
	assert.False(t, loaded.ServiceEnabled(stream.ServiceID("minu-bill")))
	assert.True(t, loaded.ServiceEnabled(stream.ServiceID("minu-find")), "untouched services stay enabled")
	assert.False(t, loaded.SeverityEnabled(stream.SeverityLow))
	assert.True(t, loaded.SeverityEnabled(stream.SeverityCritical))
}

func TestSave_CreatesDirectoryAndRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "settings.yaml")
	store := NewFileSettingsStore(path)

	require.NoError(t, store.Save(notification.DefaultSettings()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_MalformedFileFails(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("enable_sound: [broken"), 0600))

	loaded, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse settings file")
	assert.Equal(t, notification.DefaultSettings(), loaded, "parse failure falls back to defaults")
}

func TestLoad_DropsCorruptedKeys(t *testing.T) {
	store := newTestStore(t)

	fileContent := `service_notifications:
  minu-find: false
  "": true
severity_notifications:
  high: false
  urgent: false
enable_browser_notifications: true
enable_sound: true
`
	require.NoError(t, os.WriteFile(store.Path(), []byte(fileContent), 0600))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.False(t, loaded.ServiceEnabled(stream.ServiceID("minu-find")))
	assert.Len(t, loaded.ServiceNotifications, 1, "empty service key is dropped")
	assert.False(t, loaded.SeverityEnabled(stream.SeverityHigh))
	assert.Len(t, loaded.SeverityNotifications, 1, "unknown severity key is dropped")
}

func TestPath_DefaultsUnderUserConfigDir(t *testing.T) {
	store := NewFileSettingsStore("")

	assert.Contains(t, store.Path(), filepath.Join("minu-hub", "settings.yaml"))
}
