package ports

import (
	"context"
	"time"

	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// TransportCallbacks carries the lifecycle hooks a transport invokes
// from its own goroutines. Implementations must tolerate nil hooks.
type TransportCallbacks struct {
	// OnConnect fires when the stream is established
	OnConnect func()

	// OnDisconnect fires when the stream closes without an error
	OnDisconnect func()

	// OnError fires on dial or read failure with a displayable reason
	OnError func(reason string)
}

// RealtimeTransport defines the interface for the live item stream
type RealtimeTransport interface {
	// Connect establishes the stream and starts delivering items
	Connect(ctx context.Context) error

	// Disconnect closes the stream and releases resources
	Disconnect() error

	// Reconnect drops any live stream and dials again
	Reconnect() error

	// Items returns the channel of decoded incoming items
	Items() <-chan *stream.Item

	// Errors returns the channel of non-fatal transport errors
	Errors() <-chan error

	// SetCallbacks installs the lifecycle hooks; call before Connect
	SetCallbacks(callbacks TransportCallbacks)
}

// PersistenceGateway defines the interface for the backend alert store
type PersistenceGateway interface {
	// DeleteIssues deletes the given issues server-side; idempotent
	DeleteIssues(ctx context.Context, ids []stream.ItemID) error

	// DeleteEvents deletes the given events server-side; idempotent
	DeleteEvents(ctx context.Context, ids []stream.ItemID) error

	// TestConnection tests backend reachability and authentication
	TestConnection(ctx context.Context) error

	// GetConnectionStatus returns the current connection status
	GetConnectionStatus() ConnectionStatus
}

// ConnectionStatus represents the status of the backend connection
type ConnectionStatus struct {
	IsConnected   bool          `json:"is_connected"`
	LastConnected time.Time     `json:"last_connected"`
	LastError     string        `json:"last_error,omitempty"`
	Latency       time.Duration `json:"latency"`
	RetryCount    int           `json:"retry_count"`
}

// SettingsStore defines the interface for notification settings persistence
type SettingsStore interface {
	// Load reads the persisted settings; a missing store yields defaults
	Load() (notification.Settings, error)

	// Save persists the settings
	Save(settings notification.Settings) error

	// Path returns the location of the backing store for display
	Path() string
}

// DesktopNotifier defines the interface for the OS notification channel.
// The channel is best-effort: permission failures disable it for the
// session while toasts keep working.
type DesktopNotifier interface {
	// RequestPermission probes whether the channel is usable at all;
	// returns ErrPermissionDenied when it is not.
	RequestPermission(ctx context.Context) error

	// Show raises one desktop notification
	Show(ctx context.Context, decision notification.Decision) error

	// Name identifies the backing channel for logs
	Name() string
}

// ToastSink defines the interface for in-app toast notifications
type ToastSink interface {
	// Toast raises one transient in-app notification
	Toast(decision notification.Decision) error
}

// HistoryRecord is one dispatched notification in the audit trail
type HistoryRecord struct {
	ID           string    `json:"id"`
	DispatchedAt time.Time `json:"dispatched_at"`
	ItemID       string    `json:"item_id"`
	ServiceID    string    `json:"service_id"`
	Kind         string    `json:"kind"`
	Severity     string    `json:"severity,omitempty"`
	Title        string    `json:"title"`
	Body         string    `json:"body,omitempty"`
	Desktop      bool      `json:"desktop"`
	Sound        bool      `json:"sound"`
}

// NotificationHistory defines the interface for the dispatch audit trail
type NotificationHistory interface {
	// Append records one dispatched notification
	Append(record HistoryRecord) error
}

// LoggingGateway defines the interface for logging operations
type LoggingGateway interface {
	// Log logs a message with the specified level
	Log(level LogLevel, message string, fields map[string]interface{})

	// LogError logs an error
	LogError(err error, message string, fields map[string]interface{})

	// LogItem logs a stream item with context
	LogItem(item *stream.Item, message string)

	// SetLogLevel sets the logging level
	SetLogLevel(level LogLevel)

	// GetLogLevel returns the current logging level
	GetLogLevel() LogLevel
}

// LogLevel defines the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
