package services

import (
	"context"
	"sync"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// In-memory transport fake. Items are emitted through a buffered
// channel; lifecycle callbacks can be fired explicitly to simulate the
// remote side.
type fakeTransport struct {
	mu              sync.Mutex
	items           chan *stream.Item
	errs            chan error
	callbacks       ports.TransportCallbacks
	connectErr      error
	reconnectErr    error
	connectCalls    int
	disconnectCalls int
	reconnectCalls  int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		items: make(chan *stream.Item, 64),
		errs:  make(chan error, 16),
	}
}

func (t *fakeTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	t.connectCalls++
	err := t.connectErr
	t.mu.Unlock()

	if err != nil {
		return err
	}
	t.fireConnect()
	return nil
}

func (t *fakeTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnectCalls++
	return nil
}

func (t *fakeTransport) Reconnect() error {
	t.mu.Lock()
	t.reconnectCalls++
	err := t.reconnectErr
	t.mu.Unlock()

	if err != nil {
		return err
	}
	t.fireConnect()
	return nil
}

func (t *fakeTransport) Items() <-chan *stream.Item {
	return t.items
}

func (t *fakeTransport) Errors() <-chan error {
	return t.errs
}

func (t *fakeTransport) SetCallbacks(callbacks ports.TransportCallbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = callbacks
}

func (t *fakeTransport) emit(item *stream.Item) {
	t.items <- item
}

func (t *fakeTransport) emitError(err error) {
	t.errs <- err
}

func (t *fakeTransport) fireConnect() {
	t.mu.Lock()
	cb := t.callbacks.OnConnect
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (t *fakeTransport) fireDisconnect() {
	t.mu.Lock()
	cb := t.callbacks.OnDisconnect
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (t *fakeTransport) fireError(reason string) {
	t.mu.Lock()
	cb := t.callbacks.OnError
	t.mu.Unlock()
	if cb != nil {
		cb(reason)
	}
}

func (t *fakeTransport) stats() (connects, disconnects, reconnects int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectCalls, t.disconnectCalls, t.reconnectCalls
}

// In-memory persistence gateway fake recording every delete call
type fakeGateway struct {
	mu            sync.Mutex
	issueErr      error
	eventErr      error
	deletedIssues [][]stream.ItemID
	deletedEvents [][]stream.ItemID
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{}
}

func (g *fakeGateway) DeleteIssues(ctx context.Context, ids []stream.ItemID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedIssues = append(g.deletedIssues, append([]stream.ItemID(nil), ids...))
	return g.issueErr
}

func (g *fakeGateway) DeleteEvents(ctx context.Context, ids []stream.ItemID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedEvents = append(g.deletedEvents, append([]stream.ItemID(nil), ids...))
	return g.eventErr
}

func (g *fakeGateway) TestConnection(ctx context.Context) error {
	return nil
}

func (g *fakeGateway) GetConnectionStatus() ports.ConnectionStatus {
	return ports.ConnectionStatus{IsConnected: true}
}

func (g *fakeGateway) issueCalls() [][]stream.ItemID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deletedIssues
}

func (g *fakeGateway) eventCalls() [][]stream.ItemID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deletedEvents
}

// Settings store fake backed by a single in-memory value
type fakeSettingsStore struct {
	mu       sync.Mutex
	settings notification.Settings
	loadErr  error
	saveErr  error
	saves    int
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{settings: notification.DefaultSettings()}
}

func (s *fakeSettingsStore) Load() (notification.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return notification.Settings{}, s.loadErr
	}
	return s.settings, nil
}

func (s *fakeSettingsStore) Save(settings notification.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.settings = settings
	s.saves++
	return nil
}

func (s *fakeSettingsStore) Path() string {
	return "/tmp/hub-test/settings.yaml"
}

func (s *fakeSettingsStore) set(settings notification.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *fakeSettingsStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Desktop notifier fake recording shown decisions
type fakeDesktop struct {
	mu            sync.Mutex
	permissionErr error
	showErr       error
	shown         []notification.Decision
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{}
}

func (d *fakeDesktop) RequestPermission(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permissionErr
}

func (d *fakeDesktop) Show(ctx context.Context, decision notification.Decision) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.showErr != nil {
		return d.showErr
	}
	d.shown = append(d.shown, decision)
	return nil
}

func (d *fakeDesktop) Name() string {
	return "fake-desktop"
}

func (d *fakeDesktop) shownDecisions() []notification.Decision {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notification.Decision(nil), d.shown...)
}

// Toast sink fake recording raised toasts
type fakeToastSink struct {
	mu     sync.Mutex
	err    error
	toasts []notification.Decision
}

func newFakeToastSink() *fakeToastSink {
	return &fakeToastSink{}
}

func (s *fakeToastSink) Toast(decision notification.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.toasts = append(s.toasts, decision)
	return nil
}

func (s *fakeToastSink) raised() []notification.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Decision(nil), s.toasts...)
}

// Notification history fake recording appended records
type fakeHistory struct {
	mu      sync.Mutex
	err     error
	records []ports.HistoryRecord
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{}
}

func (h *fakeHistory) Append(record ports.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, record)
	return nil
}

func (h *fakeHistory) appended() []ports.HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ports.HistoryRecord(nil), h.records...)
}

type logEntry struct {
	level   ports.LogLevel
	message string
}

// Logger fake recording messages for assertions
type recordingLogger struct {
	mu      sync.Mutex
	level   ports.LogLevel
	entries []logEntry
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{level: ports.LogLevelDebug}
}

func (l *recordingLogger) Log(level ports.LogLevel, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: message})
}

func (l *recordingLogger) LogError(err error, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: ports.LogLevelError, message: message})
}

func (l *recordingLogger) LogItem(item *stream.Item, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: ports.LogLevelDebug, message: message})
}

func (l *recordingLogger) SetLogLevel(level ports.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *recordingLogger) GetLogLevel() ports.LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, entry.message)
	}
	return out
}
