package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"minu.io/hub/internal/application/commands"
	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/connection"
	"minu.io/hub/internal/core/feed"
	"minu.io/hub/internal/core/filtering"
	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// DispatchStats counts notification activity since service start
type DispatchStats struct {
	Decisions         int
	Toasts            int
	DesktopShown      int
	DesktopSuppressed int
	HistoryWrites     int
}

// HubService orchestrates the live feed: it pumps transport items into
// the session, evaluates the dispatch policy per arrival, drives the
// connection state machine from transport callbacks, and executes the
// bulk-delete protocol against the persistence gateway. The UI reads
// state through the getters and learns about changes via Updates().
type HubService struct {
	session       *feed.Session
	machine       *connection.Machine
	transport     ports.RealtimeTransport
	gateway       ports.PersistenceGateway
	settingsStore ports.SettingsStore
	desktop       ports.DesktopNotifier
	toasts        ports.ToastSink
	history       ports.NotificationHistory
	logger        ports.LoggingGateway

	mu             sync.RWMutex
	settings       notification.Settings
	desktopEnabled bool
	lastDecision   *notification.Decision
	dispatched     DispatchStats

	// updates is a coalescing change signal: capacity one, sends never
	// block, the UI drains it.
	updates  chan struct{}
	cancel   context.CancelFunc
	pumpDone chan struct{}
	started  bool
}

// NewHubService creates a new hub service
func NewHubService(
	session *feed.Session,
	machine *connection.Machine,
	transport ports.RealtimeTransport,
	gateway ports.PersistenceGateway,
	settingsStore ports.SettingsStore,
	desktop ports.DesktopNotifier,
	toasts ports.ToastSink,
	history ports.NotificationHistory,
	logger ports.LoggingGateway,
) *HubService {
	return &HubService{
		session:       session,
		machine:       machine,
		transport:     transport,
		gateway:       gateway,
		settingsStore: settingsStore,
		desktop:       desktop,
		toasts:        toasts,
		history:       history,
		logger:        logger,
		settings:      notification.DefaultSettings(),
		updates:       make(chan struct{}, 1),
		pumpDone:      make(chan struct{}),
	}
}

// Start begins consuming the stream. The context governs the whole
// streaming session: cancelling it stops the pump. A failed initial
// dial is not fatal; the machine lands in the error state and the user
// can request a reconnect. Only command validation rejects the start.
func (s *HubService) Start(ctx context.Context, cmd *commands.StartStreamCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("hub service already started")
	}
	s.started = true
	s.mu.Unlock()

	s.loadSettings()
	s.probeDesktopPermission(ctx)

	s.transport.SetCallbacks(ports.TransportCallbacks{
		OnConnect: func() {
			s.machine.OnConnect()
			s.logger.Log(ports.LogLevelInfo, "Stream connected", nil)
			s.notifyUpdate()
		},
		OnDisconnect: func() {
			s.machine.OnDisconnect()
			s.logger.Log(ports.LogLevelWarn, "Stream disconnected", nil)
			s.notifyUpdate()
		},
		OnError: func(reason string) {
			s.machine.OnError(reason)
			s.logger.Log(ports.LogLevelError, "Stream error", map[string]interface{}{
				"reason": reason,
			})
			s.notifyUpdate()
		},
	})

	pumpCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.pump(pumpCtx)

	if err := s.transport.Connect(ctx); err != nil {
		s.machine.OnError(err.Error())
		s.logger.LogError(err, "Initial stream connect failed", nil)
		s.notifyUpdate()
	}

	return nil
}

// Stop disconnects the transport and stops the pump
func (s *HubService) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := s.transport.Disconnect()
	<-s.pumpDone
	return err
}

// pump consumes transport channels until the service stops
func (s *HubService) pump(ctx context.Context) {
	defer close(s.pumpDone)

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-s.transport.Items():
			if !ok {
				return
			}
			s.handleItem(ctx, item)
		case err, ok := <-s.transport.Errors():
			if !ok {
				return
			}
			s.logger.LogError(err, "Transport reported error", nil)
		}
	}
}

// handleItem is the per-arrival pipeline: insert, evict-log, decide,
// dispatch. Notification dispatch happens exactly here, so each item
// is considered at most once regardless of later read-state changes.
func (s *HubService) handleItem(ctx context.Context, item *stream.Item) {
	evicted, ok := s.session.Insert(item)
	if !ok {
		s.logger.LogItem(item, "Dropped duplicate stream item")
		return
	}
	if evicted != nil {
		s.logger.LogItem(evicted, "Evicted oldest item at capacity")
	}

	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()

	if decision, notify := notification.Decide(item, settings); notify {
		s.dispatch(ctx, decision)
	}

	s.notifyUpdate()
}

// dispatch fans one decision out to the sinks. Sink failures are
// logged and never propagate into the stream pipeline.
func (s *HubService) dispatch(ctx context.Context, decision notification.Decision) {
	s.mu.Lock()
	s.dispatched.Decisions++
	s.lastDecision = &decision
	desktopEnabled := s.desktopEnabled
	s.mu.Unlock()

	if s.toasts != nil {
		if err := s.toasts.Toast(decision); err != nil {
			s.logger.LogError(err, "Toast sink failed", nil)
		} else {
			s.mu.Lock()
			s.dispatched.Toasts++
			s.mu.Unlock()
		}
	}

	showDesktop := decision.ShowDesktop && s.desktop != nil
	if showDesktop && !desktopEnabled {
		s.mu.Lock()
		s.dispatched.DesktopSuppressed++
		s.mu.Unlock()
		showDesktop = false
	}
	if showDesktop {
		if err := s.desktop.Show(ctx, decision); err != nil {
			if errors.Is(err, ports.ErrPermissionDenied) {
				s.latchPermissionDenied(err)
			} else {
				s.logger.LogError(err, "Desktop notification failed", map[string]interface{}{
					"notifier": s.desktop.Name(),
				})
			}
		} else {
			s.mu.Lock()
			s.dispatched.DesktopShown++
			s.mu.Unlock()
		}
	}

	s.appendHistory(decision, showDesktop)
}

func (s *HubService) appendHistory(decision notification.Decision, desktop bool) {
	if s.history == nil {
		return
	}

	record := ports.HistoryRecord{
		ID:           uuid.NewString(),
		DispatchedAt: time.Now(),
		ItemID:       decision.ItemID.Value(),
		ServiceID:    decision.ServiceID.String(),
		Kind:         decision.Kind.String(),
		Severity:     decision.Severity.String(),
		Title:        decision.Title,
		Body:         decision.Body,
		Desktop:      desktop,
		Sound:        decision.PlaySound,
	}
	if err := s.history.Append(record); err != nil {
		s.logger.LogError(err, "Failed to append notification history", nil)
		return
	}

	s.mu.Lock()
	s.dispatched.HistoryWrites++
	s.mu.Unlock()
}

// loadSettings reads the persisted notification settings; load failure
// falls back to defaults so the stream still starts.
func (s *HubService) loadSettings() {
	if s.settingsStore == nil {
		return
	}

	settings, err := s.settingsStore.Load()
	if err != nil {
		s.logger.LogError(err, "Failed to load notification settings, using defaults", nil)
		return
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// ReloadSettings re-reads the settings store, picking up edits made
// while the dashboard is running.
func (s *HubService) ReloadSettings() error {
	if s.settingsStore == nil {
		return nil
	}

	settings, err := s.settingsStore.Load()
	if err != nil {
		return fmt.Errorf("failed to reload settings: %w", err)
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	s.notifyUpdate()
	return nil
}

// probeDesktopPermission checks the desktop channel once at startup
func (s *HubService) probeDesktopPermission(ctx context.Context) {
	if s.desktop == nil {
		return
	}

	if err := s.desktop.RequestPermission(ctx); err != nil {
		if errors.Is(err, ports.ErrPermissionDenied) {
			s.latchPermissionDenied(err)
			return
		}
		s.logger.LogError(err, "Desktop permission probe failed", map[string]interface{}{
			"notifier": s.desktop.Name(),
		})
		return
	}

	s.mu.Lock()
	s.desktopEnabled = true
	s.mu.Unlock()
}

// latchPermissionDenied disables the desktop channel for the rest of
// the session. Logged once; toasts keep working.
func (s *HubService) latchPermissionDenied(err error) {
	s.mu.Lock()
	alreadyLatched := !s.desktopEnabled && s.dispatched.DesktopSuppressed > 0
	s.desktopEnabled = false
	s.mu.Unlock()

	if !alreadyLatched {
		s.logger.LogError(err, "Desktop notifications disabled for this session", map[string]interface{}{
			"notifier": s.desktop.Name(),
		})
	}
}

// Reconnect requests a transport reconnect. A no-op while connected or
// already connecting; otherwise the machine optimistically enters
// connecting and the dial proceeds in the background.
func (s *HubService) Reconnect() {
	if !s.machine.RequestReconnect() {
		return
	}
	s.notifyUpdate()

	go func() {
		if err := s.transport.Reconnect(); err != nil {
			s.machine.OnError(err.Error())
			s.logger.LogError(err, "Reconnect failed", nil)
			s.notifyUpdate()
		}
	}()
}

// DeleteSelected executes the two-phase bulk delete: fan out the two
// kind partitions to the gateway in parallel, and only when both
// succeed mark the items read locally and clear the selection. On any
// failure nothing changes locally and the selection is kept for retry.
func (s *HubService) DeleteSelected(ctx context.Context) error {
	issueIDs, eventIDs := s.session.PartitionSelected()

	cmd := commands.NewDeleteSelectedCommand(issueIDs, eventIDs)
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	var (
		wg       sync.WaitGroup
		issueErr error
		eventErr error
	)
	if len(issueIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			issueErr = s.gateway.DeleteIssues(ctx, issueIDs)
		}()
	}
	if len(eventIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eventErr = s.gateway.DeleteEvents(ctx, eventIDs)
		}()
	}
	wg.Wait()

	if perr := ports.NewPersistenceError(issueErr, eventErr); perr != nil {
		s.logger.LogError(perr, "Bulk delete failed, selection kept", map[string]interface{}{
			"issues": len(issueIDs),
			"events": len(eventIDs),
		})
		return perr
	}

	deleted := make([]stream.ItemID, 0, len(issueIDs)+len(eventIDs))
	deleted = append(deleted, issueIDs...)
	deleted = append(deleted, eventIDs...)
	s.session.MarkReadBatch(deleted)
	s.session.ClearSelection()

	s.logger.Log(ports.LogLevelInfo, "Bulk delete completed", map[string]interface{}{
		"issues": len(issueIDs),
		"events": len(eventIDs),
	})
	s.notifyUpdate()
	return nil
}

// UpdateCriteria replaces the active filter criteria
func (s *HubService) UpdateCriteria(criteria filtering.Criteria) error {
	cmd := commands.NewUpdateCriteriaCommand(criteria)
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	s.session.UpdateCriteria(criteria)
	s.notifyUpdate()
	return nil
}

// MarkRead marks one item read; unknown ids are a silent no-op
func (s *HubService) MarkRead(id stream.ItemID) {
	if s.session.MarkRead(id) {
		s.notifyUpdate()
	}
}

// MarkAllRead marks every buffered item read
func (s *HubService) MarkAllRead() int {
	changed := s.session.MarkAllRead()
	if changed > 0 {
		s.notifyUpdate()
	}
	return changed
}

// ToggleSelect flips an item's selection and returns the new state
func (s *HubService) ToggleSelect(id stream.ItemID) bool {
	selected := s.session.ToggleSelect(id)
	s.notifyUpdate()
	return selected
}

// ClearSelection deselects everything
func (s *HubService) ClearSelection() {
	s.session.ClearSelection()
	s.notifyUpdate()
}

// OpenDetail resolves an item for the detail view and marks it read;
// viewing implies reading. Unknown ids return ok=false.
func (s *HubService) OpenDetail(id stream.ItemID) (*stream.Item, bool) {
	item, found := s.session.Get(id)
	if !found {
		return nil, false
	}
	s.session.MarkRead(id)
	s.notifyUpdate()
	return item, true
}

// FilteredItems returns the current display-ordered view
func (s *HubService) FilteredItems() []*stream.Item {
	return s.session.FilteredItems()
}

// Items returns the buffered items in arrival order
func (s *HubService) Items() []*stream.Item {
	return s.session.Items()
}

// UnreadCount returns the number of unread buffered items
func (s *HubService) UnreadCount() int {
	return s.session.UnreadCount()
}

// Criteria returns the active filter criteria
func (s *HubService) Criteria() filtering.Criteria {
	return s.session.Criteria()
}

// IsSelected reports whether an item is selected
func (s *HubService) IsSelected(id stream.ItemID) bool {
	return s.session.IsSelected(id)
}

// SelectionSize returns the number of selected items
func (s *HubService) SelectionSize() int {
	return s.session.SelectionSize()
}

// ConnectionState returns the machine state and error reason
func (s *HubService) ConnectionState() (connection.State, string) {
	return s.machine.Snapshot()
}

// Settings returns the active notification settings
func (s *HubService) Settings() notification.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// DesktopEnabled reports whether the desktop channel is usable
func (s *HubService) DesktopEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.desktopEnabled
}

// LastDecision returns the most recently dispatched notification, for
// the jump-to-notified-item shortcut.
func (s *HubService) LastDecision() (notification.Decision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastDecision == nil {
		return notification.Decision{}, false
	}
	return *s.lastDecision, true
}

// SessionStats returns the cumulative session counters
func (s *HubService) SessionStats() feed.Stats {
	return s.session.Stats()
}

// Dispatched returns the cumulative dispatch counters
func (s *HubService) Dispatched() DispatchStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dispatched
}

// Updates returns the coalescing change-notification channel
func (s *HubService) Updates() <-chan struct{} {
	return s.updates
}

// notifyUpdate signals the UI without ever blocking the pipeline
func (s *HubService) notifyUpdate() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
