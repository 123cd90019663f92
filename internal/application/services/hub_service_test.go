package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minu.io/hub/internal/application/commands"
	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/connection"
	"minu.io/hub/internal/core/feed"
	"minu.io/hub/internal/core/filtering"
	"minu.io/hub/internal/core/ranking"
	"minu.io/hub/internal/core/stream"
	"minu.io/hub/internal/core/testfixtures"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type hubFixture struct {
	svc       *HubService
	session   *feed.Session
	machine   *connection.Machine
	transport *fakeTransport
	gateway   *fakeGateway
	store     *fakeSettingsStore
	desktop   *fakeDesktop
	toasts    *fakeToastSink
	history   *fakeHistory
	logger    *recordingLogger
}

func newHubFixture(capacity int) *hubFixture {
	fx := &hubFixture{
		session:   feed.NewSession(feed.Config{Capacity: capacity}),
		machine:   connection.NewMachine(),
		transport: newFakeTransport(),
		gateway:   newFakeGateway(),
		store:     newFakeSettingsStore(),
		desktop:   newFakeDesktop(),
		toasts:    newFakeToastSink(),
		history:   newFakeHistory(),
		logger:    newRecordingLogger(),
	}
	fx.svc = NewHubService(
		fx.session, fx.machine, fx.transport, fx.gateway,
		fx.store, fx.desktop, fx.toasts, fx.history, fx.logger,
	)
	return fx
}

func (fx *hubFixture) start(t *testing.T) {
	t.Helper()

	cmd := commands.NewStartStreamCommand(feed.Config{Capacity: fx.session.Capacity()})
	require.NoError(t, fx.svc.Start(context.Background(), cmd))
	t.Cleanup(func() { _ = fx.svc.Stop() })
}

func (fx *hubFixture) waitForItems(t *testing.T, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(fx.svc.Items()) == n
	}, waitFor, tick, "expected %d buffered items", n)
}

func (fx *hubFixture) waitForToasts(t *testing.T, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(fx.toasts.raised()) == n
	}, waitFor, tick, "expected %d toasts", n)
}

func TestHubService_Start_RejectsInvalidCommand(t *testing.T) {
	fx := newHubFixture(10)

	cmd := commands.NewStartStreamCommand(feed.DefaultConfig())
	cmd.GroupMode = "priority"

	err := fx.svc.Start(context.Background(), cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command validation failed")

	connects, _, _ := fx.transport.stats()
	assert.Zero(t, connects, "rejected command should not touch the transport")
}

func TestHubService_Start_SecondStartFails(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	err := fx.svc.Start(context.Background(), commands.NewStartStreamCommand(feed.DefaultConfig()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestHubService_Start_ConnectFailureEntersErrorState(t *testing.T) {
	fx := newHubFixture(10)
	fx.transport.connectErr = errors.New("dial tcp 10.0.0.1:443: connection refused")

	fx.start(t)

	state, reason := fx.svc.ConnectionState()
	assert.Equal(t, connection.StateError, state, "failed dial should land in error state")
	assert.Contains(t, reason, "connection refused")
}

func TestHubService_Start_SuccessfulConnect(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	state, reason := fx.svc.ConnectionState()
	assert.Equal(t, connection.StateConnected, state)
	assert.Empty(t, reason)
}

func TestHubService_BuffersArrivingItems(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-1").WithCritical().MustBuild())
	fx.transport.emit(testfixtures.NewEventItemBuilder().WithID("evt-1").MustBuild())

	fx.waitForItems(t, 2)
	assert.Equal(t, 2, fx.svc.UnreadCount())
	assert.Equal(t, 2, fx.svc.SessionStats().Inserted)
}

func TestHubService_DropsDuplicateItems(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-1").WithTitle("first").MustBuild())
	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-1").WithTitle("replay").MustBuild())
	fx.transport.emit(testfixtures.NewEventItemBuilder().WithID("evt-1").MustBuild())

	fx.waitForItems(t, 2)
	assert.Equal(t, 2, fx.svc.SessionStats().Inserted)

	item, found := fx.svc.OpenDetail(mustItemID(t, "iss-1"))
	require.True(t, found)
	assert.Equal(t, "first", item.Title(), "original item should win over the duplicate")
}

func TestHubService_DispatchesUrgentIssue(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.transport.emit(testfixtures.NewIssueItemBuilder().
		WithID("iss-1").
		WithCritical().
		WithTitle("Database connection lost").
		MustBuild())

	fx.waitForToasts(t, 1)

	toast := fx.toasts.raised()[0]
	assert.Equal(t, "Critical issue in Minu Find", toast.Title)
	assert.Equal(t, "Database connection lost", toast.Body)
	assert.True(t, toast.PlaySound)
	assert.False(t, toast.ShowDesktop, "desktop defaults to opt-in")

	assert.Empty(t, fx.desktop.shownDecisions(), "no desktop notification without opt-in")

	records := fx.history.appended()
	require.Len(t, records, 1)
	assert.Equal(t, "iss-1", records[0].ItemID)
	assert.Equal(t, "minu-find", records[0].ServiceID)
	assert.Equal(t, "issue", records[0].Kind)
	assert.Equal(t, "critical", records[0].Severity)
	assert.False(t, records[0].Desktop)
	assert.True(t, records[0].Sound)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].DispatchedAt.IsZero())
}

func TestHubService_QuietItemsRaiseNothing(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	for _, item := range testfixtures.QuietItems() {
		fx.transport.emit(item)
	}

	fx.waitForItems(t, len(testfixtures.QuietItems()))
	assert.Empty(t, fx.toasts.raised(), "below-threshold items must stay silent")
	assert.Empty(t, fx.history.appended())
	assert.Zero(t, fx.svc.Dispatched().Decisions)
}

func TestHubService_DispatchesOncePerInsert(t *testing.T) {
	fx := newHubFixture(20)
	fx.start(t)

	for i := 0; i < 10; i++ {
		fx.transport.emit(testfixtures.NewIssueItemBuilder().
			WithID(fmt.Sprintf("iss-%d", i)).
			WithHigh().
			MustBuild())
	}
	fx.waitForToasts(t, 10)

	// Read-state changes and re-filtering never dispatch again.
	fx.svc.MarkRead(mustItemID(t, "iss-0"))
	fx.svc.MarkAllRead()
	criteria := testfixtures.NewCriteriaBuilder().WithIssuesOnly().Build()
	require.NoError(t, fx.svc.UpdateCriteria(criteria))
	for i := 0; i < 5; i++ {
		fx.svc.FilteredItems()
	}

	assert.Equal(t, 10, fx.svc.Dispatched().Decisions, "one decision per insert")
	assert.Len(t, fx.toasts.raised(), 10)
	assert.Len(t, fx.history.appended(), 10)
}

func TestHubService_MutedSeverityStillRanksFirst(t *testing.T) {
	fx := newHubFixture(10)
	fx.store.set(testfixtures.NewSettingsBuilder().
		WithSeverityDisabled(stream.SeverityCritical).
		Build())
	fx.start(t)

	critical := testfixtures.NewIssueItemBuilder().
		WithID("iss-critical").
		WithService("minu-find").
		WithCritical().
		WithTitle("Crawler fleet offline").
		MustBuild()
	fx.transport.emit(critical)
	fx.transport.emit(testfixtures.NewIssueItemBuilder().
		WithID("iss-medium").
		WithSeverity(stream.SeverityMedium).
		WithReceivedOffset(time.Minute).
		MustBuild())
	fx.transport.emit(testfixtures.NewIssueItemBuilder().
		WithID("iss-low").
		WithLow().
		WithReceivedOffset(2 * time.Minute).
		MustBuild())

	fx.waitForItems(t, 3)

	assert.Empty(t, fx.toasts.raised(), "muted severity must not notify")
	assert.Zero(t, fx.svc.Dispatched().Decisions)

	// Muting silences the dispatch channel only; ranking is untouched.
	ranked := ranking.Rank(fx.svc.FilteredItems())
	require.Len(t, ranked, 3)
	assert.Equal(t, critical.ID(), ranked[0].ID())
}

func TestHubService_DesktopShownWhenPermitted(t *testing.T) {
	fx := newHubFixture(10)
	fx.store.set(testfixtures.NewSettingsBuilder().WithDesktop().Build())
	fx.start(t)

	require.True(t, fx.svc.DesktopEnabled())

	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-1").WithHigh().MustBuild())

	require.Eventually(t, func() bool {
		return len(fx.desktop.shownDecisions()) == 1
	}, waitFor, tick, "expected one desktop notification")

	records := fx.history.appended()
	require.Len(t, records, 1)
	assert.True(t, records[0].Desktop)
	assert.Equal(t, 1, fx.svc.Dispatched().DesktopShown)
}

func TestHubService_PermissionDeniedLatchesDesktopOff(t *testing.T) {
	fx := newHubFixture(10)
	fx.store.set(testfixtures.NewSettingsBuilder().WithDesktop().Build())
	fx.desktop.permissionErr = ports.ErrPermissionDenied
	fx.start(t)

	assert.False(t, fx.svc.DesktopEnabled())

	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-1").WithCritical().MustBuild())
	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-2").WithHigh().MustBuild())

	fx.waitForToasts(t, 2)
	assert.Empty(t, fx.desktop.shownDecisions(), "denied permission must silence the desktop channel")
	assert.Equal(t, 2, fx.svc.Dispatched().DesktopSuppressed)

	latchLogs := 0
	for _, msg := range fx.logger.messages() {
		if msg == "Desktop notifications disabled for this session" {
			latchLogs++
		}
	}
	assert.Equal(t, 1, latchLogs, "the latch should be logged exactly once")
}

func TestHubService_EventsNeverReachDesktop(t *testing.T) {
	fx := newHubFixture(10)
	fx.store.set(testfixtures.NewSettingsBuilder().WithDesktop().Build())
	fx.start(t)

	fx.transport.emit(testfixtures.NewEventItemBuilder().
		WithID("evt-1").
		WithType(stream.EventMilestoneReached).
		MustBuild())

	fx.waitForToasts(t, 1)
	assert.Empty(t, fx.desktop.shownDecisions(), "events are toast-only")
}

func TestHubService_DeleteSelected_Success(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	issue := testfixtures.NewIssueItemBuilder().WithID("iss-1").WithLow().MustBuild()
	event := testfixtures.NewEventItemBuilder().WithID("evt-1").MustBuild()
	fx.transport.emit(issue)
	fx.transport.emit(event)
	fx.waitForItems(t, 2)

	fx.svc.ToggleSelect(issue.ID())
	fx.svc.ToggleSelect(event.ID())

	require.NoError(t, fx.svc.DeleteSelected(context.Background()))

	issueCalls := fx.gateway.issueCalls()
	require.Len(t, issueCalls, 1)
	assert.Equal(t, []stream.ItemID{issue.ID()}, issueCalls[0])

	eventCalls := fx.gateway.eventCalls()
	require.Len(t, eventCalls, 1)
	assert.Equal(t, []stream.ItemID{event.ID()}, eventCalls[0])

	assert.Len(t, fx.svc.Items(), 2, "deleted items stay buffered")
	assert.Zero(t, fx.svc.UnreadCount(), "deleted items are marked read")
	assert.Zero(t, fx.svc.SelectionSize(), "selection clears after success")
}

func TestHubService_DeleteSelected_SingleKindCallsOneEndpoint(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	issue := testfixtures.NewIssueItemBuilder().WithID("iss-1").MustBuild()
	fx.transport.emit(issue)
	fx.waitForItems(t, 1)

	fx.svc.ToggleSelect(issue.ID())
	require.NoError(t, fx.svc.DeleteSelected(context.Background()))

	assert.Len(t, fx.gateway.issueCalls(), 1)
	assert.Empty(t, fx.gateway.eventCalls(), "no event partition, no event call")
}

func TestHubService_DeleteSelected_FailureKeepsLocalState(t *testing.T) {
	fx := newHubFixture(10)
	fx.gateway.issueErr = errors.New("503 service unavailable")
	fx.start(t)

	issue := testfixtures.NewIssueItemBuilder().WithID("iss-1").MustBuild()
	event := testfixtures.NewEventItemBuilder().WithID("evt-1").MustBuild()
	fx.transport.emit(issue)
	fx.transport.emit(event)
	fx.waitForItems(t, 2)

	fx.svc.ToggleSelect(issue.ID())
	fx.svc.ToggleSelect(event.ID())

	err := fx.svc.DeleteSelected(context.Background())
	require.Error(t, err)

	var perr *ports.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Error(t, perr.IssueErr)
	assert.NoError(t, perr.EventErr)

	assert.Equal(t, 2, fx.svc.UnreadCount(), "partial failure must not mark anything read")
	assert.Equal(t, 2, fx.svc.SelectionSize(), "selection survives for retry")
}

func TestHubService_DeleteSelected_NothingSelected(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	err := fx.svc.DeleteSelected(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing selected")
	assert.Empty(t, fx.gateway.issueCalls())
	assert.Empty(t, fx.gateway.eventCalls())
}

func TestHubService_Reconnect_NoopWhileConnected(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	state, _ := fx.svc.ConnectionState()
	require.Equal(t, connection.StateConnected, state)

	fx.svc.Reconnect()

	_, _, reconnects := fx.transport.stats()
	assert.Zero(t, reconnects, "reconnect while connected must not redial")
}

func TestHubService_Reconnect_AfterError(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.transport.fireError("stream closed unexpectedly")
	state, _ := fx.svc.ConnectionState()
	require.Equal(t, connection.StateError, state)

	fx.svc.Reconnect()

	require.Eventually(t, func() bool {
		s, _ := fx.svc.ConnectionState()
		return s == connection.StateConnected
	}, waitFor, tick, "reconnect should restore the connected state")

	_, _, reconnects := fx.transport.stats()
	assert.Equal(t, 1, reconnects)
}

func TestHubService_Reconnect_FailureReturnsToError(t *testing.T) {
	fx := newHubFixture(10)
	fx.transport.reconnectErr = errors.New("dial tcp: i/o timeout")
	fx.start(t)

	fx.transport.fireDisconnect()

	fx.svc.Reconnect()

	require.Eventually(t, func() bool {
		s, reason := fx.svc.ConnectionState()
		return s == connection.StateError && reason == "dial tcp: i/o timeout"
	}, waitFor, tick, "failed redial should land back in error with the dial reason")
}

func TestHubService_TransportCallbacksDriveMachine(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.transport.fireDisconnect()
	state, _ := fx.svc.ConnectionState()
	assert.Equal(t, connection.StateDisconnected, state)

	fx.transport.fireError("read: connection reset by peer")
	state, reason := fx.svc.ConnectionState()
	assert.Equal(t, connection.StateError, state)
	assert.Equal(t, "read: connection reset by peer", reason)
}

func TestHubService_TransportErrorsAreLogged(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.transport.emitError(errors.New("malformed frame"))

	require.Eventually(t, func() bool {
		for _, msg := range fx.logger.messages() {
			if msg == "Transport reported error" {
				return true
			}
		}
		return false
	}, waitFor, tick, "transport errors should surface in the log")
}

func TestHubService_MarkReadAndMarkAllRead(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	issue := testfixtures.NewIssueItemBuilder().WithID("iss-1").MustBuild()
	event := testfixtures.NewEventItemBuilder().WithID("evt-1").MustBuild()
	fx.transport.emit(issue)
	fx.transport.emit(event)
	fx.waitForItems(t, 2)

	fx.svc.MarkRead(issue.ID())
	assert.Equal(t, 1, fx.svc.UnreadCount())

	fx.svc.MarkRead(mustItemID(t, "no-such-id"))
	assert.Equal(t, 1, fx.svc.UnreadCount(), "unknown id is a no-op")

	assert.Equal(t, 1, fx.svc.MarkAllRead())
	assert.Zero(t, fx.svc.UnreadCount())
}

func TestHubService_OpenDetailMarksRead(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	issue := testfixtures.NewIssueItemBuilder().WithID("iss-1").MustBuild()
	fx.transport.emit(issue)
	fx.waitForItems(t, 1)

	item, found := fx.svc.OpenDetail(issue.ID())
	require.True(t, found)
	assert.True(t, item.IsRead(), "opening the detail view implies reading")
	assert.Zero(t, fx.svc.UnreadCount())

	_, found = fx.svc.OpenDetail(mustItemID(t, "missing"))
	assert.False(t, found)
}

func TestHubService_UpdateCriteria(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	for _, item := range testfixtures.SampleItems() {
		fx.transport.emit(item)
	}
	fx.waitForItems(t, 5)

	criteria := testfixtures.NewCriteriaBuilder().WithIssuesOnly().Build()
	require.NoError(t, fx.svc.UpdateCriteria(criteria))

	for _, item := range fx.svc.FilteredItems() {
		assert.True(t, item.IsIssue(), "events must be filtered out")
	}
	assert.Equal(t, criteria, fx.svc.Criteria())
}

func TestHubService_UpdateCriteria_RejectsInvalid(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	bad := filtering.DefaultCriteria().WithServices(stream.ServiceID(""))
	err := fx.svc.UpdateCriteria(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command validation failed")
}

func TestHubService_UpdatesSignalCoalesces(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	for i := 0; i < 3; i++ {
		fx.transport.emit(testfixtures.NewIssueItemBuilder().
			WithID(fmt.Sprintf("iss-%d", i)).
			WithLow().
			MustBuild())
	}
	fx.waitForItems(t, 3)

	drained := 0
	deadline := time.After(200 * time.Millisecond)
	for done := false; !done; {
		select {
		case <-fx.svc.Updates():
			drained++
		case <-deadline:
			done = true
		}
	}

	assert.GreaterOrEqual(t, drained, 1, "changes must produce at least one signal")
	assert.LessOrEqual(t, drained, 2, "signals must coalesce rather than queue per change")
}

func TestHubService_ReloadSettings(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	fx.store.set(testfixtures.NewSettingsBuilder().WithoutSound().Build())
	require.NoError(t, fx.svc.ReloadSettings())

	assert.False(t, fx.svc.Settings().EnableSound)
}

func TestHubService_LastDecision(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	_, ok := fx.svc.LastDecision()
	assert.False(t, ok, "no decision before the first dispatch")

	fx.transport.emit(testfixtures.NewIssueItemBuilder().WithID("iss-1").WithCritical().MustBuild())
	fx.waitForToasts(t, 1)

	decision, ok := fx.svc.LastDecision()
	require.True(t, ok)
	assert.Equal(t, "iss-1", decision.ItemID.Value())
}

func TestHubService_StopDisconnects(t *testing.T) {
	fx := newHubFixture(10)
	fx.start(t)

	require.NoError(t, fx.svc.Stop())
	_, disconnects, _ := fx.transport.stats()
	assert.Equal(t, 1, disconnects)

	require.NoError(t, fx.svc.Stop(), "second stop is a no-op")
}

func mustItemID(t *testing.T, value string) stream.ItemID {
	t.Helper()

	id, err := stream.NewItemID(value)
	require.NoError(t, err)
	return id
}
