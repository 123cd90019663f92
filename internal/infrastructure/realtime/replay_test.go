package realtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minu.io/hub/internal/core/stream"
)

func writeCapture(t *testing.T, lines []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.jsonl")
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func captureLines(t *testing.T, ids ...string) []string {
	t.Helper()

	lines := make([]string, len(ids))
	for i, id := range ids {
		data, err := EncodeIssueFrame(stream.Issue{
			ID:        id,
			ServiceID: "minu-find",
			Severity:  stream.SeverityLow,
			Status:    stream.StatusOpen,
			Title:     fmt.Sprintf("Replayed issue %s", id),
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		lines[i] = string(data)
	}
	return lines
}

func TestReplayTransport_EmitsFileInOrder(t *testing.T) {
	path := writeCapture(t, captureLines(t, "rep-1", "rep-2", "rep-3"))

	transport := NewReplayTransport(path, 0, nopLogger{})
	recorder := newCallbackRecorder()
	transport.SetCallbacks(recorder.callbacks())

	require.NoError(t, transport.Connect(context.Background()))
	awaitSignal(t, recorder.connects, "connect callback")

	for _, want := range []string{"rep-1", "rep-2", "rep-3"} {
		item := receiveItem(t, transport.Items())
		assert.Equal(t, want, item.ID().Value())
	}

	awaitSignal(t, recorder.disconnects, "disconnect at end of capture")
}

func TestReplayTransport_SkipsBadLines(t *testing.T) {
	good := captureLines(t, "rep-1", "rep-2")
	path := writeCapture(t, []string{good[0], "{broken json", good[1]})

	transport := NewReplayTransport(path, 0, nopLogger{})
	require.NoError(t, transport.Connect(context.Background()))
	defer transport.Disconnect()

	first := receiveItem(t, transport.Items())
	assert.Equal(t, "rep-1", first.ID().Value())

	second := receiveItem(t, transport.Items())
	assert.Equal(t, "rep-2", second.ID().Value(), "broken lines must not stop the replay")

	select {
	case err := <-transport.Errors():
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("broken line should surface on the error channel")
	}
}

func TestReplayTransport_SkipsBlankLines(t *testing.T) {
	lines := captureLines(t, "rep-1")
	lines = append(lines, "", "   ")
	path := writeCapture(t, lines)

	transport := NewReplayTransport(path, 0, nopLogger{})
	recorder := newCallbackRecorder()
	transport.SetCallbacks(recorder.callbacks())

	require.NoError(t, transport.Connect(context.Background()))

	item := receiveItem(t, transport.Items())
	assert.Equal(t, "rep-1", item.ID().Value())
	awaitSignal(t, recorder.disconnects, "clean finish despite blank lines")
}

func TestReplayTransport_MissingFileFailsConnect(t *testing.T) {
	transport := NewReplayTransport("/nonexistent/capture.jsonl", 0, nopLogger{})

	err := transport.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay")
}

func TestReplayTransport_ReconnectReplaysFromTop(t *testing.T) {
	path := writeCapture(t, captureLines(t, "rep-1"))

	transport := NewReplayTransport(path, 0, nopLogger{})
	recorder := newCallbackRecorder()
	transport.SetCallbacks(recorder.callbacks())

	require.NoError(t, transport.Connect(context.Background()))
	assert.Equal(t, "rep-1", receiveItem(t, transport.Items()).ID().Value())
	awaitSignal(t, recorder.disconnects, "end of first pass")

	require.NoError(t, transport.Reconnect())
	assert.Equal(t, "rep-1", receiveItem(t, transport.Items()).ID().Value(),
		"reconnect should replay the capture from the beginning")
}

func TestDemoTransport_GeneratesItems(t *testing.T) {
	transport := NewDemoTransport(42, nopLogger{})
	transport.minDelay = time.Millisecond
	transport.maxDelay = 5 * time.Millisecond

	require.NoError(t, transport.Connect(context.Background()))
	defer transport.Disconnect()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		item := receiveItem(t, transport.Items())
		require.NotNil(t, item)
		assert.False(t, seen[item.ID().Value()], "demo ids must be distinct")
		seen[item.ID().Value()] = true

		service := item.ServiceID().String()
		assert.Contains(t, []string{"minu-find", "minu-apply", "minu-track", "minu-bill"}, service)
	}
}

func TestDemoTransport_SameSeedSameSequence(t *testing.T) {
	first := NewDemoTransport(7, nopLogger{})
	second := NewDemoTransport(7, nopLogger{})

	for i := 0; i < 10; i++ {
		a := first.nextItem()
		b := second.nextItem()
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Equal(t, a.ID().Value(), b.ID().Value())
		assert.Equal(t, a.Kind(), b.Kind())
		assert.Equal(t, a.ServiceID(), b.ServiceID())
	}
}
