package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minu.io/hub/internal/core/stream"
)

var frameArrival = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDecodeFrame_Issue(t *testing.T) {
	data := []byte(`{
		"type": "issue",
		"data": {
			"id": "iss-42",
			"service_id": "minu-find",
			"severity": "critical",
			"status": "investigating",
			"title": "Database connection lost",
			"description": "Pool exhausted after failover",
			"created_at": "2024-06-15T11:58:00Z"
		}
	}`)

	item, err := DecodeFrame(data, frameArrival)
	require.NoError(t, err)

	assert.True(t, item.IsIssue())
	assert.Equal(t, "iss-42", item.ID().Value())
	assert.Equal(t, stream.ServiceID("minu-find"), item.ServiceID())
	assert.Equal(t, "Database connection lost", item.Title())
	assert.Equal(t, frameArrival, item.ReceivedAt())
	assert.False(t, item.IsRead(), "decoded items arrive unread")

	severity, ok := item.Severity()
	require.True(t, ok)
	assert.Equal(t, stream.SeverityCritical, severity)

	issue, ok := item.Issue()
	require.True(t, ok)
	assert.Equal(t, stream.StatusInvestigating, issue.Status)
	assert.Equal(t, "Pool exhausted after failover", issue.Description)
	assert.Equal(t, time.Date(2024, 6, 15, 11, 58, 0, 0, time.UTC), issue.CreatedAt)
}

func TestDecodeFrame_Event(t *testing.T) {
	data := []byte(`{
		"type": "event",
		"data": {
			"id": "evt-7",
			"service_id": "minu-apply",
			"event_type": "milestone.reached",
			"message": "10k applications submitted",
			"created_at": "2024-06-15T11:59:30Z"
		}
	}`)

	item, err := DecodeFrame(data, frameArrival)
	require.NoError(t, err)

	assert.True(t, item.IsEvent())
	assert.Equal(t, "evt-7", item.ID().Value())

	eventType, ok := item.EventType()
	require.True(t, ok)
	assert.Equal(t, stream.EventMilestoneReached, eventType)

	event, ok := item.Event()
	require.True(t, ok)
	assert.Equal(t, "10k applications submitted", event.Message)
}

func TestDecodeFrame_GeneratesIDWhenMissing(t *testing.T) {
	data := []byte(`{"type":"issue","data":{"service_id":"minu-find","severity":"low","title":"No id on the wire"}}`)

	item, err := DecodeFrame(data, frameArrival)
	require.NoError(t, err)
	assert.False(t, item.ID().IsZero(), "a missing id must be generated locally")
}

func TestDecodeFrame_CreatedAtFallsBackToArrival(t *testing.T) {
	data := []byte(`{"type":"event","data":{"id":"evt-1","service_id":"minu-find","event_type":"task.completed","message":"done"}}`)

	item, err := DecodeFrame(data, frameArrival)
	require.NoError(t, err)
	assert.Equal(t, frameArrival, item.CreatedAt())
}

func TestDecodeFrame_StatusDefaultsToOpen(t *testing.T) {
	data := []byte(`{"type":"issue","data":{"id":"iss-1","service_id":"minu-find","severity":"medium","title":"No status"}}`)

	item, err := DecodeFrame(data, frameArrival)
	require.NoError(t, err)

	issue, ok := item.Issue()
	require.True(t, ok)
	assert.Equal(t, stream.StatusOpen, issue.Status)
}

func TestDecodeFrame_NormalizesSeverityCase(t *testing.T) {
	data := []byte(`{"type":"issue","data":{"id":"iss-1","service_id":"minu-find","severity":"CRITICAL","title":"Shouty producer"}}`)

	item, err := DecodeFrame(data, frameArrival)
	require.NoError(t, err)

	severity, ok := item.Severity()
	require.True(t, ok)
	assert.Equal(t, stream.SeverityCritical, severity)
}

func TestDecodeFrame_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "not json",
			data: `{"type": "issue", "data"`,
		},
		{
			name: "unknown frame type",
			data: `{"type":"heartbeat","data":{}}`,
		},
		{
			name: "missing frame type",
			data: `{"data":{"id":"iss-1"}}`,
		},
		{
			name: "invalid severity",
			data: `{"type":"issue","data":{"id":"iss-1","service_id":"minu-find","severity":"urgent","title":"x"}}`,
		},
		{
			name: "issue without service",
			data: `{"type":"issue","data":{"id":"iss-1","severity":"low","title":"x"}}`,
		},
		{
			name: "event without type",
			data: `{"type":"event","data":{"id":"evt-1","service_id":"minu-find","message":"x"}}`,
		},
		{
			name: "issue payload wrong shape",
			data: `{"type":"issue","data":[1,2,3]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.data), frameArrival)
			assert.Error(t, err)
		})
	}
}

func TestEncodeFrames_RoundTrip(t *testing.T) {
	issueData, err := EncodeIssueFrame(stream.Issue{
		ID:        "iss-1",
		ServiceID: "minu-track",
		Severity:  stream.SeverityHigh,
		Status:    stream.StatusOpen,
		Title:     "Queue depth above threshold",
		CreatedAt: frameArrival,
	})
	require.NoError(t, err)

	item, err := DecodeFrame(issueData, frameArrival.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "iss-1", item.ID().Value())
	assert.Equal(t, "Queue depth above threshold", item.Title())

	eventData, err := EncodeEventFrame(stream.Event{
		ID:        "evt-1",
		ServiceID: "minu-track",
		EventType: stream.EventTaskCompleted,
		Message:   "Nightly sync finished",
		CreatedAt: frameArrival,
	})
	require.NoError(t, err)

	item, err = DecodeFrame(eventData, frameArrival.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, item.IsEvent())
	assert.Equal(t, "evt-1", item.ID().Value())
}
