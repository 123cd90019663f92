// Package realtime carries stream items from the hub backend into the
// session. The wire format is one JSON frame per message, tagged with
// the record kind; the websocket client, the replay transport and the
// demo generator all feed the same channel-based transport port.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"minu.io/hub/internal/core/stream"
)

// Frame is the wire envelope for one stream record
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// issuePayload mirrors the backend's issue JSON shape
type issuePayload struct {
	ID          string    `json:"id"`
	ServiceID   string    `json:"service_id"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// eventPayload mirrors the backend's event JSON shape
type eventPayload struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"service_id"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DecodeFrame turns one wire frame into a stream item stamped with the
// local arrival time. A zero created_at falls back to the arrival time
// so ordering stays defined for sloppy producers.
func DecodeFrame(data []byte, receivedAt time.Time) (*stream.Item, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch frame.Type {
	case "issue":
		return decodeIssue(frame.Data, receivedAt)
	case "event":
		return decodeEvent(frame.Data, receivedAt)
	default:
		return nil, fmt.Errorf("unknown frame type: %q", frame.Type)
	}
}

func decodeIssue(data json.RawMessage, receivedAt time.Time) (*stream.Item, error) {
	var payload issuePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("malformed issue payload: %w", err)
	}

	severity, err := stream.NewSeverity(strings.ToLower(payload.Severity))
	if err != nil {
		return nil, err
	}

	status := stream.IssueStatus(strings.ToLower(payload.Status))
	if status == "" {
		status = stream.StatusOpen
	}

	createdAt := payload.CreatedAt
	if createdAt.IsZero() {
		createdAt = receivedAt
	}

	issue := stream.Issue{
		ID:          payload.ID,
		ServiceID:   stream.ServiceID(payload.ServiceID),
		Severity:    severity,
		Status:      status,
		Title:       payload.Title,
		Description: payload.Description,
		CreatedAt:   createdAt,
	}
	return stream.NewIssueItem(issue, receivedAt)
}

func decodeEvent(data json.RawMessage, receivedAt time.Time) (*stream.Item, error) {
	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("malformed event payload: %w", err)
	}

	createdAt := payload.CreatedAt
	if createdAt.IsZero() {
		createdAt = receivedAt
	}

	event := stream.Event{
		ID:        payload.ID,
		ServiceID: stream.ServiceID(payload.ServiceID),
		EventType: stream.EventType(payload.EventType),
		Message:   payload.Message,
		CreatedAt: createdAt,
	}
	return stream.NewEventItem(event, receivedAt)
}

// EncodeIssueFrame builds the wire frame for an issue record. Used by
// the demo generator and by tests standing in for the backend.
func EncodeIssueFrame(issue stream.Issue) ([]byte, error) {
	payload := issuePayload{
		ID:          issue.ID,
		ServiceID:   issue.ServiceID.String(),
		Severity:    issue.Severity.String(),
		Status:      issue.Status.String(),
		Title:       issue.Title,
		Description: issue.Description,
		CreatedAt:   issue.CreatedAt,
	}
	return encodeFrame("issue", payload)
}

// EncodeEventFrame builds the wire frame for an event record
func EncodeEventFrame(event stream.Event) ([]byte, error) {
	payload := eventPayload{
		ID:        event.ID,
		ServiceID: event.ServiceID.String(),
		EventType: event.EventType.String(),
		Message:   event.Message,
		CreatedAt: event.CreatedAt,
	}
	return encodeFrame("event", payload)
}

func encodeFrame(frameType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", frameType, err)
	}
	frame := Frame{Type: frameType, Data: data}
	return json.Marshal(frame)
}
