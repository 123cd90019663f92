package stream

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemID is a value object identifying one item in the feed. IDs are
// unique for the lifetime of a feed buffer; items arriving without an
// identifier get a generated one.
type ItemID struct {
	value string
}

// NewItemID creates an ItemID with validation
func NewItemID(value string) (ItemID, error) {
	if value == "" {
		return ItemID{}, fmt.Errorf("item ID cannot be empty")
	}
	return ItemID{value: value}, nil
}

// GenerateItemID creates a new unique ItemID
func GenerateItemID() ItemID {
	return ItemID{value: uuid.NewString()}
}

// Value returns the string value of the ItemID
func (i ItemID) Value() string {
	return i.value
}

// String implements the Stringer interface
func (i ItemID) String() string {
	return i.value
}

// IsZero reports whether the ID is the zero value
func (i ItemID) IsZero() bool {
	return i.value == ""
}

// Kind discriminates the payload attached to an Item. Exactly one of
// an issue or an event record is attached, never both.
type Kind string

const (
	KindIssue Kind = "issue"
	KindEvent Kind = "event"
)

// NewKind creates a Kind with validation
func NewKind(value string) (Kind, error) {
	switch value {
	case "issue", "event":
		return Kind(value), nil
	default:
		return "", fmt.Errorf("invalid item kind: %s", value)
	}
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Issue is a persisted defect or incident record with a severity and a
// workflow status. The record is owned by the backend domain model; the
// stream carries a read-only copy.
type Issue struct {
	ID          string
	ServiceID   ServiceID
	Severity    Severity
	Status      IssueStatus
	Title       string
	Description string
	CreatedAt   time.Time
}

// Event is a persisted activity notification (progress, completion,
// milestone) without a severity.
type Event struct {
	ID        string
	ServiceID ServiceID
	EventType EventType
	Message   string
	CreatedAt time.Time
}

// Item wraps one Issue or Event record plus stream-local metadata: the
// local arrival time and the mutable read flag. Items are appended to
// the feed buffer in arrival order and never reordered in place.
type Item struct {
	id         ItemID
	kind       Kind
	issue      Issue
	event      Event
	receivedAt time.Time
	isRead     bool
}

// NewIssueItem wraps an issue record into an Item. The issue's own ID
// becomes the item ID; a missing ID gets a generated one.
func NewIssueItem(issue Issue, receivedAt time.Time) (*Item, error) {
	if receivedAt.IsZero() {
		return nil, fmt.Errorf("received time cannot be zero")
	}
	if issue.ServiceID == "" {
		return nil, fmt.Errorf("issue service ID cannot be empty")
	}
	if _, err := NewSeverity(issue.Severity.String()); err != nil {
		return nil, err
	}

	id, err := itemIDFor(issue.ID)
	if err != nil {
		return nil, err
	}

	return &Item{
		id:         id,
		kind:       KindIssue,
		issue:      issue,
		receivedAt: receivedAt,
	}, nil
}

// NewEventItem wraps an event record into an Item. The event's own ID
// becomes the item ID; a missing ID gets a generated one.
func NewEventItem(event Event, receivedAt time.Time) (*Item, error) {
	if receivedAt.IsZero() {
		return nil, fmt.Errorf("received time cannot be zero")
	}
	if event.ServiceID == "" {
		return nil, fmt.Errorf("event service ID cannot be empty")
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("event type cannot be empty")
	}

	id, err := itemIDFor(event.ID)
	if err != nil {
		return nil, err
	}

	return &Item{
		id:         id,
		kind:       KindEvent,
		event:      event,
		receivedAt: receivedAt,
	}, nil
}

func itemIDFor(payloadID string) (ItemID, error) {
	if payloadID == "" {
		return GenerateItemID(), nil
	}
	return NewItemID(payloadID)
}

// ID returns the item ID
func (i *Item) ID() ItemID {
	return i.id
}

// Kind returns the payload discriminator
func (i *Item) Kind() Kind {
	return i.kind
}

// IsIssue returns true if the item carries an issue record
func (i *Item) IsIssue() bool {
	return i.kind == KindIssue
}

// IsEvent returns true if the item carries an event record
func (i *Item) IsEvent() bool {
	return i.kind == KindEvent
}

// Issue returns the issue record; ok is false for event items
func (i *Item) Issue() (Issue, bool) {
	if i.kind != KindIssue {
		return Issue{}, false
	}
	return i.issue, true
}

// Event returns the event record; ok is false for issue items
func (i *Item) Event() (Event, bool) {
	if i.kind != KindEvent {
		return Event{}, false
	}
	return i.event, true
}

// ServiceID returns the originating service regardless of kind
func (i *Item) ServiceID() ServiceID {
	if i.kind == KindIssue {
		return i.issue.ServiceID
	}
	return i.event.ServiceID
}

// Severity returns the issue severity; ok is false for event items,
// which carry no severity.
func (i *Item) Severity() (Severity, bool) {
	if i.kind != KindIssue {
		return "", false
	}
	return i.issue.Severity, true
}

// EventType returns the event type; ok is false for issue items
func (i *Item) EventType() (EventType, bool) {
	if i.kind != KindEvent {
		return "", false
	}
	return i.event.EventType, true
}

// CreatedAt returns the payload's own creation time, distinct from the
// local arrival time.
func (i *Item) CreatedAt() time.Time {
	if i.kind == KindIssue {
		return i.issue.CreatedAt
	}
	return i.event.CreatedAt
}

// Title returns the display headline: the issue title or the event message
func (i *Item) Title() string {
	if i.kind == KindIssue {
		return i.issue.Title
	}
	return i.event.Message
}

// ReceivedAt returns the local arrival time
func (i *Item) ReceivedAt() time.Time {
	return i.receivedAt
}

// IsRead returns the stream-local read flag
func (i *Item) IsRead() bool {
	return i.isRead
}

// MarkRead sets the read flag. Marking an already-read item is a no-op.
func (i *Item) MarkRead() {
	i.isRead = true
}

// String returns a string representation of the item
func (i *Item) String() string {
	return fmt.Sprintf("Item{ID: %s, Kind: %s, Service: %s, Read: %t}",
		i.id.Value(), i.kind, i.ServiceID(), i.isRead)
}
