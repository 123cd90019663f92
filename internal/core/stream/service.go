package stream

import (
	"fmt"
	"strings"
)

// ServiceID identifies the SaaS service an issue or event belongs to,
// e.g. "minu-find" or "minu-docs".
type ServiceID string

// NewServiceID creates a ServiceID with validation
func NewServiceID(value string) (ServiceID, error) {
	if value == "" {
		return "", fmt.Errorf("service ID cannot be empty")
	}
	return ServiceID(value), nil
}

// String returns the string representation of ServiceID
func (s ServiceID) String() string {
	return string(s)
}

// DisplayName derives a human-readable label from the service ID:
// "minu-find" becomes "Minu Find".
func (s ServiceID) DisplayName() string {
	if s == "" {
		return "Unknown Service"
	}
	parts := strings.Split(string(s), "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// EventType classifies an event record, e.g. "milestone.reached".
type EventType string

const (
	EventMilestoneReached EventType = "milestone.reached"
	EventTaskCompleted    EventType = "task.completed"
	EventTaskCreated      EventType = "task.created"
	EventDeployFinished   EventType = "deploy.finished"
)

// NewEventType creates an EventType with validation
func NewEventType(value string) (EventType, error) {
	if value == "" {
		return "", fmt.Errorf("event type cannot be empty")
	}
	return EventType(value), nil
}

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}
