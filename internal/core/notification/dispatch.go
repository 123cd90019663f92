// Package notification decides, per newly arrived item, whether a
// user-visible notification fires. Decide is a pure function of the
// item and the current settings with no retained state: the at-most-
// once-per-item guarantee comes from callers invoking it only at
// insertion time, never on re-renders or read-state changes.
package notification

import (
	"fmt"

	"minu.io/hub/internal/core/stream"
)

// Settings is the per-user notification configuration, persisted
// externally and consumed read-only here. The maps hold explicit
// per-key overrides; a missing key means enabled, so muting is opt-out.
type Settings struct {
	ServiceNotifications       map[stream.ServiceID]bool `yaml:"service_notifications"`
	SeverityNotifications      map[stream.Severity]bool  `yaml:"severity_notifications"`
	EnableBrowserNotifications bool                      `yaml:"enable_browser_notifications"`
	EnableSound                bool                      `yaml:"enable_sound"`
}

// DefaultSettings returns the out-of-the-box configuration: every
// service and severity enabled, sound on, desktop notifications off
// until the user opts in.
func DefaultSettings() Settings {
	return Settings{
		ServiceNotifications:       make(map[stream.ServiceID]bool),
		SeverityNotifications:      make(map[stream.Severity]bool),
		EnableBrowserNotifications: false,
		EnableSound:                true,
	}
}

// ServiceEnabled reports whether notifications are on for a service.
// Services without an explicit entry are enabled.
func (s Settings) ServiceEnabled(id stream.ServiceID) bool {
	if enabled, ok := s.ServiceNotifications[id]; ok {
		return enabled
	}
	return true
}

// SeverityEnabled reports whether notifications are on for a severity.
// Severities without an explicit entry are enabled.
func (s Settings) SeverityEnabled(severity stream.Severity) bool {
	if enabled, ok := s.SeverityNotifications[severity]; ok {
		return enabled
	}
	return true
}

// SetService records an explicit per-service override
func (s *Settings) SetService(id stream.ServiceID, enabled bool) {
	if s.ServiceNotifications == nil {
		s.ServiceNotifications = make(map[stream.ServiceID]bool)
	}
	s.ServiceNotifications[id] = enabled
}

// SetSeverity records an explicit per-severity override
func (s *Settings) SetSeverity(severity stream.Severity, enabled bool) {
	if s.SeverityNotifications == nil {
		s.SeverityNotifications = make(map[stream.Severity]bool)
	}
	s.SeverityNotifications[severity] = enabled
}

// Decision describes the notification to raise for one item. ItemID
// lets the desktop channel's click handler locate the originating item
// in the current filtered list and open its detail view.
type Decision struct {
	ItemID      stream.ItemID
	ServiceID   stream.ServiceID
	Kind        stream.Kind
	Severity    stream.Severity
	Title       string
	Body        string
	ShowDesktop bool
	PlaySound   bool
}

// Decide evaluates the dispatch policy for a newly inserted item.
//
// An issue is eligible iff its service and severity are enabled and the
// severity is critical or high; eligibility raises a toast, plus the
// desktop channel when browser notifications are enabled. An event is
// eligible iff its service is enabled and its type is milestone.reached
// or task.completed; events raise a toast only.
func Decide(item *stream.Item, settings Settings) (Decision, bool) {
	if item == nil {
		return Decision{}, false
	}
	if !settings.ServiceEnabled(item.ServiceID()) {
		return Decision{}, false
	}

	if severity, ok := item.Severity(); ok {
		if !settings.SeverityEnabled(severity) || !severity.IsUrgent() {
			return Decision{}, false
		}
		issue, _ := item.Issue()
		return Decision{
			ItemID:      item.ID(),
			ServiceID:   item.ServiceID(),
			Kind:        stream.KindIssue,
			Severity:    severity,
			Title:       fmt.Sprintf("%s issue in %s", severityHeadline(severity), item.ServiceID().DisplayName()),
			Body:        issue.Title,
			ShowDesktop: settings.EnableBrowserNotifications,
			PlaySound:   settings.EnableSound,
		}, true
	}

	eventType, _ := item.EventType()
	if !eventNotifiable(eventType) {
		return Decision{}, false
	}
	event, _ := item.Event()
	return Decision{
		ItemID:    item.ID(),
		ServiceID: item.ServiceID(),
		Kind:      stream.KindEvent,
		Title:     fmt.Sprintf("%s in %s", eventHeadline(eventType), item.ServiceID().DisplayName()),
		Body:      event.Message,
		PlaySound: settings.EnableSound,
	}, true
}

// eventNotifiable gates the event types that warrant a toast
func eventNotifiable(eventType stream.EventType) bool {
	return eventType == stream.EventMilestoneReached || eventType == stream.EventTaskCompleted
}

func severityHeadline(severity stream.Severity) string {
	if severity == stream.SeverityCritical {
		return "Critical"
	}
	return "High severity"
}

func eventHeadline(eventType stream.EventType) string {
	switch eventType {
	case stream.EventMilestoneReached:
		return "Milestone reached"
	case stream.EventTaskCompleted:
		return "Task completed"
	default:
		return "Activity"
	}
}
