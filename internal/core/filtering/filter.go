// Package filtering selects the visible subset of a feed. The engine is
// a pure predicate over filter criteria: it never mutates its inputs,
// preserves input order, and produces identical output for identical
// arguments.
package filtering

import (
	"minu.io/hub/internal/core/stream"
)

// Criteria describes the active filter. Nil (or empty) list filters
// mean "no restriction"; the two kind toggles gate issues and events
// wholesale. Criteria values are replaced atomically on the session,
// never partially updated.
type Criteria struct {
	Services     []stream.ServiceID
	Severities   []stream.Severity
	EventTypes   []stream.EventType
	EnableIssues bool
	EnableEvents bool
}

// DefaultCriteria returns the unrestricted filter: both kinds enabled,
// no list restrictions.
func DefaultCriteria() Criteria {
	return Criteria{
		EnableIssues: true,
		EnableEvents: true,
	}
}

// IsDefault reports whether the criteria restrict nothing
func (c Criteria) IsDefault() bool {
	return c.EnableIssues && c.EnableEvents &&
		len(c.Services) == 0 && len(c.Severities) == 0 && len(c.EventTypes) == 0
}

// WithServices returns a copy restricted to the given services
func (c Criteria) WithServices(services ...stream.ServiceID) Criteria {
	c.Services = services
	return c
}

// WithSeverities returns a copy restricted to the given severities
func (c Criteria) WithSeverities(severities ...stream.Severity) Criteria {
	c.Severities = severities
	return c
}

// WithEventTypes returns a copy restricted to the given event types
func (c Criteria) WithEventTypes(types ...stream.EventType) Criteria {
	c.EventTypes = types
	return c
}

// Matches reports whether a single item passes the criteria. An item
// passes iff its kind toggle is on, its service is allowed, and the
// severity list (issues only) respectively the event-type list (events
// only) allows it.
func (c Criteria) Matches(item *stream.Item) bool {
	if item == nil {
		return false
	}
	return c.kindAllowed(item) &&
		c.serviceAllowed(item) &&
		c.severityAllowed(item) &&
		c.eventTypeAllowed(item)
}

func (c Criteria) kindAllowed(item *stream.Item) bool {
	if item.IsIssue() {
		return c.EnableIssues
	}
	return c.EnableEvents
}

func (c Criteria) serviceAllowed(item *stream.Item) bool {
	if len(c.Services) == 0 {
		return true
	}
	for _, service := range c.Services {
		if item.ServiceID() == service {
			return true
		}
	}
	return false
}

// severityAllowed restricts issues only; events carry no severity and
// pass a severity filter untouched.
func (c Criteria) severityAllowed(item *stream.Item) bool {
	if len(c.Severities) == 0 {
		return true
	}
	severity, ok := item.Severity()
	if !ok {
		return true
	}
	for _, allowed := range c.Severities {
		if severity == allowed {
			return true
		}
	}
	return false
}

// eventTypeAllowed restricts events only; issues pass an event-type
// filter untouched.
func (c Criteria) eventTypeAllowed(item *stream.Item) bool {
	if len(c.EventTypes) == 0 {
		return true
	}
	eventType, ok := item.EventType()
	if !ok {
		return true
	}
	for _, allowed := range c.EventTypes {
		if eventType == allowed {
			return true
		}
	}
	return false
}

// Apply returns the items passing the criteria, in input order. The
// result is always a fresh slice; the input is never mutated.
func Apply(criteria Criteria, items []*stream.Item) []*stream.Item {
	filtered := make([]*stream.Item, 0, len(items))
	for _, item := range items {
		if criteria.Matches(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
