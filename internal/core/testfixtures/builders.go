package testfixtures

import (
	"fmt"
	"math/rand"
	"time"

	"minu.io/hub/internal/core/filtering"
	"minu.io/hub/internal/core/notification"
	"minu.io/hub/internal/core/stream"
)

// baseTime anchors fixture timestamps so ordering-sensitive tests are
// deterministic. Builders offset from it instead of calling time.Now.
var baseTime = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// BaseTime returns the anchor timestamp shared by all fixtures
func BaseTime() time.Time {
	return baseTime
}

// IssueItemBuilder provides a builder pattern for creating issue items
type IssueItemBuilder struct {
	id          string
	serviceID   stream.ServiceID
	severity    stream.Severity
	status      stream.IssueStatus
	title       string
	description string
	createdAt   time.Time
	receivedAt  time.Time
	read        bool
}

// NewIssueItemBuilder creates a new IssueItemBuilder with sensible defaults
func NewIssueItemBuilder() *IssueItemBuilder {
	return &IssueItemBuilder{
		serviceID:  "minu-find",
		severity:   stream.SeverityMedium,
		status:     stream.StatusOpen,
		title:      "Test issue",
		createdAt:  baseTime,
		receivedAt: baseTime,
	}
}

// WithID sets a specific payload ID
func (b *IssueItemBuilder) WithID(id string) *IssueItemBuilder {
	b.id = id
	return b
}

// WithService sets the originating service
func (b *IssueItemBuilder) WithService(serviceID string) *IssueItemBuilder {
	b.serviceID = stream.ServiceID(serviceID)
	return b
}

// WithSeverity sets the issue severity
func (b *IssueItemBuilder) WithSeverity(severity stream.Severity) *IssueItemBuilder {
	b.severity = severity
	return b
}

// WithCritical sets critical severity
func (b *IssueItemBuilder) WithCritical() *IssueItemBuilder {
	return b.WithSeverity(stream.SeverityCritical)
}

// WithHigh sets high severity
func (b *IssueItemBuilder) WithHigh() *IssueItemBuilder {
	return b.WithSeverity(stream.SeverityHigh)
}

// WithLow sets low severity
func (b *IssueItemBuilder) WithLow() *IssueItemBuilder {
	return b.WithSeverity(stream.SeverityLow)
}

// WithStatus sets the issue workflow status
func (b *IssueItemBuilder) WithStatus(status stream.IssueStatus) *IssueItemBuilder {
	b.status = status
	return b
}

// WithTitle sets the issue title
func (b *IssueItemBuilder) WithTitle(title string) *IssueItemBuilder {
	b.title = title
	return b
}

// WithDescription sets the issue description
func (b *IssueItemBuilder) WithDescription(description string) *IssueItemBuilder {
	b.description = description
	return b
}

// WithCreatedAt sets the payload creation time
func (b *IssueItemBuilder) WithCreatedAt(t time.Time) *IssueItemBuilder {
	b.createdAt = t
	return b
}

// WithReceivedAt sets the local arrival time
func (b *IssueItemBuilder) WithReceivedAt(t time.Time) *IssueItemBuilder {
	b.receivedAt = t
	return b
}

// WithReceivedOffset offsets the arrival time from the fixture anchor
func (b *IssueItemBuilder) WithReceivedOffset(d time.Duration) *IssueItemBuilder {
	b.receivedAt = baseTime.Add(d)
	return b
}

// WithRead marks the built item as already read
func (b *IssueItemBuilder) WithRead() *IssueItemBuilder {
	b.read = true
	return b
}

// Build creates the item
func (b *IssueItemBuilder) Build() (*stream.Item, error) {
	item, err := stream.NewIssueItem(stream.Issue{
		ID:          b.id,
		ServiceID:   b.serviceID,
		Severity:    b.severity,
		Status:      b.status,
		Title:       b.title,
		Description: b.description,
		CreatedAt:   b.createdAt,
	}, b.receivedAt)
	if err != nil {
		return nil, err
	}
	if b.read {
		item.MarkRead()
	}
	return item, nil
}

// MustBuild creates the item and panics on error (for test convenience)
func (b *IssueItemBuilder) MustBuild() *stream.Item {
	item, err := b.Build()
	if err != nil {
		panic(err)
	}
	return item
}

// EventItemBuilder provides a builder pattern for creating event items
type EventItemBuilder struct {
	id         string
	serviceID  stream.ServiceID
	eventType  stream.EventType
	message    string
	createdAt  time.Time
	receivedAt time.Time
	read       bool
}

// NewEventItemBuilder creates a new EventItemBuilder with sensible defaults
func NewEventItemBuilder() *EventItemBuilder {
	return &EventItemBuilder{
		serviceID:  "minu-find",
		eventType:  stream.EventTaskCompleted,
		message:    "Test event",
		createdAt:  baseTime,
		receivedAt: baseTime,
	}
}

// WithID sets a specific payload ID
func (b *EventItemBuilder) WithID(id string) *EventItemBuilder {
	b.id = id
	return b
}

// WithService sets the originating service
func (b *EventItemBuilder) WithService(serviceID string) *EventItemBuilder {
	b.serviceID = stream.ServiceID(serviceID)
	return b
}

// WithType sets the event type
func (b *EventItemBuilder) WithType(eventType stream.EventType) *EventItemBuilder {
	b.eventType = eventType
	return b
}

// WithMessage sets the event message
func (b *EventItemBuilder) WithMessage(message string) *EventItemBuilder {
	b.message = message
	return b
}

// WithCreatedAt sets the payload creation time
func (b *EventItemBuilder) WithCreatedAt(t time.Time) *EventItemBuilder {
	b.createdAt = t
	return b
}

// WithReceivedAt sets the local arrival time
func (b *EventItemBuilder) WithReceivedAt(t time.Time) *EventItemBuilder {
	b.receivedAt = t
	return b
}

// WithReceivedOffset offsets the arrival time from the fixture anchor
func (b *EventItemBuilder) WithReceivedOffset(d time.Duration) *EventItemBuilder {
	b.receivedAt = baseTime.Add(d)
	return b
}

// WithRead marks the built item as already read
func (b *EventItemBuilder) WithRead() *EventItemBuilder {
	b.read = true
	return b
}

// Build creates the item
func (b *EventItemBuilder) Build() (*stream.Item, error) {
	item, err := stream.NewEventItem(stream.Event{
		ID:        b.id,
		ServiceID: b.serviceID,
		EventType: b.eventType,
		Message:   b.message,
		CreatedAt: b.createdAt,
	}, b.receivedAt)
	if err != nil {
		return nil, err
	}
	if b.read {
		item.MarkRead()
	}
	return item, nil
}

// MustBuild creates the item and panics on error (for test convenience)
func (b *EventItemBuilder) MustBuild() *stream.Item {
	item, err := b.Build()
	if err != nil {
		panic(err)
	}
	return item
}

// CriteriaBuilder provides a builder for filter criteria
type CriteriaBuilder struct {
	criteria filtering.Criteria
}

// NewCriteriaBuilder creates a new builder with defaults
func NewCriteriaBuilder() *CriteriaBuilder {
	return &CriteriaBuilder{
		criteria: filtering.DefaultCriteria(),
	}
}

// WithServices restricts the criteria to the given services
func (b *CriteriaBuilder) WithServices(services ...string) *CriteriaBuilder {
	ids := make([]stream.ServiceID, len(services))
	for i, s := range services {
		ids[i] = stream.ServiceID(s)
	}
	b.criteria.Services = ids
	return b
}

// WithSeverities restricts the criteria to the given severities
func (b *CriteriaBuilder) WithSeverities(severities ...stream.Severity) *CriteriaBuilder {
	b.criteria.Severities = severities
	return b
}

// WithEventTypes restricts the criteria to the given event types
func (b *CriteriaBuilder) WithEventTypes(types ...stream.EventType) *CriteriaBuilder {
	b.criteria.EventTypes = types
	return b
}

// WithIssuesOnly disables the event kind
func (b *CriteriaBuilder) WithIssuesOnly() *CriteriaBuilder {
	b.criteria.EnableIssues = true
	b.criteria.EnableEvents = false
	return b
}

// WithEventsOnly disables the issue kind
func (b *CriteriaBuilder) WithEventsOnly() *CriteriaBuilder {
	b.criteria.EnableIssues = false
	b.criteria.EnableEvents = true
	return b
}

// Build returns the criteria
func (b *CriteriaBuilder) Build() filtering.Criteria {
	return b.criteria
}

// SettingsBuilder provides a builder for notification settings
type SettingsBuilder struct {
	settings notification.Settings
}

// NewSettingsBuilder creates a new builder with defaults
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		settings: notification.DefaultSettings(),
	}
}

// WithServiceDisabled mutes one service
func (b *SettingsBuilder) WithServiceDisabled(serviceID string) *SettingsBuilder {
	b.settings.SetService(stream.ServiceID(serviceID), false)
	return b
}

// WithSeverityDisabled mutes one severity
func (b *SettingsBuilder) WithSeverityDisabled(severity stream.Severity) *SettingsBuilder {
	b.settings.SetSeverity(severity, false)
	return b
}

// WithDesktop enables desktop notifications
func (b *SettingsBuilder) WithDesktop() *SettingsBuilder {
	b.settings.EnableBrowserNotifications = true
	return b
}

// WithoutSound disables the notification sound
func (b *SettingsBuilder) WithoutSound() *SettingsBuilder {
	b.settings.EnableSound = false
	return b
}

// Build returns the settings
func (b *SettingsBuilder) Build() notification.Settings {
	return b.settings
}

// Common test data and helper functions

// SampleItems returns a mixed slice of items for testing, oldest first
func SampleItems() []*stream.Item {
	return []*stream.Item{
		NewIssueItemBuilder().WithID("iss-1").WithService("minu-find").WithCritical().WithTitle("Database connection lost").WithReceivedOffset(0).MustBuild(),
		NewIssueItemBuilder().WithID("iss-2").WithService("minu-apply").WithHigh().WithTitle("Queue depth above threshold").WithReceivedOffset(time.Minute).MustBuild(),
		NewEventItemBuilder().WithID("evt-1").WithService("minu-find").WithType(stream.EventMilestoneReached).WithMessage("Crawled 1M listings").WithReceivedOffset(2 * time.Minute).MustBuild(),
		NewIssueItemBuilder().WithID("iss-3").WithService("minu-track").WithLow().WithTitle("Stale cache entry").WithReceivedOffset(3 * time.Minute).MustBuild(),
		NewEventItemBuilder().WithID("evt-2").WithService("minu-apply").WithType(stream.EventTaskCompleted).WithMessage("Nightly sync finished").WithReceivedOffset(4 * time.Minute).MustBuild(),
	}
}

// UrgentIssueItems returns items that should always notify under
// default settings.
func UrgentIssueItems() []*stream.Item {
	return []*stream.Item{
		NewIssueItemBuilder().WithID("urgent-1").WithCritical().WithTitle("Service down").MustBuild(),
		NewIssueItemBuilder().WithID("urgent-2").WithHigh().WithTitle("Error rate spike").MustBuild(),
	}
}

// QuietItems returns items that should never notify under default
// settings.
func QuietItems() []*stream.Item {
	return []*stream.Item{
		NewIssueItemBuilder().WithID("quiet-1").WithSeverity(stream.SeverityMedium).MustBuild(),
		NewIssueItemBuilder().WithID("quiet-2").WithLow().MustBuild(),
		NewEventItemBuilder().WithID("quiet-3").WithType(stream.EventTaskCreated).MustBuild(),
		NewEventItemBuilder().WithID("quiet-4").WithType(stream.EventDeployFinished).MustBuild(),
	}
}

// RandomItem generates a random item for property-based testing
func RandomItem(rng *rand.Rand) *stream.Item {
	services := []string{"minu-find", "minu-apply", "minu-track", "minu-bill"}
	offset := time.Duration(rng.Intn(14*24)) * time.Hour

	if rng.Intn(2) == 0 {
		severities := stream.Severities()
		b := NewIssueItemBuilder().
			WithID(fmt.Sprintf("rand-iss-%d", rng.Int63())).
			WithService(services[rng.Intn(len(services))]).
			WithSeverity(severities[rng.Intn(len(severities))]).
			WithTitle(fmt.Sprintf("Random issue %d", rng.Intn(1000))).
			WithReceivedOffset(-offset)
		if rng.Intn(2) == 0 {
			b = b.WithRead()
		}
		return b.MustBuild()
	}

	types := []stream.EventType{
		stream.EventMilestoneReached,
		stream.EventTaskCompleted,
		stream.EventTaskCreated,
		stream.EventDeployFinished,
	}
	b := NewEventItemBuilder().
		WithID(fmt.Sprintf("rand-evt-%d", rng.Int63())).
		WithService(services[rng.Intn(len(services))]).
		WithType(types[rng.Intn(len(types))]).
		WithMessage(fmt.Sprintf("Random event %d", rng.Intn(1000))).
		WithReceivedOffset(-offset)
	if rng.Intn(2) == 0 {
		b = b.WithRead()
	}
	return b.MustBuild()
}

// RandomItems generates n random items with distinct IDs
func RandomItems(rng *rand.Rand, n int) []*stream.Item {
	items := make([]*stream.Item, 0, n)
	seen := make(map[stream.ItemID]bool, n)
	for len(items) < n {
		item := RandomItem(rng)
		if seen[item.ID()] {
			continue
		}
		seen[item.ID()] = true
		items = append(items, item)
	}
	return items
}

// ValidSeverities returns valid severity strings for testing
func ValidSeverities() []string {
	return []string{"critical", "high", "medium", "low"}
}

// InvalidSeverities returns invalid severity strings for testing
func InvalidSeverities() []string {
	return []string{"", "urgent", "CRITICAL", "sev1", "warning"}
}

// ValidEventTypes returns valid event type strings for testing. The
// type space is open; unknown types parse but never notify.
func ValidEventTypes() []string {
	return []string{"milestone.reached", "task.completed", "task.created", "deploy.finished", "custom.type"}
}

// InvalidEventTypes returns invalid event type strings for testing
func InvalidEventTypes() []string {
	return []string{""}
}

// ValidServiceIDs returns valid service IDs for testing
func ValidServiceIDs() []string {
	return []string{"minu-find", "minu-apply", "api", "background-worker"}
}
