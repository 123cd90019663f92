// Package grouping partitions the ranked, filtered feed into named
// groups with aggregate counts. Groups are derived values: recomputed
// on every relevant state change, never mutated in place, never
// persisted.
package grouping

import (
	"fmt"
	"time"

	"minu.io/hub/internal/core/stream"
)

// Mode selects the partitioning dimension
type Mode string

const (
	ModeService  Mode = "service"
	ModeDate     Mode = "date"
	ModeSeverity Mode = "severity"
)

// ParseMode creates a Mode with validation
func ParseMode(value string) (Mode, error) {
	switch value {
	case "service", "date", "severity":
		return Mode(value), nil
	default:
		return "", fmt.Errorf("invalid grouping mode: %s (expected service, date or severity)", value)
	}
}

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// Modes returns all grouping modes in display order
func Modes() []Mode {
	return []Mode{ModeService, ModeDate, ModeSeverity}
}

// SeverityEventKey is the sentinel group key for events in severity
// mode, always displayed after the severity groups.
const SeverityEventKey = "event"

// Date bucket keys, in fixed display order.
const (
	DateKeyToday     = "today"
	DateKeyYesterday = "yesterday"
	DateKeyThisWeek  = "this-week"
	DateKeyOlder     = "older"
)

// AlertGroup is one named partition of the feed. Items preserve the
// order produced by ranking; the group never re-sorts them.
type AlertGroup struct {
	Key         string
	Label       string
	Items       []*stream.Item
	Count       int
	UnreadCount int
	Expanded    bool
}

// Group partitions ranked items by the given mode. Date buckets are
// computed against the supplied wall-clock now, making the function
// pure. Empty groups are omitted; every input item lands in exactly one
// group and group sizes sum to the input length.
func Group(ranked []*stream.Item, mode Mode, now time.Time) []AlertGroup {
	switch mode {
	case ModeDate:
		return groupByDate(ranked, now)
	case ModeSeverity:
		return groupBySeverity(ranked)
	default:
		return groupByService(ranked)
	}
}

// groupByService keys by the item's service, ordered by first
// appearance in the ranked input. All groups start expanded.
func groupByService(ranked []*stream.Item) []AlertGroup {
	order := make([]stream.ServiceID, 0)
	buckets := make(map[stream.ServiceID][]*stream.Item)

	for _, item := range ranked {
		service := item.ServiceID()
		if _, seen := buckets[service]; !seen {
			order = append(order, service)
		}
		buckets[service] = append(buckets[service], item)
	}

	groups := make([]AlertGroup, 0, len(order))
	for _, service := range order {
		groups = append(groups, buildGroup(string(service), service.DisplayName(), buckets[service], true))
	}
	return groups
}

// groupByDate buckets by arrival day relative to now: today, yesterday,
// this week (2-7 days), older (>7 days), in that fixed order. All
// groups start expanded.
func groupByDate(ranked []*stream.Item, now time.Time) []AlertGroup {
	buckets := make(map[string][]*stream.Item)
	for _, item := range ranked {
		key := DateBucket(item.ReceivedAt(), now)
		buckets[key] = append(buckets[key], item)
	}

	labels := map[string]string{
		DateKeyToday:     "Today",
		DateKeyYesterday: "Yesterday",
		DateKeyThisWeek:  "This Week",
		DateKeyOlder:     "Older",
	}

	groups := make([]AlertGroup, 0, 4)
	for _, key := range []string{DateKeyToday, DateKeyYesterday, DateKeyThisWeek, DateKeyOlder} {
		items := buckets[key]
		if len(items) == 0 {
			continue
		}
		groups = append(groups, buildGroup(key, labels[key], items, true))
	}
	return groups
}

// groupBySeverity keys issues by severity and events by the sentinel
// key, ordered by severity priority with the sentinel last. Only the
// critical and high groups start expanded.
func groupBySeverity(ranked []*stream.Item) []AlertGroup {
	buckets := make(map[string][]*stream.Item)
	for _, item := range ranked {
		key := SeverityEventKey
		if severity, ok := item.Severity(); ok {
			key = severity.String()
		}
		buckets[key] = append(buckets[key], item)
	}

	groups := make([]AlertGroup, 0, 5)
	for _, severity := range stream.Severities() {
		items := buckets[severity.String()]
		if len(items) == 0 {
			continue
		}
		label := severityLabel(severity)
		groups = append(groups, buildGroup(severity.String(), label, items, severity.IsUrgent()))
	}
	if items := buckets[SeverityEventKey]; len(items) > 0 {
		groups = append(groups, buildGroup(SeverityEventKey, "Events", items, false))
	}
	return groups
}

// DateBucket classifies an arrival time against now using local
// calendar-day boundaries. Arrival times at or ahead of now count as
// today.
func DateBucket(receivedAt, now time.Time) string {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	received := receivedAt.In(now.Location())
	startOfReceived := time.Date(received.Year(), received.Month(), received.Day(), 0, 0, 0, 0, now.Location())

	days := int(startOfToday.Sub(startOfReceived).Hours() / 24)
	switch {
	case days <= 0:
		return DateKeyToday
	case days == 1:
		return DateKeyYesterday
	case days <= 7:
		return DateKeyThisWeek
	default:
		return DateKeyOlder
	}
}

func severityLabel(severity stream.Severity) string {
	switch severity {
	case stream.SeverityCritical:
		return "Critical"
	case stream.SeverityHigh:
		return "High"
	case stream.SeverityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

func buildGroup(key, label string, items []*stream.Item, expanded bool) AlertGroup {
	unread := 0
	for _, item := range items {
		if !item.IsRead() {
			unread++
		}
	}
	return AlertGroup{
		Key:         key,
		Label:       label,
		Items:       items,
		Count:       len(items),
		UnreadCount: unread,
		Expanded:    expanded,
	}
}
