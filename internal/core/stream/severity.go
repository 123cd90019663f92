package stream

import "fmt"

// Severity classifies an issue. The fixed priority order
// critical < high < medium < low drives ranking and grouping.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// NewSeverity creates a Severity with validation
func NewSeverity(value string) (Severity, error) {
	switch value {
	case "critical", "high", "medium", "low":
		return Severity(value), nil
	default:
		return "", fmt.Errorf("invalid severity: %s", value)
	}
}

// Priority returns the sort weight: critical=0, high=1, medium=2,
// low=3. Lower value means higher priority and sorts first.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// IsUrgent returns true for the two severities that warrant user-visible
// notifications and default-expanded groups.
func (s Severity) IsUrgent() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// Severities returns all severities in priority order
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// IssueStatus is the workflow status of an issue record. The stream
// treats it as opaque display data owned by the backend.
type IssueStatus string

const (
	StatusOpen          IssueStatus = "open"
	StatusInvestigating IssueStatus = "investigating"
	StatusResolved      IssueStatus = "resolved"
)

// String returns the string representation of IssueStatus
func (s IssueStatus) String() string {
	return string(s)
}
