package cli

import (
	"fmt"
	"strings"

	"minu.io/hub/internal/core/filtering"
	"minu.io/hub/internal/core/grouping"
	"minu.io/hub/internal/core/stream"
)

// FilterFlags holds the raw filter flag values before validation
type FilterFlags struct {
	Services   []string
	Severities []string
	EventTypes []string
}

// ParseFilterFlags validates the raw filter flags and builds the filter
// criteria. Empty flag lists leave the corresponding dimension
// unrestricted; both kinds stay enabled, kind toggles live in the
// dashboard.
func ParseFilterFlags(flags FilterFlags) (filtering.Criteria, error) {
	criteria := filtering.DefaultCriteria()

	for _, raw := range flags.Services {
		service, err := stream.NewServiceID(strings.TrimSpace(raw))
		if err != nil {
			return filtering.Criteria{}, fmt.Errorf("invalid --service value %q: %w", raw, err)
		}
		criteria.Services = append(criteria.Services, service)
	}

	for _, raw := range flags.Severities {
		severity, err := stream.NewSeverity(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return filtering.Criteria{}, fmt.Errorf("invalid --severity value %q: %w", raw, err)
		}
		criteria.Severities = append(criteria.Severities, severity)
	}

	for _, raw := range flags.EventTypes {
		eventType, err := stream.NewEventType(strings.TrimSpace(raw))
		if err != nil {
			return filtering.Criteria{}, fmt.Errorf("invalid --type value %q: %w", raw, err)
		}
		criteria.EventTypes = append(criteria.EventTypes, eventType)
	}

	return criteria, nil
}

// GroupModeFlat is the flag and config value for the ungrouped view
const GroupModeFlat = ""

// ParseGroupFlag maps the --group-by flag (or the group_by config
// value) to a grouping mode. Empty, "flat" and "none" select the flat
// ungrouped view.
func ParseGroupFlag(value string) (grouping.Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", "flat", "none":
		return GroupModeFlat, nil
	default:
		return grouping.ParseMode(normalized)
	}
}

// parseToggle maps on/off style CLI arguments to a bool
func parseToggle(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "enabled", "yes", "1":
		return true, nil
	case "off", "false", "disabled", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", value)
	}
}
