package commands

import (
	"fmt"

	"minu.io/hub/internal/core/feed"
	"minu.io/hub/internal/core/filtering"
	"minu.io/hub/internal/core/grouping"
	"minu.io/hub/internal/core/stream"
)

// StartStreamCommand represents a command to start the live feed
type StartStreamCommand struct {
	SessionConfig feed.Config `json:"session_config"`
	GroupMode     string      `json:"group_mode,omitempty"`
	ReplayFile    string      `json:"replay_file,omitempty"`
	Demo          bool        `json:"demo"`
}

// NewStartStreamCommand creates a new start stream command
func NewStartStreamCommand(sessionConfig feed.Config) *StartStreamCommand {
	return &StartStreamCommand{
		SessionConfig: sessionConfig,
	}
}

// Validate validates the start stream command
func (c *StartStreamCommand) Validate() error {
	if c.SessionConfig.Capacity < 0 {
		return fmt.Errorf("buffer capacity cannot be negative")
	}
	if c.SessionConfig.Capacity > feed.MaxCapacity {
		return fmt.Errorf("buffer capacity cannot exceed %d", feed.MaxCapacity)
	}
	if c.GroupMode != "" {
		if _, err := grouping.ParseMode(c.GroupMode); err != nil {
			return err
		}
	}
	if c.ReplayFile != "" && c.Demo {
		return fmt.Errorf("replay file and demo mode are mutually exclusive")
	}
	return nil
}

// DeleteSelectedCommand represents a bulk delete of the selected items
type DeleteSelectedCommand struct {
	BaseCommand
	IssueIDs []stream.ItemID `json:"issue_ids"`
	EventIDs []stream.ItemID `json:"event_ids"`
}

// NewDeleteSelectedCommand creates a new delete selected command
func NewDeleteSelectedCommand(issueIDs, eventIDs []stream.ItemID) *DeleteSelectedCommand {
	return &DeleteSelectedCommand{
		BaseCommand: NewBaseCommand("delete_selected"),
		IssueIDs:    issueIDs,
		EventIDs:    eventIDs,
	}
}

// Validate validates the delete selected command
func (c *DeleteSelectedCommand) Validate() error {
	if err := c.BaseCommand.Validate(); err != nil {
		return err
	}

	if len(c.IssueIDs) == 0 && len(c.EventIDs) == 0 {
		return NewValidationError("nothing selected")
	}
	for _, id := range c.IssueIDs {
		if id.IsZero() {
			return NewValidationError("issue ID cannot be empty")
		}
	}
	for _, id := range c.EventIDs {
		if id.IsZero() {
			return NewValidationError("event ID cannot be empty")
		}
	}
	return nil
}

// Size returns the total number of items the command deletes
func (c *DeleteSelectedCommand) Size() int {
	return len(c.IssueIDs) + len(c.EventIDs)
}

// UpdateCriteriaCommand replaces the active filter criteria
type UpdateCriteriaCommand struct {
	BaseCommand
	Criteria filtering.Criteria `json:"criteria"`
}

// NewUpdateCriteriaCommand creates a new update criteria command
func NewUpdateCriteriaCommand(criteria filtering.Criteria) *UpdateCriteriaCommand {
	return &UpdateCriteriaCommand{
		BaseCommand: NewBaseCommand("update_criteria"),
		Criteria:    criteria,
	}
}

// Validate validates the update criteria command. Disabling both kinds
// is legal and yields an empty view.
func (c *UpdateCriteriaCommand) Validate() error {
	if err := c.BaseCommand.Validate(); err != nil {
		return err
	}

	for _, severity := range c.Criteria.Severities {
		if _, err := stream.NewSeverity(severity.String()); err != nil {
			return NewValidationError(fmt.Sprintf("invalid severity filter: %s", severity))
		}
	}
	for _, service := range c.Criteria.Services {
		if service == "" {
			return NewValidationError("service filter cannot be empty")
		}
	}
	for _, eventType := range c.Criteria.EventTypes {
		if eventType == "" {
			return NewValidationError("event type filter cannot be empty")
		}
	}
	return nil
}
