package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Command defines the base interface for all commands
type Command interface {
	// Validate validates the command parameters
	Validate() error

	// GetType returns the command type
	GetType() string

	// GetID returns the command ID
	GetID() string
}

// CommandResult represents the result of a command execution
type CommandResult struct {
	Success       bool                   `json:"success"`
	Message       string                 `json:"message"`
	Data          interface{}            `json:"data,omitempty"`
	Errors        []string               `json:"errors,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
	ExecutionTime time.Duration          `json:"execution_time"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// NewSuccessResult creates a successful command result
func NewSuccessResult(message string, data interface{}) *CommandResult {
	return &CommandResult{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResult creates an error command result
func NewErrorResult(message string, errors []string) *CommandResult {
	return &CommandResult{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// AddWarning adds a warning to the command result
func (r *CommandResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// AddError adds an error to the command result
func (r *CommandResult) AddError(error string) {
	r.Errors = append(r.Errors, error)
	r.Success = false
}

// SetMetadata adds metadata to the command result
func (r *CommandResult) SetMetadata(key string, value interface{}) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
}

// BaseCommand provides common functionality for all commands
type BaseCommand struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBaseCommand creates a new base command
func NewBaseCommand(commandType string) BaseCommand {
	return BaseCommand{
		ID:        uuid.NewString(),
		Type:      commandType,
		CreatedAt: time.Now(),
	}
}

// GetID returns the command ID
func (c BaseCommand) GetID() string {
	return c.ID
}

// GetType returns the command type
func (c BaseCommand) GetType() string {
	return c.Type
}

// Validate provides default validation (can be overridden)
func (c BaseCommand) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("command ID is required")
	}
	if c.Type == "" {
		return fmt.Errorf("command type is required")
	}
	return nil
}

// CommandError represents a command-specific error
type CommandError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common command error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeTimeout    = "TIMEOUT"
)

// NewValidationError creates a validation error
func NewValidationError(message string) CommandError {
	return CommandError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) CommandError {
	return CommandError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) CommandError {
	return CommandError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}
