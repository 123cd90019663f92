package ports

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied reports that the desktop notification channel is
// unavailable or was refused. Callers disable the channel for the rest
// of the session and fall back to toasts.
var ErrPermissionDenied = errors.New("desktop notification permission denied")

// TransportError wraps a realtime transport failure. Transport errors
// are recoverable: the session keeps its buffered items and a reconnect
// may be requested at any time.
type TransportError struct {
	Op     string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("transport %s: %s", e.Op, e.Reason)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError
func NewTransportError(op, reason string, err error) *TransportError {
	return &TransportError{Op: op, Reason: reason, Err: err}
}

// PersistenceError aggregates the partition outcomes of a bulk delete.
// At least one of the two errors is non-nil; the delete is all-or-
// nothing locally, so callers leave their state untouched on this
// error and keep the selection for retry.
type PersistenceError struct {
	IssueErr error
	EventErr error
}

// NewPersistenceError aggregates the two partition errors, returning
// nil when both partitions succeeded.
func NewPersistenceError(issueErr, eventErr error) *PersistenceError {
	if issueErr == nil && eventErr == nil {
		return nil
	}
	return &PersistenceError{IssueErr: issueErr, EventErr: eventErr}
}

// Error implements the error interface with one combined message
func (e *PersistenceError) Error() string {
	switch {
	case e.IssueErr != nil && e.EventErr != nil:
		return fmt.Sprintf("bulk delete failed: issues: %v; events: %v", e.IssueErr, e.EventErr)
	case e.IssueErr != nil:
		return fmt.Sprintf("bulk delete failed: issues: %v", e.IssueErr)
	default:
		return fmt.Sprintf("bulk delete failed: events: %v", e.EventErr)
	}
}

// Unwrap exposes the partition errors to errors.Is and errors.As
func (e *PersistenceError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.IssueErr != nil {
		errs = append(errs, e.IssueErr)
	}
	if e.EventErr != nil {
		errs = append(errs, e.EventErr)
	}
	return errs
}
