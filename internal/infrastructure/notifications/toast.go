package notifications

import (
	"fmt"
	"io"
	"os"

	"minu.io/hub/internal/core/notification"
)

// StderrToastSink is the toast fallback for headless runs: one
// formatted line per notification on stderr, with a terminal bell when
// the decision carries sound. The dashboard replaces this sink with its
// own overlay.
type StderrToastSink struct {
	out io.Writer
}

// NewStderrToastSink creates a sink writing to stderr
func NewStderrToastSink() *StderrToastSink {
	return &StderrToastSink{out: os.Stderr}
}

// NewToastSinkWriter creates a sink writing to the given writer
func NewToastSinkWriter(out io.Writer) *StderrToastSink {
	return &StderrToastSink{out: out}
}

// Toast raises one transient notification as a stderr line
func (s *StderrToastSink) Toast(decision notification.Decision) error {
	label := decision.Severity.String()
	if label == "" {
		label = decision.Kind.String()
	}

	bell := ""
	if decision.PlaySound {
		bell = "\a"
	}

	_, err := fmt.Fprintf(s.out, "%s[%s] %s: %s\n", bell, label, decision.ServiceID.DisplayName(), decision.Title)
	if err != nil {
		return fmt.Errorf("failed to write toast: %w", err)
	}

	return nil
}
