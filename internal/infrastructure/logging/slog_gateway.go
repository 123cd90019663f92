package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/stream"
)

// SlogGateway implements the LoggingGateway interface over log/slog.
// Logs go to stderr by default: the dashboard owns stdout and the
// terminal alternate screen, so stderr is the only safe channel.
type SlogGateway struct {
	logger  *slog.Logger
	leveler *slog.LevelVar
	level   ports.LogLevel
}

// NewSlogGateway creates a gateway writing to the given writer
func NewSlogGateway(level ports.LogLevel, json bool, out io.Writer) *SlogGateway {
	leveler := new(slog.LevelVar)
	leveler.Set(toSlogLevel(level))

	opts := &slog.HandlerOptions{Level: leveler}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &SlogGateway{
		logger:  slog.New(handler),
		leveler: leveler,
		level:   level,
	}
}

// NewStderrGateway creates a gateway writing to stderr
func NewStderrGateway(level ports.LogLevel, json bool) *SlogGateway {
	return NewSlogGateway(level, json, os.Stderr)
}

// Log logs a message with the specified level
func (g *SlogGateway) Log(level ports.LogLevel, message string, fields map[string]interface{}) {
	g.logger.LogAttrs(context.Background(), toSlogLevel(level), message, fieldsToAttrs(fields)...)
}

// LogError logs an error
func (g *SlogGateway) LogError(err error, message string, fields map[string]interface{}) {
	attrs := append([]slog.Attr{slog.Any("error", err)}, fieldsToAttrs(fields)...)
	g.logger.LogAttrs(context.Background(), slog.LevelError, message, attrs...)
}

// LogItem logs a stream item with context
func (g *SlogGateway) LogItem(item *stream.Item, message string) {
	if item == nil {
		g.logger.LogAttrs(context.Background(), slog.LevelDebug, message)
		return
	}

	attrs := []slog.Attr{
		slog.String("item_id", item.ID().Value()),
		slog.String("service", item.ServiceID().String()),
		slog.String("kind", item.Kind().String()),
	}
	if severity, ok := item.Severity(); ok {
		attrs = append(attrs, slog.String("severity", severity.String()))
	}

	g.logger.LogAttrs(context.Background(), slog.LevelDebug, message, attrs...)
}

// SetLogLevel sets the logging level
func (g *SlogGateway) SetLogLevel(level ports.LogLevel) {
	g.level = level
	g.leveler.Set(toSlogLevel(level))
}

// GetLogLevel returns the current logging level
func (g *SlogGateway) GetLogLevel() ports.LogLevel {
	return g.level
}

// fieldsToAttrs converts a fields map into slog attributes
func fieldsToAttrs(fields map[string]interface{}) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}

	attrs := make([]slog.Attr, 0, len(fields))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}
	return attrs
}

// toSlogLevel maps gateway levels onto slog levels
func toSlogLevel(level ports.LogLevel) slog.Level {
	switch level {
	case ports.LogLevelDebug:
		return slog.LevelDebug
	case ports.LogLevelWarn:
		return slog.LevelWarn
	case ports.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
