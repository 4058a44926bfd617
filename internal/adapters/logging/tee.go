package logging

import (
	"context"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Tee forwards every record to each of its sinks. Each sink applies its own
// level filter.
type Tee struct {
	sinks []ports.Logger
}

// NewTee creates a logger writing to all non-nil sinks.
func NewTee(sinks ...ports.Logger) *Tee {
	t := &Tee{}
	for _, s := range sinks {
		if s != nil {
			t.sinks = append(t.sinks, s)
		}
	}
	return t
}

// Debug logs a debug message.
func (t *Tee) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Debug(ctx, msg, fields...)
	}
}

// Info logs an informational message.
func (t *Tee) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Info(ctx, msg, fields...)
	}
}

// Warn logs a warning message.
func (t *Tee) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Warn(ctx, msg, fields...)
	}
}

// Error logs an error message.
func (t *Tee) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range t.sinks {
		s.Error(ctx, msg, fields...)
	}
}

// With returns a Tee whose sinks all carry fields.
func (t *Tee) With(fields ...ports.Field) ports.Logger {
	out := &Tee{sinks: make([]ports.Logger, len(t.sinks))}
	for i, s := range t.sinks {
		out.sinks[i] = s.With(fields...)
	}
	return out
}

// Level returns the most verbose level among the sinks.
func (t *Tee) Level() ports.Level {
	if len(t.sinks) == 0 {
		return ports.LevelInfo
	}
	level := t.sinks[0].Level()
	for _, s := range t.sinks[1:] {
		if s.Level() < level {
			level = s.Level()
		}
	}
	return level
}

// SetLevel sets the level on every sink.
func (t *Tee) SetLevel(level ports.Level) {
	for _, s := range t.sinks {
		s.SetLevel(level)
	}
}

var _ ports.Logger = (*Tee)(nil)
