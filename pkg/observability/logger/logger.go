// Package logger provides the structured logger invigilate uses for its own
// diagnostics and that hosts commonly install as the default logger.
package logger

import (
	"context"
)

// Logger is the structured logging interface used across invigilate.
// All log methods accept a message followed by key-value pairs.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info-level message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning-level message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error-level message with optional key-value pairs
	Error(msg string, args ...any)

	// With creates a child logger that adds the key-value pairs to every entry
	With(args ...any) Logger

	// WithContext creates a child logger carrying the unit found in ctx, if any
	WithContext(ctx context.Context) Logger
}

type unitKey struct{}

// ContextWithUnit returns a copy of ctx tagged with the given unit id.
func ContextWithUnit(ctx context.Context, unit string) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// UnitFromContext returns the unit id stored by ContextWithUnit.
func UnitFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	unit, _ := ctx.Value(unitKey{}).(string)
	return unit
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                 {}
func (nopLogger) Info(string, ...any)                  {}
func (nopLogger) Warn(string, ...any)                  {}
func (nopLogger) Error(string, ...any)                 {}
func (n nopLogger) With(...any) Logger                 { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
