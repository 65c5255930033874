package logger

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// HCLogLogger is a Logger implementation using hashicorp/go-hclog.
type HCLogLogger struct {
	logger hclog.Logger
}

// NewHCLogLogger wraps an hclog logger. A nil logger discards everything.
func NewHCLogLogger(l hclog.Logger) *HCLogLogger {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &HCLogLogger{logger: l}
}

func (l *HCLogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *HCLogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *HCLogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *HCLogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// With creates a child logger with additional key-value pairs.
func (l *HCLogLogger) With(args ...any) Logger {
	return &HCLogLogger{logger: l.logger.With(args...)}
}

// WithContext tags entries with the unit stored in ctx, if any.
func (l *HCLogLogger) WithContext(ctx context.Context) Logger {
	if unit := UnitFromContext(ctx); unit != "" {
		return l.With("unit", unit)
	}
	return l
}
