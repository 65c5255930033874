package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger is a Logger implementation using rs/zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps a zerolog logger.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: l}
}

func (l *ZerologLogger) Debug(msg string, args ...any) { l.logger.Debug().Fields(args).Msg(msg) }
func (l *ZerologLogger) Info(msg string, args ...any)  { l.logger.Info().Fields(args).Msg(msg) }
func (l *ZerologLogger) Warn(msg string, args ...any)  { l.logger.Warn().Fields(args).Msg(msg) }
func (l *ZerologLogger) Error(msg string, args ...any) { l.logger.Error().Fields(args).Msg(msg) }

// With creates a child logger with additional key-value pairs.
func (l *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{logger: l.logger.With().Fields(args).Logger()}
}

// WithContext tags entries with the unit stored in ctx, if any.
func (l *ZerologLogger) WithContext(ctx context.Context) Logger {
	if unit := UnitFromContext(ctx); unit != "" {
		return l.With("unit", unit)
	}
	return l
}
