package loggers

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/nimburion/invigilate/pkg/observability/logger"
)

// The adapters below read the first argument as the message and the rest as
// key/value pairs. Methods a backend cannot express without side effects
// (fatal exiting the process, for instance) are mapped to the nearest level
// that only writes, or left out so the proxy falls back.

// FromStructured adapts a structured logger.Logger. It provides log, debug,
// info, warn and error; fatal, silly and verbose are left to the fallback chain.
func FromStructured(name string, l logger.Logger) *Logger {
	if l == nil {
		return nil
	}
	return NewBuilder(name).
		With(MethodLog, kv(l.Info)).
		With(MethodDebug, kv(l.Debug)).
		With(MethodInfo, kv(l.Info)).
		With(MethodWarn, kv(l.Warn)).
		With(MethodError, kv(l.Error)).
		Build()
}

// FromZap adapts a zap logger. Fatal entries are written at error level with
// severity=fatal; zap's own fatal level would terminate the process.
func FromZap(name string, l *zap.Logger) *Logger {
	if l == nil {
		return nil
	}
	sugar := l.Sugar()
	return NewBuilder(name).
		With(MethodLog, kv(sugar.Infow)).
		With(MethodDebug, kv(sugar.Debugw)).
		With(MethodInfo, kv(sugar.Infow)).
		With(MethodWarn, kv(sugar.Warnw)).
		With(MethodError, kv(sugar.Errorw)).
		With(MethodFatal, kv(sugar.With("severity", "fatal").Errorw)).
		Build()
}

// FromHCLog adapts an hclog logger. Silly and verbose map to trace.
func FromHCLog(name string, l hclog.Logger) *Logger {
	if l == nil {
		return nil
	}
	return NewBuilder(name).
		With(MethodLog, kv(l.Info)).
		With(MethodSilly, kv(l.Trace)).
		With(MethodVerbose, kv(l.Trace)).
		With(MethodDebug, kv(l.Debug)).
		With(MethodInfo, kv(l.Info)).
		With(MethodWarn, kv(l.Warn)).
		With(MethodError, kv(l.Error)).
		With(MethodFatal, kv(l.With("severity", "fatal").Error)).
		Build()
}

// FromZerolog adapts a zerolog logger. Fatal uses WithLevel, which records
// the fatal level without exiting.
func FromZerolog(name string, l zerolog.Logger) *Logger {
	event := func(start func() *zerolog.Event) Func {
		return func(args ...any) error {
			msg, fields := splitArgs(args)
			e := start()
			if len(fields) > 0 {
				e = e.Fields(fields)
			}
			e.Msg(msg)
			return nil
		}
	}
	return NewBuilder(name).
		With(MethodLog, event(l.Log)).
		With(MethodSilly, event(l.Trace)).
		With(MethodVerbose, event(l.Trace)).
		With(MethodDebug, event(l.Debug)).
		With(MethodInfo, event(l.Info)).
		With(MethodWarn, event(l.Warn)).
		With(MethodError, event(l.Error)).
		With(MethodFatal, event(func() *zerolog.Event { return l.WithLevel(zerolog.FatalLevel) })).
		Build()
}

func kv(emit func(msg string, keysAndValues ...any)) Func {
	return func(args ...any) error {
		msg, fields := splitArgs(args)
		emit(msg, fields...)
		return nil
	}
}

func splitArgs(args []any) (string, []any) {
	if len(args) == 0 {
		return "", nil
	}
	msg, ok := args[0].(string)
	if !ok {
		msg = fmt.Sprint(args[0])
	}
	return msg, args[1:]
}
