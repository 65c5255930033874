package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/rs/zerolog"

	"github.com/nimburion/invigilate/pkg/invigilate"
	"github.com/nimburion/invigilate/pkg/loggers"
	"github.com/nimburion/invigilate/pkg/observability/logger"
)

// Runtime is the logger registry and context cache built from a Config.
type Runtime struct {
	Loggers *loggers.Registry
	Units   *invigilate.Registry

	closers []func() error
}

// Build creates the registries described by cfg. The default logger writes
// to out, or to os.Stderr when out is nil. opts are applied to the context
// cache after the configured ones. Close the Runtime to flush buffered
// output.
func Build(cfg *Config, out io.Writer, opts ...invigilate.Option) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if out == nil {
		out = os.Stderr
	}

	rt := &Runtime{}
	def, diag, err := rt.defaultLogger(cfg, out)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	methods := loggers.BaseMethods()
	methods = append(methods, loggers.ParseMethods(cfg.Loggers.ExtraMethods)...)
	rt.Loggers = loggers.NewRegistry(
		loggers.WithMethods(methods...),
		loggers.WithDefault(def),
	)

	registryOpts := []invigilate.Option{invigilate.WithLoggers(rt.Loggers)}
	if cfg.Loggers.Diagnostics && diag != nil {
		registryOpts = append(registryOpts, invigilate.WithDiagnostics(diag))
	}
	rt.Units = invigilate.New(append(registryOpts, opts...)...)
	rt.Units.SetMaxDepthValue(cfg.Cache.MaxDepth)

	return rt, nil
}

// Close flushes and stops the default logger backend.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// defaultLogger returns the default capability record and, for every backend
// but silent, a diagnostics logger writing through the same backend.
func (rt *Runtime) defaultLogger(cfg *Config, out io.Writer) (*loggers.Logger, logger.Logger, error) {
	level, err := logger.ParseLogLevel(cfg.Loggers.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logger.ParseLogFormat(cfg.Loggers.Format)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Loggers.Default {
	case BackendSilent, "":
		return nil, nil, nil

	case BackendZap:
		zl, err := logger.NewZapLogger(logger.Config{Level: level, Format: format, Output: out})
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, func() error {
			// syncing a terminal fails on some platforms
			_ = zl.Sync()
			return nil
		})
		diag := zl.With("component", "invigilate")
		if !cfg.Loggers.Async.Enabled {
			return loggers.FromZap(BackendZap, zl.Zap()), diag, nil
		}
		async := logger.WrapAsync(zl, cfg.Loggers.Async)
		if a, ok := async.(*logger.AsyncLogger); ok {
			rt.closers = append(rt.closers, func() error {
				a.Close()
				return nil
			})
		}
		return loggers.FromStructured(BackendZap, async), diag, nil

	case BackendHCLog:
		hl := hclog.New(&hclog.LoggerOptions{
			Name:       "invigilate",
			Level:      hclog.LevelFromString(string(level)),
			Output:     out,
			JSONFormat: format == logger.JSONFormat,
		})
		return loggers.FromHCLog(BackendHCLog, hl), logger.NewHCLogLogger(hl).With("component", "invigilate"), nil

	case BackendZerolog:
		zlevel, err := zerolog.ParseLevel(string(level))
		if err != nil {
			return nil, nil, err
		}
		w := out
		if format == logger.TextFormat {
			w = zerolog.ConsoleWriter{Out: out, NoColor: true}
		}
		zl := zerolog.New(w).Level(zlevel).With().Timestamp().Logger()
		return loggers.FromZerolog(BackendZerolog, zl), logger.NewZerologLogger(zl).With("component", "invigilate"), nil

	default:
		return nil, nil, fmt.Errorf("unknown logger backend %q", cfg.Loggers.Default)
	}
}
