package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nimburion/invigilate/pkg/observability/logger"
)

var validBackends = []string{BackendSilent, BackendZap, BackendHCLog, BackendZerolog}

// Validate checks if the configuration is valid and returns every problem
// found.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(validBackends, c.Loggers.Default) {
		errs = append(errs, fmt.Errorf("invalid loggers.default: %q (must be one of: %v)", c.Loggers.Default, validBackends))
	}
	if _, err := logger.ParseLogLevel(c.Loggers.Level); err != nil {
		errs = append(errs, fmt.Errorf("loggers.level: %w", err))
	}
	if _, err := logger.ParseLogFormat(c.Loggers.Format); err != nil {
		errs = append(errs, fmt.Errorf("loggers.format: %w", err))
	}
	for i, name := range c.Loggers.ExtraMethods {
		if strings.ContainsFunc(name, isSpaceOrComma) {
			errs = append(errs, fmt.Errorf("loggers.extra_methods[%d]: invalid method name %q", i, name))
		}
	}
	if c.Loggers.Async.QueueSize < 0 {
		errs = append(errs, errors.New("loggers.async.queue_size must not be negative"))
	}
	if c.Loggers.Async.WorkerCount < 0 {
		errs = append(errs, errors.New("loggers.async.worker_count must not be negative"))
	}

	return errors.Join(errs...)
}

func isSpaceOrComma(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\n'
}
