package logger

import (
	"context"
	"sync"
	"sync/atomic"
)

// AsyncConfig configures the async logger wrapper.
type AsyncConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	QueueSize    int  `mapstructure:"queue_size"`
	WorkerCount  int  `mapstructure:"worker_count"`
	DropWhenFull bool `mapstructure:"drop_when_full"`
}

type emitFunc func(msg string, args ...any)

type asyncEntry struct {
	emit emitFunc
	msg  string
	args []any
}

type asyncDispatcher struct {
	entries      chan asyncEntry
	dropWhenFull bool
	dropped      atomic.Uint64
	wg           sync.WaitGroup
	stopOnce     sync.Once

	// mu orders sends against close; stopped is only written under mu.
	mu      sync.RWMutex
	stopped bool
}

// AsyncLogger queues log entries and writes them through worker goroutines.
// Entries logged after Close are written synchronously.
type AsyncLogger struct {
	base       Logger
	dispatcher *asyncDispatcher
}

// WrapAsync wraps a logger with async dispatch when enabled.
func WrapAsync(base Logger, cfg AsyncConfig) Logger {
	if !cfg.Enabled {
		return base
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	d := &asyncDispatcher{
		entries:      make(chan asyncEntry, queueSize),
		dropWhenFull: cfg.DropWhenFull,
	}
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for entry := range d.entries {
				entry.emit(entry.msg, entry.args...)
			}
		}()
	}

	return &AsyncLogger{base: base, dispatcher: d}
}

// Debug logs a debug-level message asynchronously.
func (l *AsyncLogger) Debug(msg string, args ...any) { l.enqueue(l.base.Debug, msg, args) }

// Info logs an info-level message asynchronously.
func (l *AsyncLogger) Info(msg string, args ...any) { l.enqueue(l.base.Info, msg, args) }

// Warn logs a warn-level message asynchronously.
func (l *AsyncLogger) Warn(msg string, args ...any) { l.enqueue(l.base.Warn, msg, args) }

// Error logs an error-level message asynchronously.
func (l *AsyncLogger) Error(msg string, args ...any) { l.enqueue(l.base.Error, msg, args) }

// With returns a new logger with additional fields sharing the same workers.
func (l *AsyncLogger) With(args ...any) Logger {
	return &AsyncLogger{base: l.base.With(args...), dispatcher: l.dispatcher}
}

// WithContext returns a new logger bound to ctx sharing the same workers.
func (l *AsyncLogger) WithContext(ctx context.Context) Logger {
	return &AsyncLogger{base: l.base.WithContext(ctx), dispatcher: l.dispatcher}
}

// Dropped returns how many entries were discarded because the queue was full.
func (l *AsyncLogger) Dropped() uint64 {
	return l.dispatcher.dropped.Load()
}

// Close drains the queue and stops async workers.
func (l *AsyncLogger) Close() {
	l.dispatcher.stop()
}

func (l *AsyncLogger) enqueue(emit emitFunc, msg string, args []any) {
	d := l.dispatcher
	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		emit(msg, args...)
		return
	}
	defer d.mu.RUnlock()

	entry := asyncEntry{emit: emit, msg: msg, args: args}
	if d.dropWhenFull {
		select {
		case d.entries <- entry:
		default:
			d.dropped.Add(1)
		}
		return
	}

	d.entries <- entry
}

func (d *asyncDispatcher) stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.entries)
		d.mu.Unlock()
		d.wg.Wait()
	})
}
