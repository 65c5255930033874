package loggers

import "sync"

// Registry holds the recognized method names, the silent logger and the
// replaceable default logger. It is safe for concurrent use.
type Registry struct {
	methods []Method
	silent  *Logger

	mu  sync.RWMutex
	def *Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMethods replaces the recognized method set. Order is kept, duplicates
// and empty names are dropped. An empty list keeps the base set.
func WithMethods(methods ...Method) Option {
	return func(r *Registry) {
		if normalized := normalizeMethods(methods); len(normalized) > 0 {
			r.methods = normalized
		}
	}
}

// WithDefault sets the initial default logger.
func WithDefault(l *Logger) Option {
	return func(r *Registry) {
		r.def = l
	}
}

// NewRegistry creates a registry whose default logger is the silent logger
// unless WithDefault says otherwise.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{methods: BaseMethods()}
	for _, opt := range opts {
		opt(r)
	}
	r.silent = Silent(r.methods)
	if r.def == nil {
		r.def = r.silent
	}
	return r
}

// Default returns the current default logger. It is never nil.
func (r *Registry) Default() *Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// SetDefault replaces the default logger. A nil logger restores the silent
// logger. Partial loggers are accepted as they are.
func (r *Registry) SetDefault(l *Logger) {
	if l == nil {
		l = r.silent
	}
	r.mu.Lock()
	r.def = l
	r.mu.Unlock()
}

// Silent returns the registry's silent logger.
func (r *Registry) Silent() *Logger {
	return r.silent
}

// Methods returns a copy of the recognized method names in order.
func (r *Registry) Methods() []Method {
	out := make([]Method, len(r.methods))
	copy(out, r.methods)
	return out
}

// Recognizes reports whether m belongs to the recognized set.
func (r *Registry) Recognizes(m Method) bool {
	for _, known := range r.methods {
		if known == m {
			return true
		}
	}
	return false
}
