// Package loggers holds the logger capability records used by invigilate
// contexts, the silent logger and the replaceable default logger.
package loggers

import "slices"

// Func is a single logging capability. Arguments are whatever the caller
// passed to the proxy, untouched.
type Func func(args ...any) error

// Logger is a capability record: a named mapping from method name to an
// optional Func. Loggers are immutable once built and are compared by pointer.
type Logger struct {
	name    string
	methods map[Method]Func
}

// New creates a logger from a method table. Nil entries are dropped, so a
// partial logger simply lacks those methods.
func New(name string, methods map[Method]Func) *Logger {
	l := &Logger{
		name:    name,
		methods: make(map[Method]Func, len(methods)),
	}
	for m, fn := range methods {
		if fn != nil {
			l.methods[m] = fn
		}
	}
	return l
}

// Name returns the descriptive name given at construction.
func (l *Logger) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}

// Has reports whether the logger implements m.
func (l *Logger) Has(m Method) bool {
	return l.Func(m) != nil
}

// Func returns the capability for m, or nil when missing.
func (l *Logger) Func(m Method) Func {
	if l == nil {
		return nil
	}
	return l.methods[m]
}

// Methods returns the implemented method names in the order of set,
// followed by any method outside set sorted by name.
func (l *Logger) Methods(set []Method) []Method {
	if l == nil {
		return nil
	}
	out := make([]Method, 0, len(l.methods))
	known := make(map[Method]struct{}, len(set))
	for _, m := range set {
		known[m] = struct{}{}
		if l.Has(m) {
			out = append(out, m)
		}
	}
	var extra []Method
	for m := range l.methods {
		if _, ok := known[m]; !ok {
			extra = append(extra, m)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Builder assembles a Logger one method at a time.
type Builder struct {
	name    string
	methods map[Method]Func
}

// NewBuilder starts a logger with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, methods: make(map[Method]Func)}
}

// With sets the capability for m. A nil fn removes it.
func (b *Builder) With(m Method, fn Func) *Builder {
	if fn == nil {
		delete(b.methods, m)
		return b
	}
	b.methods[m] = fn
	return b
}

// WithAll uses fn for every method in set.
func (b *Builder) WithAll(set []Method, fn Func) *Builder {
	for _, m := range set {
		b.With(m, fn)
	}
	return b
}

// Build returns the immutable Logger.
func (b *Builder) Build() *Logger {
	return New(b.name, b.methods)
}

// Silent builds a logger where every method in set does nothing.
func Silent(set []Method) *Logger {
	return NewBuilder("silent").WithAll(set, noop).Build()
}

func noop(...any) error { return nil }
