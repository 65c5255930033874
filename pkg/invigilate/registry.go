package invigilate

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/spf13/cast"

	"github.com/nimburion/invigilate/pkg/loggers"
	"github.com/nimburion/invigilate/pkg/observability/logger"
)

// DefaultMaxDepth is the number of units inspected when looking for a
// registered ancestor, the unit itself included.
const DefaultMaxDepth = 20

// ID identifies a unit. Only equality is meaningful; the empty ID is invalid.
type ID string

// ParentFunc returns the parent of a unit, or ok=false for a unit without
// one. The registry calls it while walking upward and never stores the chain.
// It is called with the registry locked and must not call back into it.
type ParentFunc func(id ID) (parent ID, ok bool)

// ParentMap is a ParentFunc backed by a child-to-parent map.
type ParentMap map[ID]ID

// Parent implements ParentFunc.
func (m ParentMap) Parent(id ID) (ID, bool) {
	parent, ok := m[id]
	return parent, ok && parent != ""
}

// Registry is the context cache: it owns every Context, keyed by unit id,
// for its whole lifetime.
type Registry struct {
	loggers  *loggers.Registry
	observer Observer
	log      logger.Logger

	mu       sync.RWMutex
	contexts map[ID]*Context
	maxDepth int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoggers sets the logger registry supplying default and silent loggers.
func WithLoggers(l *loggers.Registry) Option {
	return func(r *Registry) {
		if l != nil {
			r.loggers = l
		}
	}
}

// WithMaxDepth sets the initial ancestor search depth. Negative values are
// clamped to zero.
func WithMaxDepth(n int) Option {
	return func(r *Registry) {
		r.maxDepth = max(n, 0)
	}
}

// WithObserver installs an Observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithDiagnostics sets the logger used for the registry's own debug output.
func WithDiagnostics(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		observer: NopObserver{},
		log:      logger.Nop(),
		contexts: make(map[ID]*Context),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loggers == nil {
		r.loggers = loggers.NewRegistry()
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, created on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// Register registers id on the process-wide registry.
func Register(id ID, parents ParentFunc) (*Context, error) {
	return Default().Register(id, parents)
}

// MustRegister is like Register but panics on error. It is meant for
// package-level variable initialization.
func MustRegister(id ID, parents ParentFunc) *Context {
	return Default().MustRegister(id, parents)
}

// Loggers returns the logger registry backing this registry.
func (r *Registry) Loggers() *loggers.Registry {
	return r.loggers
}

// Register returns the context for id, creating it on first use. A new
// context is linked under the nearest registered ancestor reachable through
// parents within MaxDepth steps and starts with that ancestor's logger.
// Registering an existing id returns the existing context untouched.
// A nil parents function means the unit has no parent.
func (r *Registry) Register(id ID, parents ParentFunc) (*Context, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidUnit)
	}

	r.mu.Lock()
	if existing, ok := r.contexts[id]; ok {
		r.mu.Unlock()
		return existing, nil
	}

	// id is not cached yet, so the walk can only succeed from its parent
	// upward while id still counts as the first inspected step.
	ancestor := r.lookupLocked(id, parents)
	c := newContext(r, id)
	r.contexts[id] = c

	var parentID ID
	if ancestor != nil {
		parentID = ancestor.id
		r.addChildLocked(ancestor, c)
	}
	r.mu.Unlock()

	r.unitLog(id).Debug("registered unit", "parent", string(parentID), "linked", ancestor != nil)
	r.observer.Registered(id, parentID, ancestor != nil)
	return c, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id ID, parents ParentFunc) *Context {
	c, err := r.Register(id, parents)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup walks from id up its parent chain and returns the first registered
// context. The walk inspects at most MaxDepth units (always at least id
// itself) and stops early at a unit without parent.
func (r *Registry) Lookup(id ID, parents ParentFunc) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.lookupLocked(id, parents)
	return c, c != nil
}

func (r *Registry) lookupLocked(id ID, parents ParentFunc) *Context {
	remaining := max(r.maxDepth, 1)
	current := id
	for {
		if c, ok := r.contexts[current]; ok {
			return c
		}
		remaining--
		if remaining == 0 || parents == nil {
			return nil
		}
		next, ok := parents(current)
		if !ok || next == "" {
			return nil
		}
		current = next
	}
}

// Get returns the context registered for id.
func (r *Registry) Get(id ID) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contexts[id]
	return c, ok
}

// Keys returns a sorted snapshot of the registered unit ids.
func (r *Registry) Keys() []ID {
	r.mu.RLock()
	keys := make([]ID, 0, len(r.contexts))
	for id := range r.contexts {
		keys = append(keys, id)
	}
	r.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// MaxDepth returns the current ancestor search depth.
func (r *Registry) MaxDepth() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxDepth
}

// SetMaxDepth changes the ancestor search depth for future registrations.
// Negative values are clamped to zero, which limits lookups to the unit
// itself. Already linked contexts are not affected.
func (r *Registry) SetMaxDepth(n int) {
	r.mu.Lock()
	r.maxDepth = max(n, 0)
	r.mu.Unlock()
}

// SetMaxDepthValue is SetMaxDepth for untyped input such as configuration
// values or flags. Nil and anything that does not convert to an integer are
// ignored and the current depth is kept.
func (r *Registry) SetMaxDepthValue(v any) {
	if v == nil {
		return
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		r.log.Debug("ignoring invalid max depth", "value", v, "error", err)
		return
	}
	r.SetMaxDepth(n)
}

// addChildLocked links child under parent and hands it the parent's
// effective logger. The default logger is read under r.mu so that the whole
// link sees one default.
func (r *Registry) addChildLocked(parent, child *Context) {
	def := r.loggers.Default()
	child.parent = parent.id
	child.hasParent = true
	r.assignLocked(child, parent.effective(def), def)
	parent.children = append(parent.children, child.id)
}

// unitLog returns the diagnostics logger tagged with the unit id.
func (r *Registry) unitLog(id ID) logger.Logger {
	return r.log.WithContext(logger.ContextWithUnit(context.Background(), string(id)))
}

// assignLocked gives c the logger v (nil meaning inherit) and pushes v to
// every child still tracking c's current logger or the default logger.
// def is the default logger observed when the cascade started.
func (r *Registry) assignLocked(c *Context, v, def *loggers.Logger) int {
	current := c.effective(def)
	updated := 1
	for _, childID := range c.children {
		child := r.contexts[childID]
		if eff := child.effective(def); eff == current || eff == def {
			updated += r.assignLocked(child, v, def)
		}
	}
	c.override = v
	return updated
}

// Node is a point-in-time view of one context.
type Node struct {
	ID         ID
	Parent     ID
	Children   []ID
	Logger     string
	Overridden bool
}

// Walk visits the context registered for id and then its descendants depth
// first, children in link order. depth is 0 for id itself. The nodes are
// collected under a read lock and fn runs after it is released, so fn may
// call back into the registry. Walk reports whether id is registered.
func (r *Registry) Walk(id ID, fn func(n Node, depth int)) bool {
	type visit struct {
		node  Node
		depth int
	}

	r.mu.RLock()
	start, ok := r.contexts[id]
	if !ok {
		r.mu.RUnlock()
		return false
	}
	def := r.loggers.Default()
	var visits []visit
	var collect func(c *Context, depth int)
	collect = func(c *Context, depth int) {
		visits = append(visits, visit{node: c.node(def), depth: depth})
		for _, childID := range c.children {
			collect(r.contexts[childID], depth+1)
		}
	}
	collect(start, 0)
	r.mu.RUnlock()

	for _, v := range visits {
		fn(v.node, v.depth)
	}
	return true
}

// Snapshot returns a view of every context sorted by id.
func (r *Registry) Snapshot() []Node {
	r.mu.RLock()
	def := r.loggers.Default()
	nodes := make([]Node, 0, len(r.contexts))
	for _, c := range r.contexts {
		nodes = append(nodes, c.node(def))
	}
	r.mu.RUnlock()

	slices.SortFunc(nodes, func(a, b Node) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return nodes
}

// node must be called with r.mu held.
func (c *Context) node(def *loggers.Logger) Node {
	return Node{
		ID:         c.id,
		Parent:     c.parent,
		Children:   slices.Clone(c.children),
		Logger:     c.effective(def).Name(),
		Overridden: c.override != nil,
	}
}
