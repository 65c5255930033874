package invigilate

import (
	"slices"

	"github.com/nimburion/invigilate/pkg/loggers"
)

// Context is the logging state of one registered unit. Contexts are created
// by Registry.Register and live as long as their registry. Parent and child
// links are unit ids resolved through the registry.
type Context struct {
	registry *Registry
	id       ID
	proxy    *Proxy

	// guarded by registry.mu
	parent    ID
	hasParent bool
	children  []ID
	override  *loggers.Logger
}

func newContext(r *Registry, id ID) *Context {
	c := &Context{registry: r, id: id}
	c.proxy = &Proxy{ctx: c}
	return c
}

// ID returns the unit id.
func (c *Context) ID() ID {
	return c.id
}

// Proxy returns the logging façade bound to this context.
func (c *Context) Proxy() *Proxy {
	return c.proxy
}

// Parent returns the id of the parent context, if the unit was linked to one.
func (c *Context) Parent() (ID, bool) {
	c.registry.mu.RLock()
	defer c.registry.mu.RUnlock()
	return c.parent, c.hasParent
}

// Children returns the ids of the directly linked children in link order.
func (c *Context) Children() []ID {
	c.registry.mu.RLock()
	defer c.registry.mu.RUnlock()
	return slices.Clone(c.children)
}

// Logger returns the effective logger: the override when set, otherwise the
// registry default. It is never nil.
func (c *Context) Logger() *loggers.Logger {
	c.registry.mu.RLock()
	defer c.registry.mu.RUnlock()
	return c.effective(c.registry.loggers.Default())
}

// Override returns the logger explicitly held by this context, if any.
func (c *Context) Override() (*loggers.Logger, bool) {
	c.registry.mu.RLock()
	defer c.registry.mu.RUnlock()
	return c.override, c.override != nil
}

// SetLogger assigns l to this context and to every descendant that is still
// tracking this context's logger or the default logger. Descendants holding
// a logger of their own are left alone. A nil l is the same as Detach.
func (c *Context) SetLogger(l *loggers.Logger) {
	c.assign(l, false)
}

// Detach drops this context's logger so it uses the default logger. The
// change cascades like SetLogger. Detach does not re-link to the parent's
// logger; use Reset for that.
func (c *Context) Detach() {
	c.assign(nil, false)
}

// Reset re-synchronizes this context with its parent: it takes the parent's
// effective logger, so a parent on the default logger hands over the current
// default as an override. A context without parent inherits the default
// logger again. The change cascades like SetLogger.
func (c *Context) Reset() {
	c.assign(nil, true)
}

func (c *Context) assign(l *loggers.Logger, fromParent bool) {
	r := c.registry

	r.mu.Lock()
	def := r.loggers.Default()
	if fromParent {
		l = nil
		if c.hasParent {
			l = r.contexts[c.parent].effective(def)
		}
	}
	updated := r.assignLocked(c, l, def)
	r.mu.Unlock()

	r.unitLog(c.id).Debug("assigned logger", "logger", l.Name(), "reset", fromParent, "updated", updated)
	r.observer.Cascaded(c.id, updated)
}

func (c *Context) effective(def *loggers.Logger) *loggers.Logger {
	if c.override != nil {
		return c.override
	}
	return def
}
