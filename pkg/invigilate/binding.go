package invigilate

import "github.com/nimburion/invigilate/pkg/loggers"

// BindOptions customizes a Binding. Get transforms the logger on the way
// out, Set on the way in; either may be nil.
type BindOptions struct {
	Get func(*loggers.Logger) *loggers.Logger
	Set func(*loggers.Logger) *loggers.Logger
}

// Binding exposes a context's logger as an accessor pair, so a host type can
// offer a settable logger field backed by the context tree.
//
//	type Client struct {
//		Logger *invigilate.Binding
//	}
type Binding struct {
	ctx  *Context
	opts BindOptions
}

// Bind creates a Binding for ctx.
func Bind(ctx *Context, opts BindOptions) *Binding {
	return &Binding{ctx: ctx, opts: opts}
}

// Context returns the bound context.
func (b *Binding) Context() *Context {
	return b.ctx
}

// Get returns the context's effective logger, passed through the Get
// transform when one is configured.
func (b *Binding) Get() *loggers.Logger {
	l := b.ctx.Logger()
	if b.opts.Get != nil {
		return b.opts.Get(l)
	}
	return l
}

// Set assigns l, passed through the Set transform when one is configured.
// A nil result detaches the context.
func (b *Binding) Set(l *loggers.Logger) {
	if b.opts.Set != nil {
		l = b.opts.Set(l)
	}
	b.ctx.SetLogger(l)
}

// Reset re-synchronizes the context with its parent.
func (b *Binding) Reset() {
	b.ctx.Reset()
}
