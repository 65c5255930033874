package invigilate

import (
	"fmt"

	"github.com/nimburion/invigilate/pkg/loggers"
)

// Proxy is the logging façade of a context. Each call looks the method up on
// the context's effective logger, then on the default logger, then on the
// silent logger, and invokes the first one that has it. Arguments and the
// returned error pass through untouched; panics are not recovered.
//
// A Proxy is created with its context and never changes.
type Proxy struct {
	ctx *Context
}

// Context returns the context the proxy resolves loggers from.
func (p *Proxy) Context() *Context {
	return p.ctx
}

// Methods returns the method names the proxy answers to.
func (p *Proxy) Methods() []loggers.Method {
	return p.ctx.registry.loggers.Methods()
}

// Call invokes method m. It returns ErrUnknownMethod when m is not one of
// the registry's recognized methods; otherwise it returns whatever the
// selected logger returns.
func (p *Proxy) Call(m loggers.Method, args ...any) error {
	fn, tier, ok := p.resolve(m)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, m)
	}
	p.ctx.registry.observer.Dispatched(m, tier)
	return fn(args...)
}

// Log calls the "log" method.
func (p *Proxy) Log(args ...any) error { return p.Call(loggers.MethodLog, args...) }

// Debug calls the "debug" method.
func (p *Proxy) Debug(args ...any) error { return p.Call(loggers.MethodDebug, args...) }

// Info calls the "info" method.
func (p *Proxy) Info(args ...any) error { return p.Call(loggers.MethodInfo, args...) }

// Warn calls the "warn" method.
func (p *Proxy) Warn(args ...any) error { return p.Call(loggers.MethodWarn, args...) }

// Error calls the "error" method.
func (p *Proxy) Error(args ...any) error { return p.Call(loggers.MethodError, args...) }

// Fatal calls the "fatal" method. It does not stop the process.
func (p *Proxy) Fatal(args ...any) error { return p.Call(loggers.MethodFatal, args...) }

// Silly calls the "silly" method, which only registries built with the
// extended method set recognize.
func (p *Proxy) Silly(args ...any) error { return p.Call(loggers.MethodSilly, args...) }

// Verbose calls the "verbose" method, which only registries built with the
// extended method set recognize.
func (p *Proxy) Verbose(args ...any) error { return p.Call(loggers.MethodVerbose, args...) }

// resolve picks the Func for m without holding any lock while it runs, so
// loggers are free to log or reassign loggers themselves.
func (p *Proxy) resolve(m loggers.Method) (loggers.Func, Tier, bool) {
	reg := p.ctx.registry.loggers
	if !reg.Recognizes(m) {
		return nil, 0, false
	}

	def := reg.Default()
	candidates := [...]*loggers.Logger{p.ctx.Logger(), def, reg.Silent()}
	for i, candidate := range candidates {
		fn := candidate.Func(m)
		if fn == nil {
			continue
		}
		tier := Tier(i)
		if tier == TierInstance && candidate == def {
			tier = TierDefault
		}
		return fn, tier, true
	}
	// not reached: the silent logger implements every recognized method
	return func(...any) error { return nil }, TierSilent, true
}
