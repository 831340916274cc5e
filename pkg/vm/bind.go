package vm

import (
	"fmt"

	"github.com/dop251/goja"
)

// Globals is a plain sandbox object: a set of global values that becomes a
// native Context when passed to CreateContext.
type Globals struct {
	values map[string]interface{}
	ctx    *Context
}

// NewGlobals creates an uncontextified sandbox from initial global values
func NewGlobals(values map[string]interface{}) *Globals {
	if values == nil {
		values = map[string]interface{}{}
	}
	return &Globals{values: values}
}

// Context returns the context the globals were turned into, or nil
func (g *Globals) Context() *Context {
	return g.ctx
}

// Get reads a global. After contextification reads go through the context,
// so writes made by scripts are visible.
func (g *Globals) Get(name string) interface{} {
	if g.ctx != nil {
		v := g.ctx.Get(name)
		if v == nil {
			return nil
		}
		return v.Export()
	}
	return g.values[name]
}

// CreateContext turns g into a native execution context in place and
// returns that context. Calling it again returns the existing context.
func CreateContext(g *Globals, config ...Config) (*Context, error) {
	if g.ctx != nil {
		return g.ctx, nil
	}

	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	ctx := New(cfg)
	for name, value := range g.values {
		if err := ctx.Set(name, value); err != nil {
			return nil, fmt.Errorf("failed to set global %q: %w", name, err)
		}
	}

	g.ctx = ctx
	return ctx, nil
}

// IsContext reports whether sandbox is a native execution context
func IsContext(sandbox interface{}) bool {
	switch s := sandbox.(type) {
	case *Context:
		return s != nil
	case *Globals:
		return s != nil && s.ctx != nil
	default:
		return false
	}
}

// Binding runs scripts against a sandbox through the capability it was bound with
type Binding struct {
	kind    Kind
	native  *Context
	runner  ScriptRunner
	exposer ContextExposer
}

// Bind probes sandbox for a supported shape: ScriptRunner, then
// ContextExposer, then native context. An uncontextified *Globals is
// contextified in place.
func Bind(sandbox interface{}) (*Binding, error) {
	switch s := sandbox.(type) {
	case ScriptRunner:
		return &Binding{kind: KindScriptRunner, runner: s}, nil
	case ContextExposer:
		if s.InternalContext() == nil {
			return nil, fmt.Errorf("%w: exposed context is nil", ErrInvalidSandbox)
		}
		return &Binding{kind: KindContextExposer, exposer: s}, nil
	case *Context:
		if s == nil {
			break
		}
		return &Binding{kind: KindNative, native: s}, nil
	case *Globals:
		if s == nil {
			break
		}
		ctx, err := CreateContext(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSandbox, err)
		}
		return &Binding{kind: KindNative, native: ctx}, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidSandbox, sandbox)
}

// Kind returns the capability the sandbox was bound through
func (b *Binding) Kind() Kind {
	return b.kind
}

// Runtime returns the goja runtime scripts run in
func (b *Binding) Runtime() *goja.Runtime {
	switch b.kind {
	case KindScriptRunner:
		return b.runner.Runtime()
	case KindContextExposer:
		return b.exposer.InternalContext().Runtime()
	default:
		return b.native.Runtime()
	}
}

// Run executes s inside the sandbox
func (b *Binding) Run(s *Script) (goja.Value, error) {
	switch b.kind {
	case KindScriptRunner:
		return b.runner.RunScript(s)
	case KindContextExposer:
		return b.exposer.InternalContext().Run(s)
	default:
		return b.native.Run(s)
	}
}
