package ctxrequire

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
	"github.com/GriffinCanCode/ctxrequire/pkg/vm"
)

var (
	// ErrMissingDir is returned when Options.Dir is empty.
	ErrMissingDir = errors.New("ctxrequire: directory is required")
	// ErrEmptyResolution is returned when a custom resolver yields an empty path.
	ErrEmptyResolution = errors.New("ctxrequire: resolver returned an empty path")
)

// Resolver maps a request made from fromDir to a resolved path. Results
// are memoized per sandbox, so Resolve must be deterministic and free of
// side effects for a given (fromDir, request).
type Resolver interface {
	Resolve(fromDir, request string) (string, error)
}

// ModuleResolver is a Resolver that also wants the requesting module.
type ModuleResolver interface {
	Resolver
	ResolveFrom(fromDir, request string, requester *module.Module) (string, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(fromDir, request string) (string, error)

// Resolve calls f(fromDir, request)
func (f ResolverFunc) Resolve(fromDir, request string) (string, error) {
	return f(fromDir, request)
}

// Options configures a sandboxed require function
type Options struct {
	Dir       string                             // Base directory of the synthetic root module
	Sandbox   interface{}                        // *vm.Context, *vm.Globals, vm.ScriptRunner or vm.ContextExposer
	Resolver  Resolver                           // Optional custom resolution
	Compilers map[string]module.ExtensionHandler // Optional handlers keyed by extension with leading dot

	Loader *module.Loader // Defaults to module.Default()
	Parent *module.Module // Attaches the root below an existing module
	Logger *zap.Logger
}

var nextID atomic.Uint64

// Record is a sandbox root: the sandbox binding plus the caches and
// overrides shared by every module it governs.
type Record struct {
	id        uint64
	root      *module.Module
	binding   *vm.Binding
	resolver  Resolver
	compilers map[string]module.ExtensionHandler
	logger    *zap.Logger

	cache        module.Cache
	resolveCache map[string]string
}

// ID returns the record's process-unique number
func (r *Record) ID() uint64 {
	return r.id
}

// Module returns the synthetic root module
func (r *Record) Module() *module.Module {
	return r.root
}

// Cache returns the record's module cache
func (r *Record) Cache() module.Cache {
	return r.cache
}

// Binding returns the bound sandbox
func (r *Record) Binding() *vm.Binding {
	return r.binding
}

// Runtime returns the runtime governed modules run in
func (r *Record) Runtime() *goja.Runtime {
	return r.binding.Runtime()
}

func (r *Record) resolve(dir, request string, requester *module.Module) (string, error) {
	if mr, ok := r.resolver.(ModuleResolver); ok {
		return mr.ResolveFrom(dir, request, requester)
	}
	return r.resolver.Resolve(dir, request)
}

// Owner returns the record governing m: the nearest sandbox root among m
// and its ancestors, or nil.
func Owner(m *module.Module) *Record {
	for cur := m; cur != nil; cur = cur.Parent() {
		if cur.Kind() != module.KindSandboxRoot {
			continue
		}
		if rec, ok := cur.Attachment().(*Record); ok {
			return rec
		}
	}
	return nil
}

// New creates a sandbox root in opts.Dir and returns a require function
// bound to it. A *vm.Globals sandbox is contextified in place.
func New(opts Options) (*Require, error) {
	if opts.Dir == "" {
		return nil, ErrMissingDir
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("ctxrequire: invalid directory %q: %w", opts.Dir, err)
	}

	binding, err := vm.Bind(opts.Sandbox)
	if err != nil {
		return nil, err
	}

	loader := opts.Loader
	if loader == nil {
		loader = module.Default()
	}
	h, err := install(loader)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := nextID.Add(1) - 1
	rec := &Record{
		id:           id,
		binding:      binding,
		resolver:     opts.Resolver,
		compilers:    opts.Compilers,
		logger:       logger,
		cache:        module.Cache{},
		resolveCache: map[string]string{},
	}
	filename := filepath.Join(dir, fmt.Sprintf("index.%d.ctx", id))
	rec.root = loader.NewRoot(filename, opts.Parent, rec, binding.Runtime())

	h.metrics.RecordSandboxCreated()
	logger.Debug("sandbox created",
		zap.Uint64("id", id),
		zap.String("root", filename),
		zap.Stringer("sandbox", binding.Kind()),
	)

	return newRequire(rec.root, rec, loader), nil
}

// MustNew is like New but panics on error
func MustNew(opts Options) *Require {
	req, err := New(opts)
	if err != nil {
		panic(err)
	}
	return req
}
