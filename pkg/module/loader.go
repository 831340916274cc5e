package module

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ctxrequire/pkg/vm"
)

// ErrInterceptorInstalled is returned when a second interceptor is installed on a loader.
var ErrInterceptorInstalled = errors.New("loader already has an interceptor installed")

// ExtensionHandler loads filename into m, setting its exports
type ExtensionHandler func(m *Module, filename string) error

// Interceptor receives every dispatch of a Loader. Implementations fall
// back to the Loader's Default* methods for loads they do not handle.
type Interceptor interface {
	Resolve(request string, parent *Module) (string, error)
	Load(request string, parent *Module, isMain bool) (*Module, error)
	LoadModule(m *Module, filename string) error
	Compile(m *Module, content, filename string) error
}

// Config defines loader configuration
type Config struct {
	Logger *zap.Logger
	Global *vm.Context // Context for ungoverned modules; created when nil
}

// Loader is a CommonJS module system
type Loader struct {
	logger *zap.Logger
	global *vm.Context

	cache      Cache
	extensions map[string]ExtensionHandler
	extOrder   []string

	builtins     map[string]BuiltinFunc
	builtinCache map[string]*Module // instances in the global runtime

	interceptor Interceptor
	main        *Module
}

var (
	defaultLoader *Loader
	once          sync.Once
)

// Default returns the process-wide loader
func Default() *Loader {
	once.Do(func() {
		defaultLoader = New(Config{})
	})
	return defaultLoader
}

// New creates a loader with the .js and .json handlers and the path builtin
func New(cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	global := cfg.Global
	if global == nil {
		global = vm.New(vm.Config{EnableConsole: true, Logger: logger})
	}
	_ = global.Set("global", global.Runtime().GlobalObject())

	l := &Loader{
		logger:       logger,
		global:       global,
		cache:        Cache{},
		extensions:   map[string]ExtensionHandler{},
		builtins:     map[string]BuiltinFunc{},
		builtinCache: map[string]*Module{},
	}

	l.RegisterExtension(".js", l.loadJS)
	l.RegisterExtension(".json", loadJSON)
	l.RegisterBuiltin("path", pathModule)

	return l
}

// Install sets the loader's interceptor. Installing the same interceptor
// again is a no-op.
func (l *Loader) Install(i Interceptor) error {
	if l.interceptor != nil && l.interceptor != i {
		return ErrInterceptorInstalled
	}
	l.interceptor = i
	return nil
}

// Interceptor returns the installed interceptor, or nil
func (l *Loader) Interceptor() Interceptor {
	return l.interceptor
}

// Logger returns the loader's logger
func (l *Loader) Logger() *zap.Logger {
	return l.logger
}

// Global returns the context ungoverned modules run in
func (l *Loader) Global() *vm.Context {
	return l.global
}

// Main returns the module loaded as program entry, or nil
func (l *Loader) Main() *Module {
	return l.main
}

// Cache returns the active module cache
func (l *Loader) Cache() Cache {
	return l.cache
}

// SwapCache makes c the active cache until restore is called
func (l *Loader) SwapCache(c Cache) (restore func()) {
	prev := l.cache
	l.cache = c
	return func() {
		l.cache = prev
	}
}

// Extensions returns the live extension table
func (l *Loader) Extensions() map[string]ExtensionHandler {
	return l.extensions
}

// ExtensionNames returns registered extensions in registration order
func (l *Loader) ExtensionNames() []string {
	return append([]string(nil), l.extOrder...)
}

// RegisterExtension sets the handler for ext, which includes the leading dot
func (l *Loader) RegisterExtension(ext string, h ExtensionHandler) {
	if _, ok := l.extensions[ext]; !ok {
		l.extOrder = append(l.extOrder, ext)
	}
	l.extensions[ext] = h
}

// SwapExtension makes h the handler for ext until restore is called. An
// extension that was not registered before is removed again on restore.
func (l *Loader) SwapExtension(ext string, h ExtensionHandler) (restore func()) {
	prev, existed := l.extensions[ext]
	l.RegisterExtension(ext, h)

	return func() {
		if existed {
			l.extensions[ext] = prev
			return
		}
		delete(l.extensions, ext)
		for i, e := range l.extOrder {
			if e == ext {
				l.extOrder = append(l.extOrder[:i], l.extOrder[i+1:]...)
				break
			}
		}
	}
}

// Resolve dispatches resolution of request on behalf of parent
func (l *Loader) Resolve(request string, parent *Module) (string, error) {
	if l.interceptor != nil {
		return l.interceptor.Resolve(request, parent)
	}
	return l.DefaultResolve(request, parent)
}

// Load dispatches loading of request on behalf of parent
func (l *Loader) Load(request string, parent *Module, isMain bool) (*Module, error) {
	if l.interceptor != nil {
		return l.interceptor.Load(request, parent, isMain)
	}
	return l.DefaultLoad(request, parent, isMain)
}

// LoadModule dispatches loading of filename into m by extension
func (l *Loader) LoadModule(m *Module, filename string) error {
	if l.interceptor != nil {
		return l.interceptor.LoadModule(m, filename)
	}
	return l.DefaultLoadModule(m, filename)
}

// Compile dispatches compilation of JavaScript source into m
func (l *Loader) Compile(m *Module, content, filename string) error {
	if l.interceptor != nil {
		return l.interceptor.Compile(m, content, filename)
	}
	return l.DefaultCompile(m, content, filename)
}

// Require loads request from parent and returns its exports in parent's runtime
func (l *Loader) Require(request string, parent *Module) (goja.Value, error) {
	m, err := l.Load(request, parent, false)
	if err != nil {
		return nil, err
	}
	return m.Exports(l.runtimeOf(parent)), nil
}

// DefaultLoad returns a cached module or creates, caches and loads a new
// one. A module that fails to load is removed from the cache and from its
// parent's children.
func (l *Loader) DefaultLoad(request string, parent *Module, isMain bool) (*Module, error) {
	if l.IsBuiltin(request) {
		return l.loadBuiltin(request, parent)
	}

	filename, err := l.Resolve(request, parent)
	if err != nil {
		return nil, err
	}
	return l.DefaultLoadFile(filename, parent, isMain)
}

// DefaultLoadFile is DefaultLoad for an already resolved filename
func (l *Loader) DefaultLoadFile(filename string, parent *Module, isMain bool) (*Module, error) {
	if cached, ok := l.cache[filename]; ok {
		if parent != nil {
			parent.AddChild(cached)
		}
		return cached, nil
	}

	m := l.NewModule(filename, parent)
	if isMain {
		m.ID = "."
		l.main = m
	}

	cache := l.cache
	cache[filename] = m

	if err := l.LoadModule(m, filename); err != nil {
		delete(cache, filename)
		if parent != nil {
			parent.removeChild(m)
		}
		return nil, err
	}

	l.logger.Debug("module loaded", zap.String("filename", filename))
	return m, nil
}

// DefaultLoadModule runs the handler registered for filename's longest
// known extension, falling back to .js
func (l *Loader) DefaultLoadModule(m *Module, filename string) error {
	m.Filename = filename

	handler, ok := l.extensions[l.findExtension(filename)]
	if !ok {
		handler = l.loadJS
	}
	if err := handler(m, filename); err != nil {
		return err
	}

	m.loaded = true
	return nil
}

// DefaultCompile runs the wrapped source in the loader's global context
func (l *Loader) DefaultCompile(m *Module, content, filename string) error {
	script, err := vm.NewScript(Wrap(content), vm.ScriptOptions{
		Filename:      filename,
		DisplayErrors: true,
	})
	if err != nil {
		return err
	}

	fn, err := l.global.Run(script)
	if err != nil {
		return err
	}

	rt := l.global.Runtime()
	m.home = rt
	call, ok := goja.AssertFunction(fn)
	if !ok {
		return &WrapperError{Filename: filename}
	}

	exports := m.Exports(rt)
	require := NewRequireFunction(rt, l.requireOptions(m))
	_, err = call(exports, exports, require, m.Object(rt), rt.ToValue(filename), rt.ToValue(m.Dir()))
	return err
}

func (l *Loader) requireOptions(m *Module) RequireOptions {
	return RequireOptions{
		Load: func(request string) (*Module, error) {
			return l.Load(request, m, false)
		},
		Resolve: func(request string) (string, error) {
			return l.Resolve(request, m)
		},
		Main:       l.main,
		Cache:      l.cache,
		Extensions: l.extensions,
	}
}

// findExtension returns the longest registered extension of filename's
// base name, skipping a leading dot, or .js
func (l *Loader) findExtension(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	start := 0
	for {
		i := strings.Index(name[start:], ".")
		if i < 0 {
			return ".js"
		}
		index := start + i
		start = index + 1
		if index == 0 {
			continue
		}
		if _, ok := l.extensions[name[index:]]; ok {
			return name[index:]
		}
	}
}

func (l *Loader) runtimeOf(m *Module) *goja.Runtime {
	if m != nil {
		return m.Runtime()
	}
	return l.global.Runtime()
}

func (l *Loader) loadJS(m *Module, filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return l.Compile(m, stripShebang(stripBOM(string(content))), filename)
}
