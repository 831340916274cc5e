package ctxrequire

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ctxrequire/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ctxrequire/pkg/module"
	"github.com/GriffinCanCode/ctxrequire/pkg/vm"
)

// hooks is the interceptor installed on a loader
type hooks struct {
	l       *module.Loader
	metrics *monitoring.Metrics
}

var installMu sync.Mutex

// install puts the hook set on l, or returns the one already there
func install(l *module.Loader) (*hooks, error) {
	installMu.Lock()
	defer installMu.Unlock()

	if h, ok := l.Interceptor().(*hooks); ok {
		return h, nil
	}

	h := &hooks{l: l, metrics: monitoring.Default()}
	if err := l.Install(h); err != nil {
		return nil, fmt.Errorf("ctxrequire: %w", err)
	}
	return h, nil
}

// Resolve sends governed requests to the record's resolver, memoized per
// (requester directory, request). Builtins, ungoverned requests and
// records without a resolver use the loader's default resolution.
func (h *hooks) Resolve(request string, parent *module.Module) (string, error) {
	if h.l.IsBuiltin(request) {
		return h.l.DefaultResolve(request, parent)
	}

	rec := Owner(parent)
	if rec == nil || rec.resolver == nil {
		return h.l.DefaultResolve(request, parent)
	}

	dir := parent.Dir()
	if filepath.IsAbs(request) {
		if rel, err := filepath.Rel(dir, request); err == nil {
			request = filepath.ToSlash(rel)
			if !strings.HasPrefix(request, ".") {
				request = "./" + request
			}
		}
	}

	key := dir + "\x00" + request
	if filename, ok := rec.resolveCache[key]; ok {
		h.metrics.RecordCacheHit("resolve")
		return filename, nil
	}

	h.metrics.RecordResolverCall()
	filename, err := rec.resolve(dir, request, parent)
	if err != nil {
		h.metrics.RecordLoadError("resolve")
		return "", err
	}
	if filename == "" {
		h.metrics.RecordLoadError("resolve")
		return "", fmt.Errorf("%w: %q from %s", ErrEmptyResolution, request, dir)
	}

	rec.resolveCache[key] = filename
	return filename, nil
}

// Load serves governed requests from the record's cache, or runs the
// default load with the record's cache as the loader's active cache.
func (h *hooks) Load(request string, parent *module.Module, isMain bool) (*module.Module, error) {
	if h.l.IsBuiltin(request) {
		return h.l.DefaultLoad(request, parent, isMain)
	}

	rec := Owner(parent)
	if rec == nil {
		h.metrics.RecordRequire(false)
		return h.l.DefaultLoad(request, parent, isMain)
	}
	h.metrics.RecordRequire(true)

	filename, err := h.l.Resolve(request, parent)
	if err != nil {
		return nil, err
	}

	if cached, ok := rec.cache[filename]; ok {
		parent.AddChild(cached)
		h.metrics.RecordCacheHit("module")
		return cached, nil
	}

	restore := h.l.SwapCache(rec.cache)
	defer restore()

	m, err := h.l.DefaultLoadFile(filename, parent, isMain)
	if err != nil {
		h.metrics.RecordLoadError("load")
		rec.logger.Debug("sandboxed load failed",
			zap.Uint64("sandbox", rec.id),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return nil, err
	}
	return m, nil
}

// LoadModule puts the record's compiler for filename's extension into the
// loader's extension table for the duration of the default load.
func (h *hooks) LoadModule(m *module.Module, filename string) error {
	if rec := Owner(m); rec != nil {
		ext := filepath.Ext(filename)
		if compiler, ok := rec.compilers[ext]; ok {
			restore := h.l.SwapExtension(ext, compiler)
			defer restore()
		}
	}
	return h.l.DefaultLoadModule(m, filename)
}

// Compile runs governed module source inside the record's sandbox
func (h *hooks) Compile(m *module.Module, content, filename string) (err error) {
	rec := Owner(m)
	if rec == nil {
		return h.l.DefaultCompile(m, content, filename)
	}

	start := time.Now()
	defer func() {
		h.metrics.RecordCompile(time.Since(start), err)
		if err != nil {
			h.metrics.RecordLoadError("compile")
		}
	}()

	script, err := vm.NewScript(module.Wrap(content), vm.ScriptOptions{
		Filename:      filename,
		LineOffset:    0,
		DisplayErrors: true,
	})
	if err != nil {
		return err
	}

	fn, err := rec.binding.Run(script)
	if err != nil {
		return err
	}

	call, ok := goja.AssertFunction(fn)
	if !ok {
		return &module.WrapperError{Filename: filename}
	}

	rt := rec.binding.Runtime()
	exports := m.Exports(rt)
	require := newRequire(m, rec, h.l).Function(rt)

	_, err = call(exports,
		exports,
		require,
		m.Object(rt),
		rt.ToValue(filename),
		rt.ToValue(filepath.Dir(filename)),
	)
	return err
}
