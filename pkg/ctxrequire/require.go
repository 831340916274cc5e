package ctxrequire

import (
	"github.com/dop251/goja"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// Require is a require function bound to a module inside a sandbox
type Require struct {
	m      *module.Module
	rec    *Record
	loader *module.Loader
}

func newRequire(m *module.Module, rec *Record, loader *module.Loader) *Require {
	return &Require{m: m, rec: rec, loader: loader}
}

// Require loads request relative to the bound module and returns its
// exports in the sandbox runtime.
func (r *Require) Require(request string) (goja.Value, error) {
	m, err := r.loader.Load(request, r.m, false)
	if err != nil {
		return nil, err
	}
	return m.Exports(r.Runtime()), nil
}

// Module loads request and returns its module record
func (r *Require) Module(request string) (*module.Module, error) {
	return r.loader.Load(request, r.m, false)
}

// RunMain loads filename as the loader's main module. Its parent is the
// bound module, so it is governed by the same sandbox.
func (r *Require) RunMain(filename string) (*module.Module, error) {
	return r.loader.Load(filename, r.m, true)
}

// Resolve resolves request without loading it
func (r *Require) Resolve(request string) (string, error) {
	return r.loader.Resolve(request, r.m)
}

// Main returns the loader's main module, or nil
func (r *Require) Main() *module.Module {
	return r.loader.Main()
}

// Cache returns the sandbox's module cache. Deleting an entry forces the
// next require of that file to load it again.
func (r *Require) Cache() module.Cache {
	return r.rec.cache
}

// Extensions returns the sandbox's compilers, or the loader's live
// extension table when the sandbox defines none.
func (r *Require) Extensions() map[string]module.ExtensionHandler {
	if len(r.rec.compilers) > 0 {
		return r.rec.compilers
	}
	return r.loader.Extensions()
}

// Runtime returns the sandbox runtime
func (r *Require) Runtime() *goja.Runtime {
	return r.rec.Runtime()
}

// Record returns the sandbox root the function belongs to
func (r *Require) Record() *Record {
	return r.rec
}

// Function returns the JavaScript face of r in rt
func (r *Require) Function(rt *goja.Runtime) *goja.Object {
	return module.NewRequireFunction(rt, module.RequireOptions{
		Load:       r.Module,
		Resolve:    r.Resolve,
		Main:       r.loader.Main(),
		Cache:      r.rec.cache,
		Extensions: r.Extensions(),
	})
}
