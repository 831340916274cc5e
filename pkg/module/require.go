package module

import (
	"sort"

	"github.com/dop251/goja"
)

// RequireOptions describes the JavaScript require function handed to a module body
type RequireOptions struct {
	Load       func(request string) (*Module, error)
	Resolve    func(request string) (string, error)
	Main       *Module
	Cache      Cache
	Extensions map[string]ExtensionHandler
}

// NewRequireFunction builds a require function in rt with resolve, main,
// cache and extensions properties. cache is a live view of opts.Cache;
// extensions is a read-only view of opts.Extensions.
func NewRequireFunction(rt *goja.Runtime, opts RequireOptions) *goja.Object {
	fn := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		m, err := opts.Load(RequestArg(rt, call))
		if err != nil {
			Throw(rt, err)
		}
		return m.Exports(rt)
	}).(*goja.Object)

	resolve := func(call goja.FunctionCall) goja.Value {
		filename, err := opts.Resolve(RequestArg(rt, call))
		if err != nil {
			Throw(rt, err)
		}
		return rt.ToValue(filename)
	}

	main := goja.Undefined()
	if opts.Main != nil {
		main = opts.Main.Object(rt)
	}

	_ = fn.Set("resolve", resolve)
	_ = fn.Set("main", main)
	_ = fn.Set("cache", rt.NewDynamicObject(&cacheView{rt: rt, cache: opts.Cache}))
	_ = fn.Set("extensions", rt.NewDynamicObject(&extensionsView{rt: rt, handlers: opts.Extensions}))
	return fn
}

// RequestArg returns the first call argument as a module request, throwing
// a TypeError when it is missing, not a string, or empty.
func RequestArg(rt *goja.Runtime, call goja.FunctionCall) string {
	arg := call.Argument(0)
	if s, ok := arg.Export().(string); ok && s != "" {
		return s
	}
	panic(rt.NewTypeError("%s: the \"id\" argument must be a non-empty string", ErrInvalidRequest))
}

// Throw raises err in rt. JavaScript exceptions are rethrown with their
// original value; other errors become GoError objects.
func Throw(rt *goja.Runtime, err error) {
	if ex, ok := err.(*goja.Exception); ok {
		panic(ex)
	}
	panic(rt.NewGoError(err))
}

// cacheView exposes a Cache as a JavaScript object keyed by filename
type cacheView struct {
	rt    *goja.Runtime
	cache Cache
}

func (c *cacheView) Get(key string) goja.Value {
	m, ok := c.cache[key]
	if !ok {
		return nil
	}
	return m.Object(c.rt)
}

// Set primes the cache. Values that are module objects are stored as is;
// any other object is treated as a loaded module with its exports property.
func (c *cacheView) Set(key string, val goja.Value) bool {
	if m := Of(val); m != nil {
		c.cache[key] = m
		return true
	}

	obj := val.ToObject(c.rt)
	m := &Module{ID: key, Filename: key, loaded: true, home: c.rt}
	if exports := obj.Get("exports"); exports != nil && !goja.IsUndefined(exports) {
		m.exports = exports
	}
	c.cache[key] = m
	return true
}

func (c *cacheView) Has(key string) bool {
	_, ok := c.cache[key]
	return ok
}

func (c *cacheView) Delete(key string) bool {
	delete(c.cache, key)
	return true
}

func (c *cacheView) Keys() []string {
	return c.cache.Keys()
}

// extensionsView exposes extension handlers as callable (module, filename) functions
type extensionsView struct {
	rt       *goja.Runtime
	handlers map[string]ExtensionHandler
}

func (e *extensionsView) Get(key string) goja.Value {
	h, ok := e.handlers[key]
	if !ok {
		return nil
	}
	return e.rt.ToValue(func(call goja.FunctionCall) goja.Value {
		m := Of(call.Argument(0))
		if m == nil {
			panic(e.rt.NewTypeError("extension handler expects a module object"))
		}
		if err := h(m, call.Argument(1).String()); err != nil {
			Throw(e.rt, err)
		}
		return goja.Undefined()
	})
}

func (e *extensionsView) Set(string, goja.Value) bool { return false }

func (e *extensionsView) Has(key string) bool {
	_, ok := e.handlers[key]
	return ok
}

func (e *extensionsView) Delete(string) bool { return false }

func (e *extensionsView) Keys() []string {
	keys := make([]string, 0, len(e.handlers))
	for k := range e.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
