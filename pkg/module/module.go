package module

import (
	"path/filepath"
	"sort"

	"github.com/dop251/goja"
)

// Kind tags a module record as a plain module or a sandbox root.
type Kind uint8

const (
	KindPlain Kind = iota
	KindSandboxRoot
)

// Cache maps resolved filenames to loaded modules
type Cache map[string]*Module

// Keys returns the cached filenames in sorted order
func (c Cache) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Module is a CommonJS module record
type Module struct {
	ID       string
	Filename string

	loaded     bool
	parent     *Module
	children   []*Module
	kind       Kind
	attachment interface{}
	loader     *Loader

	// exports belong to home; other runtimes get an exported copy
	home      *goja.Runtime
	exports   goja.Value
	pending   interface{}
	isPending bool
	objects   map[*goja.Runtime]*goja.Object

	// builtin instances for home, kept on the outermost module running in it
	builtins map[string]*Module
}

// NewModule creates a plain module and links it as a child of parent
func (l *Loader) NewModule(filename string, parent *Module) *Module {
	m := &Module{
		ID:       filename,
		Filename: filename,
		parent:   parent,
		kind:     KindPlain,
		loader:   l,
	}
	if parent != nil {
		m.home = parent.home
		parent.AddChild(m)
	}
	return m
}

// NewRoot creates a sandbox root. The attachment identifies the sandbox and
// rt is the runtime its descendants run in. Roots are not linked as children
// of their parent.
func (l *Loader) NewRoot(filename string, parent *Module, attachment interface{}, rt *goja.Runtime) *Module {
	return &Module{
		ID:         filename,
		Filename:   filename,
		parent:     parent,
		kind:       KindSandboxRoot,
		attachment: attachment,
		loader:     l,
		home:       rt,
	}
}

// Parent returns the module that first required m, or nil
func (m *Module) Parent() *Module {
	return m.parent
}

// Children returns the modules required by m
func (m *Module) Children() []*Module {
	return append([]*Module(nil), m.children...)
}

// Kind returns the record's tag
func (m *Module) Kind() Kind {
	return m.kind
}

// Attachment returns the value a sandbox root was created with
func (m *Module) Attachment() interface{} {
	return m.attachment
}

// Loaded reports whether the module finished loading
func (m *Module) Loaded() bool {
	return m.loaded
}

// Dir returns the directory of the module's filename
func (m *Module) Dir() string {
	return filepath.Dir(m.Filename)
}

// Loader returns the loader that created the module
func (m *Module) Loader() *Loader {
	return m.loader
}

// Runtime returns the runtime the module's code runs in
func (m *Module) Runtime() *goja.Runtime {
	if m.home != nil {
		return m.home
	}
	if m.loader != nil {
		return m.loader.global.Runtime()
	}
	return nil
}

// AddChild links child unless it is already linked
func (m *Module) AddChild(child *Module) {
	for _, c := range m.children {
		if c == child {
			return
		}
	}
	m.children = append(m.children, child)
}

func (m *Module) removeChild(child *Module) {
	children := m.children[:0]
	for _, c := range m.children {
		if c != child {
			children = append(children, c)
		}
	}
	m.children = children
}

// SetExports replaces module.exports. Go values are converted in the
// module's runtime; when that is not known yet, conversion happens in the
// first runtime that reads the exports.
func (m *Module) SetExports(v interface{}) {
	m.pending, m.isPending = nil, false

	if val, ok := v.(goja.Value); ok {
		m.exports = val
		return
	}

	if m.home == nil {
		m.exports = nil
		m.pending, m.isPending = v, true
		return
	}
	m.exports = m.home.ToValue(v)
}

// Exports returns module.exports as seen from rt
func (m *Module) Exports(rt *goja.Runtime) goja.Value {
	if rt == nil {
		rt = m.Runtime()
	}
	if m.home == nil {
		m.home = rt
	}

	if m.exports == nil {
		if m.isPending {
			m.exports = m.home.ToValue(m.pending)
			m.pending, m.isPending = nil, false
		} else {
			m.exports = m.home.NewObject()
		}
	}

	if rt != m.home {
		return rt.ToValue(m.exports.Export())
	}
	return m.exports
}

// Require loads request with m as the requester and returns its exports in
// m's runtime.
func (m *Module) Require(request string) (goja.Value, error) {
	dep, err := m.loader.Load(request, m, false)
	if err != nil {
		return nil, err
	}
	return dep.Exports(m.Runtime()), nil
}

// Object returns the JavaScript "module" object for m in rt
func (m *Module) Object(rt *goja.Runtime) *goja.Object {
	if obj, ok := m.objects[rt]; ok {
		return obj
	}
	if m.objects == nil {
		m.objects = make(map[*goja.Runtime]*goja.Object)
	}

	obj := rt.NewDynamicObject(&moduleObject{m: m, rt: rt, extra: map[string]goja.Value{}})
	m.objects[rt] = obj
	return obj
}

// Of returns the module behind a JavaScript module object, or nil
func Of(v goja.Value) *Module {
	if v == nil {
		return nil
	}
	if mo, ok := v.Export().(*moduleObject); ok {
		return mo.m
	}
	return nil
}

var moduleKeys = []string{"id", "filename", "loaded", "exports", "parent", "children", "require"}

// moduleObject is the dynamic JavaScript view of a Module
type moduleObject struct {
	m     *Module
	rt    *goja.Runtime
	extra map[string]goja.Value
}

func (o *moduleObject) Get(key string) goja.Value {
	switch key {
	case "id":
		return o.rt.ToValue(o.m.ID)
	case "filename":
		return o.rt.ToValue(o.m.Filename)
	case "loaded":
		return o.rt.ToValue(o.m.loaded)
	case "exports":
		return o.m.Exports(o.rt)
	case "parent":
		if o.m.parent == nil {
			return goja.Null()
		}
		return o.m.parent.Object(o.rt)
	case "children":
		items := make([]interface{}, 0, len(o.m.children))
		for _, c := range o.m.children {
			items = append(items, c.Object(o.rt))
		}
		return o.rt.NewArray(items...)
	case "require":
		return o.rt.ToValue(func(call goja.FunctionCall) goja.Value {
			request := RequestArg(o.rt, call)
			dep, err := o.m.loader.Load(request, o.m, false)
			if err != nil {
				Throw(o.rt, err)
			}
			return dep.Exports(o.rt)
		})
	}
	return o.extra[key]
}

func (o *moduleObject) Set(key string, val goja.Value) bool {
	switch key {
	case "exports":
		o.m.pending, o.m.isPending = nil, false
		o.m.exports = val
		o.m.home = o.rt
		return true
	case "id", "filename", "loaded", "parent", "children", "require":
		return false
	}
	o.extra[key] = val
	return true
}

func (o *moduleObject) Has(key string) bool {
	for _, k := range moduleKeys {
		if k == key {
			return true
		}
	}
	_, ok := o.extra[key]
	return ok
}

func (o *moduleObject) Delete(key string) bool {
	if _, ok := o.extra[key]; ok {
		delete(o.extra, key)
		return true
	}
	return !o.Has(key)
}

func (o *moduleObject) Keys() []string {
	keys := append([]string{}, moduleKeys...)
	extra := make([]string, 0, len(o.extra))
	for k := range o.extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
