package module

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
)

// BuiltinFunc populates the exports of a builtin module in rt
type BuiltinFunc func(rt *goja.Runtime, exports *goja.Object) error

// RegisterBuiltin adds a builtin module. Builtins are instantiated once per
// runtime that requires them and are never resolved through files.
func (l *Loader) RegisterBuiltin(name string, fn BuiltinFunc) {
	l.builtins[name] = fn
}

// IsBuiltin reports whether name is a registered builtin
func (l *Loader) IsBuiltin(name string) bool {
	_, ok := l.builtins[name]
	return ok
}

// Builtins returns the registered builtin names in sorted order
func (l *Loader) Builtins() []string {
	names := make([]string, 0, len(l.builtins))
	for name := range l.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) loadBuiltin(name string, parent *Module) (*Module, error) {
	rt := l.runtimeOf(parent)
	cache := l.builtinsFor(rt, parent)
	if m, ok := cache[name]; ok {
		return m, nil
	}

	exports := rt.NewObject()
	if err := l.builtins[name](rt, exports); err != nil {
		return nil, fmt.Errorf("builtin %s: %w", name, err)
	}

	m := &Module{
		ID:       name,
		Filename: name,
		loaded:   true,
		loader:   l,
		home:     rt,
		exports:  exports,
	}
	cache[name] = m
	return m, nil
}

// builtinsFor returns the builtin instances of rt. The global runtime's live
// on the loader. Any other runtime's live on the outermost ancestor of
// parent running in it, so they are released together with that tree.
func (l *Loader) builtinsFor(rt *goja.Runtime, parent *Module) map[string]*Module {
	if rt == l.global.Runtime() || parent == nil {
		return l.builtinCache
	}

	anchor := parent
	for p := parent.parent; p != nil && p.Runtime() == rt; p = p.parent {
		anchor = p
	}
	if anchor.builtins == nil {
		anchor.builtins = map[string]*Module{}
	}
	return anchor.builtins
}

// loadJSON is the default .json handler
func loadJSON(m *Module, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var v interface{}
	if err := sonic.Unmarshal([]byte(stripBOM(string(data))), &v); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	m.SetExports(v)
	return nil
}

func pathModule(rt *goja.Runtime, exports *goja.Object) error {
	funcs := map[string]interface{}{
		"join": func(parts ...string) string {
			return filepath.ToSlash(filepath.Join(parts...))
		},
		"resolve": func(parts ...string) string {
			p := ""
			for i := len(parts) - 1; i >= 0; i-- {
				p = filepath.Join(parts[i], p)
				if filepath.IsAbs(parts[i]) {
					break
				}
			}
			abs, err := filepath.Abs(p)
			if err != nil {
				panic(rt.NewGoError(err))
			}
			return filepath.ToSlash(abs)
		},
		"relative": func(from, to string) string {
			rel, err := filepath.Rel(from, to)
			if err != nil {
				return to
			}
			return filepath.ToSlash(rel)
		},
		"dirname": func(p string) string {
			return filepath.ToSlash(filepath.Dir(p))
		},
		"basename": func(p string, ext ...string) string {
			base := filepath.Base(p)
			if len(ext) > 0 && ext[0] != base {
				base = strings.TrimSuffix(base, ext[0])
			}
			return base
		},
		"extname": func(p string) string {
			return filepath.Ext(p)
		},
		"normalize": func(p string) string {
			return filepath.ToSlash(filepath.Clean(p))
		},
		"isAbsolute": filepath.IsAbs,
	}

	for name, fn := range funcs {
		if err := exports.Set(name, fn); err != nil {
			return err
		}
	}
	if err := exports.Set("sep", string(filepath.Separator)); err != nil {
		return err
	}
	return exports.Set("delimiter", string(filepath.ListSeparator))
}
