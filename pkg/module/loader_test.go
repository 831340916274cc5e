package module

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ctxrequire/pkg/vm"
)

func hostDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("testdata", "host"))
	require.NoError(t, err)
	return dir
}

func newHostRoot(t *testing.T) (*Loader, *Module, string) {
	t.Helper()
	dir := hostDir(t)
	l := New(Config{})
	return l, l.NewModule(filepath.Join(dir, "host.js"), nil), dir
}

func TestDefaultLoadRunsInGlobalContext(t *testing.T) {
	_, root, _ := newHostRoot(t)

	v, err := root.Require("./a")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"global": "object", "file": "a"}, v.Export())
}

func TestDefaultLoadCachesModules(t *testing.T) {
	l, root, dir := newHostRoot(t)

	first, err := root.Require("./a")
	require.NoError(t, err)
	second, err := root.Require("./a.js")
	require.NoError(t, err)

	assert.True(t, first.SameAs(second))
	assert.Contains(t, l.Cache(), filepath.Join(dir, "a.js"))
	assert.Len(t, root.Children(), 1)

	m := l.Cache()[filepath.Join(dir, "a.js")]
	assert.True(t, m.Loaded())
	assert.Same(t, root, m.Parent())
}

func TestDefaultResolve(t *testing.T) {
	l, root, dir := newHostRoot(t)

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{name: "relative with extension", request: "./a.js", want: filepath.Join(dir, "a.js")},
		{name: "relative without extension", request: "./a", want: filepath.Join(dir, "a.js")},
		{name: "json by extension probe", request: "./data", want: filepath.Join(dir, "data.json")},
		{name: "absolute", request: filepath.Join(dir, "a"), want: filepath.Join(dir, "a.js")},
		{name: "package main", request: "./dir", want: filepath.Join(dir, "dir", "lib", "main.js")},
		{name: "directory index", request: "./idx", want: filepath.Join(dir, "idx", "index.js")},
		{name: "node_modules", request: "pkg", want: filepath.Join(dir, "node_modules", "pkg", "index.js")},
		{name: "builtin", request: "path", want: "path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Resolve(tt.request, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultResolveNotFound(t *testing.T) {
	l, root, _ := newHostRoot(t)

	_, err := l.Resolve("./missing", root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleNotFound)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "./missing", notFound.Request)
	assert.Equal(t, root.Filename, notFound.Parent)
	assert.Equal(t, "MODULE_NOT_FOUND", notFound.Code())

	_, err = l.Resolve("", root)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDefaultLoadJSON(t *testing.T) {
	_, root, _ := newHostRoot(t)

	v, err := root.Require("./data.json")
	require.NoError(t, err)

	obj := v.ToObject(root.Runtime())
	assert.Equal(t, "data", obj.Get("name").String())
}

func TestDefaultLoadFailureLeavesNoCacheEntry(t *testing.T) {
	l, root, dir := newHostRoot(t)

	_, err := root.Require("./throws")
	require.Error(t, err)

	var ex *goja.Exception
	assert.ErrorAs(t, err, &ex)
	assert.NotContains(t, l.Cache(), filepath.Join(dir, "throws.js"))
	assert.Empty(t, root.Children())
}

func TestUnknownExtensionIsCompiledAsJavaScript(t *testing.T) {
	l, root, dir := newHostRoot(t)

	_, err := root.Require("./c.txt")
	require.Error(t, err)

	var syntaxErr *goja.CompilerSyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
	assert.NotContains(t, l.Cache(), filepath.Join(dir, "c.txt"))
}

func TestNestedRequireAndWrapperArguments(t *testing.T) {
	_, root, dir := newHostRoot(t)

	v, err := root.Require("./nested")
	require.NoError(t, err)

	got := v.Export().(map[string]interface{})
	assert.Equal(t, "x/y", got["joined"])
	assert.Equal(t, filepath.Join(dir, "a.js"), got["resolved"])
	assert.Equal(t, filepath.Join(dir, "nested.js"), got["filename"])
	assert.Equal(t, dir, got["dirname"])
	assert.Equal(t, true, got["self"])
}

func TestCircularRequireSeesPartialExports(t *testing.T) {
	_, root, _ := newHostRoot(t)

	v, err := root.Require("./cycle_a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.ToObject(root.Runtime()).Get("fromB").ToInteger())
}

func TestShebangIsStripped(t *testing.T) {
	_, root, _ := newHostRoot(t)

	v, err := root.Require("./shebang")
	require.NoError(t, err)
	assert.EqualValues(t, 7, v.ToInteger())
}

func TestRequireCacheView(t *testing.T) {
	l, root, _ := newHostRoot(t)

	v, err := root.Require("./primed")
	require.NoError(t, err)

	got := v.Export().(map[string]interface{})
	assert.EqualValues(t, 42, got["primed"])
	assert.Equal(t, true, got["hasJS"])
	assert.Contains(t, l.Cache(), "/virtual/primed.js")
}

func TestLoadAsMain(t *testing.T) {
	l := New(Config{})

	m, err := l.Load(filepath.Join(hostDir(t), "a.js"), nil, true)
	require.NoError(t, err)
	assert.Same(t, m, l.Main())
	assert.Equal(t, ".", m.ID)
}

func TestSwapCacheRestores(t *testing.T) {
	l := New(Config{})
	original := l.Cache()
	scoped := Cache{}

	restore := l.SwapCache(scoped)
	l.Cache()["/x.js"] = &Module{}
	restore()

	assert.Contains(t, scoped, "/x.js")
	assert.NotContains(t, original, "/x.js")
	assert.Equal(t, len(original), len(l.Cache()))
}

func TestSwapExtensionRestores(t *testing.T) {
	l := New(Config{})
	handler := func(m *Module, filename string) error { return nil }

	restore := l.SwapExtension(".txt", handler)
	assert.Contains(t, l.Extensions(), ".txt")
	assert.Equal(t, []string{".js", ".json", ".txt"}, l.ExtensionNames())
	restore()

	assert.NotContains(t, l.Extensions(), ".txt")
	assert.Equal(t, []string{".js", ".json"}, l.ExtensionNames())

	restore = l.SwapExtension(".js", handler)
	restore()
	assert.NotNil(t, l.Extensions()[".js"])
	assert.Equal(t, []string{".js", ".json"}, l.ExtensionNames())
}

func TestFindExtension(t *testing.T) {
	l := New(Config{})
	l.RegisterExtension(".b.txt", func(m *Module, filename string) error { return nil })

	tests := []struct {
		filename string
		want     string
	}{
		{filename: "/x/a.js", want: ".js"},
		{filename: "/x/a.json", want: ".json"},
		{filename: "/x/a.b.txt", want: ".b.txt"},
		{filename: "/x/a.txt", want: ".js"},
		{filename: "/x/.hidden.json", want: ".json"},
		{filename: "/x/noext", want: ".js"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, l.findExtension(tt.filename))
		})
	}
}

type countingInterceptor struct {
	l     *Loader
	calls map[string]int
}

func (c *countingInterceptor) Resolve(request string, parent *Module) (string, error) {
	c.calls["resolve"]++
	return c.l.DefaultResolve(request, parent)
}

func (c *countingInterceptor) Load(request string, parent *Module, isMain bool) (*Module, error) {
	c.calls["load"]++
	return c.l.DefaultLoad(request, parent, isMain)
}

func (c *countingInterceptor) LoadModule(m *Module, filename string) error {
	c.calls["loadModule"]++
	return c.l.DefaultLoadModule(m, filename)
}

func (c *countingInterceptor) Compile(m *Module, content, filename string) error {
	c.calls["compile"]++
	return c.l.DefaultCompile(m, content, filename)
}

func TestInterceptorReceivesEveryDispatch(t *testing.T) {
	l, root, _ := newHostRoot(t)
	counter := &countingInterceptor{l: l, calls: map[string]int{}}
	require.NoError(t, l.Install(counter))
	require.NoError(t, l.Install(counter))

	other := &countingInterceptor{l: l, calls: map[string]int{}}
	assert.True(t, errors.Is(l.Install(other), ErrInterceptorInstalled))

	_, err := root.Require("./nested")
	require.NoError(t, err)

	// nested and a are loaded; path is a builtin.
	assert.Equal(t, 3, counter.calls["load"])
	assert.Equal(t, 2, counter.calls["loadModule"])
	assert.Equal(t, 2, counter.calls["compile"])
	assert.GreaterOrEqual(t, counter.calls["resolve"], 3)
}

func TestBuiltinsArePerRuntime(t *testing.T) {
	l, root, _ := newHostRoot(t)

	first, err := root.Require("path")
	require.NoError(t, err)
	second, err := root.Require("path")
	require.NoError(t, err)
	assert.True(t, first.SameAs(second))
	assert.Equal(t, []string{"path"}, l.Builtins())
	assert.True(t, l.IsBuiltin("path"))
	assert.False(t, l.IsBuiltin("fs"))
}

func TestBuiltinsLiveWithTheirSandbox(t *testing.T) {
	l, host, dir := newHostRoot(t)

	for i := 0; i < 100; i++ {
		sandbox := vm.New(vm.DefaultConfig())
		root := l.NewRoot(filepath.Join(dir, fmt.Sprintf("index.%d.ctx", i)), nil, nil, sandbox.Runtime())
		child := l.NewModule(filepath.Join(dir, "child.js"), root)

		fromRoot, err := root.Require("path")
		require.NoError(t, err)
		fromChild, err := child.Require("path")
		require.NoError(t, err)

		assert.True(t, fromRoot.SameAs(fromChild))
		require.Contains(t, root.builtins, "path")
		assert.Same(t, sandbox.Runtime(), root.builtins["path"].Runtime())
		assert.Nil(t, child.builtins)
	}
	assert.Empty(t, l.builtinCache, "sandbox builtins must not be held by the loader")

	_, err := host.Require("path")
	require.NoError(t, err)
	require.Len(t, l.builtinCache, 1)
	assert.Same(t, l.Global().Runtime(), l.builtinCache["path"].Runtime())
}

func TestDefaultLoadFileSkipsResolution(t *testing.T) {
	l, root, dir := newHostRoot(t)
	counter := &countingInterceptor{l: l, calls: map[string]int{}}
	require.NoError(t, l.Install(counter))

	m, err := l.DefaultLoadFile(filepath.Join(dir, "a.js"), root, false)
	require.NoError(t, err)
	assert.True(t, m.Loaded())
	assert.Zero(t, counter.calls["resolve"])
	assert.Contains(t, l.Cache(), filepath.Join(dir, "a.js"))

	again, err := l.DefaultLoadFile(filepath.Join(dir, "a.js"), root, false)
	require.NoError(t, err)
	assert.Same(t, m, again)
}
