package compilers

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ctxrequire/pkg/ctxrequire"
	"github.com/GriffinCanCode/ctxrequire/pkg/module"
	"github.com/GriffinCanCode/ctxrequire/pkg/vm"
)

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return path
}

// compile runs h against filename and returns the exported Go value
func compile(t *testing.T, h module.ExtensionHandler, filename string) (interface{}, error) {
	t.Helper()
	l := module.New(module.Config{})
	m := l.NewModule(filename, nil)
	if err := h(m, filename); err != nil {
		return nil, err
	}
	return m.Exports(l.Global().Runtime()).Export(), nil
}

func TestText(t *testing.T) {
	got, err := compile(t, Text(), testdata(t, "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "some text\n", got)
}

func TestTextRejectsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.txt")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	require.NoError(t, os.WriteFile(path, png, 0o644))

	_, err := compile(t, Text(), path)
	assert.ErrorIs(t, err, ErrBinary)
}

func TestTextTranscodesLegacyCharsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	latin1 := []byte("Le caf\xe9 est tr\xe8s bon, et la cr\xe8me br\xfbl\xe9e est d\xe9licieuse.\n")
	require.NoError(t, os.WriteFile(path, latin1, 0o644))

	got, err := compile(t, Text(), path)
	require.NoError(t, err)

	text, ok := got.(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, "Le caf")
}

func TestYAML(t *testing.T) {
	got, err := compile(t, YAML(), testdata(t, "config.yaml"))
	require.NoError(t, err)

	doc, ok := got.(map[string]interface{})
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "fixtures", doc["name"])
	assert.EqualValues(t, 8080, doc["port"])
	assert.Equal(t, []interface{}{"a", "b"}, doc["tags"])
}

func TestYAMLParseError(t *testing.T) {
	_, err := compile(t, YAML(), testdata(t, "broken.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestTOML(t *testing.T) {
	got, err := compile(t, TOML(), testdata(t, "config.toml"))
	require.NoError(t, err)

	doc, ok := got.(map[string]interface{})
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "fixtures", doc["name"])

	server, ok := doc["server"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 8080, server["port"])
}

func TestMissingFile(t *testing.T) {
	for ext, h := range Defaults() {
		t.Run(ext, func(t *testing.T) {
			_, err := compile(t, h, testdata(t, "missing"+ext))
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestDefaultsInSandbox(t *testing.T) {
	loader := module.New(module.Config{})
	req, err := ctxrequire.New(ctxrequire.Options{
		Dir:       testdata(t, ""),
		Sandbox:   vm.New(vm.DefaultConfig()),
		Compilers: Defaults(),
		Loader:    loader,
	})
	require.NoError(t, err)

	v, err := req.Require("./uses")
	require.NoError(t, err)

	got, ok := v.Export().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fixtures", got["name"])
	assert.EqualValues(t, 8080, got["port"])
	assert.Equal(t, "some text\n", got["note"])

	assert.NotContains(t, loader.Extensions(), ".yaml")
	assert.NotContains(t, loader.Extensions(), ".toml")
}
