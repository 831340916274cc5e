package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ctxrequire/internal/infrastructure/config"
	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

func testdata(t *testing.T, elem ...string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join(append([]string{"testdata"}, elem...)...))
	require.NoError(t, err)
	return path
}

// execute runs ctxrun with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, sonic.Unmarshal([]byte(out), &got))
	return got
}

func TestRunPrintsExports(t *testing.T) {
	tests := []struct {
		name    string
		globals string
		want    map[string]interface{}
	}{
		{
			name:    "yaml globals",
			globals: "globals.yaml",
			want:    map[string]interface{}{"greeting": "hello, world", "limit": 3.0, "note": "remember the milk"},
		},
		{
			name:    "toml globals",
			globals: "globals.toml",
			want:    map[string]interface{}{"greeting": "hi, world", "limit": 5.0, "note": "remember the milk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "run", "./app",
				"--dir", testdata(t),
				"--globals", testdata(t, tt.globals),
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decode(t, out))
		})
	}
}

func TestRunAsMain(t *testing.T) {
	out, _, err := execute(t, "run", "./app",
		"--dir", testdata(t),
		"--globals", testdata(t, "globals.yaml"),
		"--main",
	)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", decode(t, out)["greeting"])
	assert.Equal(t, testdata(t, "app.js"), module.Default().Main().Filename)
}

func TestRunWithIndexAndAlias(t *testing.T) {
	out, _, err := execute(t, "run", "./aliased",
		"--dir", testdata(t),
		"--index",
		"--alias", "@lib/**=lib",
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"greet": "hi from lib"}, decode(t, out))
}

func TestRunTimeout(t *testing.T) {
	_, _, err := execute(t, "run", "./spin", "--dir", testdata(t), "--timeout", "100ms")
	require.Error(t, err)

	var interrupted *goja.InterruptedError
	assert.ErrorAs(t, err, &interrupted)
}

func TestRunMetrics(t *testing.T) {
	_, stderr, err := execute(t, "run", "./aliased",
		"--dir", testdata(t),
		"--alias", "@lib/**=lib",
		"--metrics",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "sandboxes_created")
	assert.Contains(t, stderr, "resolver_calls")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing module",
			args: []string{"run", "./missing", "--dir", testdata(t)},
			want: "Cannot find module './missing'",
		},
		{
			name: "unsupported globals",
			args: []string{"run", "./app", "--dir", testdata(t), "--globals", testdata(t, "globals.ini")},
			want: "unsupported format",
		},
		{
			name: "missing globals",
			args: []string{"run", "./app", "--dir", testdata(t), "--globals", testdata(t, "nope.yaml")},
			want: "no such file",
		},
		{
			name: "no request",
			args: []string{"run"},
			want: "accepts 1 arg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyFlagsOverConfig(t *testing.T) {
	cmd := newRootCmd()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--timeout", "2s", "--metrics"}))

	cfg := config.Default()
	opts := &runOptions{root: &rootOptions{logLevel: "debug"}}
	opts.timeout, _ = run.Flags().GetDuration("timeout")
	opts.metrics, _ = run.Flags().GetBool("metrics")
	opts.apply(run, cfg)

	assert.Equal(t, "2s", cfg.Runtime.Timeout.String())
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Resolve.Index)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestPlainDropsFunctions(t *testing.T) {
	fn := func(goja.FunctionCall) goja.Value { return nil }
	got := plain(map[string]interface{}{
		"a":    1,
		"fn":   fn,
		"list": []interface{}{fn, "x"},
		"nested": map[string]interface{}{
			"fn": fn,
			"b":  true,
		},
	})

	assert.Equal(t, map[string]interface{}{
		"a":      1,
		"list":   []interface{}{nil, "x"},
		"nested": map[string]interface{}{"b": true},
	}, got)
}
