package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ctxrequire/internal/infrastructure/config"
	"github.com/GriffinCanCode/ctxrequire/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ctxrequire/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ctxrequire/internal/shared/id"
	"github.com/GriffinCanCode/ctxrequire/pkg/compilers"
	"github.com/GriffinCanCode/ctxrequire/pkg/ctxrequire"
	"github.com/GriffinCanCode/ctxrequire/pkg/resolvers"
	"github.com/GriffinCanCode/ctxrequire/pkg/vm"
)

type runOptions struct {
	root *rootOptions

	dir     string
	globals string
	timeout time.Duration
	asMain  bool
	index   bool
	aliases map[string]string
	metrics bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{root: root}

	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Require a module in a sandbox and print its exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadOrDefault()
			opts.apply(cmd, cfg)
			return runRequire(cmd, cfg, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory requests are resolved from (default: working directory)")
	cmd.Flags().StringVar(&opts.globals, "globals", "", "YAML, TOML or JSON file of sandbox globals")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Interrupt scripts after this long")
	cmd.Flags().BoolVar(&opts.asMain, "main", false, "Load the request as the main module")
	cmd.Flags().BoolVar(&opts.index, "index", false, "Resolve from a file index built before loading")
	cmd.Flags().StringToStringVar(&opts.aliases, "alias", nil, "Request aliases as pattern=target")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print a metrics summary to stderr")

	return cmd
}

// apply copies flags that were set onto cfg
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Runtime.Timeout = o.timeout
	}
	if flags.Changed("index") {
		cfg.Resolve.Index = o.index
	}
	if flags.Changed("alias") {
		cfg.Resolve.Aliases = o.aliases
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled = o.metrics
	}
	if o.root != nil {
		if o.root.logLevel != "" {
			cfg.Logging.Level = o.root.logLevel
		}
		if o.root.dev {
			cfg.Logging.Development = true
		}
	}
}

func runRequire(cmd *cobra.Command, cfg *config.Config, opts *runOptions, request string) error {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dir := opts.dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}

	values := map[string]interface{}{}
	if opts.globals != "" {
		if values, err = loadGlobals(opts.globals); err != nil {
			return err
		}
	}

	globals := vm.NewGlobals(values)
	sandbox, err := vm.CreateContext(globals, vm.Config{
		MaxCallStackSize: cfg.Runtime.MaxCallStackSize,
		EnableConsole:    cfg.Runtime.Console,
		Logger:           logger.Logger,
	})
	if err != nil {
		return err
	}
	defer sandbox.Close()

	resolver, err := buildResolver(dir, cfg.Resolve)
	if err != nil {
		return err
	}

	req, err := ctxrequire.New(ctxrequire.Options{
		Dir:       dir,
		Sandbox:   globals,
		Resolver:  resolver,
		Compilers: compilers.Defaults(),
		Logger:    logger.Logger,
	})
	if err != nil {
		return err
	}
	log := logger.Sandbox(req.Record().ID())
	log.Logger = log.With(zap.Stringer("run", id.NewRunID()))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}
	stop := sandbox.Guard(ctx)

	start := time.Now()
	exports, err := load(req, request, opts.asMain)
	stop()

	log.Console(sandbox.Console())
	if cfg.Metrics.Enabled {
		fmt.Fprint(cmd.ErrOrStderr(), monitoring.Default().GetSnapshot().Format())
	}
	if err != nil {
		log.Debug("require failed", zap.String("request", request), zap.Error(err))
		return err
	}
	log.Debug("require finished",
		zap.String("request", request),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("modules", len(req.Cache())),
	)

	out, err := sonic.MarshalIndent(plain(exports), "", "  ")
	if err != nil {
		return fmt.Errorf("encode exports: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func load(req *ctxrequire.Require, request string, asMain bool) (interface{}, error) {
	if asMain {
		m, err := req.RunMain(request)
		if err != nil {
			return nil, err
		}
		return m.Exports(req.Runtime()).Export(), nil
	}

	v, err := req.Require(request)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// buildResolver returns nil when the loader's own resolution is enough
func buildResolver(dir string, cfg config.ResolveConfig) (ctxrequire.Resolver, error) {
	var next ctxrequire.Resolver
	if cfg.Index {
		ix, err := resolvers.NewIndex(dir, resolvers.IndexOptions{
			Extensions: []string{".js", ".json", ".txt", ".yaml", ".yml", ".toml"},
			SkipDirs:   cfg.SkipDirs,
		})
		if err != nil {
			return nil, err
		}
		next = ix
	}

	if len(cfg.Aliases) == 0 {
		return next, nil
	}

	patterns := make([]string, 0, len(cfg.Aliases))
	for pattern := range cfg.Aliases {
		patterns = append(patterns, pattern)
	}
	// longest pattern first so specific aliases win
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})

	rules := make([]resolvers.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, resolvers.Rule{Pattern: pattern, Target: cfg.Aliases[pattern]})
	}
	return resolvers.NewAlias(dir, rules, next)
}

// loadGlobals reads sandbox globals from a YAML, TOML or JSON file
func loadGlobals(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values := map[string]interface{}{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &values)
	case ".toml":
		err = toml.Unmarshal(data, &values)
	case ".json":
		err = sonic.Unmarshal(data, &values)
	default:
		return nil, fmt.Errorf("globals %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("globals %s: %w", path, err)
	}
	return values, nil
}

// plain drops values JSON cannot represent, such as functions
func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if p, ok := keep(val); ok {
				out[k] = p
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, val := range t {
			p, ok := keep(val)
			if !ok {
				p = nil
			}
			out = append(out, p)
		}
		return out
	}
	return v
}

func keep(v interface{}) (interface{}, bool) {
	if _, ok := v.(func(goja.FunctionCall) goja.Value); ok {
		return nil, false
	}
	return plain(v), true
}
