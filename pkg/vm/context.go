package vm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Context wraps a goja runtime with its own global scope
type Context struct {
	vm     *goja.Runtime
	config Config
	logger *zap.Logger

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex

	closed bool
}

// New creates a new execution context
func New(config Config) *Context {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Context{
		vm:      goja.New(),
		config:  config,
		logger:  logger,
		console: []LogEntry{},
	}

	if config.MaxCallStackSize > 0 {
		c.vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}

	c.setupGlobals()
	return c
}

// Runtime returns the goja runtime backing the context
func (c *Context) Runtime() *goja.Runtime {
	return c.vm
}

// Run executes a prepared script in the context and returns its completion value
func (c *Context) Run(s *Script) (goja.Value, error) {
	if c.closed {
		return nil, ErrClosed
	}

	val, err := c.vm.RunProgram(s.program)
	if err != nil {
		if s.displayErrors {
			c.logger.Debug("script failed",
				zap.String("filename", s.filename),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return val, nil
}

// Set defines a global binding
func (c *Context) Set(name string, value interface{}) error {
	return c.vm.Set(name, value)
}

// Get reads a global binding; nil when undefined
func (c *Context) Get(name string) goja.Value {
	return c.vm.Get(name)
}

// Console returns captured console output
func (c *Context) Console() []LogEntry {
	c.consoleMu.Lock()
	defer c.consoleMu.Unlock()
	return append([]LogEntry{}, c.console...)
}

// Interrupt stops the script currently running in the context
func (c *Context) Interrupt(reason interface{}) {
	c.vm.Interrupt(reason)
}

// Guard interrupts the context when ctx ends. The returned stop function
// must be called once the guarded work returns.
func (c *Context) Guard(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			c.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-exited
		c.vm.ClearInterrupt()
	}
}

// Close releases the runtime
func (c *Context) Close() error {
	c.closed = true
	c.consoleMu.Lock()
	c.console = nil
	c.consoleMu.Unlock()
	return nil
}

// setupGlobals installs the console if enabled
func (c *Context) setupGlobals() {
	if !c.config.EnableConsole {
		return
	}

	console := c.vm.NewObject()
	for _, level := range []string{"log", "warn", "error", "info"} {
		_ = console.Set(level, c.makeConsoleFunc(level))
	}
	_ = c.vm.Set("console", console)
}

// makeConsoleFunc creates a console function
func (c *Context) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		msg := strings.Join(parts, " ")

		c.consoleMu.Lock()
		c.console = append(c.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		c.consoleMu.Unlock()

		c.logger.Debug("console", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}
