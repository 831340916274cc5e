package vm

import (
	"errors"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSandbox is returned when a value cannot serve as an execution context.
	ErrInvalidSandbox = errors.New("sandbox is not an execution context")
	// ErrClosed is returned when running a script in a closed context.
	ErrClosed = errors.New("execution context is closed")
)

// Config defines execution context configuration
type Config struct {
	MaxCallStackSize int         // 0 keeps the goja default
	EnableConsole    bool        // Install console.log/warn/error/info
	Logger           *zap.Logger // Receives script error reports and console output
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info
	Message string    // Log message
	Time    time.Time // Timestamp
}

// Kind tags which capability a sandbox was bound through.
type Kind uint8

const (
	KindNative Kind = iota
	KindScriptRunner
	KindContextExposer
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindScriptRunner:
		return "script-runner"
	case KindContextExposer:
		return "context-exposer"
	default:
		return "unknown"
	}
}

// ScriptRunner is a sandbox that runs prepared scripts in a context it
// manages. Runtime reports the goja runtime the scripts run in, so values
// handed to the script results can be created there.
type ScriptRunner interface {
	RunScript(s *Script) (goja.Value, error)
	Runtime() *goja.Runtime
}

// ContextExposer is a sandbox that hands out its internal execution context.
type ContextExposer interface {
	InternalContext() *Context
}

// DefaultConfig returns the configuration used by CreateContext.
func DefaultConfig() Config {
	return Config{
		EnableConsole: true,
	}
}
