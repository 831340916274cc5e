package vm

import (
	"strings"

	"github.com/dop251/goja"
)

// ScriptOptions configures script preparation
type ScriptOptions struct {
	Filename      string // Reported in stack traces and syntax errors
	LineOffset    int    // Lines to shift reported positions by; negative values are ignored
	DisplayErrors bool   // Report failures to the running context's logger
}

// Script is a compiled program that can run in any Context
type Script struct {
	program       *goja.Program
	filename      string
	displayErrors bool
}

// NewScript compiles source into a Script. Syntax errors are returned as
// produced by the compiler.
func NewScript(source string, opts ScriptOptions) (*Script, error) {
	if opts.LineOffset > 0 {
		source = strings.Repeat("\n", opts.LineOffset) + source
	}

	program, err := goja.Compile(opts.Filename, source, false)
	if err != nil {
		return nil, err
	}

	return &Script{
		program:       program,
		filename:      opts.Filename,
		displayErrors: opts.DisplayErrors,
	}, nil
}

// Filename returns the name the script was compiled under
func (s *Script) Filename() string {
	return s.filename
}
