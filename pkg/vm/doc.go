/*
Package vm provides isolated JavaScript execution contexts for module code.

# Overview

A Context owns a goja runtime with its own global scope. Scripts are compiled
once into a runtime-independent Script and can then be run inside any
Context. Nothing from the host leaks into a fresh Context: there is no
require, module, process or global binding unless a caller sets one.

# Sandbox Shapes

Callers hand a sandbox to the module layer in one of four shapes:

  - *Context: already a native execution context
  - ScriptRunner: runs prepared scripts in a context it manages
  - ContextExposer: exposes an internal *Context
  - *Globals: plain global values, contextified in place by CreateContext

Bind probes these shapes in a fixed order and returns a Binding that runs
scripts the right way for the shape it found.

# Usage Example

	globals := vm.NewGlobals(map[string]interface{}{"fromGlobal": "hello"})
	binding, err := vm.Bind(globals)
	if err != nil {
		return err
	}

	script, err := vm.NewScript("fromGlobal", vm.ScriptOptions{Filename: "inline.js"})
	if err != nil {
		return err
	}
	value, err := binding.Run(script)

# Concurrency

A Context is not safe for concurrent use, just like the goja runtime it
wraps. Guard is the only method meant to be driven from another goroutine.
*/
package vm
