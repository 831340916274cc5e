/*
Package ctxrequire loads CommonJS modules into a sandbox.

# Overview

New returns a require function rooted at a directory. Every module loaded
through it, and every module those modules load in turn, runs its top-level
code inside the supplied sandbox instead of the loader's global context:

	globals := vm.NewGlobals(map[string]interface{}{"fromGlobal": "hello"})
	req, err := ctxrequire.New(ctxrequire.Options{Dir: dir, Sandbox: globals})
	if err != nil {
		return err
	}
	exports, err := req.Require("./a")

# Governance

The root of each New call is a sandbox-root record attached to the module
tree. A module is governed by the nearest sandbox root among its ancestors
(Owner). Governed loads use the root's resolver, resolve cache, module
cache, compilers and sandbox; ungoverned loads and builtins go to the
loader's defaults unchanged.

# Interception

The package installs one interceptor per module.Loader and keeps it only on
that loader, so a discarded loader is reclaimed with its hooks. It swaps the
loader's active cache and extension handlers around governed calls and
restores them on every exit path. Loads are synchronous, so a swap never
outlives the call that made it; the scheme is unsound if loads of one
loader ever run in parallel.

# Isolation

Two New calls never share caches, even for the same directory and sandbox.
Modules that fail to evaluate are not cached.
*/
package ctxrequire
