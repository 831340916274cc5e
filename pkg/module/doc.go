/*
Package module implements a CommonJS module system on top of goja.

# Overview

A Loader resolves request strings to files, keeps loaded modules in a cache
keyed by resolved path, dispatches files to per-extension handlers and runs
JavaScript module bodies inside a wrapper function:

	(function (exports, require, module, __filename, __dirname) { ... });

Ungoverned modules run in the loader's global context, which defines a
"global" binding like a Node.js host does.

# Interception

Every load goes through four dispatch points:

  - Resolve: request string to resolved filename
  - Load: request to a loaded module (cache lookup, creation, LoadModule)
  - LoadModule: filename to exports via the extension table
  - Compile: JavaScript source to exports

A single Interceptor can be installed per Loader. It receives every call and
may fall back to the Default* methods. The active cache and the extension
table are global slots of the Loader; SwapCache and SwapExtension repoint a
slot and return the function that restores it.

# Concurrency

A Loader is not safe for concurrent use. Loads are synchronous and nested
loads are plain recursive calls, so swapped slots are always restored before
control returns to the caller.
*/
package module
