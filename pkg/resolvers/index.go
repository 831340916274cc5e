package resolvers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// Index resolves requests from a snapshot of the files below Root. It
// never touches the file system after construction, so files created later
// are not found.
type Index struct {
	Root       string
	Extensions []string

	files map[string]struct{}
}

// IndexOptions configures NewIndex
type IndexOptions struct {
	Extensions []string // Probed after the exact path; DefaultExtensions when empty
	SkipDirs   []string // Directory base names not descended into
}

// NewIndex walks root and records every regular file below it
func NewIndex(root string, opts IndexOptions) (*Index, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, name := range opts.SkipDirs {
		skip[name] = true
	}

	var mu sync.Mutex
	files := map[string]struct{}{}

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		mu.Lock()
		files[filepath.Clean(path)] = struct{}{}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}

	return &Index{Root: root, Extensions: exts, files: files}, nil
}

// Len returns the number of indexed files
func (ix *Index) Len() int {
	return len(ix.files)
}

// Has reports whether path was indexed
func (ix *Index) Has(path string) bool {
	_, ok := ix.files[filepath.Clean(path)]
	return ok
}

// Resolve implements ctxrequire.Resolver
func (ix *Index) Resolve(fromDir, request string) (string, error) {
	base := request
	if !filepath.IsAbs(base) {
		base = filepath.Join(fromDir, request)
	}

	for _, candidate := range candidates(base, ix.Extensions) {
		if ix.Has(candidate) {
			return candidate, nil
		}
	}
	return "", &module.NotFoundError{Request: request, Parent: fromDir}
}
