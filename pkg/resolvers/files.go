package resolvers

import (
	"os"
	"path/filepath"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// DefaultExtensions are probed when a request has no matching file
var DefaultExtensions = []string{".js", ".json"}

// Files resolves requests against the file system relative to the
// requesting directory. Candidates are the exact path, the path plus each
// extension, then index plus each extension inside a directory.
type Files struct {
	Extensions []string
}

// NewFiles returns a Files resolver probing exts, or DefaultExtensions
func NewFiles(exts ...string) *Files {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &Files{Extensions: exts}
}

// Resolve implements ctxrequire.Resolver
func (f *Files) Resolve(fromDir, request string) (string, error) {
	base := request
	if !filepath.IsAbs(base) {
		base = filepath.Join(fromDir, request)
	}

	for _, candidate := range candidates(base, f.Extensions) {
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", &module.NotFoundError{Request: request, Parent: fromDir}
}

func candidates(base string, exts []string) []string {
	out := make([]string, 0, 2*len(exts)+1)
	out = append(out, base)
	for _, ext := range exts {
		out = append(out, base+ext)
	}
	for _, ext := range exts {
		out = append(out, filepath.Join(base, "index"+ext))
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
