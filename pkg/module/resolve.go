package module

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
)

// DefaultResolve resolves request the way Node.js does for files:
// builtins by name, relative and absolute requests as file, file plus
// registered extension, or directory, and bare requests through
// node_modules directories above the requester.
func (l *Loader) DefaultResolve(request string, parent *Module) (string, error) {
	if l.IsBuiltin(request) {
		return request, nil
	}
	if request == "" {
		return "", ErrInvalidRequest
	}

	dir, parentName := requesterDir(parent)

	if isPathRequest(request) {
		base := request
		if !filepath.IsAbs(base) {
			base = filepath.Join(dir, request)
		}
		if p, ok := l.resolvePath(base); ok {
			return p, nil
		}
		return "", &NotFoundError{Request: request, Parent: parentName}
	}

	for _, nm := range nodeModulesPaths(dir) {
		if p, ok := l.resolvePath(filepath.Join(nm, request)); ok {
			return p, nil
		}
	}
	return "", &NotFoundError{Request: request, Parent: parentName}
}

func requesterDir(parent *Module) (dir, filename string) {
	if parent == nil || parent.Filename == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ".", ""
		}
		return wd, ""
	}
	return filepath.Dir(parent.Filename), parent.Filename
}

func isPathRequest(request string) bool {
	if filepath.IsAbs(request) {
		return true
	}
	return request == "." || request == ".." ||
		strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../")
}

func (l *Loader) resolvePath(base string) (string, bool) {
	if p, ok := l.resolveFile(base); ok {
		return p, true
	}
	return l.resolveDirectory(base)
}

func (l *Loader) resolveFile(base string) (string, bool) {
	if isFile(base) {
		return base, true
	}
	for _, ext := range l.extOrder {
		if isFile(base + ext) {
			return base + ext, true
		}
	}
	return "", false
}

func (l *Loader) resolveDirectory(base string) (string, bool) {
	if main := packageMain(filepath.Join(base, "package.json")); main != "" {
		target := filepath.Join(base, main)
		if p, ok := l.resolveFile(target); ok {
			return p, true
		}
		if p, ok := l.resolveIndex(target); ok {
			return p, true
		}
	}
	return l.resolveIndex(base)
}

func (l *Loader) resolveIndex(dir string) (string, bool) {
	for _, ext := range l.extOrder {
		p := filepath.Join(dir, "index"+ext)
		if isFile(p) {
			return p, true
		}
	}
	return "", false
}

// packageMain returns the "main" field of a package.json, or ""
func packageMain(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var pkg struct {
		Main string `json:"main"`
	}
	if err := sonic.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Main
}

func nodeModulesPaths(dir string) []string {
	var paths []string
	for {
		if filepath.Base(dir) != "node_modules" {
			paths = append(paths, filepath.Join(dir, "node_modules"))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return paths
		}
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
