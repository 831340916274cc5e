package resolvers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/ctxrequire/pkg/ctxrequire"
)

// Rule maps requests matching Pattern onto Target. The part of the request
// after the pattern's literal prefix is appended to Target.
type Rule struct {
	Pattern string
	Target  string
}

// Alias rewrites matching requests to absolute paths below Base and passes
// every request on to Next.
type Alias struct {
	Base  string
	Rules []Rule
	Next  ctxrequire.Resolver
}

// NewAlias validates rules and returns an Alias. Next defaults to Files.
func NewAlias(base string, rules []Rule, next ctxrequire.Resolver) (*Alias, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("alias: invalid pattern %q: %w", r.Pattern, doublestar.ErrBadPattern)
		}
	}
	if next == nil {
		next = NewFiles()
	}
	return &Alias{Base: base, Rules: rules, Next: next}, nil
}

// Resolve implements ctxrequire.Resolver
func (a *Alias) Resolve(fromDir, request string) (string, error) {
	if target, ok := a.Rewrite(request); ok {
		request = target
	}
	return a.Next.Resolve(fromDir, request)
}

// Rewrite applies the first matching rule to request
func (a *Alias) Rewrite(request string) (string, bool) {
	for _, r := range a.Rules {
		ok, err := doublestar.Match(r.Pattern, request)
		if err != nil || !ok {
			continue
		}

		rest := strings.TrimPrefix(request, literalPrefix(r.Pattern))
		target := r.Target
		if !filepath.IsAbs(target) {
			target = filepath.Join(a.Base, target)
		}
		return filepath.Join(target, filepath.FromSlash(rest)), true
	}
	return "", false
}

// literalPrefix returns the directories of pattern before its first meta
// character, or all of pattern when it has none.
func literalPrefix(pattern string) string {
	i := strings.IndexAny(pattern, `*?[{\`)
	if i < 0 {
		return pattern
	}
	if j := strings.LastIndex(pattern[:i], "/"); j >= 0 {
		return pattern[:j+1]
	}
	return ""
}
