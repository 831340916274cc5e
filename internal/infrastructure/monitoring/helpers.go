package monitoring

import (
	"fmt"
	"strings"
)

// GetSnapshot returns current metric values
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Format renders the snapshot as aligned "name value" lines
func (s MetricsSnapshot) Format() string {
	var sb strings.Builder

	rows := []struct {
		name  string
		value interface{}
	}{
		{"sandboxes_created", s.SandboxesCreated},
		{"requires_governed", s.GovernedRequires},
		{"requires_ungoverned", s.UngovernedRequires},
		{"module_cache_hits", s.ModuleCacheHits},
		{"resolve_cache_hits", s.ResolveCacheHits},
		{"resolver_calls", s.ResolverCalls},
		{"compiles", s.Compiles},
		{"compile_seconds", fmt.Sprintf("%.6f", s.CompileSeconds)},
		{"load_errors", s.LoadErrors},
	}
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-20s %v\n", r.name, r.value)
	}
	return sb.String()
}
