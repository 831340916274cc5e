package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Loader metrics
	RequiresTotal   *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	ResolverCalls   prometheus.Counter
	CompileDuration *prometheus.HistogramVec
	LoadErrors      *prometheus.CounterVec

	// Sandbox metrics
	SandboxesCreated prometheus.Counter

	// Snapshot for CLI reporting - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values
type MetricsSnapshot struct {
	GovernedRequires   int64
	UngovernedRequires int64
	ModuleCacheHits    int64
	ResolveCacheHits   int64
	ResolverCalls      int64
	Compiles           int64
	CompileSeconds     float64
	LoadErrors         int64
	SandboxesCreated   int64
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns metrics registered with the default Prometheus registerer
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewMetrics creates a new metrics collector registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequiresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxrequire_requires_total",
				Help: "Total number of module loads by governance",
			},
			[]string{"governed"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxrequire_cache_hits_total",
				Help: "Total number of sandbox cache hits",
			},
			[]string{"cache"},
		),
		ResolverCalls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ctxrequire_resolver_calls_total",
				Help: "Total number of custom resolver invocations",
			},
		),
		CompileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctxrequire_compile_duration_seconds",
				Help:    "Sandboxed module compile and evaluation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"status"},
		),
		LoadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctxrequire_load_errors_total",
				Help: "Total number of failed sandboxed loads",
			},
			[]string{"stage"},
		),
		SandboxesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ctxrequire_sandboxes_created_total",
				Help: "Total number of sandbox roots created",
			},
		),
	}
}

// RecordRequire records a module load
func (m *Metrics) RecordRequire(governed bool) {
	label := "false"
	if governed {
		label = "true"
	}
	m.RequiresTotal.WithLabelValues(label).Inc()

	m.mu.Lock()
	if governed {
		m.snapshot.GovernedRequires++
	} else {
		m.snapshot.UngovernedRequires++
	}
	m.mu.Unlock()
}

// RecordCacheHit records a hit in the "module" or "resolve" cache
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHits.WithLabelValues(cache).Inc()

	m.mu.Lock()
	switch cache {
	case "module":
		m.snapshot.ModuleCacheHits++
	case "resolve":
		m.snapshot.ResolveCacheHits++
	}
	m.mu.Unlock()
}

// RecordResolverCall records a custom resolver invocation
func (m *Metrics) RecordResolverCall() {
	m.ResolverCalls.Inc()

	m.mu.Lock()
	m.snapshot.ResolverCalls++
	m.mu.Unlock()
}

// RecordCompile records a sandboxed compile
func (m *Metrics) RecordCompile(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CompileDuration.WithLabelValues(status).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Compiles++
	m.snapshot.CompileSeconds += duration.Seconds()
	m.mu.Unlock()
}

// RecordLoadError records a failed load at stage "resolve", "load" or "compile"
func (m *Metrics) RecordLoadError(stage string) {
	m.LoadErrors.WithLabelValues(stage).Inc()

	m.mu.Lock()
	m.snapshot.LoadErrors++
	m.mu.Unlock()
}

// RecordSandboxCreated records a new sandbox root
func (m *Metrics) RecordSandboxCreated() {
	m.SandboxesCreated.Inc()

	m.mu.Lock()
	m.snapshot.SandboxesCreated++
	m.mu.Unlock()
}
