/*
Package monitoring provides metrics collection for module loading.

# Overview

This package implements Prometheus-based metrics for sandboxed requires:
loads by governance, module and resolve cache hits, custom resolver calls,
compile durations, load failures and created sandbox roots. A snapshot of
the same counters is kept for reporting without a Prometheus scrape.

# Usage

	// Register with a dedicated registry
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	// Or share the process-wide collector
	metrics = monitoring.Default()

	metrics.RecordRequire(true)
	fmt.Print(metrics.GetSnapshot().Format())
*/
package monitoring
