// File path: internal/telemetry/metrics.go

// Package telemetry exposes Prometheus metrics for the reconciliation
// pipeline. The registry is the default global one, served at /metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsync_reconciliations_total",
		Help: "Reconciliation runs by outcome status.",
	}, []string{"status"})

	reconciliationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docsync_reconciliation_duration_seconds",
		Help:    "Wall-clock duration of reconciliation runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	filesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsync_files_processed_total",
		Help: "Files handled during reconciliation, by action.",
	}, []string{"action"})

	chunksIndexedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsync_chunks_indexed_total",
		Help: "Document chunks upserted into the vector index.",
	})

	sourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docsync_source_errors_total",
		Help: "Source fetch failures, by error class.",
	}, []string{"class"})
)

// RecordRun records one finished reconciliation run.
func RecordRun(status string, duration time.Duration) {
	reconciliationsTotal.WithLabelValues(status).Inc()
	reconciliationDuration.Observe(duration.Seconds())
}

// RecordFiles records the per-action file counts of one run.
func RecordFiles(added, modified, removed, failed int) {
	if added > 0 {
		filesProcessedTotal.WithLabelValues("added").Add(float64(added))
	}
	if modified > 0 {
		filesProcessedTotal.WithLabelValues("modified").Add(float64(modified))
	}
	if removed > 0 {
		filesProcessedTotal.WithLabelValues("removed").Add(float64(removed))
	}
	if failed > 0 {
		filesProcessedTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// RecordChunks counts chunks written to the index.
func RecordChunks(n int) {
	if n > 0 {
		chunksIndexedTotal.Add(float64(n))
	}
}

// RecordSourceError counts one classified source failure.
func RecordSourceError(class string) {
	sourceErrorsTotal.WithLabelValues(class).Inc()
}
