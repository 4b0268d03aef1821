// Package metrics exposes Prometheus instruments for the backup pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookkeeper"

// Recorder groups the instruments. A nil *Recorder records nothing.
type Recorder struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	rowsImported  *prometheus.CounterVec
	rowsRejected  *prometheus.CounterVec
	alertsDropped prometheus.Counter
	documentBytes prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the instruments with reg.
func New(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_runs_total",
			Help:      "Backup operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backup_run_duration_seconds",
			Help:      "Duration of backup operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		rowsImported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Rows stored by imports, by collection.",
		}, []string{"collection"}),
		rowsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_rejected_total",
			Help:      "Rows rejected by imports, by collection.",
		}, []string{"collection"}),
		alertsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_alerts_dropped_total",
			Help:      "Alert rows that could not be restored.",
		}),
		documentBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backup_document_bytes",
			Help:      "Size of exported backup documents.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// ObserveRun records one finished operation.
func (r *Recorder) ObserveRun(operation string, started time.Time, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.runs.WithLabelValues(operation, outcome).Inc()
	r.runDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (r *Recorder) DocumentSize(bytes int) {
	if r == nil {
		return
	}
	r.documentBytes.Observe(float64(bytes))
}

func (r *Recorder) RowsImported(collection string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.rowsImported.WithLabelValues(collection).Add(float64(n))
}

func (r *Recorder) RowRejected(collection string) {
	if r == nil {
		return
	}
	r.rowsRejected.WithLabelValues(collection).Inc()
}

func (r *Recorder) AlertDropped() {
	if r == nil {
		return
	}
	r.alertsDropped.Inc()
}
