// Package metrics holds the Prometheus collectors of the batch jobs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fleet_telemetry"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Metrics struct {
	files         *prometheus.CounterVec
	records       prometheus.Counter
	chunks        *prometheus.CounterVec
	deletes       *prometheus.CounterVec
	batchDuration prometheus.Histogram
	auditRows     *prometheus.CounterVec
	subscribers   prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		files: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Source files extracted, by outcome.",
		}, []string{"status"}),
		records: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Canonical records committed to the store.",
		}),
		chunks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_writes_total",
			Help:      "Store chunk writes, by outcome.",
		}, []string{"status"}),
		deletes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_deletes_total",
			Help:      "Source file deletions after a committed batch, by outcome.",
		}, []string{"status"}),
		batchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one pipeline batch, extraction through cleanup.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		auditRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_rows_total",
			Help:      "Audit workbook rows, by verdict (yes, no, skipped, failed).",
		}, []string{"status"}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_subscribers",
			Help:      "Connected progress websocket subscribers.",
		}),
	}
}

func (m *Metrics) FileProcessed(status string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(status).Inc()
}

func (m *Metrics) ChunkWritten(status string, records int) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(status).Inc()
	if status == StatusOK {
		m.records.Add(float64(records))
	}
}

func (m *Metrics) SourceDeleted(status string) {
	if m == nil {
		return
	}
	m.deletes.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
}

func (m *Metrics) AuditRow(status string) {
	if m == nil {
		return
	}
	m.auditRows.WithLabelValues(status).Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}
