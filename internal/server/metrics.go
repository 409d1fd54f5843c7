package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intake/internal/models"
)

const metricsNamespace = "intake"

// Metrics holds the service's Prometheus collectors. It also receives
// attachment events from the records collector.
type Metrics struct {
	registry     *prometheus.Registry
	actions      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	filesStored  *prometheus.CounterVec
	bytesStored  *prometheus.CounterVec
	shareFailure *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. A nil reg gets a fresh registry
// with the Go and process collectors.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &Metrics{
		registry: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "actions_total",
			Help:      "Record actions handled, by action and outcome.",
		}, []string{"action", "ok"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "action_duration_seconds",
			Help:      "Time spent handling record actions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		filesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_stored_total",
			Help:      "Attachments written to the folder store.",
		}, []string{"category"}),
		bytesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stored_bytes_total",
			Help:      "Attachment bytes written to the folder store.",
		}, []string{"category"}),
		shareFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "share_failures_total",
			Help:      "Attachments whose link sharing could not be enabled.",
		}, []string{"category"}),
	}
	reg.MustRegister(m.actions, m.duration, m.filesStored, m.bytesStored, m.shareFailure)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// FileStored implements records.Metrics.
func (m *Metrics) FileStored(category models.Category, sizeBytes int64) {
	m.filesStored.WithLabelValues(string(category)).Inc()
	if sizeBytes > 0 {
		m.bytesStored.WithLabelValues(string(category)).Add(float64(sizeBytes))
	}
}

// ShareFailed implements records.Metrics.
func (m *Metrics) ShareFailed(category models.Category) {
	m.shareFailure.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) observeAction(action string, ok bool, started time.Time) {
	m.actions.WithLabelValues(action, strconv.FormatBool(ok)).Inc()
	m.duration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}
