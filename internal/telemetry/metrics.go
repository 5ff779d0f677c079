package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer, which records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	eventsTotal    *prometheus.CounterVec
	droppedTotal   *prometheus.CounterVec
	restoreTotal   *prometheus.CounterVec
	eventDuration  prometheus.Histogram
	outputLevel    prometheus.Gauge
	configChecksum prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luxman_events_total",
			Help: "Total events handled by kind and outcome.",
		}, []string{"kind", "code"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luxman_messages_dropped_total",
			Help: "Total inbound messages dropped before handling, by reason.",
		}, []string{"reason"}),
		restoreTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luxman_restore_total",
			Help: "Configuration restores at start-up by result.",
		}, []string{"result"}),
		eventDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "luxman_event_duration_seconds",
			Help:    "Histogram of event handling durations.",
			Buckets: prometheus.DefBuckets,
		}),
		outputLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "luxman_output_level",
			Help: "Output level last pushed to the driver (0-100).",
		}),
		configChecksum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "luxman_config_checksum",
			Help: "CRC32 of the live configuration.",
		}),
	}

	m.registry.MustRegister(
		m.eventsTotal,
		m.droppedTotal,
		m.restoreTotal,
		m.eventDuration,
		m.outputLevel,
		m.configChecksum,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) EventHandled(kind, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, code).Inc()
	m.eventDuration.Observe(duration.Seconds())
}

func (m *Metrics) MessageDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) Restored(result string) {
	if m == nil {
		return
	}
	m.restoreTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) OutputLevel(level uint8) {
	if m == nil {
		return
	}
	m.outputLevel.Set(float64(level))
}

func (m *Metrics) ConfigChecksum(sum uint32) {
	if m == nil {
		return
	}
	m.configChecksum.Set(float64(sum))
}
