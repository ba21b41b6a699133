// Package metrics exposes Prometheus collectors for the HTTP surface and the engine adapter.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "search_facade"

// Metrics owns a private registry so that tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	engineOpsTotal     *prometheus.CounterVec
	engineOpDuration   *prometheus.HistogramVec
	bulkItemsTotal     *prometheus.CounterVec
	kafkaMessagesTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Number of in-flight HTTP requests",
			},
		),
		engineOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_operations_total",
				Help:      "Total number of search engine operations by outcome kind",
			},
			[]string{"op", "kind"},
		),
		engineOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "engine_operation_duration_seconds",
				Help:      "Search engine operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		bulkItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_items_total",
				Help:      "Total number of bulk items by result",
			},
			[]string{"result"},
		),
		kafkaMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kafka_messages_total",
				Help:      "Total number of consumed document events by topic and result",
			},
			[]string{"topic", "result"},
		),
	}
}

// Registry returns the registry every collector is registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RequestStarted()  { m.httpInFlight.Inc() }
func (m *Metrics) RequestFinished() { m.httpInFlight.Dec() }

func (m *Metrics) RecordEngineOp(op, kind string, duration time.Duration) {
	m.engineOpsTotal.WithLabelValues(op, kind).Inc()
	m.engineOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *Metrics) RecordBulkItems(succeeded, failed int) {
	m.bulkItemsTotal.WithLabelValues("success").Add(float64(succeeded))
	m.bulkItemsTotal.WithLabelValues("failure").Add(float64(failed))
}

func (m *Metrics) RecordMessage(topic, result string) {
	m.kafkaMessagesTotal.WithLabelValues(topic, result).Inc()
}
