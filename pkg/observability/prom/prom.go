// Package prom implements the observability hooks with Prometheus collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

const namespace = "forcegraph"

// Metrics holds every collector and implements all observability hook
// interfaces.
type Metrics struct {
	GenerateTotal    *prometheus.CounterVec
	GenerateDuration *prometheus.HistogramVec
	GraphNodes       *prometheus.HistogramVec

	LayoutTotal      *prometheus.CounterVec
	LayoutDuration   *prometheus.HistogramVec
	LayoutIterations *prometheus.HistogramVec
	Temperature      prometheus.Gauge
	MaxMove          prometheus.Gauge
	SettledTotal     prometheus.Counter

	RenderTotal    *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New registers the collectors with reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GenerateTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_total",
			Help:      "Graphs generated, by generator and status",
		}, []string{"generator", "status"}),
		GenerateDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Graph generation duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"generator"}),
		GraphNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Node count of laid out graphs",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000},
		}, []string{"algorithm"}),

		LayoutTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_total",
			Help:      "Layouts computed, by algorithm and status",
		}, []string{"algorithm", "status"}),
		LayoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0},
		}, []string{"algorithm"}),
		LayoutIterations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_iterations",
			Help:      "Iterations completed per layout",
			Buckets:   []float64{10, 50, 100, 300, 1000},
		}, []string{"algorithm"}),
		Temperature: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_temperature",
			Help:      "Temperature after the most recent iteration",
		}),
		MaxMove: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_max_move",
			Help:      "Longest node move in the most recent iteration",
		}),
		SettledTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_settled_total",
			Help:      "Layouts that finished with the engine settled",
		}),

		RenderTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Render calls, by status",
		}, []string{"status"}),
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		}, []string{"status"}),

		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by key type",
		}, []string{"key_type"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by key type",
		}, []string{"key_type"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "API requests currently being served",
		}),
	}
}

// Install registers m as every global hook.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetEngineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnGenerateStart(context.Context, string) {}

func (m *Metrics) OnGenerateComplete(_ context.Context, generator string, _, _ int, d time.Duration, err error) {
	m.GenerateTotal.WithLabelValues(generator, status(err)).Inc()
	m.GenerateDuration.WithLabelValues(generator).Observe(d.Seconds())
}

func (m *Metrics) OnLayoutStart(_ context.Context, algorithm string, nodeCount int) {
	m.GraphNodes.WithLabelValues(algorithm).Observe(float64(nodeCount))
}

func (m *Metrics) OnLayoutComplete(_ context.Context, algorithm string, iterations int, d time.Duration, err error) {
	m.LayoutTotal.WithLabelValues(algorithm, status(err)).Inc()
	m.LayoutDuration.WithLabelValues(algorithm).Observe(d.Seconds())
	m.LayoutIterations.WithLabelValues(algorithm).Observe(float64(iterations))
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.RenderTotal.WithLabelValues(status(err)).Inc()
	m.RenderDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

func (m *Metrics) OnIteration(_ context.Context, _ int, temperature, maxMove float64) {
	m.Temperature.Set(temperature)
	m.MaxMove.Set(maxMove)
}

func (m *Metrics) OnSettled(context.Context, int) { m.SettledTotal.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheHits.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheMisses.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.HTTPRequestsInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.EngineHooks   = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
