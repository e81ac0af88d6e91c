// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/nextstep/pkg/observability"
)

// Namespace prefixes every metric name.
const Namespace = "nextstep"

// Collector holds the metrics and the registry they are registered with.
type Collector struct {
	registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	cycleDuration  *prometheus.HistogramVec
	previewsMerged prometheus.Counter
	reruns         *prometheus.CounterVec
	analytics      *prometheus.CounterVec
	analyticsDur   *prometheus.HistogramVec

	cacheOps *prometheus.CounterVec
	cacheLen *prometheus.HistogramVec

	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendErrors   *prometheus.CounterVec

	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

// New creates a collector on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reconcile_cycles_total",
			Help:      "Preview reconciliation cycles by outcome",
		}, []string{"matrix", "status"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reconcile_cycle_duration_seconds",
			Help:      "Duration of preview reconciliation cycles",
			Buckets:   prometheus.DefBuckets,
		}, []string{"matrix"}),
		previewsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "previews_merged_total",
			Help:      "Preview nodes merged into graphs",
		}),
		reruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reruns_queued_total",
			Help:      "Triggers deferred while a run was in flight",
		}, []string{"runner"}),
		analytics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "analytics_refreshes_total",
			Help:      "Analytics refreshes by kind and outcome",
		}, []string{"kind", "status"}),
		analyticsDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "analytics_refresh_duration_seconds",
			Help:      "Duration of analytics refreshes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_operations_total",
			Help:      "Cache hits, misses and writes",
		}, []string{"key_type", "op"}),
		cacheLen: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cache_entry_bytes",
			Help:      "Size of cache writes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"key_type"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the prediction backend by status code",
		}, []string{"method", "path", "code"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the prediction backend",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_errors_total",
			Help:      "Backend calls that produced no response",
		}, []string{"method", "path"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the API",
		}, []string{"method", "route", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.cycles, c.cycleDuration, c.previewsMerged, c.reruns,
		c.analytics, c.analyticsDur,
		c.cacheOps, c.cacheLen,
		c.backendCalls, c.backendDuration, c.backendErrors,
		c.apiRequests, c.apiDuration,
	)
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Register installs c as the global reconcile, cache and HTTP hooks.
func (c *Collector) Register() {
	observability.SetReconcileHooks(c)
	observability.SetCacheHooks(c)
	observability.SetHTTPHooks(c)
}

// ObserveRequest records one API request served.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.apiDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) OnCycleStart(context.Context, string, int) {}

func (c *Collector) OnCycleComplete(_ context.Context, matrix string, merged int, d time.Duration, err error) {
	c.cycles.WithLabelValues(matrix, status(err)).Inc()
	c.cycleDuration.WithLabelValues(matrix).Observe(d.Seconds())
	c.previewsMerged.Add(float64(merged))
}

func (c *Collector) OnRerunQueued(_ context.Context, runner string) {
	c.reruns.WithLabelValues(runner).Inc()
}

func (c *Collector) OnAnalyticsComplete(_ context.Context, kind string, d time.Duration, err error) {
	c.analytics.WithLabelValues(kind, status(err)).Inc()
	c.analyticsDur.WithLabelValues(kind).Observe(d.Seconds())
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, size int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
	c.cacheLen.WithLabelValues(keyType).Observe(float64(size))
}

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, _, path string, code int, d time.Duration) {
	c.backendCalls.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	c.backendDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, _, path string, _ error) {
	c.backendErrors.WithLabelValues(method, path).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.ReconcileHooks = (*Collector)(nil)
	_ observability.CacheHooks     = (*Collector)(nil)
	_ observability.HTTPHooks      = (*Collector)(nil)
)
