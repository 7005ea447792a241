package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages all Prometheus metrics for the outbound service.
type Registry struct {
	config   Config
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	httpActiveRequests  *prometheus.GaugeVec

	// Database metrics
	dbConnectionsActive prometheus.Gauge
	dbConnectionsIdle   prometheus.Gauge
	dbConnectionsMax    prometheus.Gauge

	// Dispatch metrics
	dispatchSendsTotal   *prometheus.CounterVec
	dispatchSendDuration *prometheus.HistogramVec
	dispatchLinksTracked prometheus.Counter

	// Transport metrics
	transportCallsTotal   *prometheus.CounterVec
	transportCallDuration *prometheus.HistogramVec
}

// Global registry instance
var (
	globalRegistry *Registry
	once           sync.Once
)

// NewRegistry creates a new metrics registry with the given configuration.
func NewRegistry(config Config) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		config:   config,
		registry: reg,
	}

	r.registerHTTPMetrics()
	r.registerDatabaseMetrics()
	r.registerDispatchMetrics()
	r.registerTransportMetrics()

	if config.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if config.EnableRuntimeMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}

	return r
}

// Global returns the global registry instance, initializing it with default config if needed.
func Global() *Registry {
	once.Do(func() {
		globalRegistry = NewRegistry(DefaultConfig())
	})
	return globalRegistry
}

// SetGlobal sets the global registry instance.
func SetGlobal(r *Registry) {
	globalRegistry = r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Config returns the registry configuration.
func (r *Registry) Config() Config {
	return r.config
}

func (r *Registry) registerHTTPMetrics() {
	ns := r.config.Namespace

	r.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests handled, by method, path and status code",
		},
		[]string{"method", "path", "status_code"},
	)

	r.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a request, in seconds",
			Buckets:   r.config.HistogramBuckets.HTTPDuration,
		},
		[]string{"method", "path"},
	)

	r.httpRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_size_bytes",
			Help:      "Request body size in bytes",
			Buckets:   r.config.HistogramBuckets.HTTPSize,
		},
		[]string{"method", "path"},
	)

	r.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Response body size in bytes",
			Buckets:   r.config.HistogramBuckets.HTTPSize,
		},
		[]string{"method", "path"},
	)

	r.httpActiveRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Requests currently in flight",
		},
		[]string{"method", "path"},
	)

	r.registry.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.httpRequestSize,
		r.httpResponseSize,
		r.httpActiveRequests,
	)
}

func (r *Registry) registerDatabaseMetrics() {
	ns := r.config.Namespace

	r.dbConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "db",
			Name:      "connections_active",
			Help:      "Pool connections currently in use",
		},
	)

	r.dbConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "db",
			Name:      "connections_idle",
			Help:      "Pool connections currently idle",
		},
	)

	r.dbConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "db",
			Name:      "connections_max",
			Help:      "Configured pool connection limit",
		},
	)

	r.registry.MustRegister(
		r.dbConnectionsActive,
		r.dbConnectionsIdle,
		r.dbConnectionsMax,
	)
}

func (r *Registry) registerDispatchMetrics() {
	ns := r.config.Namespace

	r.dispatchSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "dispatch",
			Name:      "sends_total",
			Help:      "Total number of dispatch invocations by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	r.dispatchSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "dispatch",
			Name:      "send_duration_seconds",
			Help:      "End-to-end dispatch duration in seconds",
			Buckets:   r.config.HistogramBuckets.SendDuration,
		},
		[]string{"provider"},
	)

	r.dispatchLinksTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "dispatch",
			Name:      "links_tracked_total",
			Help:      "Total number of links persisted for click tracking",
		},
	)

	r.registry.MustRegister(
		r.dispatchSendsTotal,
		r.dispatchSendDuration,
		r.dispatchLinksTracked,
	)
}

func (r *Registry) registerTransportMetrics() {
	ns := r.config.Namespace

	r.transportCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "transport",
			Name:      "calls_total",
			Help:      "Total number of provider transmission attempts",
		},
		[]string{"provider", "outcome"},
	)

	r.transportCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "transport",
			Name:      "call_duration_seconds",
			Help:      "Provider transmission duration in seconds",
			Buckets:   r.config.HistogramBuckets.TransportDuration,
		},
		[]string{"provider"},
	)

	r.registry.MustRegister(
		r.transportCallsTotal,
		r.transportCallDuration,
	)
}
