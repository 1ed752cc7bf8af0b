package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finance_dashboard"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Market data metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	FallbacksTotal   *prometheus.CounterVec

	// Series metrics
	DownsampleInputPoints  prometheus.Histogram
	DownsampleOutputPoints prometheus.Histogram

	// Chart metrics
	ChartRenderDuration *prometheus.HistogramVec
	ChartCommands       *prometheus.HistogramVec
	ChartSessionsActive prometheus.Gauge

	// News metrics
	NewsRequestsTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// renderBuckets are finer buckets for in-process chart rendering
var renderBuckets = []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25}

// pointBuckets cover series lengths from a week of dailies to decades
var pointBuckets = []float64{10, 30, 90, 180, 250, 365, 800, 1825, 5000, 10000}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "cache_hits_total",
				Help:      "Total number of market data cache hits",
			},
			[]string{"asset"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "cache_misses_total",
				Help:      "Total number of market data cache misses",
			},
			[]string{"asset"},
		),
		FetchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "fetch_errors_total",
				Help:      "Total number of failed quote or history fetches",
			},
			[]string{"asset", "kind"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "lookback_fallbacks_total",
				Help:      "Total number of times a shorter lookback window was used",
			},
			[]string{"asset", "reason"},
		),

		DownsampleInputPoints: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "series",
				Name:      "downsample_input_points",
				Help:      "Series length before downsampling",
				Buckets:   pointBuckets,
			},
		),
		DownsampleOutputPoints: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "series",
				Name:      "downsample_output_points",
				Help:      "Series length after downsampling",
				Buckets:   pointBuckets,
			},
		),

		ChartRenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chart",
				Name:      "render_duration_seconds",
				Help:      "Duration of chart renders in seconds",
				Buckets:   renderBuckets,
			},
			[]string{"output"},
		),
		ChartCommands: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chart",
				Name:      "draw_commands",
				Help:      "Number of draw commands per rendered frame",
				Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
			},
			[]string{"chart_type"},
		),
		ChartSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "chart",
				Name:      "sessions_active",
				Help:      "Number of live chart sessions",
			},
		),

		NewsRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "news",
				Name:      "requests_total",
				Help:      "Total number of news page requests",
			},
			[]string{"symbol", "sentiment"},
		),

		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordCacheHit records a market data cache hit
func (m *Metrics) RecordCacheHit(asset string) {
	m.CacheHitsTotal.WithLabelValues(asset).Inc()
}

// RecordCacheMiss records a market data cache miss
func (m *Metrics) RecordCacheMiss(asset string) {
	m.CacheMissesTotal.WithLabelValues(asset).Inc()
}

// RecordFetchError records a failed quote or history fetch
func (m *Metrics) RecordFetchError(asset, kind string) {
	m.FetchErrorsTotal.WithLabelValues(asset, kind).Inc()
}

// RecordFallback records that a shorter lookback window was tried
func (m *Metrics) RecordFallback(asset, reason string) {
	m.FallbacksTotal.WithLabelValues(asset, reason).Inc()
}

// RecordDownsample records series lengths around a downsampling pass
func (m *Metrics) RecordDownsample(in, out int) {
	m.DownsampleInputPoints.Observe(float64(in))
	m.DownsampleOutputPoints.Observe(float64(out))
}

// RecordChartRender records a frame render
func (m *Metrics) RecordChartRender(output, chartType string, commands int, duration time.Duration) {
	m.ChartRenderDuration.WithLabelValues(output).Observe(duration.Seconds())
	m.ChartCommands.WithLabelValues(chartType).Observe(float64(commands))
}

// SetChartSessions sets the number of live chart sessions
func (m *Metrics) SetChartSessions(n int) {
	m.ChartSessionsActive.Set(float64(n))
}

// RecordNewsRequest records a news page request
func (m *Metrics) RecordNewsRequest(symbol, sentiment string) {
	m.NewsRequestsTotal.WithLabelValues(symbol, sentiment).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveRender records a chart render with its command count
func (t *Timer) ObserveRender(output, chartType string, commands int) {
	t.metrics.RecordChartRender(output, chartType, commands, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
