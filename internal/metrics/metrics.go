// Package metrics exposes Prometheus counters for the pricing API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carprice"

// Metrics holds every collector on a private registry so tests can build as
// many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	predictionErrs  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	recommendations prometheus.Counter
	unknownValues   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Price predictions served by strategy and confidence",
			},
			[]string{"strategy", "confidence"},
		),
		predictionErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_errors_total",
				Help:      "Failed predictions by error code",
			},
			[]string{"code"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimate_cache_lookups_total",
				Help:      "Estimate cache lookups by result",
			},
			[]string{"result"},
		),
		recommendations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommended_items_total",
				Help:      "Recommendation items generated",
			},
		),
		unknownValues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unknown_category_values_total",
				Help:      "Categorical inputs outside the vocabulary, by field",
			},
			[]string{"field"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.predictions,
		m.predictionErrs,
		m.cacheLookups,
		m.recommendations,
		m.unknownValues,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObservePrediction(strategy, confidence string) {
	m.predictions.WithLabelValues(strategy, confidence).Inc()
}

func (m *Metrics) ObservePredictionError(code string) {
	m.predictionErrs.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRecommendations(n int) {
	m.recommendations.Add(float64(n))
}

func (m *Metrics) ObserveUnknownCategories(fields []string) {
	for _, field := range fields {
		m.unknownValues.WithLabelValues(field).Inc()
	}
}

// Middleware records count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
