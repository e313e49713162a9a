// Package metrics defines the Prometheus metrics of the dotmap service.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/dotmap"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dotmap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dotmap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dotmap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Rendering metrics
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dotmap",
		Subsystem: "render",
		Name:      "flushes_total",
		Help:      "Total dot batches composited onto map images",
	}, []string{"map"})

	DotsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dotmap",
		Subsystem: "render",
		Name:      "dots_total",
		Help:      "Total dots drawn",
	}, []string{"map"})

	ZipMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dotmap",
		Subsystem: "render",
		Name:      "zip_misses_total",
		Help:      "Total postal codes skipped because they were not geocoded",
	}, []string{"map"})

	EncodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dotmap",
		Subsystem: "render",
		Name:      "encode_duration_seconds",
		Help:      "Duration of rendering and encoding one map image",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"format"})

	CachedImages = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dotmap",
		Subsystem: "cache",
		Name:      "images",
		Help:      "Decoded base map images held in memory",
	})
)

// ObserveMap adds a finished map's counters.
func ObserveMap(m *dotmap.Map) {
	s := m.Stats()
	name := m.Name()
	RendersTotal.WithLabelValues(name).Add(float64(s.Renders))
	DotsRendered.WithLabelValues(name).Add(float64(s.DotsRendered))
	ZipMisses.WithLabelValues(name).Add(float64(s.ZipMisses))
}

// Middleware records request count, latency and response size.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status
				// is final before it is recorded.
				c.Error(err)
			}

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method

			httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(duration)
			httpResponseSize.WithLabelValues(method, path).Observe(float64(c.Response().Size))

			return nil
		}
	}
}

// Handler returns an Echo handler serving the Prometheus /metrics endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
