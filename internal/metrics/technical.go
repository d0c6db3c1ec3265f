package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal количество обработанных HTTP запросов по маршруту и статусу
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_http_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration длительность обработки HTTP запросов
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPRequestSize размер тела запроса; ответы участников самые крупные
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		},
		[]string{"method", "route"},
	)

	// HTTPInFlight число запросов в обработке
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_http_requests_in_flight",
			Help: "Number of HTTP requests being served.",
		},
	)
)

// ObserveHTTPRequest учитывает один завершённый HTTP запрос.
// size <= 0 означает неизвестный размер тела и не попадает в гистограмму.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration, size int64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if size > 0 {
		HTTPRequestSize.WithLabelValues(method, route).Observe(float64(size))
	}
}
