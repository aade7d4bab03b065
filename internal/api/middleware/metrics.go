// metrics.go — Prometheus HTTP метрики сервиса регистрации.
// Регистрирует метрики: evr_http_requests_total, evr_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evr_http_requests_total",
			Help: "Общее количество HTTP-запросов к сервису регистрации",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evr_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к сервису регистрации в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// knownPaths — маршруты, которые попадают в лейбл path как есть.
var knownPaths = map[string]struct{}{
	"/health/live":          {},
	"/health/ready":         {},
	"/metrics":              {},
	"/api/health":           {},
	"/api/register":         {},
	"/api/slots-left":       {},
	"/api/admin/login":      {},
	"/api/admin/data":       {},
	"/api/admin/download":   {},
	"/api/admin/clear-all":  {},
	"/api/admin/sync-excel": {},
}

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath сводит неизвестные пути к одному значению,
// чтобы сканеры не раздували кардинальность метрик.
func normalizePath(path string) string {
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return "other"
}
