package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/vango-dev/shadow/pkg/metrics"
)

// Prometheus creates middleware that records request counts and latency
// to m. A nil m disables recording.
//
// Example:
//
//	m := metrics.New()
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(m))
//	r.Handle("/metrics", promhttp.Handler())
func Prometheus(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.ObserveRequest(r.Method, strconv.Itoa(statusOf(ww)), time.Since(start))
		})
	}
}

// statusOf returns the written status, 200 when the handler wrote nothing.
func statusOf(ww chimw.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
