// Package middleware provides HTTP middleware for shadow servers.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus request metrics middleware
//   - Structured request logging with log/slog
//
// All middleware has the func(http.Handler) http.Handler shape, so it plugs
// into chi (or any net/http stack):
//
//	r := chi.NewRouter()
//	r.Use(
//	    middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	    middleware.Prometheus(m),
//	    middleware.Logger(logger),
//	)
//
// # OpenTelemetry Middleware
//
// Each request gets a server span named after its method and path. The
// span is placed in the request context; the SSR host's render span is a
// child of it. Filter out noisy endpoints with WithRequestFilter:
//
//	middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	)
//
// # Prometheus Metrics
//
// Prometheus records shadow_http_requests_total{method,code} and
// shadow_http_request_duration_seconds{method} on the given
// metrics.Metrics. Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.Handler())
package middleware
