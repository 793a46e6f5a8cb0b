package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/shadow/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// =============================================================================
// Test tracer
// =============================================================================

type recordingProvider struct {
	noop.TracerProvider
	mu    sync.Mutex
	spans []*recordingSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{p: p}
}

func (p *recordingProvider) ended() []*recordingSpan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*recordingSpan(nil), p.spans...)
}

type recordingTracer struct {
	noop.Tracer
	p *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{p: t.p, name: name, kind: cfg.SpanKind()}
	s.attrs = append(s.attrs, cfg.Attributes()...)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	noop.Span
	p      *recordingProvider
	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	status codes.Code
}

func (s *recordingSpan) IsRecording() bool { return true }

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.attrs = append(s.attrs, kv...)
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func (s *recordingSpan) End(...trace.SpanEndOption) {
	s.p.mu.Lock()
	s.p.spans = append(s.p.spans, s)
	s.p.mu.Unlock()
}

func (s *recordingSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func installProvider(t *testing.T) *recordingProvider {
	t.Helper()
	prev := otel.GetTracerProvider()
	p := &recordingProvider{}
	otel.SetTracerProvider(p)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return p
}

// =============================================================================
// OpenTelemetry Tests
// =============================================================================

func TestOpenTelemetryConfig(t *testing.T) {
	config := defaultOTelConfig()
	if config.TracerName != "shadow" {
		t.Errorf("TracerName = %q, want %q", config.TracerName, "shadow")
	}
	if !config.IncludeRoute {
		t.Error("IncludeRoute should be true by default")
	}

	opts := []OTelOption{
		WithTracerName("custom"),
		WithIncludeRoute(false),
		WithRequestFilter(func(*http.Request) bool { return false }),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue { return nil }),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerName != "custom" {
		t.Errorf("TracerName = %q, want %q", config.TracerName, "custom")
	}
	if config.IncludeRoute {
		t.Error("IncludeRoute should be false")
	}
	if config.Filter == nil || config.AttributeExtractor == nil {
		t.Error("Filter and AttributeExtractor should be set")
	}
}

func TestFormatSpanName(t *testing.T) {
	tests := []struct {
		method, target string
		want           string
	}{
		{"GET", "/users", "shadow GET /users"},
		{"POST", "/users/123", "shadow POST /users/123"},
		{"GET", "/", "shadow GET /"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if got := formatSpanName(req); got != tt.want {
				t.Errorf("formatSpanName() = %q, want %q", got, tt.want)
			}
		})
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.URL.Path = ""
	if got := formatSpanName(req); got != "shadow GET /" {
		t.Errorf("formatSpanName() with empty path = %q", got)
	}
}

func TestOpenTelemetryMiddleware_RecordsServerSpan(t *testing.T) {
	p := installProvider(t)

	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	})))
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !trace.SpanFromContext(r.Context()).IsRecording() {
			t.Error("expected the handler context to carry the span")
		}
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/users/7", nil))

	spans := p.ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.name != "shadow GET /users/7" {
		t.Errorf("span name = %q", s.name)
	}
	if s.kind != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", s.kind)
	}
	if v, _ := s.attr("http.status_code"); v.AsInt64() != http.StatusAccepted {
		t.Errorf("http.status_code = %v", v.AsInt64())
	}
	if v, _ := s.attr("http.route"); v.AsString() != "/users/{id}" {
		t.Errorf("http.route = %q", v.AsString())
	}
	if v, _ := s.attr("test.attr"); v.AsString() != "ok" {
		t.Errorf("test.attr = %q", v.AsString())
	}
	if s.status != codes.Ok {
		t.Errorf("status = %v, want Ok", s.status)
	}
}

func TestOpenTelemetryMiddleware_ServerErrorSetsStatus(t *testing.T) {
	p := installProvider(t)

	h := OpenTelemetry(WithIncludeRoute(false))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/fail", nil))

	spans := p.ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].status != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].status)
	}
	if _, ok := spans[0].attr("http.route"); ok {
		t.Error("expected no route attribute when IncludeRoute is false")
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	p := installProvider(t)

	called := false
	h := OpenTelemetry(WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/metrics"
	}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))

	if !called {
		t.Fatal("expected next handler to run")
	}
	if n := len(p.ended()); n != 0 {
		t.Errorf("expected no spans, got %d", n)
	}
}

// =============================================================================
// Prometheus Metrics Tests
// =============================================================================

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, reg *prometheus.Registry, name, method string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "method" && l.GetValue() == method {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func TestPrometheusMiddleware_RecordsSuccessAndError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))

	h := Prometheus(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/fail", nil))

	counter := func(method, code string) float64 {
		c, err := reg.Gather()
		if err != nil {
			t.Fatalf("Gather() error: %v", err)
		}
		for _, f := range c {
			if f.GetName() != "shadow_http_requests_total" {
				continue
			}
			for _, metric := range f.GetMetric() {
				labels := map[string]string{}
				for _, l := range metric.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				if labels["method"] == method && labels["code"] == code {
					return metric.GetCounter().GetValue()
				}
			}
		}
		return 0
	}

	if got := counter("GET", "200"); got != 2 {
		t.Errorf("GET 200 = %v, want 2", got)
	}
	if got := counter("POST", "502"); got != 1 {
		t.Errorf("POST 502 = %v, want 1", got)
	}
	if got := metricHistogramCount(t, reg, "shadow_http_request_duration_seconds", "GET"); got != 2 {
		t.Errorf("GET duration samples = %d, want 2", got)
	}
}

func TestPrometheusMiddleware_NilMetrics(t *testing.T) {
	h := Prometheus(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestMetricCounterValue(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total"})
	c.Add(3)
	if got := metricCounterValue(t, c); got != 3 {
		t.Errorf("metricCounterValue() = %v, want 3", got)
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/fail", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	for _, want := range []string{"level=INFO", "path=/ok", "status=200", "bytes=5"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("first line missing %q: %s", want, lines[0])
		}
	}
	for _, want := range []string{"level=WARN", "path=/fail", "status=500"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("second line missing %q: %s", want, lines[1])
		}
	}
}

// =============================================================================
// Chain Tests
// =============================================================================

func TestMiddlewareChain(t *testing.T) {
	installProvider(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))

	r := chi.NewRouter()
	r.Use(OpenTelemetry(), Prometheus(m), Logger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("unexpected response: %d %q", rec.Code, rec.Body.String())
	}
	if got := metricHistogramCount(t, reg, "shadow_http_request_duration_seconds", "GET"); got != 1 {
		t.Errorf("duration samples = %d, want 1", got)
	}
}
