package ssr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/shadow/pkg/cache"
	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/metrics"
	"github.com/vango-dev/shadow/pkg/reactive"
	"github.com/vango-dev/shadow/pkg/shadow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTracerName is the tracer used for render spans.
	DefaultTracerName = "shadow/ssr"

	// DefaultTimeout bounds a single render including pending work.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries the render's request ID.
	RequestIDHeader = "X-Request-Id"

	htmlContentType = "text/html; charset=utf-8"
)

// Host renders pages on the server.
type Host struct {
	bundle  atomic.Pointer[Bundle]
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	timeout time.Duration
	store   cache.Store
	hooks   []func(*dom.Document)
}

// Option configures a Host.
type Option func(*Host)

// WithBundle sets the client asset names injected into every page.
func WithBundle(b Bundle) Option {
	return func(h *Host) {
		h.SetBundle(b)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithMetrics records render and reconcile metrics to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithTracerName sets the tracer name (default: "shadow/ssr").
func WithTracerName(name string) Option {
	return func(h *Host) {
		h.tracer = otel.Tracer(name)
	}
}

// WithTimeout bounds each render. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// WithCache serves pages that opt in via SetCacheResponse from store.
func WithCache(store cache.Store) Option {
	return func(h *Host) {
		h.store = store
	}
}

// WithDocumentHook runs fn on the render loop just before serialization.
func WithDocumentHook(fn func(*dom.Document)) Option {
	return func(h *Host) {
		h.hooks = append(h.hooks, fn)
	}
}

// NewHost creates a Host.
func NewHost(opts ...Option) *Host {
	h := &Host{
		logger:  slog.Default(),
		tracer:  otel.Tracer(DefaultTracerName),
		timeout: DefaultTimeout,
	}
	h.bundle.Store(&Bundle{})
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Bundle returns the current client asset names.
func (h *Host) Bundle() Bundle {
	return *h.bundle.Load()
}

// SetBundle replaces the client asset names. Safe to call while serving.
func (h *Host) SetBundle(b Bundle) {
	h.bundle.Store(&b)
}

// Result is a rendered page.
type Result struct {
	Status    int
	Header    http.Header
	Body      []byte
	Cache     bool
	RequestID string
}

// Render runs page against a fresh document and returns the serialized
// result. Pending work registered by the page is drained, repeatedly, before
// the document is serialized. Errors reported by reactive updates during the
// render fail it.
func (h *Host) Render(ctx context.Context, req *http.Request, page Page) (res *Result, err error) {
	start := time.Now()

	id := requestID(req)
	logger := h.logger.With("request_id", id, "path", req.URL.Path)

	ctx, span := h.tracer.Start(ctx, "shadow.render",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("shadow.request_id", id),
			attribute.String("shadow.path", req.URL.Path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
			span.SetAttributes(attribute.Int("shadow.status", res.Status))
		}
		span.End()
		h.metrics.ObserveRender(time.Since(start), err)
	}()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	var (
		errMu     sync.Mutex
		reactErrs []error
	)
	rt := reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithErrorHandler(func(err error) {
			errMu.Lock()
			reactErrs = append(reactErrs, err)
			errMu.Unlock()
		}),
	)
	doc := dom.NewHTMLDocument()
	sched := reactive.NewScheduler(rt)

	loopCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(loopCtx)
	}()
	defer func() {
		stop()
		<-done
	}()

	c := &Context{
		ctx:      ctx,
		req:      req,
		id:       id,
		bundle:   h.Bundle(),
		doc:      doc,
		renderer: shadow.NewRenderer(rt, doc, shadow.WithRendererLogger(logger), shadow.WithMetrics(h.metrics)),
		sched:    sched,
		logger:   logger,
		header:   make(http.Header),
		status:   http.StatusOK,
	}
	c.header.Set("Content-Type", htmlContentType)
	c.header.Set(RequestIDHeader, id)

	if err := c.Do(func() error { return page(c) }); err != nil {
		return nil, fmt.Errorf("ssr: page: %w", err)
	}
	if err := h.drain(ctx, c); err != nil {
		return nil, err
	}

	var body string
	err = c.Do(func() error {
		rt.Flush()
		c.bundle.Inject(doc)
		for _, hook := range h.hooks {
			hook(doc)
		}
		var err error
		body, err = doc.Serialize()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ssr: serialize: %w", err)
	}

	errMu.Lock()
	rerr := errors.Join(reactErrs...)
	errMu.Unlock()
	if rerr != nil {
		return nil, fmt.Errorf("ssr: reactive update: %w", rerr)
	}

	logger.Debug("page rendered", "duration", time.Since(start), "bytes", len(body))
	return &Result{
		Status:    c.Status(),
		Header:    c.header.Clone(),
		Body:      []byte(body),
		Cache:     c.CacheResponse(),
		RequestID: id,
	}, nil
}

// drain runs pending work until none is left. Each batch runs concurrently;
// work registered meanwhile forms the next batch.
func (h *Host) drain(ctx context.Context, c *Context) error {
	for {
		batch := c.takePending()
		if len(batch) == 0 {
			return nil
		}
		h.metrics.RecordPending(len(batch))

		errs := make([]error, len(batch))
		var wg sync.WaitGroup
		for i, fn := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = runPending(ctx, fn)
			}()
		}
		wg.Wait()
		h.metrics.RecordPending(0)

		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("ssr: pending work: %w", err)
		}
	}
}

// requestID returns the request ID carried by req, or a new one.
func requestID(req *http.Request) string {
	if id := req.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
