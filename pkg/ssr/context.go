package ssr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vango-dev/shadow/pkg/dom"
	"github.com/vango-dev/shadow/pkg/reactive"
	"github.com/vango-dev/shadow/pkg/shadow"
)

// Page renders into the document held by a Context. It runs on the render
// loop and may mutate the document directly.
type Page func(c *Context) error

// PendingFunc is asynchronous work a page registers before serialization.
type PendingFunc func(ctx context.Context) error

// Context is the per-request render state handed to a Page.
//
// The document, renderer and runtime belong to the render loop. Code running
// elsewhere (a PendingFunc, typically) must go through Do to touch them.
type Context struct {
	ctx      context.Context
	req      *http.Request
	id       string
	bundle   Bundle
	doc      *dom.Document
	renderer *shadow.Renderer
	sched    *reactive.Scheduler
	logger   *slog.Logger

	mu      sync.Mutex
	header  http.Header
	status  int
	cache   bool
	pending []PendingFunc
}

// Context returns the request-scoped context. It is cancelled when the
// render finishes or times out.
func (c *Context) Context() context.Context { return c.ctx }

// Request returns the request being rendered.
func (c *Context) Request() *http.Request { return c.req }

// RequestID returns the identifier logged with this render.
func (c *Context) RequestID() string { return c.id }

// Bundle returns the client asset names for this render.
func (c *Context) Bundle() Bundle { return c.bundle }

// Document returns the document being rendered.
func (c *Context) Document() *dom.Document { return c.doc }

// Renderer returns the shadow renderer bound to the document.
func (c *Context) Renderer() *shadow.Renderer { return c.renderer }

// Runtime returns the reactive runtime of this render.
func (c *Context) Runtime() *reactive.Runtime { return c.renderer.Runtime() }

// Logger returns a logger tagged with the request ID.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Header returns the response header map. Mutate it from the render loop.
func (c *Context) Header() http.Header { return c.header }

// SetStatus sets the response status code.
func (c *Context) SetStatus(code int) {
	c.mu.Lock()
	c.status = code
	c.mu.Unlock()
}

// Status returns the response status code.
func (c *Context) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetCacheResponse marks the rendered response as reusable for identical
// requests.
func (c *Context) SetCacheResponse(cache bool) {
	c.mu.Lock()
	c.cache = cache
	c.mu.Unlock()
}

// CacheResponse reports whether the response may be cached.
func (c *Context) CacheResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache
}

// NotifyPending registers work that must finish before the document is
// serialized. Work registered while pending work runs is waited for too.
func (c *Context) NotifyPending(fn PendingFunc) {
	c.mu.Lock()
	c.pending = append(c.pending, fn)
	c.mu.Unlock()
}

// Go runs fn as pending work and applies its result on the render loop.
// fn runs off the loop; apply runs on it.
//
//	ssr.Go(c, fetchUser, func(u User) error {
//	    name.Set(u.Name)
//	    return nil
//	})
func Go[T any](c *Context, fn func(ctx context.Context) (T, error), apply func(T) error) {
	c.NotifyPending(func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		return c.Do(func() error { return apply(v) })
	})
}

// Do runs fn on the render loop and waits for it. It must not be called from
// the loop itself (from a Page or from inside another Do).
func (c *Context) Do(fn func() error) error {
	return c.sched.Do(c.ctx, fn)
}

func (c *Context) takePending() []PendingFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.pending
	c.pending = nil
	return batch
}

func runPending(ctx context.Context, fn PendingFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ssr: pending work panicked: %v", r)
		}
	}()
	return fn(ctx)
}
