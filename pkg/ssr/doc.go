// Package ssr renders shadow pages to HTML on the server.
//
// A Host runs each request's Page against a fresh document on its own
// render loop (a reactive.Scheduler). The page builds the document, usually
// by mounting shadow nodes, and may register pending work with
// NotifyPending. The host waits for all pending work, including work
// registered by other pending work, then injects the client bundle tags and
// serializes the document.
//
//	host := ssr.NewHost(ssr.WithBundle(bundle))
//	http.Handle("/", host.Handler(func(c *ssr.Context) error {
//	    c.Document().SetTitle("Hello, world!")
//	    return c.Renderer().Mount(c.Document().Body(), shadow.NewText("Hello, world!"))
//	}))
//
// Requests that do not accept text/html get 404. Pages that call
// SetCacheResponse(true) are stored in the configured cache.Store and
// replayed for identical GET requests.
package ssr
