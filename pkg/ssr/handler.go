package ssr

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vango-dev/shadow/pkg/cache"
	"github.com/vango-dev/shadow/pkg/metrics"
)

// AcceptsHTML reports whether the request asks for an HTML document.
func AcceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Handler serves page for every request that accepts HTML. Other requests
// get 404. With a cache configured, GET responses the page marked cacheable
// are stored and served from the cache afterwards.
func (h *Host) Handler(page Page) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !AcceptsHTML(r) {
			http.NotFound(w, r)
			return
		}

		cacheable := h.store != nil && r.Method == http.MethodGet
		key := cache.Key(r)

		if cacheable {
			e, err := h.store.Get(r.Context(), key)
			switch {
			case err == nil:
				h.metrics.RecordCacheLookup(metrics.CacheHit)
				for name, values := range e.Header {
					w.Header()[name] = values
				}
				if e.ContentType != "" {
					w.Header().Set("Content-Type", e.ContentType)
				}
				w.Header().Set(RequestIDHeader, requestID(r))
				w.Header().Set("Content-Length", strconv.Itoa(len(e.Body)))
				w.WriteHeader(e.Status)
				w.Write(e.Body)
				return
			case errors.Is(err, cache.ErrNotFound):
				h.metrics.RecordCacheLookup(metrics.CacheMiss)
			default:
				h.metrics.RecordCacheLookup(metrics.CacheError)
				h.logger.Warn("render cache lookup failed", "key", key, "error", err)
			}
		}

		res, err := h.Render(r.Context(), r, page)
		if err != nil {
			h.logger.Error("render failed", "path", r.URL.Path, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if cacheable && res.Cache {
			// The request ID belongs to this response only.
			header := res.Header.Clone()
			header.Del(RequestIDHeader)
			entry := &cache.Entry{
				Status:      res.Status,
				ContentType: res.Header.Get("Content-Type"),
				Header:      header,
				Body:        res.Body,
			}
			if err := h.store.Put(r.Context(), key, entry); err != nil {
				h.logger.Warn("render cache store failed", "key", key, "error", err)
			}
		}

		for name, values := range res.Header {
			w.Header()[name] = values
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
		w.WriteHeader(res.Status)
		w.Write(res.Body)
	})
}
