package dev

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/vango-dev/shadow/pkg/ssr"
)

// BundleTarget receives bundle updates. *ssr.Host implements it.
type BundleTarget interface {
	Bundle() ssr.Bundle
	SetBundle(ssr.Bundle)
}

// Reloader watches the static directory, keeps the served bundle names
// current and tells connected browsers to reload.
type Reloader struct {
	dir     string
	target  BundleTarget
	watcher *Watcher
	server  *ReloadServer
	logger  *slog.Logger
}

// NewReloader watches staticDir on behalf of target.
func NewReloader(staticDir string, target BundleTarget, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := NewWatcher(WatcherConfig{Paths: []string{staticDir}}, logger)
	if err != nil {
		return nil, err
	}

	r := &Reloader{
		dir:     staticDir,
		target:  target,
		watcher: w,
		server:  NewReloadServer(),
		logger:  logger,
	}
	w.OnChange(r.apply)
	return r, nil
}

// Handler serves the reload WebSocket. Mount it at ReloadPath.
func (r *Reloader) Handler() http.Handler { return r.server }

// Server returns the underlying reload server.
func (r *Reloader) Server() *ReloadServer { return r.server }

// Run watches until ctx is done.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.server.Close()
	return r.watcher.Run(ctx)
}

func (r *Reloader) apply(changes []Change) {
	cssOnly := true
	var cssPath string
	for _, c := range changes {
		r.logger.Debug("static file changed", "path", c.Path, "type", c.Type, "removed", c.Removed)
		if c.Type != ChangeCSS || c.Removed {
			cssOnly = false
		} else if cssPath == "" {
			cssPath = c.Path
		}
	}

	prev := r.target.Bundle()
	next, err := ssr.LoadBundle(os.DirFS(r.dir))
	if err != nil {
		r.logger.Error("reload bundle", "dir", r.dir, "error", err)
		r.server.NotifyError(err.Error())
		return
	}
	r.server.ClearError()

	if next != prev {
		r.target.SetBundle(next)
		r.logger.Info("bundle updated", "js", next.JSBundleFileName, "css", next.CSSBundleFileName)
		r.server.NotifyReload()
		return
	}
	if cssOnly {
		r.server.NotifyCSS(cssPath)
		return
	}
	r.server.NotifyReload()
}
