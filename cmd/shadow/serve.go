package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/shadow/internal/config"
	"github.com/vango-dev/shadow/internal/dev"
	"github.com/vango-dev/shadow/internal/errors"
	"github.com/vango-dev/shadow/internal/sample"
	"github.com/vango-dev/shadow/pkg/metrics"
	"github.com/vango-dev/shadow/pkg/middleware"
	"github.com/vango-dev/shadow/pkg/ssr"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a page over HTTP",
		Long: `Serve a sample page with server-side rendering.

Requests that accept HTML render the page; files in the static directory
are served with long-lived cache headers. Metrics are exposed at /metrics.

Examples:
  shadow serve
  shadow serve --page=counter --port=8080
  shadow serve --cache=sqlite --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info(cmd, "Serving %q at %s", cfg.Render.Page, cfg.URL())
			return runServe(ctx, cfg, logger)
		},
	}

	d := config.New()
	cmd.Flags().StringP("host", "H", d.Server.Host, "Host to bind to")
	cmd.Flags().IntP("port", "p", d.Server.Port, "Port to listen on")
	cmd.Flags().String("static", d.Static.Dir, "Directory containing the client bundle")
	cmd.Flags().String("page", d.Render.Page, "Page to serve ("+strings.Join(sample.Names(), ", ")+")")
	cmd.Flags().Duration("timeout", d.Render.Timeout, "Render timeout including pending work")
	cmd.Flags().String("cache", d.Cache.Backend, "Render cache backend (none, memory, sqlite, s3)")
	cmd.Flags().BoolP("watch", "w", false, "Reload the bundle and browsers on file changes")
	cmd.Flags().String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")

	return cmd
}

// server holds everything one serve run wires together.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	host     *ssr.Host
	page     ssr.Page
	reloader *dev.Reloader
	close    func() error
}

func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	page, ok := sample.Lookup(cfg.Render.Page)
	if !ok {
		return nil, errors.New("E140").
			WithDetail(fmt.Sprintf("No page named %q", cfg.Render.Page)).
			WithSuggestion("Use one of: " + strings.Join(sample.Names(), ", "))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(metrics.WithRegistry(reg))

	store, closeStore, err := openCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	opts := []ssr.Option{
		ssr.WithLogger(logger),
		ssr.WithMetrics(m),
		ssr.WithTimeout(cfg.Render.Timeout),
	}
	if store != nil {
		opts = append(opts, ssr.WithCache(store))
	}

	bundle, err := ssr.LoadBundle(os.DirFS(cfg.StaticPath()))
	switch {
	case err == nil:
		opts = append(opts, ssr.WithBundle(bundle))
	case stderrors.Is(err, ssr.ErrNoBundle), stderrors.Is(err, fs.ErrNotExist):
		logger.Warn("serving without a client bundle", "dir", cfg.StaticPath())
	default:
		closeStore()
		return nil, errors.FromError(err, "E061").WithDetail("Static directory: " + cfg.StaticPath())
	}
	if cfg.Dev.Watch {
		opts = append(opts, ssr.WithDocumentHook(dev.InjectScript))
	}

	s := &server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  m,
		page:     page,
		close:    closeStore,
	}
	s.host = ssr.NewHost(opts...)

	if cfg.Dev.Watch {
		s.reloader, err = dev.NewReloader(cfg.StaticPath(), s.host, logger)
		if err != nil {
			closeStore()
			return nil, err
		}
	}
	return s, nil
}

// routes builds the HTTP handler.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.Recoverer,
		middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		})),
		middleware.Prometheus(s.metrics),
		middleware.Logger(s.logger),
	)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if s.reloader != nil {
		r.Handle(dev.ReloadPath, s.reloader.Handler())
	}
	r.Handle("/*", s.staticOrPage())
	return r
}

// staticOrPage serves files from the static directory and renders the page
// for everything else.
func (s *server) staticOrPage() http.Handler {
	fsys := os.DirFS(s.cfg.StaticPath())
	files := http.FileServerFS(fsys)
	pages := s.host.Handler(s.page)

	cacheControl := "public, max-age=" + strconv.Itoa(s.cfg.Static.MaxAge)
	if s.cfg.Dev.Watch {
		cacheControl = "no-cache"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name != "" && fs.ValidPath(name) {
			if fi, err := fs.Stat(fsys, name); err == nil && fi.Mode().IsRegular() {
				w.Header().Set("Cache-Control", cacheControl)
				files.ServeHTTP(w, r)
				return
			}
		}
		pages.ServeHTTP(w, r)
	})
}

// run serves until ctx is done, then shuts down gracefully.
func (s *server) run(ctx context.Context) error {
	defer s.close()

	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- errors.New("E141").Wrap(err)
		}
	}()
	if s.reloader != nil {
		go func() {
			if err := s.reloader.Run(ctx); err != nil {
				s.logger.Error("reloader stopped", "error", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	s, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	return s.run(ctx)
}
