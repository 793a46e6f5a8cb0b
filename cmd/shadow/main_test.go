package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/shadow/internal/config"
	"github.com/vango-dev/shadow/internal/errors"
	"github.com/vango-dev/shadow/pkg/cache"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644))
	return dir
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.Static.Dir = staticDir(t)
	cfg.Static.MaxAge = 60
	return cfg
}

func get(t *testing.T, h http.Handler, target string, html bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if html {
		req.Header.Set("Accept", "text/html")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	s, err := newServer(testConfig(t), quietLogger())
	require.NoError(t, err)
	defer s.close()
	h := s.routes()

	page := get(t, h, "/", true)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "<title>Hello, world!</title>")
	assert.Contains(t, page.Body.String(), `<script type="module" src="/app.js"></script>`)
	assert.Contains(t, page.Body.String(), `<link rel="stylesheet" href="/app.css"/>`)

	js := get(t, h, "/app.js", false)
	assert.Equal(t, http.StatusOK, js.Code)
	assert.Equal(t, "console.log(1)", js.Body.String())
	assert.Equal(t, "public, max-age=60", js.Header().Get("Cache-Control"))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.png", false).Code)

	m := get(t, h, "/metrics", false)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `shadow_http_requests_total{code="200",method="GET"}`)
	assert.Contains(t, m.Body.String(), `shadow_renders_total{status="success"} 1`)
}

func TestServerWithoutBundle(t *testing.T) {
	cfg := config.New()
	cfg.Static.Dir = t.TempDir()
	s, err := newServer(cfg, quietLogger())
	require.NoError(t, err)
	defer s.close()

	rec := get(t, s.routes(), "/", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script")
}

func TestServerWatchInjectsReloadScript(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dev.Watch = true
	s, err := newServer(cfg, quietLogger())
	require.NoError(t, err)
	defer s.close()
	require.NotNil(t, s.reloader)

	h := s.routes()
	assert.Contains(t, get(t, h, "/", true).Body.String(), "data-shadow-reload")
	assert.Equal(t, "no-cache", get(t, h, "/app.js", false).Header().Get("Cache-Control"))
}

func TestServerCachesGreeting(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.Page = "greeting"
	cfg.Cache.Backend = config.CacheMemory
	s, err := newServer(cfg, quietLogger())
	require.NoError(t, err)
	defer s.close()
	h := s.routes()

	first := get(t, h, "/?name=Ada", true)
	second := get(t, h, "/?name=Ada", true)
	assert.Contains(t, first.Body.String(), "<h1>Hello, Ada!</h1>")
	assert.Equal(t, first.Body.String(), second.Body.String())

	m := get(t, h, "/metrics", false).Body.String()
	assert.Contains(t, m, `shadow_render_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, m, `shadow_render_cache_lookups_total{result="miss"} 1`)
}

func TestNewServerUnknownPage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.Page = "nope"
	_, err := newServer(cfg, quietLogger())
	require.Error(t, err)
	assert.Equal(t, "E140", errors.FromError(err, "").Code)
}

func TestOpenCache(t *testing.T) {
	store, closeFn, err := openCache(config.CacheConfig{Backend: config.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.NoError(t, closeFn())

	store, _, err = openCache(config.CacheConfig{Backend: config.CacheMemory})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)

	store, closeFn, err = openCache(config.CacheConfig{
		Backend: config.CacheSQLite,
		Path:    filepath.Join(t.TempDir(), "cache.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &cache.SQLiteStore{}, store)
	assert.NoError(t, closeFn())

	store, _, err = openCache(config.CacheConfig{
		Backend:  config.CacheS3,
		Bucket:   "pages",
		Region:   "us-east-1",
		Endpoint: "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.IsType(t, &cache.S3Store{}, store)

	_, _, err = openCache(config.CacheConfig{Backend: "redis"})
	require.Error(t, err)
	assert.Equal(t, "E122", errors.FromError(err, "").Code)
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := envCredentials{}.Retrieve(t.Context())
	assert.Error(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	creds, err := envCredentials{}.Retrieve(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := staticDir(t)

	out, err := execute(t, "render", "greeting", "--static", dir, "--path", "/?name=Ada")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"), out)
	assert.Contains(t, out, "<h1>Hello, Ada!</h1>")
	assert.Contains(t, out, `src="/app.js"`)

	_, err = execute(t, "render", "missing", "--static", dir)
	require.Error(t, err)
	assert.Equal(t, "E140", errors.FromError(err, "").Code)
}

func TestPagesAndVersion(t *testing.T) {
	out, err := execute(t, "pages")
	require.NoError(t, err)
	assert.Equal(t, "counter\ngreeting\nhello\n", out)

	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
