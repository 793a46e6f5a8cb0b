package ssr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/vango-dev/shadow/pkg/dom"
)

// ManifestFile names the optional bundle manifest in a static directory.
const ManifestFile = "bundle.json"

// ErrNoBundle is returned by LoadBundle when no script bundle is found.
var ErrNoBundle = errors.New("ssr: no js bundle found")

// Bundle names the client-side assets a rendered page loads. Both names are
// URL paths, e.g. "/3f2a9c.js".
type Bundle struct {
	JSBundleFileName  string `json:"js"`
	CSSBundleFileName string `json:"css,omitempty"`
}

// IsZero reports whether b names no assets.
func (b Bundle) IsZero() bool {
	return b.JSBundleFileName == "" && b.CSSBundleFileName == ""
}

// Inject adds the stylesheet link and module script to the document head.
// Tags already present with the same URL are left alone.
func (b Bundle) Inject(doc *dom.Document) {
	head := doc.Head()
	if head == nil {
		return
	}

	if b.CSSBundleFileName != "" && !hasAsset(head, "link", "href", b.CSSBundleFileName) {
		link := doc.CreateElement("link")
		link.SetAttribute("rel", "stylesheet")
		link.SetAttribute("href", b.CSSBundleFileName)
		head.AppendChild(link)
	}
	if b.JSBundleFileName != "" && !hasAsset(head, "script", "src", b.JSBundleFileName) {
		script := doc.CreateElement("script")
		script.SetAttribute("type", "module")
		script.SetAttribute("src", b.JSBundleFileName)
		head.AppendChild(script)
	}
}

func hasAsset(head *dom.Node, tag, attr, url string) bool {
	for _, c := range head.Children() {
		if c.TagName() != tag {
			continue
		}
		if v, ok := c.GetAttribute(attr); ok && v == url {
			return true
		}
	}
	return false
}

// LoadBundle finds the bundle in a static file tree. A bundle.json manifest
// wins when present; otherwise the first .js and .css files at the root (by
// name) are used.
func LoadBundle(fsys fs.FS) (Bundle, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	switch {
	case err == nil:
		var b Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return Bundle{}, fmt.Errorf("ssr: parse %s: %w", ManifestFile, err)
		}
		if b.JSBundleFileName == "" {
			return Bundle{}, ErrNoBundle
		}
		b.JSBundleFileName = asURL(b.JSBundleFileName)
		if b.CSSBundleFileName != "" {
			b.CSSBundleFileName = asURL(b.CSSBundleFileName)
		}
		return b, nil
	case !errors.Is(err, fs.ErrNotExist):
		return Bundle{}, fmt.Errorf("ssr: read %s: %w", ManifestFile, err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return Bundle{}, fmt.Errorf("ssr: read static dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b Bundle
	for _, name := range names {
		switch path.Ext(name) {
		case ".js":
			if b.JSBundleFileName == "" {
				b.JSBundleFileName = asURL(name)
			}
		case ".css":
			if b.CSSBundleFileName == "" {
				b.CSSBundleFileName = asURL(name)
			}
		}
	}
	if b.JSBundleFileName == "" {
		return Bundle{}, ErrNoBundle
	}
	return b, nil
}

func asURL(name string) string {
	return "/" + strings.TrimLeft(name, "/")
}
