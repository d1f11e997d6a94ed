// Package preview renders a standalone HTML page showing one map dataset on a
// Leaflet canvas, for data authors checking marker placement.
package preview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/wricardo/gamemaps/catalog/model"
)

// LeafletVersion is the Leaflet release the page loads from unpkg.
const LeafletVersion = "1.9.4"

//go:embed preview.html.tmpl grids/*.js
var assets embed.FS

var page = template.Must(template.ParseFS(assets, "preview.html.tmpl"))

// Options tune the rendered page.
type Options struct {
	// Title defaults to "<map name> - Map Preview".
	Title string
	// LiveReloadURL, when set, makes the page reload itself on every
	// dataset_updated event received from this websocket URL.
	LiveReloadURL string
}

type pageData struct {
	Title          string
	LeafletVersion string
	View           model.RenderView
	GridScript     template.JS
	LiveReloadURL  string
}

// Render writes the preview page for view to w.
func Render(w io.Writer, view model.RenderView, opts Options) error {
	script, err := gridScript()
	if err != nil {
		return err
	}
	title := opts.Title
	if title == "" {
		title = view.Map.Name + " - Map Preview"
	}

	// Render to a buffer so a template failure never leaves a half-written page.
	var buf bytes.Buffer
	err = page.Execute(&buf, pageData{
		Title:          title,
		LeafletVersion: LeafletVersion,
		View:           view,
		GridScript:     template.JS(script),
		LiveReloadURL:  opts.LiveReloadURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// GridSystems lists the grid overlays the page can draw.
func GridSystems() []string {
	files, err := fs.Glob(assets, "grids/*.js")
	if err != nil {
		return nil
	}
	var names []string
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".js")
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasGridSystem reports whether name is a known grid overlay.
func HasGridSystem(name string) bool {
	for _, n := range GridSystems() {
		if n == name {
			return true
		}
	}
	return false
}

// gridScript concatenates the overlay scripts, shared helpers first.
func gridScript() (string, error) {
	files, err := fs.Glob(assets, "grids/*.js")
	if err != nil {
		return "", err
	}
	sort.Strings(files)
	var b strings.Builder
	for _, f := range files {
		data, err := assets.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("failed to read grid script %s: %w", f, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
