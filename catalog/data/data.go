// Package data embeds the authored map datasets shipped with the catalog.
package data

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/registry"
)

// ManifestPath is the manifest location inside FS.
const ManifestPath = loader.DefaultManifest

//go:embed catalog.yaml game_*/*.yaml
var embedded embed.FS

// FS returns the embedded catalog files.
func FS() fs.FS {
	return embedded
}

// Load builds a fresh registry from the embedded catalog.
func Load() (*registry.Registry, error) {
	return loader.LoadCatalog(embedded, ManifestPath)
}

var loadDefault = sync.OnceValues(Load)

// Default returns the process-wide registry built from the embedded catalog.
// It is loaded on first use.
func Default() (*registry.Registry, error) {
	return loadDefault()
}
