package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/registry"
)

// DefaultManifest is the manifest file name inside a catalog directory.
const DefaultManifest = "catalog.yaml"

// ErrManifestNotFound is returned when the manifest file does not exist.
var ErrManifestNotFound = errors.New("catalog manifest not found")

// ManifestEntry registers one dataset file under a game.
type ManifestEntry struct {
	Game string `yaml:"game"`
	File string `yaml:"file"`
}

// Manifest lists the datasets of a catalog in registration order.
type Manifest struct {
	Datasets []ManifestEntry `yaml:"datasets"`
}

// ReadManifest parses the manifest at manifestPath inside fsys.
func ReadManifest(fsys fs.FS, manifestPath string) (Manifest, error) {
	data, err := fs.ReadFile(fsys, manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrManifestNotFound, manifestPath)
		}
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest %s: %v", model.ErrSchemaViolation, manifestPath, err)
	}
	for i, e := range m.Datasets {
		if e.Game == "" || e.File == "" {
			return Manifest{}, fmt.Errorf("%w: manifest %s: datasets[%d] needs game and file", model.ErrSchemaViolation, manifestPath, i)
		}
	}
	return m, nil
}

// LoadEntry reads the dataset an entry points at. dir is the manifest's directory.
func LoadEntry(fsys fs.FS, dir string, e ManifestEntry) (model.MapDataset, error) {
	file := path.Join(dir, e.File)
	format, err := FormatFromPath(file)
	if err != nil {
		return model.MapDataset{}, fmt.Errorf("%s: %w", file, err)
	}
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return model.MapDataset{}, fmt.Errorf("failed to read dataset %s: %w", file, err)
	}
	ds, err := DecodeDataset(data, format)
	if err != nil {
		return model.MapDataset{}, fmt.Errorf("%s: %w", file, err)
	}
	return ds, nil
}

// LoadCatalog builds a registry from the manifest at manifestPath. Any schema
// violation or duplicate key aborts the load; dangling category references
// are logged and tolerated.
func LoadCatalog(fsys fs.FS, manifestPath string) (*registry.Registry, error) {
	manifest, err := ReadManifest(fsys, manifestPath)
	if err != nil {
		return nil, err
	}

	dir := path.Dir(manifestPath)
	b := registry.NewBuilder()
	for _, e := range manifest.Datasets {
		ds, err := LoadEntry(fsys, dir, e)
		if err != nil {
			return nil, err
		}
		if err := b.Add(e.Game, ds); err != nil {
			return nil, fmt.Errorf("%s: %w", e.File, err)
		}
		LogDangling(slog.Default(), e.Game, ds)
	}
	return b.Build(), nil
}

// LogDangling writes one warning per marker whose category cannot be resolved.
func LogDangling(logger *slog.Logger, game string, ds model.MapDataset) {
	for _, d := range ds.DanglingReferences() {
		logger.Warn("skipping marker with unknown category",
			"game", game,
			"map", ds.Map().Slug(),
			"marker", d.MarkerIndex,
			"marker_name", d.MarkerName,
			"category_slug", d.CategorySlug,
		)
	}
}
