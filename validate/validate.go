// Command validate checks a map catalog directory before it is committed or
// deployed. For every dataset listed in the manifest it checks:
//   - The file decodes and every record satisfies the schema
//   - The (game, map) key is not already taken by an earlier entry
//   - grid_system names an overlay the preview page can draw (warning)
//   - Every marker's category_slug names a category of the same map (warning)
//   - Every category has at least one marker (warning)
//
// Warnings never fail the run; the exit status is 1 only when a dataset is
// invalid.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/preview"
	"github.com/wricardo/gamemaps/catalog/registry"
)

// ValidationResult captures the outcome of validating a single dataset.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// validateEntry loads one manifest entry and registers it with b so that
// duplicate keys across entries are caught.
func validateEntry(fsys fs.FS, dir string, e loader.ManifestEntry, b *registry.Builder) ValidationResult {
	result := ValidationResult{
		File:  e.File,
		Valid: true,
	}

	ds, err := loader.LoadEntry(fsys, dir, e)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if err := b.Add(e.Game, ds); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	m := ds.Map()
	if m.GridSystem() != "" && !preview.HasGridSystem(m.GridSystem()) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unknown grid_system %q (available: %s)",
			m.GridSystem(), strings.Join(preview.GridSystems(), ", ")))
	}

	for _, d := range ds.DanglingReferences() {
		result.Warnings = append(result.Warnings, "Marker skipped: "+d.Error())
	}

	view := ds.Resolve()
	for _, c := range view.Categories {
		if c.MarkerCount == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Category %q has no markers", c.Slug))
		}
	}

	if result.Valid {
		result.Info = append(result.Info, fmt.Sprintf("Key: %s/%s", e.Game, m.Slug()))
		result.Info = append(result.Info, fmt.Sprintf("Name: %s", m.Name()))
		result.Info = append(result.Info, fmt.Sprintf("Image: %dx%d (%s)", m.ImageWidth(), m.ImageHeight(), imageKind(m)))
		result.Info = append(result.Info, fmt.Sprintf("Zoom: %d..%d, default %d", m.MinZoom(), m.MaxZoom(), m.DefaultZoom()))
		result.Info = append(result.Info, fmt.Sprintf("Categories: %d", len(view.Categories)))
		result.Info = append(result.Info, fmt.Sprintf("Markers: %d resolved, %d skipped", len(view.Markers), len(view.Dangling)))
	}

	return result
}

func imageKind(m model.GameMap) string {
	if m.IsTiled() {
		return fmt.Sprintf("tiles of %d px", m.TileSize())
	}
	return "single image"
}

// validateCatalog validates every dataset of the manifest at manifestPath.
// An unreadable manifest is returned as an error.
func validateCatalog(fsys fs.FS, manifestPath string) ([]ValidationResult, error) {
	manifest, err := loader.ReadManifest(fsys, manifestPath)
	if err != nil {
		return nil, err
	}

	dir := path.Dir(manifestPath)
	b := registry.NewBuilder()
	results := make([]ValidationResult, 0, len(manifest.Datasets))
	for _, e := range manifest.Datasets {
		results = append(results, validateEntry(fsys, dir, e, b))
	}
	return results, nil
}

// printReport writes a concise report and reports whether every dataset is valid.
func printReport(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  ✓ "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All datasets are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some datasets have errors")
	}
	return allValid
}

// main validates the catalog in the directory given as the first argument
// (default catalog/data) and exits non-zero if any dataset is invalid.
func main() {
	dir := "catalog/data"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	results, err := validateCatalog(os.DirFS(dir), loader.DefaultManifest)
	if err != nil {
		fmt.Printf("Error reading catalog: %v\n", err)
		os.Exit(1)
	}

	if !printReport(os.Stdout, results) {
		os.Exit(1)
	}
}
