// Command analyze prints quick, human-readable statistics about the map
// catalog: per map the number of categories, markers per category, markers
// skipped for an unknown category, and markers that share an exact position
// within one category (usually a copy-paste slip).
//
// It reads the built-in catalog, or the catalog in the directory given as
// the first argument.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/gamemaps/catalog/data"
	"github.com/wricardo/gamemaps/catalog/loader"
	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/registry"
)

// position identifies a marker location within a category.
type position struct {
	category string
	x, y     float64
}

func main() {
	var reg *registry.Registry
	var err error
	if len(os.Args) > 1 {
		reg, err = loader.LoadCatalog(os.DirFS(os.Args[1]), loader.DefaultManifest)
	} else {
		reg, err = data.Load()
	}
	if err != nil {
		fmt.Printf("Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	reg.Each(func(e registry.Entry) {
		fmt.Printf("\n=== Analyzing %s ===\n", e.Key())
		analyzeDataset(os.Stdout, e.Dataset)
	})
}

func analyzeDataset(w io.Writer, ds model.MapDataset) {
	view := ds.Resolve()
	m := view.Map

	fmt.Fprintf(w, "Name: %s\n", m.Name)
	fmt.Fprintf(w, "Image: %d x %d\n", m.ImageWidth, m.ImageHeight)
	if m.GridSystem != "" {
		fmt.Fprintf(w, "Grid: %s\n", m.GridSystem)
	}
	fmt.Fprintf(w, "Categories: %d\n", len(view.Categories))
	fmt.Fprintf(w, "Markers: %d\n", len(view.Markers))

	for _, c := range view.Categories {
		hidden := ""
		if !c.IsVisibleByDefault {
			hidden = " (hidden by default)"
		}
		fmt.Fprintf(w, "  %-24s %4d%s\n", c.Slug, c.MarkerCount, hidden)
	}

	if len(view.Dangling) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d markers reference an unknown category\n", len(view.Dangling))
		for i, d := range view.Dangling {
			if i < 5 { // Show first 5
				fmt.Fprintf(w, "   %s\n", d.Error())
			}
		}
		if len(view.Dangling) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(view.Dangling)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ Every marker resolves to a category\n")
	}

	dupes := duplicatePositions(view.Markers)
	if len(dupes) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d positions hold more than one marker of the same category\n", len(dupes))
		for _, p := range dupes {
			fmt.Fprintf(w, "   %s at (%g, %g)\n", p.category, p.x, p.y)
		}
	} else {
		fmt.Fprintf(w, "✅ No stacked markers\n")
	}
}

// duplicatePositions returns, in first-seen order, every position that more
// than one marker of the same category occupies.
func duplicatePositions(markers []model.ResolvedMarker) []position {
	seen := make(map[position]int)
	var dupes []position
	for _, m := range markers {
		p := position{category: m.CategorySlug, x: m.PositionX, y: m.PositionY}
		seen[p]++
		if seen[p] == 2 {
			dupes = append(dupes, p)
		}
	}
	return dupes
}
