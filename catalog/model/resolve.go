package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDanglingReference marks a marker whose category_slug names no category in
// its dataset. It is a diagnostic, never a construction failure.
var ErrDanglingReference = errors.New("dangling category reference")

// DanglingReference describes one marker that could not be resolved.
type DanglingReference struct {
	MarkerIndex  int    `json:"marker_index"`
	MarkerName   string `json:"marker_name,omitempty"`
	CategorySlug string `json:"category_slug"`
}

func (r DanglingReference) Error() string {
	name := r.MarkerName
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("markers[%d] %s: unknown category %q", r.MarkerIndex, name, r.CategorySlug)
}

// Unwrap lets errors.Is match ErrDanglingReference.
func (r DanglingReference) Unwrap() error {
	return ErrDanglingReference
}

// ResolvedMarker is a marker with every category fallback already applied.
type ResolvedMarker struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Icon         string  `json:"icon,omitempty"`
	PositionX    float64 `json:"position_x"`
	PositionY    float64 `json:"position_y"`
	CategorySlug string  `json:"category_slug"`
	CategoryID   string  `json:"category_id,omitempty"`
}

// ResolveMarker applies the category fallbacks to m. An empty string counts as
// absent on both sides.
func ResolveMarker(m MapMarker, c MapCategory) ResolvedMarker {
	return ResolvedMarker{
		Name:         firstNonEmpty(m.Name(), c.DefaultName(), c.Name()),
		Description:  firstNonEmpty(m.Description(), c.DefaultDescription()),
		Icon:         firstNonEmpty(m.Icon(), c.Icon()),
		PositionX:    m.PositionX(),
		PositionY:    m.PositionY(),
		CategorySlug: c.Slug(),
	}
}

// ResolvedCategory is the render-ready view of a category.
type ResolvedCategory struct {
	ID                 string `json:"id"`
	Slug               string `json:"slug"`
	Name               string `json:"name"`
	Color              string `json:"color"`
	IsVisibleByDefault bool   `json:"is_visible_by_default"`
	Icon               string `json:"icon,omitempty"`
	UsePinStyle        bool   `json:"use_pin_style"`
	MarkerCount        int    `json:"marker_count"`
}

// MapView is the render-ready view of a map. GridOptions always carries
// values; the defaults stand in when the map declares none.
type MapView struct {
	Name                 string          `json:"name"`
	Slug                 string          `json:"slug"`
	Description          string          `json:"description,omitempty"`
	ImageURL             string          `json:"image_url,omitempty"`
	TileURL              string          `json:"tile_url,omitempty"`
	TileSize             int             `json:"tile_size,omitempty"`
	ImageWidth           int             `json:"image_width"`
	ImageHeight          int             `json:"image_height"`
	MinZoom              int             `json:"min_zoom"`
	MaxZoom              int             `json:"max_zoom"`
	DefaultZoom          int             `json:"default_zoom"`
	DefaultCenterX       float64         `json:"default_center_x"`
	DefaultCenterY       float64         `json:"default_center_y"`
	GridSystem           string          `json:"grid_system,omitempty"`
	GridOptions          GridStyleFields `json:"grid_options"`
	GridVisibleByDefault bool            `json:"grid_visible_by_default"`
}

// RenderView is everything a renderer needs for one dataset.
type RenderView struct {
	Map        MapView             `json:"map"`
	Categories []ResolvedCategory  `json:"categories"`
	Markers    []ResolvedMarker    `json:"markers"`
	Dangling   []DanglingReference `json:"dangling,omitempty"`
}

// Resolve computes the render view. Markers with an unknown category are left
// out of Markers and reported in Dangling; the rest are unaffected.
func (d MapDataset) Resolve() RenderView {
	view := RenderView{
		Map:        newMapView(d.m),
		Categories: make([]ResolvedCategory, len(d.categories)),
		Markers:    make([]ResolvedMarker, 0, len(d.markers)),
	}
	for i, c := range d.categories {
		view.Categories[i] = ResolvedCategory{
			ID:                 strconv.Itoa(i),
			Slug:               c.Slug(),
			Name:               c.Name(),
			Color:              c.Color(),
			IsVisibleByDefault: c.IsVisibleByDefault(),
			Icon:               c.Icon(),
			UsePinStyle:        c.UsePinStyle(),
		}
	}

	for i, mk := range d.markers {
		ci, ok := d.bySlug[mk.CategorySlug()]
		if !ok {
			view.Dangling = append(view.Dangling, DanglingReference{
				MarkerIndex:  i,
				MarkerName:   mk.Name(),
				CategorySlug: mk.CategorySlug(),
			})
			continue
		}
		rm := ResolveMarker(mk, d.categories[ci])
		rm.CategoryID = view.Categories[ci].ID
		view.Markers = append(view.Markers, rm)
		view.Categories[ci].MarkerCount++
	}
	return view
}

// DanglingReferences lists markers whose category cannot be resolved.
func (d MapDataset) DanglingReferences() []DanglingReference {
	var out []DanglingReference
	for i, mk := range d.markers {
		if _, ok := d.bySlug[mk.CategorySlug()]; !ok {
			out = append(out, DanglingReference{
				MarkerIndex:  i,
				MarkerName:   mk.Name(),
				CategorySlug: mk.CategorySlug(),
			})
		}
	}
	return out
}

// ResolvedMarkers returns the resolvable markers, optionally restricted to one
// category slug.
func (d MapDataset) ResolvedMarkers(category string) []ResolvedMarker {
	view := d.Resolve()
	if category == "" {
		return view.Markers
	}
	out := make([]ResolvedMarker, 0)
	for _, m := range view.Markers {
		if m.CategorySlug == category {
			out = append(out, m)
		}
	}
	return out
}

func newMapView(m GameMap) MapView {
	return MapView{
		Name:                 m.Name(),
		Slug:                 m.Slug(),
		Description:          m.Description(),
		ImageURL:             m.ImageURL(),
		TileURL:              m.TileURL(),
		TileSize:             m.TileSize(),
		ImageWidth:           m.ImageWidth(),
		ImageHeight:          m.ImageHeight(),
		MinZoom:              m.MinZoom(),
		MaxZoom:              m.MaxZoom(),
		DefaultZoom:          m.DefaultZoom(),
		DefaultCenterX:       m.DefaultCenterX(),
		DefaultCenterY:       m.DefaultCenterY(),
		GridSystem:           m.GridSystem(),
		GridOptions:          m.EffectiveGridOptions().Fields(),
		GridVisibleByDefault: m.GridVisibleByDefault(),
	}
}

// firstNonEmpty treats whitespace-only values as absent, as checkRequired does.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
