package model

import (
	"encoding/json"
	"strings"
)

const gameMapRecord = "game_map"

// GameMapFields is the authoring shape of GameMap. Exactly one of ImageURL or
// TileURL is set; TileSize accompanies TileURL.
type GameMapFields struct {
	Name                 string           `json:"name" jsonschema:"required,minLength=1"`
	Slug                 string           `json:"slug" jsonschema:"required,pattern=^[a-z0-9][a-z0-9_-]*$"`
	Description          string           `json:"description,omitempty"`
	ImageURL             string           `json:"image_url,omitempty" jsonschema:"description=Single image; mutually exclusive with tile_url"`
	TileURL              string           `json:"tile_url,omitempty" jsonschema:"description=Tile URL template with {x} and {y} placeholders"`
	TileSize             int              `json:"tile_size,omitempty" jsonschema:"minimum=1"`
	ImageWidth           int              `json:"image_width" jsonschema:"required,minimum=1"`
	ImageHeight          int              `json:"image_height" jsonschema:"required,minimum=1"`
	MinZoom              int              `json:"min_zoom" jsonschema:"required"`
	MaxZoom              int              `json:"max_zoom" jsonschema:"required"`
	DefaultZoom          int              `json:"default_zoom" jsonschema:"required"`
	DefaultCenterX       float64          `json:"default_center_x" jsonschema:"required,minimum=0,maximum=1"`
	DefaultCenterY       float64          `json:"default_center_y" jsonschema:"required,minimum=0,maximum=1"`
	GridSystem           string           `json:"grid_system,omitempty" jsonschema:"description=Name of an externally defined grid overlay"`
	GridOptions          *GridStyleFields `json:"grid_options,omitempty"`
	GridVisibleByDefault bool             `json:"grid_visible_by_default,omitempty"`
}

// GameMap identifies one map of a game and how to display it.
type GameMap struct {
	f           GameMapFields
	gridOptions *GridStyleOptions
}

// NewGameMap validates f and returns the immutable map record.
func NewGameMap(f GameMapFields) (GameMap, error) {
	if err := checkRequired(gameMapRecord, "name", f.Name); err != nil {
		return GameMap{}, err
	}
	if err := checkSlug(gameMapRecord, "slug", f.Slug); err != nil {
		return GameMap{}, err
	}

	hasImage := strings.TrimSpace(f.ImageURL) != ""
	hasTiles := strings.TrimSpace(f.TileURL) != ""
	switch {
	case hasImage && hasTiles:
		return GameMap{}, fieldErr(gameMapRecord, "tile_url", f.TileURL, "cannot be combined with image_url")
	case !hasImage && !hasTiles:
		return GameMap{}, fieldErr(gameMapRecord, "image_url", nil, "either image_url or tile_url is required")
	case hasTiles:
		if err := checkPositiveInt(gameMapRecord, "tile_size", f.TileSize); err != nil {
			return GameMap{}, err
		}
	case f.TileSize != 0:
		return GameMap{}, fieldErr(gameMapRecord, "tile_size", f.TileSize, "is only valid with tile_url")
	}

	if err := checkPositiveInt(gameMapRecord, "image_width", f.ImageWidth); err != nil {
		return GameMap{}, err
	}
	if err := checkPositiveInt(gameMapRecord, "image_height", f.ImageHeight); err != nil {
		return GameMap{}, err
	}
	if f.MinZoom > f.MaxZoom {
		return GameMap{}, fieldErr(gameMapRecord, "min_zoom", f.MinZoom, "must not exceed max_zoom %d", f.MaxZoom)
	}
	if f.DefaultZoom < f.MinZoom || f.DefaultZoom > f.MaxZoom {
		return GameMap{}, fieldErr(gameMapRecord, "default_zoom", f.DefaultZoom, "must lie within [%d, %d]", f.MinZoom, f.MaxZoom)
	}
	if err := checkFraction(gameMapRecord, "default_center_x", f.DefaultCenterX); err != nil {
		return GameMap{}, err
	}
	if err := checkFraction(gameMapRecord, "default_center_y", f.DefaultCenterY); err != nil {
		return GameMap{}, err
	}
	if f.GridSystem != "" && !ValidSlug(f.GridSystem) {
		return GameMap{}, fieldErr(gameMapRecord, "grid_system", f.GridSystem, "must match %s", slugPattern.String())
	}

	m := GameMap{f: f}
	m.f.GridOptions = nil
	if f.GridOptions != nil {
		opts, err := NewGridStyleOptions(*f.GridOptions)
		if err != nil {
			return GameMap{}, withPrefix(err, gameMapRecord, "grid_options")
		}
		m.gridOptions = &opts
	}
	return m, nil
}

func (m GameMap) Name() string            { return m.f.Name }
func (m GameMap) Slug() string            { return m.f.Slug }
func (m GameMap) Description() string     { return m.f.Description }
func (m GameMap) ImageURL() string        { return m.f.ImageURL }
func (m GameMap) TileURL() string         { return m.f.TileURL }
func (m GameMap) TileSize() int           { return m.f.TileSize }
func (m GameMap) ImageWidth() int         { return m.f.ImageWidth }
func (m GameMap) ImageHeight() int        { return m.f.ImageHeight }
func (m GameMap) MinZoom() int            { return m.f.MinZoom }
func (m GameMap) MaxZoom() int            { return m.f.MaxZoom }
func (m GameMap) DefaultZoom() int        { return m.f.DefaultZoom }
func (m GameMap) DefaultCenterX() float64 { return m.f.DefaultCenterX }
func (m GameMap) DefaultCenterY() float64 { return m.f.DefaultCenterY }
func (m GameMap) GridSystem() string      { return m.f.GridSystem }
func (m GameMap) GridVisibleByDefault() bool {
	return m.f.GridVisibleByDefault
}

// IsTiled reports whether the map is served as tiles rather than a single image.
func (m GameMap) IsTiled() bool {
	return m.f.TileURL != ""
}

// GridOptions returns the declared grid styling, if any.
func (m GameMap) GridOptions() (GridStyleOptions, bool) {
	if m.gridOptions == nil {
		return GridStyleOptions{}, false
	}
	return *m.gridOptions, true
}

// EffectiveGridOptions returns the declared grid styling or the defaults.
func (m GameMap) EffectiveGridOptions() GridStyleOptions {
	if opts, ok := m.GridOptions(); ok {
		return opts
	}
	return DefaultGridStyleOptions()
}

// Fields returns a copy of the authoring fields.
func (m GameMap) Fields() GameMapFields {
	f := m.f
	if m.gridOptions != nil {
		g := m.gridOptions.Fields()
		f.GridOptions = &g
	}
	return f
}

// MarshalJSON implements json.Marshaler.
func (m GameMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Fields())
}

type gameMapDocument struct {
	GameMapFields
	GridOptions json.RawMessage `json:"grid_options,omitempty"`
}

// UnmarshalJSON decodes and validates a game map document.
func (m *GameMap) UnmarshalJSON(data []byte) error {
	var doc gameMapDocument
	err := decodeObject(gameMapRecord, data, &doc,
		"name", "slug", "image_width", "image_height",
		"min_zoom", "max_zoom", "default_zoom",
		"default_center_x", "default_center_y",
	)
	if err != nil {
		return err
	}

	f := doc.GameMapFields
	if len(doc.GridOptions) > 0 && string(doc.GridOptions) != "null" {
		var opts GridStyleOptions
		if err := opts.UnmarshalJSON(doc.GridOptions); err != nil {
			return withPrefix(err, gameMapRecord, "grid_options")
		}
		g := opts.Fields()
		f.GridOptions = &g
	}

	gm, err := NewGameMap(f)
	if err != nil {
		return err
	}
	*m = gm
	return nil
}
