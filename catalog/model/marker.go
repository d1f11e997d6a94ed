package model

import "encoding/json"

const markerRecord = "map_marker"

// MapMarkerFields is the authoring shape of MapMarker.
type MapMarkerFields struct {
	Name         string  `json:"name,omitempty"`
	CategorySlug string  `json:"category_slug" jsonschema:"required,pattern=^[a-z0-9][a-z0-9_-]*$"`
	PositionX    float64 `json:"position_x" jsonschema:"required,minimum=0,maximum=1"`
	PositionY    float64 `json:"position_y" jsonschema:"required,minimum=0,maximum=1"`
	Description  string  `json:"description,omitempty"`
	Icon         string  `json:"icon,omitempty"`
}

// MapMarker is a point of interest at a fractional position on its map.
type MapMarker struct {
	f MapMarkerFields
}

// NewMapMarker validates f and returns the immutable marker. Whether
// CategorySlug names a real category is checked by the dataset, not here.
func NewMapMarker(f MapMarkerFields) (MapMarker, error) {
	if err := checkSlug(markerRecord, "category_slug", f.CategorySlug); err != nil {
		return MapMarker{}, err
	}
	if err := checkFraction(markerRecord, "position_x", f.PositionX); err != nil {
		return MapMarker{}, err
	}
	if err := checkFraction(markerRecord, "position_y", f.PositionY); err != nil {
		return MapMarker{}, err
	}
	return MapMarker{f: f}, nil
}

func (m MapMarker) Name() string         { return m.f.Name }
func (m MapMarker) CategorySlug() string { return m.f.CategorySlug }
func (m MapMarker) PositionX() float64   { return m.f.PositionX }
func (m MapMarker) PositionY() float64   { return m.f.PositionY }
func (m MapMarker) Description() string  { return m.f.Description }
func (m MapMarker) Icon() string         { return m.f.Icon }

// Fields returns a copy of the authoring fields.
func (m MapMarker) Fields() MapMarkerFields {
	return m.f
}

// MarshalJSON implements json.Marshaler.
func (m MapMarker) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.f)
}

// UnmarshalJSON decodes and validates a marker document.
func (m *MapMarker) UnmarshalJSON(data []byte) error {
	var f MapMarkerFields
	if err := decodeObject(markerRecord, data, &f, "category_slug", "position_x", "position_y"); err != nil {
		return err
	}
	mk, err := NewMapMarker(f)
	if err != nil {
		return err
	}
	*m = mk
	return nil
}
