package model

import "encoding/json"

const gridStyleRecord = "grid_style_options"

// GridStyleFields is the authoring shape of GridStyleOptions.
type GridStyleFields struct {
	LineColor    string  `json:"line_color" jsonschema:"pattern=^#[0-9a-fA-F]{6}$,default=#ffffff"`
	LineOpacity  float64 `json:"line_opacity" jsonschema:"minimum=0,maximum=1,default=0.5"`
	LineWeight   float64 `json:"line_weight" jsonschema:"exclusiveMinimum=0,default=1.5"`
	LabelColor   string  `json:"label_color" jsonschema:"pattern=^#[0-9a-fA-F]{6}$,default=#ffffff"`
	LabelOpacity float64 `json:"label_opacity" jsonschema:"minimum=0,maximum=1,default=0.7"`
	LabelSize    int     `json:"label_size" jsonschema:"minimum=1,default=20"`
}

// DefaultGridStyleFields returns the styling applied when a field is omitted.
func DefaultGridStyleFields() GridStyleFields {
	return GridStyleFields{
		LineColor:    "#ffffff",
		LineOpacity:  0.5,
		LineWeight:   1.5,
		LabelColor:   "#ffffff",
		LabelOpacity: 0.7,
		LabelSize:    20,
	}
}

// GridStyleOptions styles grid lines and labels. The zero value is not valid;
// use NewGridStyleOptions or DefaultGridStyleOptions.
type GridStyleOptions struct {
	f GridStyleFields
}

// NewGridStyleOptions validates f and returns the immutable options.
func NewGridStyleOptions(f GridStyleFields) (GridStyleOptions, error) {
	if err := checkColor(gridStyleRecord, "line_color", f.LineColor); err != nil {
		return GridStyleOptions{}, err
	}
	if err := checkFraction(gridStyleRecord, "line_opacity", f.LineOpacity); err != nil {
		return GridStyleOptions{}, err
	}
	if err := checkPositiveFloat(gridStyleRecord, "line_weight", f.LineWeight); err != nil {
		return GridStyleOptions{}, err
	}
	if err := checkColor(gridStyleRecord, "label_color", f.LabelColor); err != nil {
		return GridStyleOptions{}, err
	}
	if err := checkFraction(gridStyleRecord, "label_opacity", f.LabelOpacity); err != nil {
		return GridStyleOptions{}, err
	}
	if err := checkPositiveInt(gridStyleRecord, "label_size", f.LabelSize); err != nil {
		return GridStyleOptions{}, err
	}
	return GridStyleOptions{f: f}, nil
}

// DefaultGridStyleOptions returns the options used when a map declares none.
func DefaultGridStyleOptions() GridStyleOptions {
	return GridStyleOptions{f: DefaultGridStyleFields()}
}

func (o GridStyleOptions) LineColor() string     { return o.f.LineColor }
func (o GridStyleOptions) LineOpacity() float64  { return o.f.LineOpacity }
func (o GridStyleOptions) LineWeight() float64   { return o.f.LineWeight }
func (o GridStyleOptions) LabelColor() string    { return o.f.LabelColor }
func (o GridStyleOptions) LabelOpacity() float64 { return o.f.LabelOpacity }
func (o GridStyleOptions) LabelSize() int        { return o.f.LabelSize }

// Fields returns a copy of the authoring fields.
func (o GridStyleOptions) Fields() GridStyleFields {
	return o.f
}

// MarshalJSON implements json.Marshaler.
func (o GridStyleOptions) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.f)
}

// UnmarshalJSON decodes a grid style document; omitted fields take the defaults.
func (o *GridStyleOptions) UnmarshalJSON(data []byte) error {
	f := DefaultGridStyleFields()
	if err := decodeObject(gridStyleRecord, data, &f); err != nil {
		return err
	}
	opts, err := NewGridStyleOptions(f)
	if err != nil {
		return err
	}
	*o = opts
	return nil
}
