package model

import "encoding/json"

const categoryRecord = "map_category"

// MapCategoryFields is the authoring shape of MapCategory.
type MapCategoryFields struct {
	Slug               string `json:"slug" jsonschema:"required,pattern=^[a-z0-9][a-z0-9_-]*$"`
	Name               string `json:"name" jsonschema:"required,minLength=1"`
	Color              string `json:"color" jsonschema:"required,pattern=^#[0-9a-fA-F]{6}$"`
	IsVisibleByDefault bool   `json:"is_visible_by_default" jsonschema:"default=true"`
	Icon               string `json:"icon,omitempty" jsonschema:"description=Icon inherited by markers without their own"`
	DefaultName        string `json:"default_name,omitempty"`
	DefaultDescription string `json:"default_description,omitempty"`
	UsePinStyle        bool   `json:"use_pin_style" jsonschema:"default=true"`
}

// MapCategory groups markers under a label and color.
type MapCategory struct {
	f MapCategoryFields
}

// NewMapCategory validates f and returns the immutable category.
func NewMapCategory(f MapCategoryFields) (MapCategory, error) {
	if err := checkSlug(categoryRecord, "slug", f.Slug); err != nil {
		return MapCategory{}, err
	}
	if err := checkRequired(categoryRecord, "name", f.Name); err != nil {
		return MapCategory{}, err
	}
	if err := checkColor(categoryRecord, "color", f.Color); err != nil {
		return MapCategory{}, err
	}
	return MapCategory{f: f}, nil
}

func (c MapCategory) Slug() string               { return c.f.Slug }
func (c MapCategory) Name() string               { return c.f.Name }
func (c MapCategory) Color() string              { return c.f.Color }
func (c MapCategory) IsVisibleByDefault() bool   { return c.f.IsVisibleByDefault }
func (c MapCategory) Icon() string               { return c.f.Icon }
func (c MapCategory) DefaultName() string        { return c.f.DefaultName }
func (c MapCategory) DefaultDescription() string { return c.f.DefaultDescription }
func (c MapCategory) UsePinStyle() bool          { return c.f.UsePinStyle }

// Fields returns a copy of the authoring fields.
func (c MapCategory) Fields() MapCategoryFields {
	return c.f
}

// MarshalJSON implements json.Marshaler.
func (c MapCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.f)
}

// UnmarshalJSON decodes a category document. Omitted booleans default to true.
func (c *MapCategory) UnmarshalJSON(data []byte) error {
	f := MapCategoryFields{IsVisibleByDefault: true, UsePinStyle: true}
	if err := decodeObject(categoryRecord, data, &f, "slug", "name", "color"); err != nil {
		return err
	}
	cat, err := NewMapCategory(f)
	if err != nil {
		return err
	}
	*c = cat
	return nil
}
