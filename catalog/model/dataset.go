package model

import "encoding/json"

const datasetRecord = "map_dataset"

// MapDataset bundles one map with its categories and markers. Markers refer to
// categories by slug.
type MapDataset struct {
	m          GameMap
	categories []MapCategory
	markers    []MapMarker
	bySlug     map[string]int
}

// NewMapDataset checks category slug uniqueness and returns the dataset. The
// slices are copied; later changes by the caller are not observed.
func NewMapDataset(m GameMap, categories []MapCategory, markers []MapMarker) (MapDataset, error) {
	if m.Slug() == "" {
		return MapDataset{}, fieldErr(datasetRecord, "map", nil, "is required")
	}

	d := MapDataset{
		m:          m,
		categories: make([]MapCategory, len(categories)),
		markers:    make([]MapMarker, len(markers)),
		bySlug:     make(map[string]int, len(categories)),
	}
	copy(d.categories, categories)
	copy(d.markers, markers)

	for i, c := range d.categories {
		if c.Slug() == "" {
			return MapDataset{}, fieldErr(datasetRecord, indexPath("categories", i), nil, "category was not constructed")
		}
		if prev, dup := d.bySlug[c.Slug()]; dup {
			return MapDataset{}, fieldErr(datasetRecord, indexPath("categories", i)+".slug", c.Slug(),
				"duplicates categories[%d]", prev)
		}
		d.bySlug[c.Slug()] = i
	}
	for i, mk := range d.markers {
		if mk.CategorySlug() == "" {
			return MapDataset{}, fieldErr(datasetRecord, indexPath("markers", i), nil, "marker was not constructed")
		}
	}
	return d, nil
}

// Map returns the map record.
func (d MapDataset) Map() GameMap {
	return d.m
}

// Categories returns the categories in declaration order.
func (d MapDataset) Categories() []MapCategory {
	out := make([]MapCategory, len(d.categories))
	copy(out, d.categories)
	return out
}

// Markers returns the markers in declaration order, including any whose
// category cannot be resolved.
func (d MapDataset) Markers() []MapMarker {
	out := make([]MapMarker, len(d.markers))
	copy(out, d.markers)
	return out
}

// Category looks up a category by slug.
func (d MapDataset) Category(slug string) (MapCategory, bool) {
	i, ok := d.bySlug[slug]
	if !ok {
		return MapCategory{}, false
	}
	return d.categories[i], true
}

// MarshalJSON implements json.Marshaler.
func (d MapDataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Map        GameMap       `json:"map"`
		Categories []MapCategory `json:"categories"`
		Markers    []MapMarker   `json:"markers"`
	}{d.m, d.categories, d.markers})
}

type datasetDocument struct {
	Map        json.RawMessage `json:"map"`
	Categories json.RawMessage `json:"categories"`
	Markers    json.RawMessage `json:"markers,omitempty"`
}

// UnmarshalJSON decodes and validates a complete dataset document.
func (d *MapDataset) UnmarshalJSON(data []byte) error {
	var doc datasetDocument
	if err := decodeObject(datasetRecord, data, &doc, "map", "categories"); err != nil {
		return err
	}

	var m GameMap
	if err := m.UnmarshalJSON(doc.Map); err != nil {
		return withPrefix(err, datasetRecord, "map")
	}
	categories, err := decodeList(datasetRecord, "categories", doc.Categories, func(b []byte) (MapCategory, error) {
		var c MapCategory
		err := c.UnmarshalJSON(b)
		return c, err
	})
	if err != nil {
		return err
	}
	markers, err := decodeList(datasetRecord, "markers", doc.Markers, func(b []byte) (MapMarker, error) {
		var mk MapMarker
		err := mk.UnmarshalJSON(b)
		return mk, err
	})
	if err != nil {
		return err
	}

	ds, err := NewMapDataset(m, categories, markers)
	if err != nil {
		return err
	}
	*d = ds
	return nil
}
