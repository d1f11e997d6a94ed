package loader

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/wricardo/gamemaps/catalog/model"
)

// datasetDocument mirrors the authoring shape of a dataset file.
type datasetDocument struct {
	Map        model.GameMapFields       `json:"map" jsonschema:"required"`
	Categories []model.MapCategoryFields `json:"categories" jsonschema:"required"`
	Markers    []model.MapMarkerFields   `json:"markers,omitempty"`
}

// Schema returns the JSON Schema of a dataset document. Cross-field rules
// (zoom ordering, image_url versus tile_url, unique slugs) are enforced by
// the loader only.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(datasetDocument{}))
	schema.Title = "Game Map Dataset"
	schema.Description = "One map with its marker categories and markers."
	return schema
}
