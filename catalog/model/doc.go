// Package model defines the immutable records of the game map catalog.
//
// The model package provides:
//   - GridStyleOptions: styling for the optional grid overlay
//   - GameMap: map metadata (image reference, zoom bounds, default view, grid)
//   - MapCategory: a labelled, coloured group of markers with fallback text and icon
//   - MapMarker: a point of interest in fractional coordinates referencing a category by slug
//   - MapDataset: one map with its categories and flat marker list
//
// Construction:
//
// Every record is built through a constructor that validates the authoring
// fields and returns a value with no setters. Changing a record means copying
// its Fields(), editing the copy and constructing again:
//
//	f := gameMap.Fields()
//	f.DefaultZoom = -1
//	moved, err := model.NewGameMap(f)
//
// Validation failures wrap ErrSchemaViolation and carry the offending field
// path and value as a *FieldError.
//
// Resolution:
//
// Markers may omit their name, description and icon; the owning category
// supplies defaults. MapDataset.Resolve computes the effective values once per
// marker and reports markers whose category_slug matches no category as
// DanglingReference diagnostics instead of failing.
//
// Coordinates:
//
// Positions and the default view center are fractions of the image size in
// [0, 1]. Converting to pixels (fraction × image dimension) is left to the
// consumer.
package model
