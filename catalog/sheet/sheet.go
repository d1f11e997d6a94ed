// Package sheet exports the catalog's resolved markers as an xlsx workbook
// for data authors who review positions in a spreadsheet.
package sheet

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/registry"
)

// SummarySheet lists every map of the workbook with its counts.
const SummarySheet = "maps"

// maxSheetName is the xlsx limit on sheet name length.
const maxSheetName = 31

var markerHeader = []string{
	"category", "name", "description", "icon", "position_x", "position_y", "pixel_x", "pixel_y",
}

// Build creates the workbook: one summary sheet, then one sheet per dataset in
// registry order.
func Build(reg *registry.Registry) (*xlsx.File, error) {
	file := xlsx.NewFile()
	summary, err := file.AddSheet(SummarySheet)
	if err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	addRow(summary, "game", "map", "name", "categories", "markers", "dangling", "sheet")

	reg.Each(func(e registry.Entry) {
		if err != nil {
			return
		}
		name := SheetName(e.Game, e.Dataset.Map().Slug())
		view := e.Dataset.Resolve()

		row := summary.AddRow()
		for _, s := range []string{e.Game, view.Map.Slug, view.Map.Name} {
			row.AddCell().SetString(s)
		}
		row.AddCell().SetInt(len(view.Categories))
		row.AddCell().SetInt(len(view.Markers))
		row.AddCell().SetInt(len(view.Dangling))
		row.AddCell().SetString(name)

		var sh *xlsx.Sheet
		sh, err = file.AddSheet(name)
		if err != nil {
			err = fmt.Errorf("add sheet %s: %w", name, err)
			return
		}
		writeMarkers(sh, view)
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Write renders the workbook for reg to w.
func Write(w io.Writer, reg *registry.Registry) error {
	file, err := Build(reg)
	if err != nil {
		return err
	}
	return file.Write(w)
}

// Save writes the workbook for reg to path.
func Save(path string, reg *registry.Registry) error {
	file, err := Build(reg)
	if err != nil {
		return err
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// SheetName derives the worksheet name of a dataset.
func SheetName(game, mapSlug string) string {
	name := game + "." + mapSlug
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

func writeMarkers(sh *xlsx.Sheet, view model.RenderView) {
	addRow(sh, markerHeader...)
	for _, m := range view.Markers {
		row := sh.AddRow()
		row.AddCell().SetString(m.CategorySlug)
		row.AddCell().SetString(m.Name)
		row.AddCell().SetString(m.Description)
		row.AddCell().SetString(m.Icon)
		row.AddCell().SetFloat(m.PositionX)
		row.AddCell().SetFloat(m.PositionY)
		row.AddCell().SetInt(int(m.PositionX * float64(view.Map.ImageWidth)))
		row.AddCell().SetInt(int(m.PositionY * float64(view.Map.ImageHeight)))
	}
}

func addRow(sh *xlsx.Sheet, values ...string) {
	row := sh.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
