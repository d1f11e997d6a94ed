package loader

import (
	"fmt"
	"os"

	"github.com/wricardo/gamemaps/catalog/model"
)

// LoadFile reads one dataset file. The format follows the extension.
func LoadFile(path string) (model.MapDataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return model.MapDataset{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.MapDataset{}, fmt.Errorf("failed to read dataset file: %w", err)
	}
	ds, err := DecodeDataset(data, format)
	if err != nil {
		return model.MapDataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// SaveFile writes ds to path in the format the extension names.
func SaveFile(path string, ds model.MapDataset) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := EncodeDataset(ds, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}
	return nil
}
