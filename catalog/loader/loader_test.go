package loader

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/registry"
)

const embervaleYAML = `
map:
  name: Embervale
  slug: embervale
  description: The various biomes of Embervale
  tile_url: https://example.com/maps/{x}_{y}.webp
  tile_size: 1280
  image_width: 10240
  image_height: 10240
  min_zoom: -4
  max_zoom: 1
  default_zoom: 0
  default_center_x: 0.5
  default_center_y: 0.5
  grid_system: generic_8x8
  grid_options:
    label_opacity: 0.9
categories:
  - slug: locations-elixir-well
    name: Elixir Well
    color: "#eecaf4"
    icon: elixir_well.webp
    default_name: Elixir Well
    default_description: Elixir Well
    use_pin_style: false
  - slug: locations-cinder-vault
    name: Cinder Vault
    color: "#544951"
    default_description: Initial Spawn Location
markers:
  - category_slug: locations-elixir-well
    position_x: 0.377608
    position_y: 0.162064
  - name: Cinder Vault
    category_slug: locations-cinder-vault
    position_x: 0.361084
    position_y: 0.119141
  - name: Orphan
    category_slug: locations-missing
    position_x: 0.5
    position_y: 0.5
`

const olympusJSON = `{
  "map": {"name": "Olympus", "slug": "olympus", "image_url": "https://example.com/olympus.jpg",
          "image_width": 4096, "image_height": 4096, "min_zoom": -3, "max_zoom": 2,
          "default_zoom": -2, "default_center_x": 0.5, "default_center_y": 0.5},
  "categories": [{"slug": "caves", "name": "Caves", "color": "#8a6d3b"}],
  "markers": [{"name": "Cave", "category_slug": "caves", "position_x": 0.25, "position_y": 0.75}]
}`

func TestDecodeDataset(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		ds, err := DecodeDataset([]byte(embervaleYAML), FormatYAML)
		if err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if ds.Map().DefaultZoom() != 0 || ds.Map().TileSize() != 1280 {
			t.Errorf("Unexpected map: %+v", ds.Map().Fields())
		}
		opts, ok := ds.Map().GridOptions()
		if !ok || opts.LabelOpacity() != 0.9 || opts.LineOpacity() != 0.5 {
			t.Errorf("Unexpected grid options: %+v", opts.Fields())
		}
		vault, _ := ds.Category("locations-cinder-vault")
		if !vault.UsePinStyle() || !vault.IsVisibleByDefault() {
			t.Error("Expected omitted booleans to default to true")
		}
		if len(ds.Markers()) != 3 || len(ds.DanglingReferences()) != 1 {
			t.Errorf("Expected 3 markers with 1 dangling, got %d/%d", len(ds.Markers()), len(ds.DanglingReferences()))
		}
	})

	t.Run("json", func(t *testing.T) {
		ds, err := DecodeDataset([]byte(olympusJSON), FormatJSON)
		if err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if ds.Map().IsTiled() {
			t.Error("Expected single-image map")
		}
	})

	t.Run("date-like scalars keep authored text", func(t *testing.T) {
		data := strings.Replace(embervaleYAML, "name: Cinder Vault\n    color", "name: 2024-01-01\n    color", 1)
		data = strings.Replace(data, "name: Orphan", "name: 2024-01-01T10:00:00Z", 1)
		ds, err := DecodeDataset([]byte(data), FormatYAML)
		if err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		vault, ok := ds.Category("locations-cinder-vault")
		if !ok || vault.Name() != "2024-01-01" {
			t.Errorf("Expected category name 2024-01-01, got %q", vault.Name())
		}
		if got := ds.Markers()[2].Name(); got != "2024-01-01T10:00:00Z" {
			t.Errorf("Expected marker name 2024-01-01T10:00:00Z, got %q", got)
		}

		encoded, err := EncodeDataset(ds, FormatYAML)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		back, err := DecodeDataset(encoded, FormatYAML)
		if err != nil {
			t.Fatalf("Failed to decode encoded dataset: %v\n%s", err, encoded)
		}
		if !reflect.DeepEqual(ds, back) {
			t.Errorf("Expected date-like names to survive a round trip:\n%s", encoded)
		}
	})

	t.Run("anchors and aliases", func(t *testing.T) {
		data := strings.Replace(embervaleYAML, "name: Elixir Well\n", "name: &well Elixir Well\n", 1)
		data = strings.Replace(data, "default_name: Elixir Well", "default_name: *well", 1)
		ds, err := DecodeDataset([]byte(data), FormatYAML)
		if err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		well, _ := ds.Category("locations-elixir-well")
		if well.DefaultName() != "Elixir Well" {
			t.Errorf("Expected alias to resolve, got %q", well.DefaultName())
		}
	})

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"zoom out of bounds", strings.Replace(embervaleYAML, "default_zoom: 0", "default_zoom: 3", 1), FormatYAML},
		{"opacity out of range", strings.Replace(embervaleYAML, "label_opacity: 0.9", "label_opacity: 1.9", 1), FormatYAML},
		{"wrong type", strings.Replace(embervaleYAML, "image_width: 10240", "image_width: wide", 1), FormatYAML},
		{"malformed yaml", "map: [", FormatYAML},
		{"malformed json", "{", FormatJSON},
		{"non-string key", "1: x\n", FormatYAML},
		{"date key", "2024-01-01: x\n", FormatYAML},
		{"duplicate yaml key", strings.Replace(embervaleYAML, "  tile_size: 1280\n", "  tile_size: 1280\n  tile_size: 640\n", 1), FormatYAML},
		{"duplicate json key", strings.Replace(olympusJSON, `"name": "Olympus",`, `"name": "Olympus", "name": "Other",`, 1), FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataset([]byte(tt.data), tt.format)
			if !errors.Is(err, model.ErrSchemaViolation) {
				t.Errorf("Expected ErrSchemaViolation, got %v", err)
			}
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		_, err := DecodeDataset([]byte(olympusJSON), Format("toml"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestEncodeDatasetRoundTrip(t *testing.T) {
	original, err := DecodeDataset([]byte(embervaleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := EncodeDataset(original, format)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}
			back, err := DecodeDataset(data, format)
			if err != nil {
				t.Fatalf("Failed to decode encoded dataset: %v\n%s", err, data)
			}
			if !reflect.DeepEqual(original, back) {
				t.Errorf("Round trip mismatch for %s:\n%s", format, data)
			}
		})
	}

	t.Run("yaml is block style and keeps key order", func(t *testing.T) {
		data, err := EncodeDataset(original, FormatYAML)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		text := string(data)
		if strings.Contains(text, "map: {") || strings.Contains(text, "- {") {
			t.Errorf("Expected block style YAML, got:\n%s", text)
		}
		if strings.Index(text, "map:") > strings.Index(text, "categories:") {
			t.Errorf("Expected map before categories, got:\n%s", text)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"json": FormatJSON, ".yaml": FormatYAML, "YML": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := FormatFromPath("olympus.toml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadAndSaveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "embervale.yaml")
	if err := os.WriteFile(src, []byte(embervaleYAML), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	ds, err := LoadFile(src)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	out := filepath.Join(dir, "embervale.json")
	if err := SaveFile(out, ds); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	back, err := LoadFile(out)
	if err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if !reflect.DeepEqual(ds, back) {
		t.Error("Expected saved dataset to load back unchanged")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func catalogFS(manifest string) fstest.MapFS {
	return fstest.MapFS{
		"data/catalog.yaml":                    {Data: []byte(manifest)},
		"data/game_icarus/olympus.json":        {Data: []byte(olympusJSON)},
		"data/game_enshrouded/embervale.yaml":  {Data: []byte(embervaleYAML)},
		"data/game_enshrouded/embervale2.yaml": {Data: []byte(embervaleYAML)},
	}
}

const validManifest = `
datasets:
  - game: game_icarus
    file: game_icarus/olympus.json
  - game: game_enshrouded
    file: game_enshrouded/embervale.yaml
`

func TestLoadCatalog(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		reg, err := LoadCatalog(catalogFS(validManifest), "data/catalog.yaml")
		if err != nil {
			t.Fatalf("Failed to load catalog: %v", err)
		}
		if reg.Len() != 2 {
			t.Errorf("Expected 2 datasets, got %d", reg.Len())
		}
		ds, ok := reg.Get("game_enshrouded", "embervale")
		if !ok || ds.Map().DefaultZoom() != 0 {
			t.Error("Expected embervale with default zoom 0")
		}
		if _, ok := reg.Get("game_icarus", "nonexistent"); ok {
			t.Error("Expected absent result")
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		manifest := validManifest + "  - game: game_enshrouded\n    file: game_enshrouded/embervale2.yaml\n"
		_, err := LoadCatalog(catalogFS(manifest), "data/catalog.yaml")
		if !errors.Is(err, registry.ErrDuplicateKey) {
			t.Errorf("Expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("invalid dataset aborts", func(t *testing.T) {
		fsys := catalogFS(validManifest)
		fsys["data/game_icarus/olympus.json"] = &fstest.MapFile{Data: []byte(strings.Replace(olympusJSON, `"default_zoom": -2`, `"default_zoom": 5`, 1))}
		_, err := LoadCatalog(fsys, "data/catalog.yaml")
		if !errors.Is(err, model.ErrSchemaViolation) {
			t.Errorf("Expected ErrSchemaViolation, got %v", err)
		}
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := LoadCatalog(fstest.MapFS{}, "catalog.yaml")
		if !errors.Is(err, ErrManifestNotFound) {
			t.Errorf("Expected ErrManifestNotFound, got %v", err)
		}
	})

	t.Run("incomplete manifest entry", func(t *testing.T) {
		_, err := LoadCatalog(catalogFS("datasets:\n  - game: game_icarus\n"), "data/catalog.yaml")
		if !errors.Is(err, model.ErrSchemaViolation) {
			t.Errorf("Expected ErrSchemaViolation, got %v", err)
		}
	})
}

func TestManagerReload(t *testing.T) {
	fsys := catalogFS(validManifest)
	m, err := NewManager(fsys, "data/catalog.yaml")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("unchanged", func(t *testing.T) {
		changed, err := m.Reload()
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		if len(changed) != 0 {
			t.Errorf("Expected no changes, got %v", changed)
		}
	})

	t.Run("modified dataset", func(t *testing.T) {
		fsys["data/game_icarus/olympus.json"] = &fstest.MapFile{Data: []byte(strings.Replace(olympusJSON, `"default_zoom": -2`, `"default_zoom": 0`, 1))}
		changed, err := m.Reload()
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		want := []registry.Key{{Game: "game_icarus", Map: "olympus"}}
		if !reflect.DeepEqual(changed, want) {
			t.Errorf("Expected %v, got %v", want, changed)
		}
		ds, _ := m.Registry().Get("game_icarus", "olympus")
		if ds.Map().DefaultZoom() != 0 {
			t.Error("Expected registry to reflect the reload")
		}
	})

	t.Run("removed dataset", func(t *testing.T) {
		fsys["data/catalog.yaml"] = &fstest.MapFile{Data: []byte("datasets:\n  - game: game_icarus\n    file: game_icarus/olympus.json\n")}
		changed, err := m.Reload()
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		want := []registry.Key{{Game: "game_enshrouded", Map: "embervale"}}
		if !reflect.DeepEqual(changed, want) {
			t.Errorf("Expected %v, got %v", want, changed)
		}
	})

	t.Run("failed reload keeps previous registry", func(t *testing.T) {
		before := m.Registry()
		fsys["data/game_icarus/olympus.json"] = &fstest.MapFile{Data: []byte("{")}
		if _, err := m.Reload(); err == nil {
			t.Fatal("Expected reload error")
		}
		if m.Registry() != before {
			t.Error("Expected previous registry to stay current")
		}
	})
}

func TestSchema(t *testing.T) {
	data, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("Failed to marshal schema: %v", err)
	}
	var doc struct {
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	if !reflect.DeepEqual(doc.Required, []string{"map", "categories"}) {
		t.Errorf("Unexpected required list: %v", doc.Required)
	}
	for _, key := range []string{"map", "categories", "markers"} {
		if _, ok := doc.Properties[key]; !ok {
			t.Errorf("Expected property %q", key)
		}
	}
	if !strings.Contains(string(doc.Properties["categories"]), "use_pin_style") {
		t.Error("Expected category properties to be inlined")
	}
}
