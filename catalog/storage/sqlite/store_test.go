package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wricardo/gamemaps/catalog/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDataset(t *testing.T, markerCount int) model.MapDataset {
	t.Helper()
	m, err := model.NewGameMap(model.GameMapFields{
		Name: "Olympus", Slug: "olympus", ImageURL: "https://example.com/olympus.webp",
		ImageWidth: 8192, ImageHeight: 8192, MinZoom: -3, MaxZoom: 2, DefaultZoom: -2,
		DefaultCenterX: 0.5, DefaultCenterY: 0.5,
	})
	if err != nil {
		t.Fatalf("build map: %v", err)
	}
	caves, _ := model.NewMapCategory(model.MapCategoryFields{Slug: "caves", Name: "Caves", Color: "#8a6d3b", DefaultName: "Cave"})
	drops, _ := model.NewMapCategory(model.MapCategoryFields{Slug: "drop-zones", Name: "Drop Zones", Color: "#4fa3f7"})
	var markers []model.MapMarker
	for i := 0; i < markerCount; i++ {
		mk, err := model.NewMapMarker(model.MapMarkerFields{CategorySlug: "caves", PositionX: 0.1 * float64(i%10), PositionY: 0.5})
		if err != nil {
			t.Fatalf("build marker: %v", err)
		}
		markers = append(markers, mk)
	}
	orphan, _ := model.NewMapMarker(model.MapMarkerFields{CategorySlug: "missing", PositionX: 0.2, PositionY: 0.2})
	markers = append(markers, orphan)
	ds, err := model.NewMapDataset(m, []model.MapCategory{caves, drops}, markers)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return ds
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open store (attempt %d): %v", i+1, err)
		}
		_ = store.Close()
	}
}

func TestPutAndGetDataset(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	ds := testDataset(t, 3)

	if err := store.PutDataset(ctx, "game_icarus", ds); err != nil {
		t.Fatalf("put dataset: %v", err)
	}

	got, err := store.GetDataset(ctx, "game_icarus", "olympus")
	if err != nil {
		t.Fatalf("get dataset: %v", err)
	}
	if !reflect.DeepEqual(ds, got) {
		t.Fatal("expected stored dataset to round trip")
	}

	counts, err := store.CountMarkers(ctx, "game_icarus", "olympus")
	if err != nil {
		t.Fatalf("count markers: %v", err)
	}
	want := map[string]int{"caves": 3, "drop-zones": 0}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}

	if _, err := store.GetDataset(ctx, "game_icarus", "styx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutDatasetReplaces(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.PutDataset(ctx, "game_icarus", testDataset(t, 5)); err != nil {
		t.Fatalf("put dataset: %v", err)
	}
	if err := store.PutDataset(ctx, "game_icarus", testDataset(t, 2)); err != nil {
		t.Fatalf("replace dataset: %v", err)
	}

	rows, err := store.ListMaps(ctx, "game_icarus")
	if err != nil {
		t.Fatalf("list maps: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 map, got %d", len(rows))
	}
	if rows[0].Slug != "olympus" || rows[0].MarkerCount != 2 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if rows[0].UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be set")
	}

	other, err := store.ListMaps(ctx, "game_enshrouded")
	if err != nil {
		t.Fatalf("list maps: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no maps for another game, got %d", len(other))
	}
}

func TestCanceledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.PutDataset(ctx, "game_icarus", testDataset(t, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
