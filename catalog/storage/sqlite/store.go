// Package sqlite exports the map catalog into a SQLite database so other
// tools can query markers with SQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/registry"
	"github.com/wricardo/gamemaps/catalog/storage/sqlite/migrations"
)

// ErrNotFound is returned when no map is stored under the requested key.
var ErrNotFound = errors.New("map not stored")

// Store persists catalog datasets in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// MapRow is the summary of one stored map.
type MapRow struct {
	Game        string
	Slug        string
	Name        string
	MarkerCount int
	UpdatedAt   time.Time
}

// Open opens a SQLite catalog store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutRegistry stores every dataset of reg.
func (s *Store) PutRegistry(ctx context.Context, reg *registry.Registry) error {
	var err error
	reg.Each(func(e registry.Entry) {
		if err == nil {
			err = s.PutDataset(ctx, e.Game, e.Dataset)
		}
	})
	return err
}

// PutDataset replaces everything stored for the dataset's map in one
// transaction. Markers with an unknown category are not stored.
func (s *Store) PutDataset(ctx context.Context, game string, ds model.MapDataset) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	doc, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	m := ds.Map()
	view := ds.Resolve()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"markers", "categories"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE game = ? AND map_slug = ?`, game, m.Slug()); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM maps WHERE game = ? AND slug = ?`, game, m.Slug()); err != nil {
		return fmt.Errorf("clear map: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO maps (
		   game, slug, name, description, image_url, tile_url, tile_size,
		   image_width, image_height, min_zoom, max_zoom, default_zoom,
		   default_center_x, default_center_y, grid_system, document, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game, m.Slug(), m.Name(), m.Description(), m.ImageURL(), m.TileURL(), m.TileSize(),
		m.ImageWidth(), m.ImageHeight(), m.MinZoom(), m.MaxZoom(), m.DefaultZoom(),
		m.DefaultCenterX(), m.DefaultCenterY(), m.GridSystem(), string(doc), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert map: %w", err)
	}

	for i, c := range view.Categories {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO categories (
			   game, map_slug, slug, sort_order, name, color, icon, is_visible_by_default, use_pin_style
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			game, m.Slug(), c.Slug, i, c.Name, c.Color, c.Icon, c.IsVisibleByDefault, c.UsePinStyle,
		)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", c.Slug, err)
		}
	}
	for i, mk := range view.Markers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO markers (
			   game, map_slug, sort_order, category_slug, name, description, icon, position_x, position_y
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			game, m.Slug(), i, mk.CategorySlug, mk.Name, mk.Description, mk.Icon, mk.PositionX, mk.PositionY,
		)
		if err != nil {
			return fmt.Errorf("insert marker %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit dataset: %w", err)
	}
	return nil
}

// GetDataset reloads a stored dataset through the model constructors.
func (s *Store) GetDataset(ctx context.Context, game, mapSlug string) (model.MapDataset, error) {
	if err := ctx.Err(); err != nil {
		return model.MapDataset{}, err
	}
	var doc string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT document FROM maps WHERE game = ? AND slug = ?`, game, mapSlug,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MapDataset{}, ErrNotFound
	}
	if err != nil {
		return model.MapDataset{}, fmt.Errorf("get dataset: %w", err)
	}
	var ds model.MapDataset
	if err := json.Unmarshal([]byte(doc), &ds); err != nil {
		return model.MapDataset{}, fmt.Errorf("decode stored dataset: %w", err)
	}
	return ds, nil
}

// ListMaps returns the stored maps of game ordered by slug.
func (s *Store) ListMaps(ctx context.Context, game string) ([]MapRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT m.game, m.slug, m.name, m.updated_at,
		        (SELECT COUNT(1) FROM markers k WHERE k.game = m.game AND k.map_slug = m.slug)
		   FROM maps m
		  WHERE m.game = ?
		  ORDER BY m.slug`, game)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	defer rows.Close()

	var out []MapRow
	for rows.Next() {
		var r MapRow
		var updated int64
		if err := rows.Scan(&r.Game, &r.Slug, &r.Name, &updated, &r.MarkerCount); err != nil {
			return nil, fmt.Errorf("scan map: %w", err)
		}
		r.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate maps: %w", err)
	}
	return out, nil
}

// CountMarkers returns the stored marker count per category slug.
func (s *Store) CountMarkers(ctx context.Context, game, mapSlug string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT c.slug, COUNT(k.sort_order)
		   FROM categories c
		   LEFT JOIN markers k ON k.game = c.game AND k.map_slug = c.map_slug AND k.category_slug = c.slug
		  WHERE c.game = ? AND c.map_slug = ?
		  GROUP BY c.slug`, game, mapSlug)
	if err != nil {
		return nil, fmt.Errorf("count markers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[slug] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return out, nil
}
