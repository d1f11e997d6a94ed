package service

import (
	"context"
	"fmt"

	"github.com/wricardo/gamemaps/catalog/model"
)

// mapServiceImpl implements the MapService interface
type mapServiceImpl struct {
	source Source
}

// NewMapService creates a new map service instance
func NewMapService(source Source) MapService {
	return &mapServiceImpl{source: source}
}

// ListGames returns every game with its map count, sorted by id
func (s *mapServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	reg := s.source.Registry()
	games := reg.Games()
	out := make([]*GameInfo, 0, len(games))
	for _, g := range games {
		out = append(out, &GameInfo{ID: g, MapCount: len(reg.ListMaps(g))})
	}
	return out, nil
}

// ListMaps returns the maps of a game in declaration order. An unknown game
// yields an empty list.
func (s *mapServiceImpl) ListMaps(ctx context.Context, game string) ([]*MapInfo, error) {
	reg := s.source.Registry()
	maps := reg.ListMaps(game)
	out := make([]*MapInfo, 0, len(maps))
	for _, m := range maps {
		ds, ok := reg.Get(game, m.Slug())
		if !ok {
			continue
		}
		out = append(out, newMapInfo(game, ds))
	}
	return out, nil
}

// GetMap returns the resolved view of one dataset
func (s *mapServiceImpl) GetMap(ctx context.Context, game, mapSlug string) (*MapDetail, error) {
	ds, err := s.dataset(game, mapSlug)
	if err != nil {
		return nil, err
	}
	return &MapDetail{Game: game, RenderView: ds.Resolve()}, nil
}

// ResolveMarkers returns the resolved markers of a map, optionally restricted
// to one category
func (s *mapServiceImpl) ResolveMarkers(ctx context.Context, game, mapSlug, category string) ([]model.ResolvedMarker, error) {
	ds, err := s.dataset(game, mapSlug)
	if err != nil {
		return nil, err
	}
	if category != "" {
		if _, ok := ds.Category(category); !ok {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
	}
	return ds.ResolvedMarkers(category), nil
}

func (s *mapServiceImpl) dataset(game, mapSlug string) (model.MapDataset, error) {
	ds, ok := s.source.Registry().Get(game, mapSlug)
	if !ok {
		return model.MapDataset{}, fmt.Errorf("%w: %s/%s", ErrMapNotFound, game, mapSlug)
	}
	return ds, nil
}

func newMapInfo(game string, ds model.MapDataset) *MapInfo {
	m := ds.Map()
	resolvable := len(ds.Markers()) - len(ds.DanglingReferences())
	return &MapInfo{
		Game:          game,
		Slug:          m.Slug(),
		Name:          m.Name(),
		Description:   m.Description(),
		ImageWidth:    m.ImageWidth(),
		ImageHeight:   m.ImageHeight(),
		Tiled:         m.IsTiled(),
		GridSystem:    m.GridSystem(),
		CategoryCount: len(ds.Categories()),
		MarkerCount:   resolvable,
	}
}
