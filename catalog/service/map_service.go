package service

import (
	"context"
	"errors"

	"github.com/wricardo/gamemaps/catalog/model"
	"github.com/wricardo/gamemaps/catalog/registry"
)

var (
	ErrMapNotFound      = errors.New("map not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// MapService defines the read operations on the catalog
type MapService interface {
	ListGames(ctx context.Context) ([]*GameInfo, error)
	ListMaps(ctx context.Context, game string) ([]*MapInfo, error)
	GetMap(ctx context.Context, game, mapSlug string) (*MapDetail, error)
	ResolveMarkers(ctx context.Context, game, mapSlug, category string) ([]model.ResolvedMarker, error)
}

// Source supplies the registry in effect
type Source interface {
	Registry() *registry.Registry
}

type staticSource struct {
	reg *registry.Registry
}

func (s staticSource) Registry() *registry.Registry { return s.reg }

// StaticSource wraps a registry that never changes.
func StaticSource(reg *registry.Registry) Source {
	return staticSource{reg: reg}
}
