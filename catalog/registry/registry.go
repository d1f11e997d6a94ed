// Package registry holds the process-wide lookup table from (game, map) to
// dataset.
//
// A Registry is assembled once through a Builder and is read-only afterwards,
// so any number of goroutines may query it without locking:
//
//	b := registry.NewBuilder()
//	if err := b.Add("game_enshrouded", embervale); err != nil {
//		return err // ErrDuplicateKey or model.ErrSchemaViolation
//	}
//	reg := b.Build()
//	ds, ok := reg.Get("game_enshrouded", "embervale")
//
// The map part of the key is always the dataset's map slug. Lookups of an
// unknown pair report ok == false; they are not errors.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wricardo/gamemaps/catalog/model"
)

// ErrDuplicateKey is returned when a (game, map) pair is registered twice.
var ErrDuplicateKey = errors.New("duplicate dataset key")

// Key identifies one dataset.
type Key struct {
	Game string
	Map  string
}

func (k Key) String() string {
	return k.Game + "/" + k.Map
}

// Entry is one registered dataset.
type Entry struct {
	Game    string
	Dataset model.MapDataset
}

// Key returns the composite key of the entry.
func (e Entry) Key() Key {
	return Key{Game: e.Game, Map: e.Dataset.Map().Slug()}
}

// Builder collects entries before the registry is frozen. It is not safe for
// concurrent use.
type Builder struct {
	entries []Entry
	index   map[Key]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[Key]int)}
}

// Add registers ds under game. A rejected entry leaves the builder unchanged.
func (b *Builder) Add(game string, ds model.MapDataset) error {
	if !model.ValidSlug(game) {
		return &model.FieldError{Record: "registry", Path: "game", Value: game, Reason: "must be a valid slug"}
	}
	e := Entry{Game: game, Dataset: ds}
	key := e.Key()
	if key.Map == "" {
		return &model.FieldError{Record: "registry", Path: "map", Reason: "dataset has no map"}
	}
	if _, exists := b.index[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, e)
	return nil
}

// Build freezes the collected entries. The builder may keep being used; later
// additions do not affect registries already built.
func (b *Builder) Build() *Registry {
	r := &Registry{
		entries: make([]Entry, len(b.entries)),
		index:   make(map[Key]int, len(b.index)),
		byGame:  make(map[string][]int),
	}
	copy(r.entries, b.entries)
	for i, e := range r.entries {
		r.index[e.Key()] = i
		r.byGame[e.Game] = append(r.byGame[e.Game], i)
	}
	return r
}

// New builds a registry from entries, failing on the first invalid one.
func New(entries ...Entry) (*Registry, error) {
	b := NewBuilder()
	for _, e := range entries {
		if err := b.Add(e.Game, e.Dataset); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Registry is an immutable set of datasets keyed by (game, map).
type Registry struct {
	entries []Entry
	index   map[Key]int
	byGame  map[string][]int
}

// Get returns the dataset registered under (game, mapSlug).
func (r *Registry) Get(game, mapSlug string) (model.MapDataset, bool) {
	i, ok := r.index[Key{Game: game, Map: mapSlug}]
	if !ok {
		return model.MapDataset{}, false
	}
	return r.entries[i].Dataset, true
}

// ListMaps returns the maps registered under game in insertion order. Unknown
// games yield an empty slice.
func (r *Registry) ListMaps(game string) []model.GameMap {
	idx := r.byGame[game]
	out := make([]model.GameMap, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.entries[i].Dataset.Map())
	}
	return out
}

// ListGames returns the distinct game identifiers.
func (r *Registry) ListGames() map[string]struct{} {
	out := make(map[string]struct{}, len(r.byGame))
	for g := range r.byGame {
		out[g] = struct{}{}
	}
	return out
}

// Games returns the game identifiers sorted for stable output.
func (r *Registry) Games() []string {
	out := make([]string, 0, len(r.byGame))
	for g := range r.byGame {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of datasets.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Each calls fn for every entry in insertion order.
func (r *Registry) Each(fn func(Entry)) {
	for _, e := range r.entries {
		fn(e)
	}
}
