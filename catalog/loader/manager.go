package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wricardo/gamemaps/catalog/registry"
)

// Manager owns the catalog loaded from a manifest and can reload it. Readers
// always see a complete registry; a failed reload keeps the previous one.
type Manager struct {
	fsys     fs.FS
	manifest string
	current  atomic.Pointer[registry.Registry]
	mu       sync.Mutex
}

// NewManager loads the catalog once and fails if it is invalid.
func NewManager(fsys fs.FS, manifestPath string) (*Manager, error) {
	m := &Manager{fsys: fsys, manifest: manifestPath}
	reg, err := LoadCatalog(fsys, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	m.current.Store(reg)
	return m, nil
}

// Registry returns the current registry.
func (m *Manager) Registry() *registry.Registry {
	return m.current.Load()
}

// Reload reads the catalog again and returns the keys whose dataset was
// added, removed or changed.
func (m *Manager) Reload() ([]registry.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := LoadCatalog(m.fsys, m.manifest)
	if err != nil {
		return nil, err
	}
	prev := m.current.Load()
	changed := diff(prev, next)
	m.current.Store(next)
	if len(changed) > 0 {
		slog.Info("catalog reloaded", "changed", len(changed), "datasets", next.Len())
	}
	return changed, nil
}

func diff(prev, next *registry.Registry) []registry.Key {
	before := fingerprints(prev)
	var changed []registry.Key
	next.Each(func(e registry.Entry) {
		key := e.Key()
		data, _ := json.Marshal(e.Dataset)
		old, ok := before[key]
		if !ok || !bytes.Equal(old, data) {
			changed = append(changed, key)
		}
		delete(before, key)
	})
	prev.Each(func(e registry.Entry) {
		if _, gone := before[e.Key()]; gone {
			changed = append(changed, e.Key())
		}
	})
	return changed
}

func fingerprints(reg *registry.Registry) map[registry.Key][]byte {
	out := make(map[registry.Key][]byte, reg.Len())
	reg.Each(func(e registry.Entry) {
		data, _ := json.Marshal(e.Dataset)
		out[e.Key()] = data
	})
	return out
}
