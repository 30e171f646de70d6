package platform

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the loaded catalog and resolves selector sets by platform id.
type Registry struct {
	platforms map[ID]*Config
	mu        sync.RWMutex
}

// NewRegistry creates a new empty platform registry.
func NewRegistry() *Registry {
	return &Registry{
		platforms: make(map[ID]*Config),
	}
}

// Register adds a platform to the registry.
// If a platform with the same id exists, it will be replaced.
func (r *Registry) Register(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[cfg.ID] = cfg
}

// Lookup resolves the configuration for a platform id.
func (r *Registry) Lookup(id ID) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.platforms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, id)
	}
	return cfg, nil
}

// Selectors resolves only the selector set for a platform id.
func (r *Registry) Selectors(id ID) (Selectors, error) {
	cfg, err := r.Lookup(id)
	if err != nil {
		return Selectors{}, err
	}
	return cfg.Selectors, nil
}

// Has reports whether the id is in the catalog.
func (r *Registry) Has(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.platforms[id]
	return ok
}

// List returns all registered platform ids in sorted order.
func (r *Registry) List() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.platforms))
	for id := range r.platforms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of registered platforms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.platforms)
}
