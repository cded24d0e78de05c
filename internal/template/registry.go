package template

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry resolves catalogs by source path, caching parsed results so
// repeated lookups do not re-read and re-validate the JSON file. The
// empty path resolves to the built-in catalog.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Catalog]

	defaultOnce sync.Once
	defaultCat  *Catalog
}

// NewRegistry creates a registry with room for maxEntries parsed catalogs.
func NewRegistry(maxEntries int) (*Registry, error) {
	if maxEntries <= 0 {
		maxEntries = 16
	}
	cache, err := lru.New[string, *Catalog](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache}, nil
}

// Resolve returns the catalog for the given path, loading it on first use.
func (r *Registry) Resolve(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		r.defaultOnce.Do(func() { r.defaultCat = DefaultCatalog() })
		return r.defaultCat, nil
	}
	if cat, ok := r.cache.Get(path); ok {
		return cat, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cat, ok := r.cache.Get(path); ok {
		return cat, nil
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	r.cache.Add(path, cat)
	return cat, nil
}

// Invalidate drops a cached catalog so the next Resolve re-reads it.
func (r *Registry) Invalidate(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	r.cache.Remove(path)
}
