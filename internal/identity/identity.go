// Package identity assigns every extension a stable display name derived from
// its discovery path.
//
// The first time a path is seen the registry synthesizes
// "<hint>-<10 lowercase letters>" and remembers it. Names are never
// reassigned; persistence is delegated to a Store and flushed once per
// composition pass.
package identity

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/innermost/internal/token"
)

// ErrEmptyPath is returned when resolving an empty discovery path.
var ErrEmptyPath = errors.New("identity: path is required")

// Store persists the path -> name mapping.
type Store interface {
	// Names returns the previously persisted mapping. A missing store yields
	// an empty map and no error.
	Names() (map[string]string, error)

	// SetNames replaces the persisted mapping. Durability is provided by Save.
	SetNames(names map[string]string) error

	// Save flushes pending changes to durable storage.
	Save() error
}

// TokenFunc produces the random disambiguation suffix.
type TokenFunc func(length int) (string, error)

// Registry maps discovery paths to generated display names.
type Registry struct {
	mu    sync.RWMutex
	names map[string]string
	store Store
	token TokenFunc
	dirty bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithTokenFunc replaces the token source.
func WithTokenFunc(fn TokenFunc) Option {
	return func(r *Registry) {
		r.token = fn
	}
}

// New creates a registry seeded from store. A nil store keeps identities in
// memory only.
func New(store Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		names: make(map[string]string),
		store: store,
		token: token.Lower,
	}
	for _, opt := range opts {
		opt(r)
	}

	if store != nil {
		names, err := store.Names()
		if err != nil {
			return nil, fmt.Errorf("identity: load names: %w", err)
		}
		for path, name := range names {
			if name != "" {
				r.names[path] = name
			}
		}
	}
	return r, nil
}

// Resolve returns the stored name for path, creating one when the path is new.
//
// New names use hint as the prefix, falling back to fallback, and finally to
// the bare token when both are empty. Hints are ignored for known paths.
func (r *Registry) Resolve(path, hint, fallback string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[path]; ok {
		return name, nil
	}

	suffix, err := r.token(token.IdentityLength)
	if err != nil {
		return "", fmt.Errorf("identity: generate name for %s: %w", path, err)
	}

	name := suffix
	switch {
	case hint != "":
		name = hint + "-" + suffix
	case fallback != "":
		name = fallback + "-" + suffix
	}

	r.names[path] = name
	r.dirty = true
	return name, nil
}

// Lookup returns the name stored for path.
func (r *Registry) Lookup(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[path]
	return name, ok
}

// PathOf returns the discovery path that owns name.
func (r *Registry) PathOf(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for path, n := range r.names {
		if n == name {
			return path, true
		}
	}
	return "", false
}

// Names returns a copy of the full mapping.
func (r *Registry) Names() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.names))
	for path, name := range r.names {
		out[path] = name
	}
	return out
}

// Paths returns all known paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.names))
	for path := range r.names {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Dirty reports whether names were created since the last Flush.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Flush writes the mapping to the store and saves it. Nothing is written when
// no new names were created.
func (r *Registry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dirty || r.store == nil {
		return nil
	}

	names := make(map[string]string, len(r.names))
	for path, name := range r.names {
		names[path] = name
	}
	if err := r.store.SetNames(names); err != nil {
		return fmt.Errorf("identity: store names: %w", err)
	}
	if err := r.store.Save(); err != nil {
		return fmt.Errorf("identity: save names: %w", err)
	}
	r.dirty = false
	return nil
}
