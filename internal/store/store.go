// Package store holds the process-wide state and theme mappings that every
// extension reads and writes by its own name.
//
// Writes are deep merges, never replacements. A single Merge call is atomic
// with respect to other writers; callers that need several keys updated
// together pass them in one composite patch.
package store

import "sync"

// Store is a keyed mapping of arbitrary nested data.
type Store struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]any)}
}

// Merge deep-merges patch into the whole store.
func (s *Store) Merge(patch map[string]any) {
	if len(patch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = DeepMerge(s.data, patch)
}

// MergeKey deep-merges patch into the mapping held under key.
func (s *Store) MergeKey(key string, patch map[string]any) {
	if patch == nil {
		return
	}
	s.Merge(map[string]any{key: patch})
}

// Update sets value at the dot-separated path inside key's mapping.
// Siblings along the path are preserved. An empty path is a no-op.
func (s *Store) Update(key, path string, value any) {
	if path == "" {
		return
	}
	s.MergeKey(key, PatchForPath(path, value))
}

// Get returns a deep copy of key's mapping, or nil if nothing was written.
func (s *Store) Get(key string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := asMap(s.data[key])
	if !ok {
		return nil
	}
	return cloneMap(m)
}

// GetPath returns a deep copy of the value at path inside key's mapping.
// An empty path returns the whole mapping.
func (s *Store) GetPath(key, path string) (any, bool) {
	if path == "" {
		m := s.Get(key)
		return m, m != nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := asMap(s.data[key])
	if !ok {
		return nil, false
	}
	v, ok := GetByPath(m, path)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Snapshot returns a deep copy of the entire store.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMap(s.data)
}

// Len returns the number of top-level keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
