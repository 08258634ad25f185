package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Bodies is the body registry. At most one record is flagged default; later
// claimants are registered with the flag cleared.
type Bodies struct {
	log Log[BodyRecord]

	mu       sync.RWMutex
	fallback string
	views    map[string]map[string]bool
}

// NewBodies creates an empty body registry.
func NewBodies() *Bodies {
	return &Bodies{views: make(map[string]map[string]bool)}
}

// Add appends a body record for extension. If the body claims the default
// slot after another extension already holds it, the record is stored
// demoted and ErrDuplicateDefault is returned.
func (b *Bodies) Add(record BodyRecord) error {
	var err error

	b.mu.Lock()
	record.Default = record.Body.Default
	if record.Default {
		if b.fallback != "" {
			record.Default = false
			err = fmt.Errorf("%w: %s keeps it, %s demoted", ErrDuplicateDefault, b.fallback, record.Extension)
		} else {
			b.fallback = record.Extension
		}
	}
	if len(record.Body.Views) > 0 {
		ids := b.views[record.Extension]
		if ids == nil {
			ids = make(map[string]bool, len(record.Body.Views))
			b.views[record.Extension] = ids
		}
		for _, v := range record.Body.Views {
			ids[v.ID] = v.Default
		}
	}
	b.mu.Unlock()

	b.log.Add(record)
	return err
}

// All returns every body record in insertion order.
func (b *Bodies) All() []BodyRecord {
	return b.log.All()
}

// Len returns the number of body records.
func (b *Bodies) Len() int {
	return b.log.Len()
}

// Default returns the extension holding the default body.
func (b *Bodies) Default() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fallback, b.fallback != ""
}

// ViewIDs returns the sub-view ids declared by extension, mapped to their
// default flag.
func (b *Bodies) ViewIDs(extension string) map[string]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := b.views[extension]
	if ids == nil {
		return nil
	}
	out := make(map[string]bool, len(ids))
	for id, def := range ids {
		out[id] = def
	}
	return out
}

// DefaultView returns the view id a request for extension should open: its
// default sub-view when one is declared, otherwise the extension itself.
func (b *Bodies) DefaultView(extension string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := b.views[extension]
	keys := make([]string, 0, len(ids))
	for id := range ids {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	for _, id := range keys {
		if ids[id] {
			return id
		}
	}
	return extension
}
