// Package registry holds the ordered, append-only logs of extension-point
// contributions that the host shell renders.
//
// Records are never removed. Disabling an extension is enforced by the
// orchestrator declining to add its records in the first place.
package registry

import (
	"errors"
	"sync"

	"github.com/dshills/innermost/internal/point"
)

// ErrDuplicateDefault is returned when a second body claims the default slot.
var ErrDuplicateDefault = errors.New("registry: default body already registered")

// Log is an ordered append-only sequence of records.
type Log[T any] struct {
	mu      sync.RWMutex
	records []T
}

// Add appends a record.
func (l *Log[T]) Add(record T) {
	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()
}

// All returns a copy of every record in insertion order.
func (l *Log[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// IconRecord is one extension's icon-bar entry.
type IconRecord struct {
	Extension string
	Icon      point.Icon
}

// BodyRecord is one extension's main surface.
type BodyRecord struct {
	Extension string
	Body      point.Body
	// Default is the effective default flag after duplicate demotion.
	Default bool
}

// OptionsRecord is one extension's options panel.
type OptionsRecord struct {
	Extension string
	Options   point.Options
}

// SettingsRecord is one extension's settings schema.
type SettingsRecord struct {
	Extension string
	Settings  point.Settings
}

// Icons is the icon registry.
type Icons = Log[IconRecord]

// Options is the options registry.
type Options = Log[OptionsRecord]

// Settings is the settings registry.
type Settings = Log[SettingsRecord]
