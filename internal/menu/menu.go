// Package menu lowers extension menu items into dispatch entries.
//
// Every item gets an opaque handle "menu-<5 letters>-<owner>". Activating the
// handle runs the item's pre-hook and then publishes an "open extension id"
// event for (owner, target).
package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/innermost/internal/event"
	"github.com/dshills/innermost/internal/point"
	"github.com/dshills/innermost/internal/token"
)

// Sentinel errors.
var (
	// ErrUnknownID is returned when activating a handle that was never built.
	ErrUnknownID = errors.New("menu: unknown dispatch id")

	// ErrEmptyOwner is returned when building an item without an owner.
	ErrEmptyOwner = errors.New("menu: owner is required")

	// ErrPreHook wraps a failed pre-hook.
	ErrPreHook = errors.New("menu: pre-hook failed")
)

// Prefix starts every dispatch id.
const Prefix = "menu-"

// Publisher receives activation events.
type Publisher interface {
	Publish(ctx context.Context, ev event.Envelope) error
}

// Entry is one row of the dispatch table.
type Entry struct {
	DispatchID string
	Owner      string
	// TargetID is the item id, or Owner when the item has none.
	TargetID string
	// Namespace is the owner's catalog namespace for label lookups.
	Namespace string
	Item      point.MenuItem
}

// LabelKey returns the localization request for the entry's label.
func (e Entry) LabelKey() Key {
	return KeyFor(e.Item.Label, e.Namespace)
}

// Record is what the host shell mounts: a handle and its owning extension,
// or, for data-mode menus, the extension's payload.
type Record struct {
	DispatchID string
	Extension  string
	Data       any
}

// Title is a menu title contributed by an extension.
type Title struct {
	Extension string
	Label     point.Label
	Key       Key
}

// Dispatcher owns the menu registry and the dispatch table.
type Dispatcher struct {
	mu      sync.RWMutex
	entries map[string]Entry
	records []Record
	titles  []Title
	pub     Publisher
	token   func(length int) (string, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTokenFunc replaces the handle token source.
func WithTokenFunc(fn func(length int) (string, error)) Option {
	return func(d *Dispatcher) {
		d.token = fn
	}
}

// NewDispatcher creates a dispatcher publishing activations to pub.
func NewDispatcher(pub Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		entries: make(map[string]Entry),
		pub:     pub,
		token:   token.Lower,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build allocates a dispatch id for item, owned by owner, and records it in
// the menu registry. namespace is used for own-namespace label lookups.
func (d *Dispatcher) Build(owner, namespace string, item point.MenuItem) (Entry, error) {
	if owner == "" {
		return Entry{}, ErrEmptyOwner
	}
	suffix, err := d.token(token.MenuLength)
	if err != nil {
		return Entry{}, fmt.Errorf("menu: generate id: %w", err)
	}

	target := item.ID
	if target == "" {
		target = owner
	}
	entry := Entry{
		DispatchID: Prefix + suffix + "-" + owner,
		Owner:      owner,
		TargetID:   target,
		Namespace:  namespace,
		Item:       item,
	}

	d.mu.Lock()
	d.entries[entry.DispatchID] = entry
	d.records = append(d.records, Record{DispatchID: entry.DispatchID, Extension: owner})
	d.mu.Unlock()
	return entry, nil
}

// AddData records a data-mode menu. It has no dispatch entry; the payload
// renders itself.
func (d *Dispatcher) AddData(owner string, data any) {
	d.mu.Lock()
	d.records = append(d.records, Record{Extension: owner, Data: data})
	d.mu.Unlock()
}

// SetTitle records the menu title for owner.
func (d *Dispatcher) SetTitle(owner, namespace string, label point.Label) {
	if label.Name == "" {
		return
	}
	d.mu.Lock()
	d.titles = append(d.titles, Title{Extension: owner, Label: label, Key: KeyFor(label, namespace)})
	d.mu.Unlock()
}

// Activate runs the pre-hook of the item behind id and publishes the open
// request. A failing pre-hook suppresses the event.
func (d *Dispatcher) Activate(ctx context.Context, id string) error {
	entry, ok := d.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	if hook := entry.Item.PreHook; hook != nil {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrPreHook, id, err)
		}
	}

	if d.pub == nil {
		return nil
	}
	ev := event.NewEvent(event.TopicOpenExtensionID, event.OpenExtensionID{
		Name: entry.Owner,
		ID:   entry.TargetID,
	}, entry.Owner)
	return d.pub.Publish(ctx, ev)
}

// Lookup returns the dispatch entry for id.
func (d *Dispatcher) Lookup(id string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	return e, ok
}

// Records returns the menu registry in insertion order.
func (d *Dispatcher) Records() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Titles returns recorded menu titles in insertion order.
func (d *Dispatcher) Titles() []Title {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Title, len(d.titles))
	copy(out, d.titles)
	return out
}

// Entries returns the dispatch table ordered by dispatch id.
func (d *Dispatcher) Entries() []Entry {
	d.mu.RLock()
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DispatchID < out[j].DispatchID })
	return out
}

// Len returns the number of dispatch entries.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
