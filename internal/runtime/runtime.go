// Package runtime composes loaded extensions into the extension-point
// registries and serves the per-extension accessor surface.
//
// A Runtime is the explicit context object shared by the orchestrator, the
// host shell and every extension: it owns the identity registry, the state
// and theme stores, the five registries and the event bus. Composition runs
// once per process, single-threaded; the stores stay writable afterwards.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dshills/innermost/internal/event"
	"github.com/dshills/innermost/internal/extension"
	"github.com/dshills/innermost/internal/identity"
	"github.com/dshills/innermost/internal/menu"
	"github.com/dshills/innermost/internal/registry"
	"github.com/dshills/innermost/internal/store"
)

// Sentinel errors.
var (
	// ErrUnknownExtension is returned for names with no composed module.
	ErrUnknownExtension = errors.New("runtime: unknown extension")

	// ErrNoConfig is returned by configuration writes when no store is configured.
	ErrNoConfig = errors.New("runtime: no extension config store")

	// ErrNoOverrides is returned by SetEnabled when no override writer is configured.
	ErrNoOverrides = errors.New("runtime: overrides are read-only")
)

// Overrides reports the enable/disable override for an identity.
type Overrides interface {
	Disabled(name string) bool
}

// OverrideWriter persists enable/disable overrides.
type OverrideWriter interface {
	Overrides
	SetDisabled(name string, disabled bool)
	Save() error
}

// Loader turns a discovery path into a module.
type Loader interface {
	Load(ctx context.Context, path string) (extension.Module, error)
}

// Catalogs receives the message catalogs an extension ships.
type Catalogs interface {
	LoadNamespaceFS(namespace string, fsys fs.FS) error
}

// ConfigStore is per-extension persisted configuration.
type ConfigStore interface {
	Get(name, path string) (any, bool)
	Set(name, path string, value any) error
	Save() error
}

// Runtime is the composed extension host.
type Runtime struct {
	loader     Loader
	identities *identity.Registry
	overrides  Overrides
	config     ConfigStore
	translator menu.Translator
	catalogs   Catalogs
	bus        *event.Bus

	states *store.Store
	themes *store.Store

	icons    *registry.Icons
	bodies   *registry.Bodies
	options  *registry.Options
	settings *registry.Settings
	menus    *menu.Dispatcher
	menuOpts []menu.Option

	mu       sync.RWMutex
	modules  []extension.Module
	surfaces map[string]*Surface
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLoader sets the module loader.
func WithLoader(l Loader) Option {
	return func(r *Runtime) {
		r.loader = l
	}
}

// WithOverrides sets the enable/disable override source. An OverrideWriter
// also enables SetEnabled.
func WithOverrides(o Overrides) Option {
	return func(r *Runtime) {
		r.overrides = o
	}
}

// WithConfig sets the per-extension configuration store.
func WithConfig(c ConfigStore) Option {
	return func(r *Runtime) {
		r.config = c
	}
}

// WithTranslator sets the label resolver.
func WithTranslator(t menu.Translator) Option {
	return func(r *Runtime) {
		r.translator = t
	}
}

// WithCatalogs loads extension-shipped catalogs during composition. The
// translator should read from the same catalogs.
func WithCatalogs(c Catalogs) Option {
	return func(r *Runtime) {
		r.catalogs = c
	}
}

// WithBus sets the event bus. A private bus is created otherwise.
func WithBus(b *event.Bus) Option {
	return func(r *Runtime) {
		r.bus = b
	}
}

// WithMenuOptions configures the menu dispatcher.
func WithMenuOptions(opts ...menu.Option) Option {
	return func(r *Runtime) {
		r.menuOpts = append(r.menuOpts, opts...)
	}
}

// New creates a runtime around an identity registry.
func New(ids *identity.Registry, opts ...Option) *Runtime {
	r := &Runtime{
		loader:     extension.NewLoader(),
		identities: ids,
		bus:        event.NewBus(),
		states:     store.New(),
		themes:     store.New(),
		icons:      &registry.Icons{},
		bodies:     registry.NewBodies(),
		options:    &registry.Options{},
		settings:   &registry.Settings{},
		surfaces:   make(map[string]*Surface),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bus == nil {
		r.bus = event.NewBus()
	}
	r.menus = menu.NewDispatcher(r.bus, r.menuOpts...)
	return r
}

// Identities returns the identity registry.
func (r *Runtime) Identities() *identity.Registry { return r.identities }

// Bus returns the event bus.
func (r *Runtime) Bus() *event.Bus { return r.bus }

// States returns the shared state store.
func (r *Runtime) States() *store.Store { return r.states }

// Themes returns the shared theme store.
func (r *Runtime) Themes() *store.Store { return r.themes }

// Icons returns the icon registry.
func (r *Runtime) Icons() *registry.Icons { return r.icons }

// Bodies returns the body registry.
func (r *Runtime) Bodies() *registry.Bodies { return r.bodies }

// Options returns the options registry.
func (r *Runtime) Options() *registry.Options { return r.options }

// Settings returns the settings registry.
func (r *Runtime) Settings() *registry.Settings { return r.settings }

// Menus returns the menu registry and dispatch table.
func (r *Runtime) Menus() *menu.Dispatcher { return r.menus }

// Translator returns the label resolver, possibly nil.
func (r *Runtime) Translator() menu.Translator { return r.translator }

// Surface returns the accessor surface of a composed extension.
func (r *Runtime) Surface(name string) (*Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[name]
	return s, ok
}

// Activate runs a menu dispatch id.
func (r *Runtime) Activate(ctx context.Context, dispatchID string) error {
	return r.menus.Activate(ctx, dispatchID)
}

// SetEnabled writes the override for name and saves it. The change applies
// to the next composition.
func (r *Runtime) SetEnabled(name string, enabled bool) error {
	w, ok := r.overrides.(OverrideWriter)
	if !ok {
		return ErrNoOverrides
	}
	if _, known := r.Surface(name); !known {
		return fmt.Errorf("%w: %s", ErrUnknownExtension, name)
	}
	w.SetDisabled(name, !enabled)
	if err := w.Save(); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}
	return nil
}

// Close releases every loaded module.
func (r *Runtime) Close() error {
	r.mu.Lock()
	modules := r.modules
	r.modules = nil
	r.mu.Unlock()

	var errs []error
	for _, m := range modules {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", m.Path(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime) disabled(name string) bool {
	return r.overrides != nil && r.overrides.Disabled(name)
}
