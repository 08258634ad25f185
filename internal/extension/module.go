package extension

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/dshills/innermost/internal/point"
)

// API is the per-extension surface handed to factories and callbacks.
type API interface {
	// Name returns the extension's generated identity.
	Name() string

	GetState(path string) any
	UpdateState(path string, value any)
	SetState(data map[string]any)
	GetTheme() map[string]any
	SetTheme(data map[string]any)

	GetConfig(path string) (any, bool)
	UpdateConfig(path string, value any) error
	SaveConfig() error

	OpenExtension(ctx context.Context) error
	OpenID(ctx context.Context, id string) error

	// T localizes key in the extension's namespace, or the host's when parent is set.
	T(key string, parent bool) string
}

// Factory produces one extension-point descriptor.
type Factory[T any] func(ctx context.Context, api API) (T, error)

// Capabilities lists a module's factories. A nil field means the module does
// not contribute that point.
type Capabilities struct {
	Icon     Factory[point.Icon]
	Menu     Factory[point.Menu]
	Body     Factory[point.Body]
	Options  Factory[point.Options]
	Settings Factory[point.Settings]
}

// Has reports whether the module provides kind.
func (c Capabilities) Has(kind point.Kind) bool {
	switch kind {
	case point.KindIcon:
		return c.Icon != nil
	case point.KindMenu:
		return c.Menu != nil
	case point.KindBody:
		return c.Body != nil
	case point.KindOptions:
		return c.Options != nil
	case point.KindSettings:
		return c.Settings != nil
	default:
		return false
	}
}

// Kinds returns the provided points in composition order.
func (c Capabilities) Kinds() []point.Kind {
	var kinds []point.Kind
	for _, k := range point.Kinds {
		if c.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Module is a loaded extension.
type Module interface {
	// Path is the discovery path the module was loaded from.
	Path() string
	// Name is the module's self-declared name, possibly empty.
	Name() string
	Capabilities() Capabilities
	Close() error
}

// Localized is implemented by modules that can ship message catalogs, laid
// out as <locale>.yaml files. Locales returns nil when there are none.
type Localized interface {
	Locales() fs.FS
}

// Invoke calls fn, converting a panic into ErrFactoryPanic.
func Invoke[T any](ctx context.Context, kind point.Kind, fn Factory[T], api API) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = fmt.Errorf("%w: %s: %v", ErrFactoryPanic, kind, r)
		}
	}()
	return fn(ctx, api)
}

// descriptor normalizes a raw factory result. nil yields an empty descriptor.
func descriptor(kind point.Kind, v any) (map[string]any, error) {
	switch d := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return d, nil
	case map[any]any:
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s returned %T", ErrBadDescriptor, kind, v)
	}
}

// decodeFactories adapts a raw producer into typed factories for each kind
// present in kinds.
func decodeFactories(kinds map[point.Kind]bool, produce func(ctx context.Context, api API, kind point.Kind) (map[string]any, error)) Capabilities {
	var caps Capabilities
	if kinds[point.KindIcon] {
		caps.Icon = func(ctx context.Context, api API) (point.Icon, error) {
			m, err := produce(ctx, api, point.KindIcon)
			if err != nil {
				return point.Icon{}, err
			}
			return point.DecodeIcon(m), nil
		}
	}
	if kinds[point.KindMenu] {
		caps.Menu = func(ctx context.Context, api API) (point.Menu, error) {
			m, err := produce(ctx, api, point.KindMenu)
			if err != nil {
				return point.Menu{}, err
			}
			return point.DecodeMenu(m), nil
		}
	}
	if kinds[point.KindBody] {
		caps.Body = func(ctx context.Context, api API) (point.Body, error) {
			m, err := produce(ctx, api, point.KindBody)
			if err != nil {
				return point.Body{}, err
			}
			return point.DecodeBody(m), nil
		}
	}
	if kinds[point.KindOptions] {
		caps.Options = func(ctx context.Context, api API) (point.Options, error) {
			m, err := produce(ctx, api, point.KindOptions)
			if err != nil {
				return point.Options{}, err
			}
			return point.DecodeOptions(m), nil
		}
	}
	if kinds[point.KindSettings] {
		caps.Settings = func(ctx context.Context, api API) (point.Settings, error) {
			m, err := produce(ctx, api, point.KindSettings)
			if err != nil {
				return point.Settings{}, err
			}
			return point.DecodeSettings(m), nil
		}
	}
	return caps
}

// sourceNames maps each point to the function or key that provides it.
var sourceNames = map[point.Kind]string{
	point.KindIcon:     "icon",
	point.KindMenu:     "menu",
	point.KindBody:     "body",
	point.KindOptions:  "options",
	point.KindSettings: "setting",
}
