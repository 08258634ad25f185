package runtime

import (
	"context"

	"github.com/dshills/innermost/internal/event"
	"github.com/dshills/innermost/internal/menu"
	"github.com/dshills/innermost/internal/point"
)

// Surface is the accessor set bound to one extension. It implements
// extension.API.
type Surface struct {
	rt        *Runtime
	name      string
	namespace string
}

func newSurface(rt *Runtime, name, namespace string) *Surface {
	return &Surface{rt: rt, name: name, namespace: namespace}
}

// Name returns the extension's identity.
func (s *Surface) Name() string { return s.name }

// Namespace returns the catalog namespace used for own-namespace labels.
func (s *Surface) Namespace() string { return s.namespace }

// GetState returns the value at path in this extension's state. An empty
// path returns the whole mapping.
func (s *Surface) GetState(path string) any {
	v, ok := s.rt.states.GetPath(s.name, path)
	if !ok {
		return nil
	}
	return v
}

// UpdateState deep-merges value at path into this extension's state.
func (s *Surface) UpdateState(path string, value any) {
	s.rt.states.Update(s.name, path, value)
}

// SetState deep-merges data into this extension's state.
func (s *Surface) SetState(data map[string]any) {
	s.rt.states.MergeKey(s.name, data)
}

// GetTheme returns this extension's theme mapping.
func (s *Surface) GetTheme() map[string]any {
	if theme := s.rt.themes.Get(s.name); theme != nil {
		return theme
	}
	return map[string]any{}
}

// SetTheme deep-merges data into this extension's theme.
func (s *Surface) SetTheme(data map[string]any) {
	s.rt.themes.MergeKey(s.name, data)
}

// GetConfig reads this extension's persisted configuration.
func (s *Surface) GetConfig(path string) (any, bool) {
	if s.rt.config == nil {
		return nil, false
	}
	return s.rt.config.Get(s.name, path)
}

// UpdateConfig writes this extension's configuration in memory.
func (s *Surface) UpdateConfig(path string, value any) error {
	if s.rt.config == nil {
		return ErrNoConfig
	}
	return s.rt.config.Set(s.name, path, value)
}

// SaveConfig flushes configuration to disk.
func (s *Surface) SaveConfig() error {
	if s.rt.config == nil {
		return ErrNoConfig
	}
	return s.rt.config.Save()
}

// OpenExtension asks the shell to open this extension.
func (s *Surface) OpenExtension(ctx context.Context) error {
	ev := event.NewEvent(event.TopicOpenExtension, event.OpenExtension{Name: s.name}, s.name)
	return s.rt.bus.Publish(ctx, ev)
}

// OpenID asks the shell to open a view id owned by this extension.
func (s *Surface) OpenID(ctx context.Context, id string) error {
	if id == "" {
		id = s.name
	}
	ev := event.NewEvent(event.TopicOpenExtensionID, event.OpenExtensionID{Name: s.name, ID: id}, s.name)
	return s.rt.bus.Publish(ctx, ev)
}

// T localizes key in this extension's namespace, or the host's when parent
// is set.
func (s *Surface) T(key string, parent bool) string {
	label := point.Label{Name: key, I18n: true, ParentI18n: parent}
	return menu.KeyFor(label, s.namespace).Resolve(s.rt.translator)
}
