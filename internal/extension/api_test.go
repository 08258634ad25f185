package extension

import (
	"context"
	"strings"

	"github.com/dshills/innermost/internal/store"
)

// fakeAPI records calls made through the extension surface.
type fakeAPI struct {
	name   string
	state  map[string]any
	theme  map[string]any
	config map[string]any
	saved  int
	opened []string
}

func newFakeAPI(name string) *fakeAPI {
	return &fakeAPI{
		name:   name,
		state:  map[string]any{},
		theme:  map[string]any{},
		config: map[string]any{},
	}
}

func (f *fakeAPI) Name() string { return f.name }

func (f *fakeAPI) GetState(path string) any {
	if path == "" {
		return f.state
	}
	v, _ := store.GetByPath(f.state, path)
	return v
}

func (f *fakeAPI) UpdateState(path string, value any) {
	store.DeepMerge(f.state, store.PatchForPath(path, value))
}

func (f *fakeAPI) SetState(data map[string]any) { store.DeepMerge(f.state, data) }

func (f *fakeAPI) GetTheme() map[string]any { return f.theme }

func (f *fakeAPI) SetTheme(data map[string]any) { store.DeepMerge(f.theme, data) }

func (f *fakeAPI) GetConfig(path string) (any, bool) {
	if path == "" {
		return f.config, true
	}
	return store.GetByPath(f.config, path)
}

func (f *fakeAPI) UpdateConfig(path string, value any) error {
	store.DeepMerge(f.config, store.PatchForPath(path, value))
	return nil
}

func (f *fakeAPI) SaveConfig() error {
	f.saved++
	return nil
}

func (f *fakeAPI) OpenExtension(context.Context) error {
	f.opened = append(f.opened, f.name)
	return nil
}

func (f *fakeAPI) OpenID(_ context.Context, id string) error {
	f.opened = append(f.opened, id)
	return nil
}

func (f *fakeAPI) T(key string, parent bool) string {
	if parent {
		return "host:" + key
	}
	return strings.ToUpper(key)
}
