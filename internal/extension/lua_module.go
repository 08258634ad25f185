package extension

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	plua "github.com/dshills/innermost/internal/extension/lua"
	"github.com/dshills/innermost/internal/point"
	lua "github.com/yuin/gopher-lua"
)

// luaModule is an extension backed by a Lua file.
type luaModule struct {
	path  string
	name  string
	dir   string
	state *plua.State

	mu  sync.Mutex
	ext *lua.LTable
	api API
}

func loadLua(ctx context.Context, path, entry, fallback string, opts ...plua.StateOption) (*luaModule, error) {
	state := plua.NewState(opts...)
	if err := state.DoFile(ctx, entry); err != nil {
		state.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	m := &luaModule{path: path, state: state}
	if s, ok := state.GetGlobal("name").(lua.LString); ok {
		m.name = string(s)
	}
	m.name = firstNonEmpty(m.name, fallback)
	return m, nil
}

func (m *luaModule) Path() string { return m.path }

func (m *luaModule) Name() string { return m.name }

// Locales returns the catalogs shipped in the extension directory.
func (m *luaModule) Locales() fs.FS { return localesFS(m.dir) }

func (m *luaModule) Capabilities() Capabilities {
	kinds := make(map[point.Kind]bool, len(sourceNames))
	for kind, fn := range sourceNames {
		kinds[kind] = m.state.HasFunction(fn)
	}
	return decodeFactories(kinds, m.produce)
}

func (m *luaModule) Close() error {
	return m.state.Close()
}

func (m *luaModule) produce(ctx context.Context, api API, kind point.Kind) (map[string]any, error) {
	ext, err := m.bind(api)
	if err != nil {
		return nil, err
	}

	results, _, err := m.state.Call(ctx, sourceNames[kind], ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceNames[kind], err)
	}

	var raw any
	if len(results) > 0 {
		err = m.state.Exec(func(L *lua.LState) error {
			raw = plua.NewBridge(L).ToGoValue(results[0])
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	d, err := descriptor(kind, raw)
	if err != nil {
		return nil, err
	}
	if kind == point.KindMenu {
		m.bindHooks(d, ext)
	}
	return d, nil
}

// bind installs the ext table for api, reusing it while api is unchanged.
func (m *luaModule) bind(api API) (*lua.LTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ext != nil && m.api == api {
		return m.ext, nil
	}

	ext, err := m.state.RegisterModule("ext", apiFuncs(api))
	if err != nil {
		return nil, err
	}
	err = m.state.Exec(func(*lua.LState) error {
		ext.RawSetString("name", lua.LString(api.Name()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.ext, m.api = ext, api
	return ext, nil
}

// bindHooks replaces Lua functions on menu items with Go pre-hooks that call
// back into this module's state.
func (m *luaModule) bindHooks(menu map[string]any, ext *lua.LTable) {
	items, _ := menu["items"].([]any)
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fn, ok := item["func"].(*lua.LFunction)
		if !ok {
			continue
		}
		item["func"] = point.Hook(func(ctx context.Context) error {
			_, err := m.state.CallFunction(ctx, fn, ext)
			return err
		})
	}
}
