package extension

import (
	"context"

	plua "github.com/dshills/innermost/internal/extension/lua"
	lua "github.com/yuin/gopher-lua"
)

// apiFuncs returns the functions of the ext table exposing api to Lua code.
func apiFuncs(api API) map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"getState": func(L *lua.LState) int {
			L.Push(plua.NewBridge(L).ToLuaValue(api.GetState(L.OptString(1, ""))))
			return 1
		},
		"updateState": func(L *lua.LState) int {
			api.UpdateState(L.CheckString(1), plua.NewBridge(L).ToGoValue(L.Get(2)))
			return 0
		},
		"setState": func(L *lua.LState) int {
			api.SetState(tableArg(L, 1))
			return 0
		},
		"getTheme": func(L *lua.LState) int {
			L.Push(plua.NewBridge(L).ToLuaValue(api.GetTheme()))
			return 1
		},
		"setTheme": func(L *lua.LState) int {
			api.SetTheme(tableArg(L, 1))
			return 0
		},
		"getConfig": func(L *lua.LState) int {
			v, ok := api.GetConfig(L.OptString(1, ""))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(plua.NewBridge(L).ToLuaValue(v))
			return 1
		},
		"updateConfig": func(L *lua.LState) int {
			if err := api.UpdateConfig(L.CheckString(1), plua.NewBridge(L).ToGoValue(L.Get(2))); err != nil {
				L.RaiseError("updateConfig: %s", err.Error())
			}
			return 0
		},
		"saveConfig": func(L *lua.LState) int {
			if err := api.SaveConfig(); err != nil {
				L.RaiseError("saveConfig: %s", err.Error())
			}
			return 0
		},
		"openExtension": func(L *lua.LState) int {
			if err := api.OpenExtension(luaContext(L)); err != nil {
				L.RaiseError("openExtension: %s", err.Error())
			}
			return 0
		},
		"openId": func(L *lua.LState) int {
			if err := api.OpenID(luaContext(L), L.CheckString(1)); err != nil {
				L.RaiseError("openId: %s", err.Error())
			}
			return 0
		},
		"t": func(L *lua.LState) int {
			L.Push(lua.LString(api.T(L.CheckString(1), L.OptBool(2, false))))
			return 1
		},
	}
}

// tableArg converts argument n to a map. Non-table arguments raise an error.
func tableArg(L *lua.LState, n int) map[string]any {
	tbl := L.CheckTable(n)
	m, ok := plua.NewBridge(L).ToGoValue(tbl).(map[string]any)
	if !ok {
		// Array-like tables carry no keys to merge.
		return map[string]any{}
	}
	return m
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
