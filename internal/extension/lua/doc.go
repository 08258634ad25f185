// Package lua wraps gopher-lua for extension modules.
//
// A State owns one *lua.LState guarded by a mutex. Every entry point
// recovers Go panics raised inside the interpreter and reports them as
// errors. The Bridge converts between Lua values and the plain Go values
// (map[string]any, []any, string, int64, float64, bool) that extension
// descriptors are decoded from.
//
// Only the base, table, string and math libraries are opened; io, os,
// debug and package are not available to extension code.
package lua
