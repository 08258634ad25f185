// Package extension loads extension modules and exposes their optional
// extension-point factories.
//
// # Module kinds
//
// A discovery path names one of:
//
//	clock.lua         Lua module; globals icon, menu, body, options, setting
//	clock.go          Go source interpreted with yaegi; exported Icon, Menu, ...
//	clock.yaml        declarative module; top-level keys icon, menu, ...
//	clock/            directory with extension.json, or init.lua, main.go,
//	                  extension.yaml probed in that order
//
// A directory extension may ship catalogs as locales/<locale>.yaml; see
// Localized.
//
// Every module exposes a Capabilities record whose factory fields are nil
// when the module does not provide that extension point. Factories receive an
// API bound to the calling extension and return point descriptors decoded
// from the shared wire form ({isClass, clazz, data, items, ...}).
//
// # Lua API
//
// Lua factories are called with a single argument, the ext table, which is
// also installed as the global "ext":
//
//	ext.name                       generated identity
//	ext.getState([path])           read this extension's state
//	ext.updateState(path, value)   deep-merge one value into state
//	ext.setState(table)            deep-merge a table into state
//	ext.getTheme() / ext.setTheme(table)
//	ext.getConfig([path])          read persisted user configuration
//	ext.updateConfig(path, value) / ext.saveConfig()
//	ext.openExtension() / ext.openId(id)
//	ext.t(key [, parent])          localize a label
//
// Menu items may carry a func field; it runs as the item's pre-hook with
// ext as its argument. Every chunk and call is bounded by the loader's
// execution timeout, lua.DefaultExecutionTimeout unless configured.
package extension
