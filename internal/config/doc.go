// Package config is the configuration collaborator of the extension runtime.
//
// Three sources are involved:
//
//   - the global file (TOML, read-only): locale, file locations and the
//     ordered list of extension packages to load;
//   - the user file (TOML, read/write): the [disable_extension] table of
//     boolean-ish overrides keyed by extension identity;
//   - the extension file (JSON, read/write): one configuration blob per
//     extension plus the identity map under the reserved "extension-name" key.
//
// Environment variables override the global file location, log level and
// locale. Relative paths in the global file resolve against its directory.
// Writes go to disk only through an explicit Save, atomically.
package config
