package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Package is one entry of the discovery list.
type Package struct {
	// Path locates the module; relative paths resolve against the config dir.
	Path string `toml:"path"`
	// Name is the suggested identity prefix. Optional.
	Name string `toml:"name"`
}

// ExtensionSection is the [extension] table.
type ExtensionSection struct {
	// Config is the extension JSON file.
	Config string `toml:"config"`
	// User is the user TOML file holding overrides.
	User string `toml:"user"`
	// Locales is the host catalog directory.
	Locales  string    `toml:"locales"`
	Packages []Package `toml:"package"`
}

// Global is the read-only global configuration.
type Global struct {
	Locale    string           `toml:"locale"`
	Extension ExtensionSection `toml:"extension"`

	dir string
}

// Default file names, relative to the global config directory.
const (
	DefaultExtensionConfig = "extension.json"
	DefaultUserConfig      = "user.toml"
	DefaultLocales         = "locales"
	DefaultLocale          = "en"
)

// LoadGlobal reads the global config file and resolves relative paths.
func LoadGlobal(path string) (*Global, error) {
	g := &Global{}
	found, err := readTOML(path, g)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoGlobalConfig, path)
	}

	g.dir = filepath.Dir(path)
	g.applyDefaults()
	for i, p := range g.Extension.Packages {
		if strings.TrimSpace(p.Path) == "" {
			return nil, fmt.Errorf("%w: extension.package[%d] has no path", ErrInvalidPath, i)
		}
	}
	return g, nil
}

func (g *Global) applyDefaults() {
	if g.Locale == "" {
		g.Locale = DefaultLocale
	}
	g.Extension.Config = g.resolve(g.Extension.Config, DefaultExtensionConfig)
	g.Extension.User = g.resolve(g.Extension.User, DefaultUserConfig)
	g.Extension.Locales = g.resolve(g.Extension.Locales, DefaultLocales)
}

func (g *Global) resolve(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.dir, path)
}

// Dir returns the directory of the global config file.
func (g *Global) Dir() string {
	return g.dir
}

// ApplyEnv applies environment overrides.
func (g *Global) ApplyEnv(e Env) {
	if e.Locale != "" {
		g.Locale = e.Locale
	}
}
