package extension

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	plua "github.com/dshills/innermost/internal/extension/lua"
)

// SourceKind identifies how a module file is interpreted.
type SourceKind string

// Module source kinds.
const (
	SourceLua  SourceKind = "lua"
	SourceGo   SourceKind = "go"
	SourceYAML SourceKind = "yaml"
)

// entryFiles are probed, in order, inside a directory without a manifest.
var entryFiles = []string{"init.lua", "main.go", "extension.yaml"}

// LocalesDir is the catalog directory a directory extension may ship.
const LocalesDir = "locales"

// Loader turns discovery paths into modules.
type Loader struct {
	baseDir string
	luaOpts []plua.StateOption
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBaseDir resolves relative discovery paths against dir.
func WithBaseDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.baseDir = dir
	}
}

// WithExecutionTimeout bounds every Lua chunk and call of loaded modules.
func WithExecutionTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.luaOpts = append(l.luaOpts, plua.WithExecutionTimeout(d))
	}
}

// NewLoader creates a module loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the filesystem location for a discovery path.
func (l *Loader) Resolve(path string) string {
	if l.baseDir == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.baseDir, path)
}

// Load loads the module at path. The returned module reports path, as given,
// from Path().
func (l *Loader) Load(ctx context.Context, path string) (Module, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}

	location := l.Resolve(path)
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	entry, fallback, dir := location, "", ""
	if info.IsDir() {
		dir = location
		entry, fallback, err = inspectDir(location)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	kind, err := kindOf(entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Concrete loaders return typed pointers; keep a failed load from
	// surfacing as a non-nil Module holding a nil pointer.
	switch kind {
	case SourceLua:
		m, err := loadLua(ctx, path, entry, fallback, l.luaOpts...)
		if err != nil {
			return nil, err
		}
		m.dir = dir
		return m, nil
	case SourceGo:
		m, err := loadGo(path, entry, fallback)
		if err != nil {
			return nil, err
		}
		m.dir = dir
		return m, nil
	default:
		m, err := loadYAML(path, entry, fallback)
		if err != nil {
			return nil, err
		}
		m.dir = dir
		return m, nil
	}
}

// inspectDir picks the entry file of a directory extension and returns the
// manifest name as the fallback module name.
func inspectDir(dir string) (entry, name string, err error) {
	manifestPath := filepath.Join(dir, ManifestFile)
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		m, err := LoadManifest(manifestPath)
		if err != nil {
			return "", "", err
		}
		name = m.Name
		if m.Main != "" {
			return m.MainPath(), name, nil
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return "", "", statErr
	}

	for _, f := range entryFiles {
		candidate := filepath.Join(dir, f)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, name, nil
		}
	}
	return "", "", ErrNoEntryPoint
}

// localesFS returns the catalog directory under dir, or nil when there is none.
func localesFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	p := filepath.Join(dir, LocalesDir)
	if info, err := os.Stat(p); err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(p)
}

func kindOf(path string) (SourceKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return SourceLua, nil
	case ".go":
		return SourceGo, nil
	case ".yaml", ".yml":
		return SourceYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, filepath.Base(path))
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
