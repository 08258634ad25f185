package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// IdentityKey holds the path -> identity map inside the extension file.
const IdentityKey = "extension-name"

// Extensions is the per-extension configuration document. Each extension
// owns the top-level key equal to its identity.
type Extensions struct {
	mu   sync.RWMutex
	path string
	doc  []byte
}

// LoadExtensions reads the extension file. A missing file yields an empty
// document.
func LoadExtensions(path string) (*Extensions, error) {
	e := &Extensions{path: path, doc: []byte("{}")}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return e, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return e, nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, &ParseError{Path: path, Message: "extension config must be a JSON object"}
	}
	e.doc = data
	return e, nil
}

// Path returns the file location.
func (e *Extensions) Path() string {
	return e.path
}

// Get returns the value at the dotted path inside name's blob. An empty path
// returns the whole blob.
func (e *Extensions) Get(name, path string) (any, bool) {
	key, err := settingKey(name, path)
	if err != nil {
		return nil, false
	}

	e.mu.RLock()
	res := gjson.GetBytes(e.doc, key)
	e.mu.RUnlock()

	if !res.Exists() {
		return nil, false
	}
	return normalize(res.Value()), true
}

// Set stores value at the dotted path inside name's blob. An empty path
// replaces the whole blob.
func (e *Extensions) Set(name, path string, value any) error {
	key, err := settingKey(name, path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := sjson.SetBytes(e.doc, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	e.doc = doc
	return nil
}

// Names returns the persisted identity map.
func (e *Extensions) Names() (map[string]string, error) {
	e.mu.RLock()
	res := gjson.GetBytes(e.doc, escapeKey(IdentityKey))
	e.mu.RUnlock()

	names := make(map[string]string)
	if !res.Exists() {
		return names, nil
	}
	if !res.IsObject() {
		return nil, &ParseError{Path: e.path, Message: IdentityKey + " must be an object"}
	}
	for path, name := range res.Map() {
		if name.Type == gjson.String {
			names[path] = name.String()
		}
	}
	return names, nil
}

// SetNames replaces the identity map.
func (e *Extensions) SetNames(names map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := sjson.SetBytes(e.doc, escapeKey(IdentityKey), names)
	if err != nil {
		return fmt.Errorf("set %s: %w", IdentityKey, err)
	}
	e.doc = doc
	return nil
}

// Save writes the document, pretty-printed, atomically.
func (e *Extensions) Save() error {
	e.mu.RLock()
	data := pretty.PrettyOptions(e.doc, &pretty.Options{Width: 80, Indent: "  ", SortKeys: true})
	e.mu.RUnlock()

	return writeFileAtomic(e.path, data)
}

// settingKey builds the gjson/sjson path for name's dotted sub-path. The
// name is escaped so identities containing dots stay one key.
func settingKey(name, path string) (string, error) {
	if name == "" || name == IdentityKey {
		return "", fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	key := escapeKey(name)
	if path == "" {
		return key, nil
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		key += "." + escapeKey(part)
	}
	return key, nil
}

// escapeKey escapes gjson path metacharacters.
func escapeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalize converts gjson numbers that are whole into int64 so values read
// back match what Lua and YAML produce.
func normalize(v any) any {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return val
	}
}
