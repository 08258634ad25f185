package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

const disableKey = "disable_extension"

// User is the read/write user configuration. Unknown tables are preserved
// across Save.
type User struct {
	mu   sync.RWMutex
	path string
	doc  map[string]any
}

// LoadUser reads the user file. A missing file yields an empty config that
// will be created on Save.
func LoadUser(path string) (*User, error) {
	u := &User{path: path, doc: make(map[string]any)}
	if _, err := readTOML(path, &u.doc); err != nil {
		return nil, err
	}
	if u.doc == nil {
		u.doc = make(map[string]any)
	}
	return u, nil
}

// Path returns the file location.
func (u *User) Path() string {
	return u.path
}

// Disabled reports whether the override marks name disabled.
func (u *User) Disabled(name string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()

	table, _ := u.doc[disableKey].(map[string]any)
	return truthy(table[name])
}

// DisabledNames returns every name whose override is truthy, sorted.
func (u *User) DisabledNames() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	table, _ := u.doc[disableKey].(map[string]any)
	var names []string
	for name, v := range table {
		if truthy(v) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SetDisabled records the override for name. Call Save to persist it.
func (u *User) SetDisabled(name string, disabled bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	table, ok := u.doc[disableKey].(map[string]any)
	if !ok {
		table = make(map[string]any)
		u.doc[disableKey] = table
	}
	table[name] = disabled
}

// Save writes the user file atomically.
func (u *User) Save() error {
	u.mu.RLock()
	data, err := toml.Marshal(u.doc)
	u.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal user config: %w", err)
	}
	return writeFileAtomic(u.path, data)
}

// truthy interprets a boolean-ish override value.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case float64:
		return b != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(b))
		return s != "" && s != "false" && s != "0"
	default:
		return true
	}
}
