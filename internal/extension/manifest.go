package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ManifestFile is the manifest filename inside an extension directory.
const ManifestFile = "extension.json"

// Manifest describes a directory extension.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	// Main is the entry file relative to the extension directory.
	Main string `json:"main"`

	dir string
}

// Validation errors.
var (
	ErrInvalidName    = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrInvalidVersion = errors.New("manifest: version must be valid semver")
	ErrInvalidMain    = errors.New("manifest: main must be a .lua, .go, .yaml or .yml file inside the extension")
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks the manifest fields. Name and Main are optional.
func (m *Manifest) Validate() error {
	if m.Name != "" && !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}
	if m.Main != "" {
		if _, err := kindOf(m.Main); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
		}
		if !filepath.IsLocal(m.Main) {
			return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
		}
	}
	return nil
}

// Dir returns the extension directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// MainPath returns the entry file path, or "" when Main is unset.
func (m *Manifest) MainPath() string {
	if m.Main == "" {
		return ""
	}
	return filepath.Join(m.dir, m.Main)
}

// String returns "name vX.Y.Z".
func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}
