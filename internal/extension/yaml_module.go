package extension

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/dshills/innermost/internal/point"
	"github.com/dshills/innermost/internal/store"
	"gopkg.in/yaml.v3"
)

// yamlModule is a declarative extension: each point is a static descriptor.
type yamlModule struct {
	path        string
	name        string
	dir         string
	descriptors map[point.Kind]map[string]any
}

func loadYAML(path, entry, fallback string) (*yamlModule, error) {
	data, err := os.ReadFile(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrLoad, path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrLoad, path, err)
	}

	m := &yamlModule{path: path, descriptors: make(map[point.Kind]map[string]any)}
	if name, ok := doc["name"].(string); ok {
		m.name = name
	}
	m.name = firstNonEmpty(m.name, fallback)

	for kind, key := range sourceNames {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		d, err := descriptor(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m.descriptors[kind] = d
	}
	return m, nil
}

func (m *yamlModule) Path() string { return m.path }

func (m *yamlModule) Name() string { return m.name }

// Locales returns the catalogs shipped in the extension directory.
func (m *yamlModule) Locales() fs.FS { return localesFS(m.dir) }

func (m *yamlModule) Capabilities() Capabilities {
	kinds := make(map[point.Kind]bool, len(m.descriptors))
	for kind := range m.descriptors {
		kinds[kind] = true
	}
	return decodeFactories(kinds, m.produce)
}

func (m *yamlModule) Close() error { return nil }

// produce returns a copy so decoded descriptors never alias module data.
func (m *yamlModule) produce(_ context.Context, _ API, kind point.Kind) (map[string]any, error) {
	return store.DeepMerge(nil, m.descriptors[kind]), nil
}
