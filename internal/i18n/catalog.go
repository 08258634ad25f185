// Package i18n resolves localized labels for extensions and the host.
//
// Catalogs are YAML files laid out as <locale>/<namespace>.yaml. Nested
// mappings are flattened with dots. Keys from the host namespace are
// registered unqualified; every other file's keys are registered as
// "<namespace>.<key>", matching what menu label lookups request.
// Extensions may ship their own <locale>.yaml files, loaded under their
// namespace with LoadNamespaceFS.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// HostNamespace holds host strings looked up by parent-namespace labels.
const HostNamespace = "host"

// DefaultLocale is used when a requested locale has no catalog.
const DefaultLocale = "en"

// ErrInvalidLocale is returned for unparseable locale directory names.
var ErrInvalidLocale = errors.New("i18n: invalid locale")

// Bundle holds messages for every loaded locale.
type Bundle struct {
	mu       sync.RWMutex
	messages map[language.Tag]map[string]string
	// version increments on every Add so translators can rebuild.
	version uint64
}

// NewBundle creates an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{messages: make(map[language.Tag]map[string]string)}
}

// LoadFS adds every <locale>/<namespace>.yaml file in fsys.
func (b *Bundle) LoadFS(fsys fs.FS) error {
	var paths []string
	for _, pattern := range []string{"*/*.yaml", "*/*.yml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("glob locale catalogs: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	for _, p := range paths {
		doc, err := readCatalog(fsys, p)
		if err != nil {
			return err
		}

		locale := path.Base(path.Dir(p))
		namespace := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if err := b.Add(locale, namespace, flatten("", doc)); err != nil {
			return fmt.Errorf("catalog %s: %w", p, err)
		}
	}
	return nil
}

// LoadNamespaceFS adds every <locale>.yaml file in fsys under namespace.
// It loads the catalogs an extension ships with itself.
func (b *Bundle) LoadNamespaceFS(namespace string, fsys fs.FS) error {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("glob %s catalogs: %w", namespace, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	for _, p := range paths {
		doc, err := readCatalog(fsys, p)
		if err != nil {
			return err
		}
		locale := strings.TrimSuffix(p, path.Ext(p))
		if err := b.Add(locale, namespace, flatten("", doc)); err != nil {
			return fmt.Errorf("catalog %s: %w", p, err)
		}
	}
	return nil
}

func readCatalog(fsys fs.FS, p string) (map[string]any, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", p, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", p, err)
	}
	return doc, nil
}

// Add registers messages for locale under namespace.
func (b *Bundle) Add(locale, namespace string, messages map[string]string) error {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	table := b.messages[tag]
	if table == nil {
		table = make(map[string]string, len(messages))
		b.messages[tag] = table
	}
	for key, msg := range messages {
		if namespace != "" && namespace != HostNamespace {
			key = namespace + "." + key
		}
		table[key] = msg
	}
	b.version++
	return nil
}

// Locales returns the loaded locales, sorted.
func (b *Bundle) Locales() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.messages))
	for tag := range b.messages {
		out = append(out, tag.String())
	}
	sort.Strings(out)
	return out
}

// Translator returns a translator for the closest available locale. It
// follows catalogs added to the bundle later.
func (b *Bundle) Translator(locale string) *Translator {
	t := &Translator{bundle: b, requested: locale}
	t.mu.Lock()
	t.refresh()
	t.mu.Unlock()
	return t
}

// Translator resolves qualified keys for one locale.
type Translator struct {
	bundle    *Bundle
	requested string

	mu      sync.Mutex
	version uint64
	tag     language.Tag
	known   map[string]bool
	printer *message.Printer
}

// refresh rebuilds the printer when the bundle changed. Callers hold t.mu.
func (t *Translator) refresh() {
	b := t.bundle
	b.mu.RLock()
	defer b.mu.RUnlock()

	if t.printer != nil && t.version == b.version {
		return
	}

	tags := make([]language.Tag, 0, len(b.messages)+1)
	fallback := language.Make(DefaultLocale)
	tags = append(tags, fallback)
	for tag := range b.messages {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags[1:], func(i, j int) bool { return tags[i+1].String() < tags[j+1].String() })

	requested, err := language.Parse(t.requested)
	if err != nil {
		requested = fallback
	}
	_, idx, _ := language.NewMatcher(tags).Match(requested)
	tag := tags[idx]

	builder := catalog.NewBuilder(catalog.Fallback(fallback))
	known := make(map[string]bool)
	for _, lt := range []language.Tag{fallback, tag} {
		for key, msg := range b.messages[lt] {
			// Catalog strings are printf formats; messages are literal text.
			if err := builder.SetString(lt, key, strings.ReplaceAll(msg, "%", "%%")); err == nil {
				known[key] = true
			}
		}
	}

	t.version = b.version
	t.tag = tag
	t.known = known
	t.printer = message.NewPrinter(tag, message.Catalog(builder))
}

// Locale returns the matched locale.
func (t *Translator) Locale() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh()
	return t.tag.String()
}

// Lookup returns the message for key and whether it exists.
func (t *Translator) Lookup(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh()

	if !t.known[key] {
		return key, false
	}
	return t.printer.Sprintf(key), true
}

// Translate returns the message for key, or key itself when unknown.
func (t *Translator) Translate(key string) string {
	msg, _ := t.Lookup(key)
	return msg
}

func flatten(prefix string, doc map[string]any) map[string]string {
	out := make(map[string]string)
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			for fk, fv := range flatten(key, val) {
				out[fk] = fv
			}
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return out
}
