package extension

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/dshills/innermost/internal/point"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// goFactoryNames maps each point to the exported function providing it.
var goFactoryNames = map[point.Kind]string{
	point.KindIcon:     "Icon",
	point.KindMenu:     "Menu",
	point.KindBody:     "Body",
	point.KindOptions:  "Options",
	point.KindSettings: "Setting",
}

// goModule is an extension written in Go source and run by yaegi.
//
// Factories are exported functions returning map[string]any, optionally
// with a trailing error. A Name() string function supplies the default name.
type goModule struct {
	path  string
	name  string
	dir   string
	funcs map[point.Kind]reflect.Value

	// yaegi interpreters are not safe for concurrent calls.
	mu     sync.Mutex
	closed bool
}

func loadGo(path, entry, fallback string) (*goModule, error) {
	code, err := os.ReadFile(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	if strings.TrimSpace(string(code)) == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrLoad, path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	if _, err := i.EvalPath(entry); err != nil {
		return nil, fmt.Errorf("%w: interpret %s: %w", ErrLoad, path, err)
	}

	m := &goModule{path: path, funcs: make(map[point.Kind]reflect.Value)}
	for kind, fn := range goFactoryNames {
		v, err := i.Eval(fn)
		if err != nil || v.Kind() != reflect.Func {
			continue
		}
		m.funcs[kind] = v
	}

	if v, err := i.Eval("Name"); err == nil && v.Kind() == reflect.Func {
		if name, err := callName(v); err == nil {
			m.name = name
		}
	}
	m.name = firstNonEmpty(m.name, fallback)
	return m, nil
}

func (m *goModule) Path() string { return m.path }

func (m *goModule) Name() string { return m.name }

// Locales returns the catalogs shipped in the extension directory.
func (m *goModule) Locales() fs.FS { return localesFS(m.dir) }

func (m *goModule) Capabilities() Capabilities {
	kinds := make(map[point.Kind]bool, len(m.funcs))
	for kind := range m.funcs {
		kinds[kind] = true
	}
	return decodeFactories(kinds, m.produce)
}

func (m *goModule) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *goModule) produce(_ context.Context, _ API, kind point.Kind) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	raw, err := invokeFactoryFunc(m.funcs[kind], goFactoryNames[kind])
	if err != nil {
		return nil, err
	}
	return descriptor(kind, raw)
}

// invokeFactoryFunc calls a zero-argument function returning (value[, error]).
func invokeFactoryFunc(fn reflect.Value, name string) (any, error) {
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", name)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return (map[string]any[, error])", name)
	}
	if len(results) == 2 && !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", name)
	}
	if isNil(results[0]) {
		return nil, nil
	}
	return results[0].Interface(), nil
}

func callName(fn reflect.Value) (string, error) {
	if fn.Type().NumIn() != 0 || fn.Type().NumOut() != 1 {
		return "", fmt.Errorf("Name must be func() string")
	}
	s, ok := fn.Call(nil)[0].Interface().(string)
	if !ok {
		return "", fmt.Errorf("Name must return a string")
	}
	return s, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Map, reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Func:
		return v.IsNil()
	default:
		return !v.IsValid()
	}
}
