package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/innermost/internal/event"
	"github.com/dshills/innermost/internal/extension"
	plua "github.com/dshills/innermost/internal/extension/lua"
	"github.com/dshills/innermost/internal/i18n"
	"github.com/dshills/innermost/internal/identity"
	"github.com/dshills/innermost/internal/point"
	"github.com/dshills/innermost/internal/registry"
	"github.com/google/go-cmp/cmp"
)

type fakeModule struct {
	path   string
	name   string
	caps   extension.Capabilities
	closed bool
}

func (m *fakeModule) Path() string                         { return m.path }
func (m *fakeModule) Name() string                         { return m.name }
func (m *fakeModule) Capabilities() extension.Capabilities { return m.caps }
func (m *fakeModule) Close() error {
	m.closed = true
	return nil
}

type fakeLoader map[string]*fakeModule

func (l fakeLoader) Load(_ context.Context, path string) (extension.Module, error) {
	m, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", os.ErrNotExist, path)
	}
	return m, nil
}

type memStore struct {
	mu    sync.Mutex
	names map[string]string
	saves int
}

func (s *memStore) Names() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) SetNames(names map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = names
	return nil
}

func (s *memStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

type overrides struct {
	disabled map[string]bool
	saves    int
}

func (o *overrides) Disabled(name string) bool { return o.disabled[name] }

func (o *overrides) SetDisabled(name string, disabled bool) {
	if o.disabled == nil {
		o.disabled = make(map[string]bool)
	}
	o.disabled[name] = disabled
}

func (o *overrides) Save() error {
	o.saves++
	return nil
}

type dict map[string]string

func (d dict) Translate(key string) string {
	if v, ok := d[key]; ok {
		return v
	}
	return key
}

func bodyOnly(isDefault bool) extension.Capabilities {
	return extension.Capabilities{
		Body: func(context.Context, extension.API) (point.Body, error) {
			return point.Body{Default: isDefault}, nil
		},
	}
}

func fullCaps() extension.Capabilities {
	return extension.Capabilities{
		Icon: func(context.Context, extension.API) (point.Icon, error) {
			return point.Icon{IsClass: true, Class: "icon-x"}, nil
		},
		Menu: func(context.Context, extension.API) (point.Menu, error) {
			return point.Menu{IsClass: true, Items: []point.MenuItem{{Label: point.Label{Name: "Open"}}}}, nil
		},
		Body: func(context.Context, extension.API) (point.Body, error) {
			return point.Body{Data: "body"}, nil
		},
		Options: func(context.Context, extension.API) (point.Options, error) {
			return point.Options{Data: "opts"}, nil
		},
		Settings: func(context.Context, extension.API) (point.Settings, error) {
			return point.Settings{IsClass: true}, nil
		},
	}
}

func newRuntime(t *testing.T, store identity.Store, opts ...Option) *Runtime {
	t.Helper()
	ids, err := identity.New(store)
	if err != nil {
		t.Fatalf("identity.New: %v", err)
	}
	rt := New(ids, opts...)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestComposeBodiesAndDefault(t *testing.T) {
	loader := fakeLoader{
		"/a": {path: "/a", caps: bodyOnly(true)},
		"/b": {path: "/b", caps: bodyOnly(false)},
	}
	rt := newRuntime(t, nil, WithLoader(loader))

	report, err := rt.Compose(context.Background(), []Package{{Path: "/a"}, {Path: "/b"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Err())
	}

	bodies := rt.Bodies().All()
	if len(bodies) != 2 {
		t.Fatalf("bodies = %d, want 2", len(bodies))
	}
	if bodies[0].Extension == bodies[1].Extension {
		t.Errorf("identities collide: %q", bodies[0].Extension)
	}
	nameA, _ := rt.Identities().Lookup("/a")
	if def, ok := rt.Bodies().Default(); !ok || def != nameA {
		t.Errorf("Default() = %q, %v; want %q", def, ok, nameA)
	}
	defaults := 0
	for _, b := range bodies {
		if b.Default {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("default bodies = %d, want 1", defaults)
	}
}

func TestComposeDuplicateDefaultIsWarning(t *testing.T) {
	loader := fakeLoader{
		"/a": {path: "/a", caps: bodyOnly(true)},
		"/b": {path: "/b", caps: bodyOnly(true)},
	}
	rt := newRuntime(t, nil, WithLoader(loader))

	report, err := rt.Compose(context.Background(), []Package{{Path: "/a"}, {Path: "/b"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Warnings) != 1 || !errors.Is(report.Warnings[0], registry.ErrDuplicateDefault) {
		t.Fatalf("warnings = %v", report.Warnings)
	}
	if rt.Bodies().Len() != 2 {
		t.Errorf("bodies = %d, want 2", rt.Bodies().Len())
	}
}

func TestComposeDisabledSuppressesSurfaces(t *testing.T) {
	store := &memStore{names: map[string]string{"/x": "x-0123456789"}}
	ov := &overrides{disabled: map[string]bool{"x-0123456789": true}}
	loader := fakeLoader{"/x": {path: "/x", name: "x", caps: fullCaps()}}
	rt := newRuntime(t, store, WithLoader(loader), WithOverrides(ov))

	report, err := rt.Compose(context.Background(), []Package{{Path: "/x"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if n := rt.Icons().Len(); n != 0 {
		t.Errorf("icons = %d, want 0", n)
	}
	if n := rt.Menus().Len(); n != 0 {
		t.Errorf("menus = %d, want 0", n)
	}
	if n := rt.Bodies().Len(); n != 0 {
		t.Errorf("bodies = %d, want 0", n)
	}
	if n := rt.Options().Len(); n != 1 {
		t.Errorf("options = %d, want 1", n)
	}
	if n := rt.Settings().Len(); n != 1 {
		t.Errorf("settings = %d, want 1", n)
	}

	want := []ModuleReport{{
		Path:      "/x",
		Extension: "x-0123456789",
		Disabled:  true,
		Points:    []point.Kind{point.KindOptions, point.KindSettings},
	}}
	if diff := cmp.Diff(want, report.Modules); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeEnabledRegistersEveryPoint(t *testing.T) {
	loader := fakeLoader{"/x": {path: "/x", name: "x", caps: fullCaps()}}
	rt := newRuntime(t, nil, WithLoader(loader))

	report, err := rt.Compose(context.Background(), []Package{{Path: "/x", Name: "ex"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if diff := cmp.Diff(point.Kinds, report.Modules[0].Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	name := report.Modules[0].Extension
	if !strings.HasPrefix(name, "ex-") {
		t.Errorf("identity %q does not use the configured prefix", name)
	}
	s, ok := rt.Surface(name)
	if !ok {
		t.Fatalf("no surface for %q", name)
	}
	if s.Namespace() != "ex" {
		t.Errorf("Namespace() = %q, want ex", s.Namespace())
	}
}

func TestComposeSkipsUnrenderable(t *testing.T) {
	caps := extension.Capabilities{
		Icon: func(context.Context, extension.API) (point.Icon, error) {
			return point.Icon{IsClass: true}, nil
		},
		Menu: func(context.Context, extension.API) (point.Menu, error) {
			return point.Menu{IsClass: true, Title: point.Label{Name: "Empty"}}, nil
		},
	}
	rt := newRuntime(t, nil, WithLoader(fakeLoader{"/x": {path: "/x", caps: caps}}))

	if _, err := rt.Compose(context.Background(), []Package{{Path: "/x"}}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if rt.Icons().Len() != 0 || rt.Menus().Len() != 0 || len(rt.Menus().Titles()) != 0 {
		t.Errorf("unrenderable descriptors were registered")
	}
}

func TestComposeDataMenu(t *testing.T) {
	caps := extension.Capabilities{
		Menu: func(context.Context, extension.API) (point.Menu, error) {
			return point.Menu{Data: "custom"}, nil
		},
	}
	rt := newRuntime(t, nil, WithLoader(fakeLoader{"/x": {path: "/x", caps: caps}}))

	if _, err := rt.Compose(context.Background(), []Package{{Path: "/x"}}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	records := rt.Menus().Records()
	if len(records) != 1 || records[0].Data != "custom" || records[0].DispatchID != "" {
		t.Errorf("records = %+v", records)
	}
}

func TestComposeMenuActivation(t *testing.T) {
	var hooked bool
	caps := extension.Capabilities{
		Menu: func(_ context.Context, api extension.API) (point.Menu, error) {
			return point.Menu{
				IsClass: true,
				Title:   point.Label{Name: "title", I18n: true},
				Items: []point.MenuItem{{
					ID:    "alarm",
					Label: point.Label{Name: "Alarm"},
					PreHook: func(context.Context) error {
						hooked = true
						api.UpdateState("clicked", true)
						return nil
					},
				}},
			}, nil
		},
	}
	rt := newRuntime(t, nil, WithLoader(fakeLoader{"/clock": {path: "/clock", name: "clock", caps: caps}}))

	var got []event.OpenExtensionID
	if _, err := rt.Bus().SubscribeFunc(event.TopicOpenExtensionID, func(_ context.Context, ev event.Envelope) error {
		got = append(got, ev.EventPayload().(event.OpenExtensionID))
		return nil
	}); err != nil {
		t.Fatalf("SubscribeFunc: %v", err)
	}

	report, err := rt.Compose(context.Background(), []Package{{Path: "/clock"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	name := report.Modules[0].Extension

	entries := rt.Menus().Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	id := entries[0].DispatchID
	if !strings.HasPrefix(id, "menu-") || !strings.HasSuffix(id, "-"+name) {
		t.Errorf("dispatch id %q", id)
	}
	titles := rt.Menus().Titles()
	if len(titles) != 1 || titles[0].Key.Text != "clock.title" {
		t.Errorf("titles = %+v", titles)
	}

	if err := rt.Activate(context.Background(), id); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !hooked {
		t.Error("pre-hook did not run")
	}
	want := []event.OpenExtensionID{{Name: name, ID: "alarm"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	s, _ := rt.Surface(name)
	if v := s.GetState("clicked"); v != true {
		t.Errorf("clicked = %v", v)
	}
}

func TestComposeLoadFailureIsIsolated(t *testing.T) {
	loader := fakeLoader{"/good": {path: "/good", caps: bodyOnly(false)}}
	rt := newRuntime(t, nil, WithLoader(loader))

	report, err := rt.Compose(context.Background(), []Package{{Path: "/missing"}, {Path: "/good"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != "/missing" {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if !errors.Is(report.Err(), os.ErrNotExist) {
		t.Errorf("Err() = %v", report.Err())
	}
	if _, ok := rt.Identities().Lookup("/missing"); ok {
		t.Error("failed module received an identity")
	}
	if rt.Bodies().Len() != 1 {
		t.Errorf("bodies = %d, want 1", rt.Bodies().Len())
	}
}

func TestComposeFactoryFailureIsIsolated(t *testing.T) {
	caps := fullCaps()
	caps.Icon = func(context.Context, extension.API) (point.Icon, error) {
		panic("broken icon")
	}
	caps.Options = func(context.Context, extension.API) (point.Options, error) {
		return point.Options{}, errors.New("no options")
	}
	rt := newRuntime(t, nil, WithLoader(fakeLoader{"/x": {path: "/x", caps: caps}}))

	report, err := rt.Compose(context.Background(), []Package{{Path: "/x"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if f := report.Failures[0]; f.Point != point.KindIcon || !errors.Is(f, extension.ErrFactoryPanic) {
		t.Errorf("first failure = %v", f)
	}
	if f := report.Failures[1]; f.Point != point.KindOptions {
		t.Errorf("second failure = %v", f)
	}
	if rt.Icons().Len() != 0 || rt.Options().Len() != 0 {
		t.Error("failed points were registered")
	}
	if rt.Menus().Len() != 1 || rt.Bodies().Len() != 1 || rt.Settings().Len() != 1 {
		t.Error("healthy points were not registered")
	}
}

func TestComposePersistsIdentities(t *testing.T) {
	store := &memStore{}
	loader := fakeLoader{
		"/a": {path: "/a", name: "alpha", caps: bodyOnly(false)},
		"/b": {path: "/b", caps: bodyOnly(false)},
	}
	rt := newRuntime(t, store, WithLoader(loader))
	if _, err := rt.Compose(context.Background(), []Package{{Path: "/a"}, {Path: "/b"}}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	first, _ := store.Names()
	if !strings.HasPrefix(first["/a"], "alpha-") || len(first["/b"]) != 10 {
		t.Errorf("names = %v", first)
	}

	again := newRuntime(t, store, WithLoader(loader))
	if _, err := again.Compose(context.Background(), []Package{{Path: "/a", Name: "other"}, {Path: "/b"}}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if diff := cmp.Diff(first, again.Identities().Names()); diff != "" {
		t.Errorf("names changed across runs (-first +second):\n%s", diff)
	}
	if store.saves != 1 {
		t.Errorf("unchanged mapping was saved again")
	}
}

func TestComposeCanceled(t *testing.T) {
	rt := newRuntime(t, nil, WithLoader(fakeLoader{"/a": {path: "/a", caps: bodyOnly(false)}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := rt.Compose(ctx, []Package{{Path: "/a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Compose = %v, want context.Canceled", err)
	}
	if rt.Bodies().Len() != 0 {
		t.Error("canceled pass registered bodies")
	}
}

func TestSetEnabled(t *testing.T) {
	ov := &overrides{}
	loader := fakeLoader{"/a": {path: "/a", caps: bodyOnly(false)}}
	rt := newRuntime(t, nil, WithLoader(loader), WithOverrides(ov))
	report, err := rt.Compose(context.Background(), []Package{{Path: "/a"}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	name := report.Modules[0].Extension

	if err := rt.SetEnabled(name, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if !ov.Disabled(name) || ov.saves != 1 {
		t.Errorf("override not written: %+v", ov)
	}
	if err := rt.SetEnabled("nobody", true); !errors.Is(err, ErrUnknownExtension) {
		t.Errorf("SetEnabled(unknown) = %v", err)
	}

	readOnly := newRuntime(t, nil)
	if err := readOnly.SetEnabled(name, true); !errors.Is(err, ErrNoOverrides) {
		t.Errorf("SetEnabled without writer = %v", err)
	}
}

func TestCloseReleasesModules(t *testing.T) {
	a := &fakeModule{path: "/a"}
	b := &fakeModule{path: "/b"}
	ids, _ := identity.New(nil)
	rt := New(ids, WithLoader(fakeLoader{"/a": a, "/b": b}))
	if _, err := rt.Compose(context.Background(), []Package{{Path: "/a"}, {Path: "/b"}}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("modules were not closed")
	}
}

const luaCounter = `
name = "counter"

function icon(ext)
	return { isClass = true, clazz = "icon-counter" }
end

function body(ext)
	ext.setState({ count = 1 })
	ext.setTheme({ color = "red" })
	return { default = true, views = { "history" } }
end

function setting(ext)
	return { isClass = true, title = { name = ext.t("settings") } }
end
`

func TestComposeLuaModule(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "counter")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(luaCounter), 0o644); err != nil {
		t.Fatal(err)
	}
	rt := newRuntime(t, nil, WithTranslator(dict{"counter.settings": "Counter settings"}))

	report, err := rt.Compose(context.Background(), []Package{{Path: dir}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("failures: %v", report.Err())
	}
	name := report.Modules[0].Extension
	if !strings.HasPrefix(name, "counter-") {
		t.Errorf("identity %q", name)
	}

	icons := rt.Icons().All()
	if len(icons) != 1 || icons[0].Icon.Class != "icon-counter" {
		t.Errorf("icons = %+v", icons)
	}
	if got := rt.Bodies().DefaultView(name); got != name {
		t.Errorf("DefaultView = %q, want %q", got, name)
	}
	if diff := cmp.Diff(map[string]bool{"history": false}, rt.Bodies().ViewIDs(name)); diff != "" {
		t.Errorf("views mismatch (-want +got):\n%s", diff)
	}

	s, _ := rt.Surface(name)
	if v := s.GetState("count"); v != int64(1) {
		t.Errorf("count = %#v", v)
	}
	if diff := cmp.Diff(map[string]any{"color": "red"}, s.GetTheme()); diff != "" {
		t.Errorf("theme mismatch (-want +got):\n%s", diff)
	}
	settings := rt.Settings().All()
	if len(settings) != 1 || settings[0].Settings.Title.Name != "Counter settings" {
		t.Errorf("settings = %+v", settings)
	}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestComposeRunawayLuaFactoryTimesOut(t *testing.T) {
	dir := t.TempDir()
	spin := writeFile(t, filepath.Join(dir, "spin.lua"), "function icon(ext) while true do end end\nfunction options(ext) return { data = 1 } end\n")
	ok := writeFile(t, filepath.Join(dir, "ok.lua"), "function body(ext) return { data = 'ok' } end\n")

	loader := extension.NewLoader(extension.WithExecutionTimeout(50 * time.Millisecond))
	rt := newRuntime(t, nil, WithLoader(loader))

	done := make(chan struct{})
	var report *Report
	var err error
	go func() {
		defer close(done)
		report, err = rt.Compose(context.Background(), []Package{{Path: spin}, {Path: ok}})
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Compose did not return")
	}
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if f := report.Failures[0]; f.Point != point.KindIcon || !errors.Is(f, plua.ErrExecutionTimeout) {
		t.Errorf("failure = %v, want icon timeout", f)
	}
	if rt.Options().Len() != 1 {
		t.Errorf("options = %d, want 1 from the module that timed out", rt.Options().Len())
	}
	if rt.Bodies().Len() != 1 {
		t.Errorf("bodies = %d, want 1 from the later module", rt.Bodies().Len())
	}
}

func TestComposeSkipsFalsyIconData(t *testing.T) {
	dir := t.TempDir()
	lua := writeFile(t, filepath.Join(dir, "off.lua"), "function icon(ext) return { data = false } end\n")
	yml := writeFile(t, filepath.Join(dir, "blank.yaml"), "icon:\n  data: \"\"\n")
	shown := writeFile(t, filepath.Join(dir, "shown.yaml"), "icon:\n  data: \"<svg/>\"\n")

	rt := newRuntime(t, nil)
	report, err := rt.Compose(context.Background(), []Package{{Path: lua}, {Path: yml}, {Path: shown}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("failures: %v", report.Err())
	}
	icons := rt.Icons().All()
	if len(icons) != 1 || icons[0].Icon.Data != "<svg/>" {
		t.Errorf("icons = %+v", icons)
	}
}

func TestComposeLoadsShippedCatalogs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "weather")
	writeFile(t, filepath.Join(dir, "extension.yaml"), `
name: weather
menu:
  isClass: true
  title:
    name: title
    i18n: true
  items:
    - name: today
      i18n: true
`)
	writeFile(t, filepath.Join(dir, extension.LocalesDir, "en.yaml"), "title: Weather\ntoday: Today\n")
	writeFile(t, filepath.Join(dir, extension.LocalesDir, "de.yaml"), "title: Wetter\n")

	bundle := i18n.NewBundle()
	tr := bundle.Translator("de")
	rt := newRuntime(t, nil, WithCatalogs(bundle), WithTranslator(tr))

	report, err := rt.Compose(context.Background(), []Package{{Path: dir}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(report.Failures) != 0 || len(report.Warnings) != 0 {
		t.Fatalf("problems: %v %v", report.Err(), report.Warnings)
	}

	titles := rt.Menus().Titles()
	if len(titles) != 1 || titles[0].Key.Resolve(tr) != "Wetter" {
		t.Errorf("title = %+v", titles)
	}
	entries := rt.Menus().Entries()
	if len(entries) != 1 || entries[0].LabelKey().Resolve(tr) != "Today" {
		t.Errorf("entries = %+v", entries)
	}
	s, _ := rt.Surface(report.Modules[0].Extension)
	if got := s.T("title", false); got != "Wetter" {
		t.Errorf("T(title) = %q", got)
	}
}
