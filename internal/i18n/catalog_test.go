package i18n

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"en/host.yaml": {Data: []byte("close: Close\nmenu:\n  settings: Settings\n")},
		"en/clock.yaml": {Data: []byte(`
title: Clock
alarm: Alarm
menu:
  timer: Timer
`)},
		"fr/host.yml":   {Data: []byte("close: Fermer\n")},
		"fr/clock.yaml": {Data: []byte("alarm: Réveil\n")},
		"README.md":     {Data: []byte("ignored")},
	}
}

func TestBundleLoadFS(t *testing.T) {
	b := NewBundle()
	if err := b.LoadFS(testFS()); err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	if diff := cmp.Diff([]string{"en", "fr"}, b.Locales()); diff != "" {
		t.Errorf("Locales() mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslatorLookups(t *testing.T) {
	b := NewBundle()
	if err := b.LoadFS(testFS()); err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}

	en := b.Translator("en-US")
	if en.Locale() != "en" {
		t.Errorf("Locale() = %q, want en", en.Locale())
	}

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"close", "Close", true},
		{"menu.settings", "Settings", true},
		{"clock.title", "Clock", true},
		{"clock.menu.timer", "Timer", true},
		{"title", "title", false},
		{"clock.missing", "clock.missing", false},
	}
	for _, tt := range tests {
		got, ok := en.Lookup(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTranslatorFallsBackToDefaultLocale(t *testing.T) {
	b := NewBundle()
	if err := b.LoadFS(testFS()); err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}

	fr := b.Translator("fr-CA")
	if fr.Locale() != "fr" {
		t.Errorf("Locale() = %q, want fr", fr.Locale())
	}
	if got := fr.Translate("close"); got != "Fermer" {
		t.Errorf("Translate(close) = %q, want Fermer", got)
	}
	if got := fr.Translate("clock.alarm"); got != "Réveil" {
		t.Errorf("Translate(clock.alarm) = %q, want Réveil", got)
	}
	if got := fr.Translate("clock.title"); got != "Clock" {
		t.Errorf("Translate(clock.title) = %q, want English fallback", got)
	}

	unknown := b.Translator("not a locale")
	if unknown.Locale() != DefaultLocale {
		t.Errorf("Locale() = %q, want %q", unknown.Locale(), DefaultLocale)
	}
}

func TestBundleAddInvalidLocale(t *testing.T) {
	b := NewBundle()
	if err := b.Add("!!", "clock", map[string]string{"a": "b"}); !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("Add() error = %v, want ErrInvalidLocale", err)
	}
}

func TestLoadFSBadYAML(t *testing.T) {
	b := NewBundle()
	fsys := fstest.MapFS{"en/clock.yaml": {Data: []byte("a: [unclosed")}}
	if err := b.LoadFS(fsys); err == nil {
		t.Error("LoadFS() should fail on invalid YAML")
	}
}

func TestEmptyBundleTranslator(t *testing.T) {
	tr := NewBundle().Translator("en")
	if got := tr.Translate("anything"); got != "anything" {
		t.Errorf("Translate() = %q, want key echoed", got)
	}
}

func TestTranslatorKeepsPercentLiteral(t *testing.T) {
	b := NewBundle()
	if err := b.Add("en", "clock", map[string]string{
		"progress": "Done 100%",
		"rate":     "50% off",
		"escaped":  "100%% sure",
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	tr := b.Translator("en")

	tests := map[string]string{
		"clock.progress": "Done 100%",
		"clock.rate":     "50% off",
		"clock.escaped":  "100%% sure",
	}
	for key, want := range tests {
		if got := tr.Translate(key); got != want {
			t.Errorf("Translate(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestLoadNamespaceFS(t *testing.T) {
	b := NewBundle()
	if err := b.LoadFS(testFS()); err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	tr := b.Translator("fr")
	if got := tr.Translate("weather.title"); got != "weather.title" {
		t.Fatalf("Translate() before load = %q", got)
	}

	shipped := fstest.MapFS{
		"en.yaml":  {Data: []byte("title: Weather\nunits:\n  celsius: Celsius\n")},
		"fr.yml":   {Data: []byte("title: Météo\n")},
		"notes.md": {Data: []byte("ignored")},
	}
	if err := b.LoadNamespaceFS("weather", shipped); err != nil {
		t.Fatalf("LoadNamespaceFS() error = %v", err)
	}

	if got := tr.Translate("weather.title"); got != "Météo" {
		t.Errorf("Translate(weather.title) = %q, want Météo", got)
	}
	if got := tr.Translate("weather.units.celsius"); got != "Celsius" {
		t.Errorf("Translate(weather.units.celsius) = %q, want English fallback", got)
	}
	if got := tr.Translate("clock.alarm"); got != "Réveil" {
		t.Errorf("Translate(clock.alarm) = %q, host catalogs lost", got)
	}
}

func TestLoadNamespaceFSBadLocale(t *testing.T) {
	b := NewBundle()
	err := b.LoadNamespaceFS("weather", fstest.MapFS{"not a locale!.yaml": {Data: []byte("a: b\n")}})
	if !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("LoadNamespaceFS() error = %v, want ErrInvalidLocale", err)
	}
}
