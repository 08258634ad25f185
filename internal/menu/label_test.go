package menu

import (
	"testing"

	"github.com/dshills/innermost/internal/point"
)

type dict map[string]string

func (d dict) Translate(key string) string {
	if v, ok := d[key]; ok {
		return v
	}
	return key
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name      string
		label     point.Label
		namespace string
		want      Key
	}{
		{"literal", point.Label{Name: "Clock"}, "clock", Key{Text: "Clock"}},
		{"literal ignores parent", point.Label{Name: "Clock", ParentI18n: true}, "clock", Key{Text: "Clock"}},
		{"own namespace", point.Label{Name: "alarm", I18n: true}, "clock", Key{Text: "clock.alarm", Localize: true}},
		{"parent namespace", point.Label{Name: "close", I18n: true, ParentI18n: true}, "clock", Key{Text: "close", Localize: true, Parent: true}},
		{"no namespace", point.Label{Name: "alarm", I18n: true}, "", Key{Text: "alarm", Localize: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyFor(tt.label, tt.namespace); got != tt.want {
				t.Errorf("KeyFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestKeyResolve(t *testing.T) {
	tr := dict{"clock.alarm": "Alarm", "close": "Close"}

	if got := (Key{Text: "Clock"}).Resolve(tr); got != "Clock" {
		t.Errorf("literal Resolve() = %q", got)
	}
	if got := (Key{Text: "clock.alarm", Localize: true}).Resolve(tr); got != "Alarm" {
		t.Errorf("own Resolve() = %q, want Alarm", got)
	}
	if got := (Key{Text: "close", Localize: true, Parent: true}).Resolve(tr); got != "Close" {
		t.Errorf("parent Resolve() = %q, want Close", got)
	}
	if got := (Key{Text: "x", Localize: true}).Resolve(nil); got != "x" {
		t.Errorf("nil translator Resolve() = %q, want x", got)
	}
}
