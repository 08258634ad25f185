package point

import (
	"context"
	"fmt"
)

// Wire keys shared by every module kind (Lua tables, Go maps, YAML documents).
const (
	keyIsClass    = "isClass"
	keyClass      = "clazz"
	keyData       = "data"
	keyItems      = "items"
	keyTitle      = "title"
	keyID         = "id"
	keyName       = "name"
	keyI18n       = "i18n"
	keyParentI18n = "parentI18n"
	keyFunc       = "func"
	keyDefault    = "default"
	keyViews      = "views"
)

// DecodeIcon builds an Icon from its wire form.
func DecodeIcon(m map[string]any) Icon {
	return Icon{
		IsClass: boolField(m, keyIsClass),
		Class:   stringField(m, keyClass),
		Data:    m[keyData],
	}
}

// DecodeMenu builds a Menu from its wire form. Item "func" values that are Go
// functions become pre-hooks; other values are ignored.
func DecodeMenu(m map[string]any) Menu {
	menu := Menu{
		IsClass: boolField(m, keyIsClass),
		Title:   decodeLabel(m[keyTitle]),
		Data:    m[keyData],
	}
	for _, raw := range sliceField(m, keyItems) {
		item, ok := toMap(raw)
		if !ok {
			continue
		}
		menu.Items = append(menu.Items, MenuItem{
			ID:      stringField(item, keyID),
			Label:   decodeLabel(item),
			Class:   stringField(item, keyClass),
			PreHook: decodeHook(item[keyFunc]),
		})
	}
	return menu
}

// DecodeBody builds a Body from its wire form.
func DecodeBody(m map[string]any) Body {
	body := Body{
		Default: boolField(m, keyDefault),
		Data:    m[keyData],
	}
	for _, raw := range sliceField(m, keyViews) {
		switch v := raw.(type) {
		case string:
			body.Views = append(body.Views, View{ID: v})
		default:
			view, ok := toMap(v)
			if !ok {
				continue
			}
			if id := stringField(view, keyID); id != "" {
				body.Views = append(body.Views, View{ID: id, Default: boolField(view, keyDefault)})
			}
		}
	}
	return body
}

// DecodeOptions builds Options from its wire form.
func DecodeOptions(m map[string]any) Options {
	return Options{Data: m[keyData]}
}

// DecodeSettings builds Settings from its wire form. The title may be a plain
// string or a {name, i18n, parentI18n} table.
func DecodeSettings(m map[string]any) Settings {
	s := Settings{
		IsClass: boolField(m, keyIsClass),
		Title:   decodeLabel(m[keyTitle]),
		Data:    m[keyData],
	}
	for _, raw := range sliceField(m, keyItems) {
		item, ok := toMap(raw)
		if !ok {
			continue
		}
		s.Items = append(s.Items, SettingItem{
			Class: stringField(item, keyClass),
			Label: decodeLabel(item),
		})
	}
	return s
}

func decodeLabel(v any) Label {
	switch l := v.(type) {
	case nil:
		return Label{}
	case string:
		return Label{Name: l}
	default:
		m, ok := toMap(l)
		if !ok {
			return Label{Name: fmt.Sprint(l)}
		}
		return Label{
			Name:       stringField(m, keyName),
			I18n:       boolField(m, keyI18n),
			ParentI18n: boolField(m, keyParentI18n),
		}
	}
}

func decodeHook(v any) Hook {
	switch fn := v.(type) {
	case Hook:
		return fn
	case func(context.Context) error:
		return fn
	case func() error:
		return func(context.Context) error { return fn() }
	case func():
		return func(context.Context) error {
			fn()
			return nil
		}
	default:
		return nil
	}
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func sliceField(m map[string]any, key string) []any {
	switch v := m[key].(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}
