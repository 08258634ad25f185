// Package point defines the descriptors an extension returns from its
// extension-point factories: icon, menu, body, options and settings.
package point

import "context"

// Kind names an extension point.
type Kind string

// Extension point kinds, in composition order.
const (
	KindIcon     Kind = "icon"
	KindMenu     Kind = "menu"
	KindBody     Kind = "body"
	KindOptions  Kind = "options"
	KindSettings Kind = "settings"
)

// Kinds lists every extension point in composition order.
var Kinds = []Kind{KindIcon, KindMenu, KindBody, KindOptions, KindSettings}

// Icon describes an extension's icon-bar entry.
type Icon struct {
	// IsClass selects class mode (render Class) over data mode (render Data).
	IsClass bool
	// Class is a visual class name understood by the host shell.
	Class string
	// Data is an opaque payload rendered by the extension itself.
	Data any
}

// Renderable reports whether the icon carries anything the shell can show.
func (i Icon) Renderable() bool {
	return i.Class != "" || present(i.Data)
}

// present reports whether a data payload has content: nil, false and the
// empty string do not.
func present(v any) bool {
	switch d := v.(type) {
	case nil:
		return false
	case bool:
		return d
	case string:
		return d != ""
	default:
		return true
	}
}

// Label is a display string that may be localized.
type Label struct {
	Name string
	// I18n marks Name as a localization key rather than literal text.
	I18n bool
	// ParentI18n looks the key up in the host namespace instead of the extension's.
	ParentI18n bool
}

// Hook runs before a menu item opens its target.
type Hook func(ctx context.Context) error

// MenuItem is one clickable entry of an extension's menu.
type MenuItem struct {
	// ID is the sub-view to open. Empty means the owning extension itself.
	ID    string
	Label Label
	Class string
	// PreHook is optional.
	PreHook Hook
}

// Menu describes an extension's menu contribution.
type Menu struct {
	IsClass bool
	Title   Label
	Items   []MenuItem
	Data    any
}

// Renderable reports whether the menu should be emitted: at least one item in
// class mode, or a payload in data mode.
func (m Menu) Renderable() bool {
	if m.IsClass {
		return len(m.Items) > 0
	}
	return present(m.Data)
}

// View is a sub-view id declared by a body.
type View struct {
	ID      string
	Default bool
}

// Body describes an extension's main surface.
type Body struct {
	// Default marks the always-open landing surface.
	Default bool
	Data    any
	Views   []View
}

// Options describes the per-extension options panel.
type Options struct {
	Data any
}

// SettingItem is one entry of a settings schema.
type SettingItem struct {
	Class string
	Label Label
}

// Settings is declarative settings metadata consumed by a settings-UI generator.
type Settings struct {
	IsClass bool
	Title   Label
	Items   []SettingItem
	Data    any
}
