package menu

import "github.com/dshills/innermost/internal/point"

// Key is the lookup a label needs from the localization resolver.
type Key struct {
	// Text is the literal string or catalog key.
	Text string
	// Localize is false for literal labels.
	Localize bool
	// Parent selects the host namespace; Text is then used unqualified.
	Parent bool
}

// KeyFor selects the lookup for label. Own-namespace keys are qualified as
// "<namespace>.<name>".
func KeyFor(label point.Label, namespace string) Key {
	switch {
	case !label.I18n:
		return Key{Text: label.Name}
	case label.ParentI18n:
		return Key{Text: label.Name, Localize: true, Parent: true}
	case namespace == "":
		return Key{Text: label.Name, Localize: true}
	default:
		return Key{Text: namespace + "." + label.Name, Localize: true}
	}
}

// Translator resolves a fully qualified localization key.
type Translator interface {
	Translate(key string) string
}

// Resolve turns k into display text using tr. Literal keys and a nil
// translator return the text unchanged.
func (k Key) Resolve(tr Translator) string {
	if !k.Localize || tr == nil {
		return k.Text
	}
	return tr.Translate(k.Text)
}
