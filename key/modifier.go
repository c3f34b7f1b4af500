package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// Tokens returns the canonical lowercase tokens for the set modifiers.
func (m Modifier) Tokens() []string {
	if m == ModNone {
		return nil
	}

	var tokens []string
	if m.Has(ModCtrl) {
		tokens = append(tokens, "ctrl")
	}
	if m.Has(ModAlt) {
		tokens = append(tokens, "alt")
	}
	if m.Has(ModShift) {
		tokens = append(tokens, "shift")
	}
	if m.Has(ModMeta) {
		tokens = append(tokens, "meta")
	}
	return tokens
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// modifierTokens maps modifier token names (lowercase) to Modifier values.
var modifierTokens = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"shift":   ModShift,
	"meta":    ModMeta,
}

// IsModifier returns true if the token names a modifier key.
// The recognized set is fixed: ctrl, control, alt, shift, meta.
func IsModifier(token string) bool {
	_, ok := modifierTokens[strings.ToLower(token)]
	return ok
}

// ModifierFromToken returns the Modifier for a given token (case-insensitive).
// Returns ModNone if the token is not a modifier name.
func ModifierFromToken(token string) Modifier {
	if m, ok := modifierTokens[strings.ToLower(token)]; ok {
		return m
	}
	return ModNone
}

// CanonicalToken lowercases a token and folds "control" to "ctrl" so both
// spellings compare equal after parsing.
func CanonicalToken(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "control" {
		return "ctrl"
	}
	return token
}
