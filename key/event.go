package key

import "time"

// Kind identifies the type of a host event.
type Kind uint8

const (
	// KindDown indicates a key press.
	KindDown Kind = iota

	// KindUp indicates a key release.
	KindUp

	// KindFocusLost indicates the host window lost focus or was hidden.
	KindFocusLost
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDown:
		return "keydown"
	case KindUp:
		return "keyup"
	case KindFocusLost:
		return "focuslost"
	default:
		return "unknown"
	}
}

// Event represents a single key event delivered by the host.
type Event struct {
	// Kind is the event type.
	Kind Kind

	// Key is the key token for keydown/keyup events, e.g. "a", "escape".
	// Empty for focus-loss events and for bare modifier presses where
	// the host reports no distinct token.
	Key string

	// Mods contains the active modifier keys.
	Mods Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Suppress, when non-nil, is invoked by the engine if the event is
	// consumed (a shortcut fires or a sequence step advances). The host
	// adapter maps it to preventDefault/stopPropagation or equivalent.
	Suppress func()
}

// NewKeyDown creates a keydown event with the current timestamp.
func NewKeyDown(token string, mods Modifier) Event {
	return Event{
		Kind:      KindDown,
		Key:       CanonicalToken(token),
		Mods:      mods,
		Timestamp: time.Now(),
	}
}

// NewKeyUp creates a keyup event with the current timestamp.
func NewKeyUp(token string, mods Modifier) Event {
	return Event{
		Kind:      KindUp,
		Key:       CanonicalToken(token),
		Mods:      mods,
		Timestamp: time.Now(),
	}
}

// NewFocusLost creates a focus-loss event with the current timestamp.
func NewFocusLost() Event {
	return Event{
		Kind:      KindFocusLost,
		Timestamp: time.Now(),
	}
}

// Token returns the canonicalized key token of the event.
func (e Event) Token() string {
	return CanonicalToken(e.Key)
}

// IsModifierKey returns true if the event's key is itself a modifier key.
func (e Event) IsModifierKey() bool {
	return e.Key != "" && IsModifier(e.Key)
}

// Pressed derives the per-event pressed set: the active modifier tokens
// plus this event's key token. A bare modifier press contributes only
// the modifier flags.
func (e Event) Pressed() Set {
	s := make(Set, 5)
	for _, tok := range e.Mods.Tokens() {
		s[tok] = struct{}{}
	}
	if tok := e.Token(); tok != "" {
		s[tok] = struct{}{}
	}
	return s
}

// String returns a canonical representation like "keydown(ctrl+k)".
func (e Event) String() string {
	if e.Kind == KindFocusLost {
		return e.Kind.String()
	}
	return e.Kind.String() + "(" + e.Pressed().String() + ")"
}
