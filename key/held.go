package key

import "sync"

// Held tracks the set of physically held non-modifier keys across
// keydown/keyup events. It exists to support chords: a single keydown
// event can only express one non-modifier token, so targets requiring
// two or more simultaneously held keys are matched against this
// accumulated state instead.
//
// Modifier tokens are never tracked here; they arrive as flags on each
// event and would corrupt the chord set.
type Held struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewHeld creates an empty held-key tracker.
func NewHeld() *Held {
	return &Held{
		keys: make(map[string]struct{}),
	}
}

// Press records a key as held. Modifier tokens and empty tokens are ignored.
func (h *Held) Press(token string) {
	token = CanonicalToken(token)
	if token == "" || IsModifier(token) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys[token] = struct{}{}
}

// Release removes a key from the held set.
func (h *Held) Release(token string) {
	token = CanonicalToken(token)
	if token == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.keys, token)
}

// Clear forgets all held keys. Called on focus loss so chord state cannot
// survive a window/tab switch.
func (h *Held) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = make(map[string]struct{})
}

// Len returns the number of held non-modifier keys.
func (h *Held) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}

// IsHeld returns true if the token is currently held.
func (h *Held) IsHeld(token string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.keys[CanonicalToken(token)]
	return ok
}

// PressedWith builds the chord pressed set: the given modifier tokens
// plus every held non-modifier key.
func (h *Held) PressedWith(mods Modifier) Set {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := make(Set, len(h.keys)+4)
	for _, tok := range mods.Tokens() {
		s[tok] = struct{}{}
	}
	for tok := range h.keys {
		s[tok] = struct{}{}
	}
	return s
}
