package key

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec  = errors.New("empty key specification")
	ErrEmptyToken = errors.New("empty token in key specification")
)

// Set is a case-insensitive, order-insensitive set of key tokens
// representing one step of input. Tokens are stored lowercase.
type Set map[string]struct{}

// NewSet creates a Set from the given tokens. Tokens are canonicalized
// (lowercased, "control" folded to "ctrl").
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, tok := range tokens {
		tok = CanonicalToken(tok)
		if tok == "" {
			continue
		}
		s[tok] = struct{}{}
	}
	return s
}

// Len returns the number of tokens in the set.
func (s Set) Len() int {
	return len(s)
}

// Contains returns true if the set contains the token.
func (s Set) Contains(token string) bool {
	_, ok := s[CanonicalToken(token)]
	return ok
}

// Add inserts a token into the set.
func (s Set) Add(token string) {
	token = CanonicalToken(token)
	if token == "" {
		return
	}
	s[token] = struct{}{}
}

// Remove deletes a token from the set.
func (s Set) Remove(token string) {
	delete(s, CanonicalToken(token))
}

// Equals reports whether two sets contain exactly the same tokens.
// This is the matching rule for a pressed set against a target set:
// equal cardinality and every target token present.
func (s Set) Equals(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for tok := range other {
		if _, ok := s[tok]; !ok {
			return false
		}
	}
	return true
}

// NonModifierCount returns the number of non-modifier tokens in the set.
func (s Set) NonModifierCount() int {
	n := 0
	for tok := range s {
		if !IsModifier(tok) {
			n++
		}
	}
	return n
}

// NonModifiers returns the non-modifier tokens in the set, sorted.
func (s Set) NonModifiers() []string {
	var tokens []string
	for tok := range s {
		if !IsModifier(tok) {
			tokens = append(tokens, tok)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	clone := make(Set, len(s))
	for tok := range s {
		clone[tok] = struct{}{}
	}
	return clone
}

// Tokens returns all tokens sorted with modifiers first, then the rest
// alphabetically. This is the canonical display order.
func (s Set) Tokens() []string {
	var mods, keys []string
	for tok := range s {
		if IsModifier(tok) {
			mods = append(mods, tok)
		} else {
			keys = append(keys, tok)
		}
	}
	sort.Strings(mods)
	sort.Strings(keys)
	return append(mods, keys...)
}

// String returns the canonical "+"-joined representation, e.g. "ctrl+k".
func (s Set) String() string {
	return strings.Join(s.Tokens(), "+")
}

// ParseStep parses a single step specification like "ctrl+k" or "a+b"
// into a Set.
func ParseStep(spec string) (Set, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptySpec
	}

	parts := strings.Split(spec, "+")
	s := make(Set, len(parts))
	for _, part := range parts {
		tok := CanonicalToken(part)
		if tok == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptyToken, spec)
		}
		s[tok] = struct{}{}
	}
	return s, nil
}

// ParseSpec parses a full specification into a sequence of steps.
// Steps are separated by whitespace: "ctrl+k s" is a two-step sequence,
// "ctrl+s" a single step.
func ParseSpec(spec string) ([]Set, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return nil, ErrEmptySpec
	}

	steps := make([]Set, 0, len(fields))
	for _, field := range fields {
		step, err := ParseStep(field)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// MustParseSpec parses a specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParseSpec(spec string) []Set {
	steps, err := ParseSpec(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return steps
}

// FormatSpec renders a sequence of steps back to its canonical
// specification string.
func FormatSpec(steps []Set) string {
	parts := make([]string, len(steps))
	for i, step := range steps {
		parts[i] = step.String()
	}
	return strings.Join(parts, " ")
}

// StepsEqual reports whether two step sequences have the same length and
// pairwise set-equal steps.
func StepsEqual(a, b []Set) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}
