package shortcut

import (
	"fmt"
	"time"

	"github.com/mrivasperez/ngx-keys-sub000/filter"
	"github.com/mrivasperez/ngx-keys-sub000/key"
)

// Platform selects which declared key variant of a shortcut applies.
type Platform uint8

const (
	// PlatformPrimary selects the primary key variant.
	PlatformPrimary Platform = iota

	// PlatformSecondary selects the alternate-platform variant, falling
	// back to the primary variant when none is declared.
	PlatformSecondary
)

// String returns the platform name.
func (p Platform) String() string {
	switch p {
	case PlatformPrimary:
		return "primary"
	case PlatformSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Lifetime is an external disposal signal. When its Done channel closes,
// the owning shortcut is unregistered automatically. context.Context
// satisfies this interface.
type Lifetime interface {
	Done() <-chan struct{}
}

// Definition binds a key specification to an action.
type Definition struct {
	// ID is the globally unique shortcut identifier.
	ID string

	// Keys is the primary key specification.
	// Formats: "ctrl+s", "a+b" (chord), "ctrl+k s" (sequence).
	Keys string

	// SecondaryKeys is the optional alternate-platform variant.
	SecondaryKeys string

	// Action is the zero-argument callback executed on a full match.
	Action func()

	// Description provides human-readable documentation.
	Description string

	// Filter is an optional per-shortcut predicate.
	Filter filter.Func

	// SequenceTimeout is the per-step timeout for multi-step sequences.
	// Zero means wait indefinitely between steps.
	SequenceTimeout time.Duration

	// Until is an optional lifetime handle; its firing unregisters the
	// shortcut as if Unregister had been called.
	Until Lifetime
}

// New creates a definition with the given id, key specification, and action.
func New(id, keys string, action func()) Definition {
	return Definition{
		ID:     id,
		Keys:   keys,
		Action: action,
	}
}

// WithSecondaryKeys sets the alternate-platform variant.
func (d Definition) WithSecondaryKeys(keys string) Definition {
	d.SecondaryKeys = keys
	return d
}

// WithDescription sets the description.
func (d Definition) WithDescription(desc string) Definition {
	d.Description = desc
	return d
}

// WithFilter sets the per-shortcut filter.
func (d Definition) WithFilter(f filter.Func) Definition {
	d.Filter = f
	return d
}

// WithTimeout sets the per-step sequence timeout.
func (d Definition) WithTimeout(timeout time.Duration) Definition {
	d.SequenceTimeout = timeout
	return d
}

// WithLifetime sets the lifetime handle.
func (d Definition) WithLifetime(lt Lifetime) Definition {
	d.Until = lt
	return d
}

// Validate checks that the definition is structurally sound: a non-empty
// id, parseable key specifications, and exactly one action.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDefinition)
	}
	if d.Action == nil {
		return fmt.Errorf("%w: %q has no action", ErrInvalidDefinition, d.ID)
	}
	if _, err := key.ParseSpec(d.Keys); err != nil {
		return fmt.Errorf("%w: %q keys: %v", ErrInvalidDefinition, d.ID, err)
	}
	if d.SecondaryKeys != "" {
		if _, err := key.ParseSpec(d.SecondaryKeys); err != nil {
			return fmt.Errorf("%w: %q secondary keys: %v", ErrInvalidDefinition, d.ID, err)
		}
	}
	return nil
}

// entry is a registered definition with pre-parsed key variants.
type entry struct {
	def       Definition
	primary   []key.Set
	secondary []key.Set

	// done is closed on unregistration to release the lifetime goroutine.
	done chan struct{}
}

// newEntry validates and parses a definition.
func newEntry(def Definition) (*entry, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	primary, err := key.ParseSpec(def.Keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %q keys: %v", ErrInvalidDefinition, def.ID, err)
	}

	var secondary []key.Set
	if def.SecondaryKeys != "" {
		secondary, err = key.ParseSpec(def.SecondaryKeys)
		if err != nil {
			return nil, fmt.Errorf("%w: %q secondary keys: %v", ErrInvalidDefinition, def.ID, err)
		}
	}

	return &entry{
		def:       def,
		primary:   primary,
		secondary: secondary,
		done:      make(chan struct{}),
	}, nil
}

// stepsFor returns the platform-appropriate variant, falling back to the
// primary variant when the secondary is absent.
func (e *entry) stepsFor(p Platform) []key.Set {
	if p == PlatformSecondary && e.secondary != nil {
		return e.secondary
	}
	return e.primary
}

// variants returns every declared variant.
func (e *entry) variants() [][]key.Set {
	if e.secondary == nil {
		return [][]key.Set{e.primary}
	}
	return [][]key.Set{e.primary, e.secondary}
}

// collidesWith reports whether any variant of e matches any variant of
// other, stepwise.
func (e *entry) collidesWith(other *entry) bool {
	for _, v1 := range e.variants() {
		for _, v2 := range other.variants() {
			if key.StepsEqual(v1, v2) {
				return true
			}
		}
	}
	return false
}
