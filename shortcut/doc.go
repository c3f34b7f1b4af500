// Package shortcut provides shortcut and group definitions, the registry
// that owns them, and the versioned snapshots published to consumers.
//
// # Key Concepts
//
// Definition: Binds a key specification (single step, chord, or multi-step
// sequence, with an optional secondary-platform variant) to an action.
//
// Group: An ordered batch of definitions registered together, activated and
// deactivated as a unit, with an optional group-level filter.
//
// Registry: Single source of truth for definitions, groups, and the active
// sets. Every mutating call is all-or-nothing: validation failures leave
// the registry unchanged.
//
// # Conflict Rules
//
// Registration and activation reject key collisions against the currently
// active set only. Two shortcuts collide when any declared variant of one
// has the same step sequence as any declared variant of the other. Many
// inactive shortcuts may share keys with an active one; this is what allows
// the same physical key to mean different things in mutually exclusive
// contexts.
//
// # Snapshots
//
// After every mutating call (or exactly once at the end of BatchUpdate) the
// registry recomputes an immutable Snapshot and delivers it to subscribers.
package shortcut
