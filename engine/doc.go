// Package engine drives shortcut dispatch: it consumes host key events,
// runs the multi-step sequence state machine, and executes bound actions.
//
// # Dispatch
//
// A keydown event flows through the engine as follows: the held-key
// tracker is updated, the global filters run once (early exit), the
// blocked-group set is precomputed, and then either a pending sequence is
// advanced or the active set is scanned for a first-step match. The scan
// visits active shortcuts in registration order and the first match wins.
//
// At most one sequence is pending system-wide; starting a new sequence or
// mismatching an expected step cancels the old one. A mismatching key is
// deliberately not re-tested against other shortcuts' first steps in the
// same dispatch.
//
// # Chords
//
// Targets with two or more non-modifier tokens are matched against the
// accumulated held-key set instead of the single token a keydown event
// carries. Targets with at most one non-modifier token always match
// against the per-event pressed set, so chord state cannot corrupt
// ordinary matching.
//
// # Concurrency
//
// Dispatch is synchronous on the caller's goroutine. Sequence timers and
// lifetime signals fire on other goroutines; pending-state transitions are
// guarded by a generation counter so a stale timer cannot cancel a newer
// sequence. Actions run outside engine locks and may call back into the
// registry. An action that panics is logged and does not derail dispatch.
package engine
