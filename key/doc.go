// Package key provides key tokens, modifiers, and key-set matching for the
// shortcut engine.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Set: A case-insensitive, order-insensitive set of key tokens
//   - Event: A single key event at the host boundary (keydown, keyup, focus loss)
//   - Held: The set of physically held non-modifier keys, for chord matching
//
// # Key Specifications
//
// A single step is written as tokens joined by "+", a sequence as steps
// separated by whitespace:
//
//   - Single step: "escape", "ctrl+s", "ctrl+shift+p"
//   - Chord step: "a+b" (two simultaneously held non-modifier keys)
//   - Sequence: "ctrl+k s", "g g"
//
// Tokens are lowercased during parsing, and "control" is canonicalized to
// "ctrl" so either spelling matches events uniformly.
package key
