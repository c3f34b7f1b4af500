// Package script embeds a sandboxed Lua runtime for user-defined
// shortcut actions and filters.
//
// Scripts run in a restricted interpreter: only the base, table, string,
// and math libraries are open, and file loading primitives are removed.
// Host capabilities are exposed explicitly through Bind.
//
// A filter expression sees the triggering event as a global table named
// ev with fields key, ctrl, alt, shift, and meta:
//
//	st, _ := script.NewState()
//	f, _ := st.CompileFilter(`ev.ctrl and ev.key ~= "q"`)
//
// Compiled actions and filters share one interpreter and are serialized
// by an internal mutex, matching the engine's one-dispatch-at-a-time
// model.
package script
