// Package config loads declarative shortcut definitions from TOML, YAML,
// or JSON files and applies them to a registry.
//
// Config files name actions and filters symbolically; a Resolver supplies
// the Go functions those names bind to. Unknown names fail the load, not
// the dispatch.
//
// # File Format
//
// A file declares loose shortcuts and groups:
//
//	[[shortcut]]
//	id = "file.save"
//	keys = "ctrl+s"
//	secondary_keys = "meta+s"
//	action = "save"
//
//	[[group]]
//	id = "editing"
//	filter = "editor-focused"
//
//	[[group.shortcut]]
//	id = "edit.cut"
//	keys = "ctrl+x"
//	action = "cut"
//
// Sequence shortcuts use whitespace-separated steps ("ctrl+k s") and may
// set timeout_ms to bound the gap between steps.
//
// # Live Reload
//
// Watcher monitors loaded files with fsnotify and re-applies them on
// change, unregistering what the previous version of the file installed.
package config
