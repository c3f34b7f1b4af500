package engine

import (
	"log/slog"
	"sync"

	"github.com/mrivasperez/ngx-keys-sub000/filter"
	"github.com/mrivasperez/ngx-keys-sub000/key"
	"github.com/mrivasperez/ngx-keys-sub000/shortcut"
)

// Engine interprets host key events against the shortcut registry.
// Each Engine instance owns its registry, filters, and chord/sequence
// state; multiple independent instances can coexist.
type Engine struct {
	mu sync.Mutex

	registry *shortcut.Registry
	filters  *filter.Registry
	held     *key.Held
	exec     *executor

	platform shortcut.Platform
	logger   *slog.Logger

	pending *pending
	genSeq  uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlatform selects which key variant of each shortcut is matched.
func WithPlatform(p shortcut.Platform) Option {
	return func(e *Engine) {
		e.platform = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry uses an existing registry instead of creating one.
func WithRegistry(r *shortcut.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// New creates an engine with its own registry and filter set.
func New(opts ...Option) *Engine {
	e := &Engine{
		filters:  filter.NewRegistry(),
		held:     key.NewHeld(),
		platform: shortcut.PlatformPrimary,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = shortcut.NewRegistry()
	}
	e.exec = newExecutor(e.logger)
	return e
}

// Registry returns the shortcut registry owned by this engine.
func (e *Engine) Registry() *shortcut.Registry {
	return e.registry
}

// Filters returns the global filter registry.
func (e *Engine) Filters() *filter.Registry {
	return e.filters
}

// Stats returns action execution statistics.
func (e *Engine) Stats() Stats {
	return e.exec.stats()
}

// Handle routes an event by kind. It returns true if the event was
// consumed (a shortcut fired or a sequence step advanced).
func (e *Engine) Handle(ev key.Event) bool {
	switch ev.Kind {
	case key.KindDown:
		return e.HandleKeyDown(ev)
	case key.KindUp:
		return e.HandleKeyUp(ev)
	case key.KindFocusLost:
		return e.HandleFocusLost(ev)
	default:
		return false
	}
}

// HandleKeyDown processes a key press.
func (e *Engine) HandleKeyDown(ev key.Event) bool {
	e.held.Press(ev.Token())

	// Global filters gate the whole event. Entering a globally filtered
	// context must not let an in-flight sequence survive.
	if !e.filters.Passes(ev) {
		e.CancelPending()
		return false
	}

	blocked := filter.Blocked(e.registry.ActiveGroupFilters(), ev)
	pressed := ev.Pressed()

	e.mu.Lock()
	if e.pending != nil {
		return e.advancePendingLocked(ev, pressed, blocked)
	}
	return e.scanLocked(ev, pressed, blocked)
}

// HandleKeyUp processes a key release. Releases never consume events.
func (e *Engine) HandleKeyUp(ev key.Event) bool {
	e.held.Release(ev.Token())
	return false
}

// HandleFocusLost clears all ephemeral input state: the held-key set and
// any pending sequence, regardless of timeout configuration.
func (e *Engine) HandleFocusLost(key.Event) bool {
	e.held.Clear()
	e.CancelPending()
	return false
}

// Pending reports the shortcut id and next expected step index of the
// in-flight sequence, if any.
func (e *Engine) Pending() (id string, step int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return "", 0, false
	}
	return e.pending.id, e.pending.step, true
}

// CancelPending forces the sequence state machine back to idle.
func (e *Engine) CancelPending() {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()
}

// Close cancels any pending sequence timer. The engine must not be used
// after Close.
func (e *Engine) Close() {
	e.CancelPending()
}

// runAction executes an action outside engine locks and suppresses the
// triggering event.
func (e *Engine) runAction(ev key.Event, def shortcut.Definition) {
	e.exec.run(def.ID, def.Action)
	suppress(ev)
}

// passesLocal checks the group and per-shortcut filter layers for a
// shortcut about to fire. The global layer already passed this event.
func (e *Engine) passesLocal(ev key.Event, def shortcut.Definition, blocked map[string]bool) bool {
	if gid, ok := e.registry.GroupOf(def.ID); ok && blocked[gid] {
		return false
	}
	if def.Filter != nil && !def.Filter(ev) {
		return false
	}
	return true
}

func suppress(ev key.Event) {
	if ev.Suppress != nil {
		ev.Suppress()
	}
}
