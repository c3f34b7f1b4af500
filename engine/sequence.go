package engine

import (
	"time"

	"github.com/mrivasperez/ngx-keys-sub000/key"
)

// pending is the in-flight multi-step sequence. At most one exists
// system-wide; step is the index of the next expected step and is always
// strictly between 0 and len(steps).
type pending struct {
	id      string
	step    int
	steps   []key.Set
	timeout time.Duration
	timer   *time.Timer

	// gen guards against stale timer callbacks: it is refreshed on every
	// transition and a timer only cancels the sequence it was armed for.
	gen uint64
}

// advancePendingLocked handles a keydown while a sequence is pending.
// Called with e.mu held; releases it.
func (e *Engine) advancePendingLocked(ev key.Event, pressed key.Set, blocked map[string]bool) bool {
	p := e.pending
	expected := p.steps[p.step]

	if !pressed.Equals(expected) {
		// A mismatch cancels to idle. The event is not re-tested against
		// other shortcuts' first steps in this dispatch.
		e.cancelPendingLocked()
		e.mu.Unlock()
		return false
	}

	stopTimer(p)
	p.step++

	if p.step < len(p.steps) {
		e.armTimerLocked(p)
		e.mu.Unlock()
		suppress(ev)
		return true
	}

	// Sequence complete.
	e.pending = nil
	def, ok := e.registry.DefinitionOf(p.id)
	e.mu.Unlock()

	if !ok {
		// Unregistered mid-sequence.
		return false
	}
	if !e.passesLocal(ev, def, blocked) {
		return false
	}
	e.runAction(ev, def)
	return true
}

// scanLocked scans the active set for a first-step match while idle.
// Called with e.mu held; releases it.
func (e *Engine) scanLocked(ev key.Event, pressed key.Set, blocked map[string]bool) bool {
	// Iterate over a snapshot of the active set so actions that mutate
	// the registry mid-dispatch cannot invalidate the scan.
	for _, id := range e.registry.ActiveIDs() {
		if gid, ok := e.registry.GroupOf(id); ok && blocked[gid] {
			continue
		}

		steps, ok := e.registry.StepsFor(id, e.platform)
		if !ok || len(steps) == 0 {
			continue
		}

		// Chord targets match against the accumulated held set; anything
		// else matches against this event's pressed set.
		candidate := pressed
		if steps[0].NonModifierCount() > 1 {
			candidate = e.held.PressedWith(ev.Mods)
		}
		if !candidate.Equals(steps[0]) {
			continue
		}

		def, ok := e.registry.DefinitionOf(id)
		if !ok {
			continue
		}

		if len(steps) == 1 {
			// The filter may call back into the engine, so it runs
			// without the lock. A rejection resumes the scan.
			e.mu.Unlock()
			if def.Filter != nil && !def.Filter(ev) {
				e.mu.Lock()
				continue
			}
			e.runAction(ev, def)
			return true
		}

		// First step of a sequence: go pending. First match wins.
		e.genSeq++
		p := &pending{
			id:      id,
			step:    1,
			steps:   steps,
			timeout: def.SequenceTimeout,
			gen:     e.genSeq,
		}
		e.pending = p
		e.armTimerLocked(p)
		e.mu.Unlock()
		suppress(ev)
		return true
	}

	e.mu.Unlock()
	return false
}

// armTimerLocked arms the per-step timer if the shortcut declares a
// sequence timeout. Absence means wait indefinitely.
func (e *Engine) armTimerLocked(p *pending) {
	if p.timeout <= 0 {
		return
	}

	e.genSeq++
	p.gen = e.genSeq
	gen := p.gen
	p.timer = time.AfterFunc(p.timeout, func() {
		e.expirePending(gen)
	})
}

// expirePending resets a timed-out sequence to idle, but only if it is
// still the same pending instance the timer was armed for.
func (e *Engine) expirePending(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil || e.pending.gen != gen {
		return
	}
	e.logger.Debug("sequence step timed out", "shortcut", e.pending.id, "step", e.pending.step)
	e.pending = nil
}

// cancelPendingLocked stops the timer and returns to idle.
func (e *Engine) cancelPendingLocked() {
	if e.pending == nil {
		return
	}
	stopTimer(e.pending)
	e.pending = nil
}

func stopTimer(p *pending) {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
