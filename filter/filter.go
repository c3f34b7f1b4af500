// Package filter provides the predicate layers that gate shortcut dispatch.
//
// Three layers apply, all of which must pass for a shortcut to execute:
//
//  1. Global filters: a named, unordered set evaluated as a logical AND
//     once per event with early exit.
//  2. The filter on the shortcut's owning group, if any.
//  3. The shortcut's own filter, if any.
//
// Absence of a filter at any layer is equivalent to "pass".
package filter

import (
	"sort"
	"sync"

	"github.com/mrivasperez/ngx-keys-sub000/key"
)

// Func is a predicate over a key event. Returning false blocks dispatch
// at that layer.
type Func func(ev key.Event) bool

// Registry holds the named global filters.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Func
}

// NewRegistry creates an empty filter registry.
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]Func),
	}
}

// Add registers a global filter under a name. A nil predicate is ignored.
// Re-adding a name replaces the previous predicate.
func (r *Registry) Add(name string, f Func) {
	if f == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = f
}

// Remove deletes a global filter by name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.filters, name)
}

// Clear removes all global filters.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = make(map[string]Func)
}

// Has returns true if a global filter with the name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.filters[name]
	return ok
}

// Names returns the registered filter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered global filters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}

// Passes evaluates every global filter against the event, returning false
// as soon as any filter rejects it.
func (r *Registry) Passes(ev key.Event) bool {
	r.mu.RLock()
	fns := make([]Func, 0, len(r.filters))
	for _, f := range r.filters {
		fns = append(fns, f)
	}
	r.mu.RUnlock()

	// Predicates run outside the lock; they may consult arbitrary host state.
	for _, f := range fns {
		if !f(ev) {
			return false
		}
	}
	return true
}

// Blocked evaluates a map of group id to group filter once per event and
// returns the set of group ids whose filter rejected the event. Groups
// without a filter never appear in the result.
func Blocked(groupFilters map[string]Func, ev key.Event) map[string]bool {
	if len(groupFilters) == 0 {
		return nil
	}

	blocked := make(map[string]bool)
	for id, f := range groupFilters {
		if f != nil && !f(ev) {
			blocked[id] = true
		}
	}
	return blocked
}
