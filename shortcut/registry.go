package shortcut

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mrivasperez/ngx-keys-sub000/filter"
	"github.com/mrivasperez/ngx-keys-sub000/key"
)

// Registry is the single source of truth for shortcut and group state.
// All mutating calls are synchronous and all-or-nothing; a validation
// failure leaves the registry exactly as it was.
//
// A Registry instance owns all of its definitions. Multiple independent
// instances can coexist; there is no shared global state.
type Registry struct {
	mu sync.RWMutex

	defs   map[string]*entry
	order  []string // shortcut ids in registration order
	groups map[string]*Group
	gorder []string // group ids in registration order

	active       map[string]struct{}
	activeGroups map[string]struct{}
	groupOf      map[string]string // shortcut id -> owning group id

	// Snapshot publication
	version    uint64
	current    Snapshot
	observers  map[uint64]Observer
	nextObsID  uint64
	batchDepth int
	dirty      bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		defs:         make(map[string]*entry),
		groups:       make(map[string]*Group),
		active:       make(map[string]struct{}),
		activeGroups: make(map[string]struct{}),
		groupOf:      make(map[string]string),
		observers:    make(map[uint64]Observer),
	}
	r.current = r.buildSnapshotLocked()
	return r
}

// Register adds a shortcut definition and activates it.
//
// It fails with ErrDuplicateID if the id already exists anywhere in the
// registry, and with a ConflictError if the definition's keys collide
// with a currently active shortcut.
func (r *Registry) Register(def Definition) error {
	e, err := newEntry(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.defs[def.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateID, def.ID)
	}
	if with := r.activeConflictsLocked(e, nil); len(with) > 0 {
		r.mu.Unlock()
		return &ConflictError{ID: def.ID, With: with}
	}

	r.insertLocked(e, "")
	r.active[def.ID] = struct{}{}
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	r.watchLifetime(e)
	deliver(snap, obs, changed)
	return nil
}

// RegisterGroup adds a batch of definitions as a group and activates them
// together. An empty groupID generates one. The returned id is the
// effective group id.
//
// Validation happens before any mutation: duplicate group id, ids already
// registered, ids duplicated within the batch, and key conflicts are all
// collected, and any violation rejects the entire batch.
func (r *Registry) RegisterGroup(groupID string, defs []Definition, opts ...GroupOption) (string, error) {
	if groupID == "" {
		groupID = uuid.NewString()
	}

	entries := make([]*entry, 0, len(defs))
	for _, def := range defs {
		e, err := newEntry(def)
		if err != nil {
			return "", err
		}
		entries = append(entries, e)
	}

	g := &Group{ID: groupID}
	for _, opt := range opts {
		opt(g)
	}

	r.mu.Lock()
	if _, exists := r.groups[groupID]; exists {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrDuplicateGroupID, groupID)
	}

	if batchErr := r.validateBatchLocked(groupID, entries); batchErr != nil {
		r.mu.Unlock()
		return "", batchErr
	}

	for _, e := range entries {
		r.insertLocked(e, groupID)
		r.active[e.def.ID] = struct{}{}
		g.Members = append(g.Members, e.def.ID)
	}
	r.groups[groupID] = g
	r.gorder = append(r.gorder, groupID)
	r.activeGroups[groupID] = struct{}{}

	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	for _, e := range entries {
		r.watchLifetime(e)
	}
	deliver(snap, obs, changed)
	return groupID, nil
}

// validateBatchLocked collects every violation in a group batch.
// Returns nil when the batch is clean.
func (r *Registry) validateBatchLocked(groupID string, entries []*entry) *BatchError {
	batchErr := &BatchError{GroupID: groupID}

	seen := make(map[string]bool, len(entries))
	dupSeen := make(map[string]bool)
	for _, e := range entries {
		id := e.def.ID
		if _, exists := r.defs[id]; exists {
			batchErr.AlreadyRegistered = append(batchErr.AlreadyRegistered, id)
		}
		if seen[id] && !dupSeen[id] {
			batchErr.DuplicateIDs = append(batchErr.DuplicateIDs, id)
			dupSeen[id] = true
		}
		seen[id] = true
	}

	for i, e := range entries {
		with := r.activeConflictsLocked(e, nil)
		// A batch activates as a unit, so members colliding with each
		// other are reported too.
		for j, other := range entries {
			if i != j && e.def.ID != other.def.ID && e.collidesWith(other) {
				with = append(with, other.def.ID)
			}
		}
		if len(with) > 0 {
			batchErr.Conflicts = append(batchErr.Conflicts, &ConflictError{ID: e.def.ID, With: with})
		}
	}

	if len(batchErr.AlreadyRegistered) > 0 || len(batchErr.DuplicateIDs) > 0 || len(batchErr.Conflicts) > 0 {
		return batchErr
	}
	return nil
}

// Unregister removes a shortcut from the registry.
// Fails with ErrNotFound if the id is unknown.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	e, ok := r.defs[id]
	if !ok {
		r.mu.Unlock()
		return notFound("shortcut", id)
	}

	r.removeLocked(e)
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// UnregisterGroup removes a group and all of its members.
// Fails with ErrNotFound if the group id is unknown.
func (r *Registry) UnregisterGroup(id string) error {
	r.mu.Lock()
	g, ok := r.groups[id]
	if !ok {
		r.mu.Unlock()
		return notFound("group", id)
	}

	// removeLocked edits g.Members, so iterate a copy.
	members := append([]string(nil), g.Members...)
	for _, member := range members {
		if e, ok := r.defs[member]; ok {
			r.removeLocked(e)
		}
	}
	delete(r.groups, id)
	delete(r.activeGroups, id)
	r.gorder = removeString(r.gorder, id)

	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// Activate adds a shortcut to the active set.
//
// The same conflict check as registration runs first: a shortcut may have
// been registered while inactive specifically to reuse keys claimed by
// something currently active, so flipping it on must not introduce a
// collision. On conflict the activation state is left unchanged.
func (r *Registry) Activate(id string) error {
	r.mu.Lock()
	e, ok := r.defs[id]
	if !ok {
		r.mu.Unlock()
		return notFound("shortcut", id)
	}
	if _, isActive := r.active[id]; isActive {
		r.mu.Unlock()
		return nil
	}
	if with := r.activeConflictsLocked(e, nil); len(with) > 0 {
		r.mu.Unlock()
		return &ConflictError{ID: id, With: with, Activation: true}
	}

	r.active[id] = struct{}{}
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// Deactivate removes a shortcut from the active set. Removing from the
// active set can never create a conflict, so only ErrNotFound applies.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	if _, ok := r.defs[id]; !ok {
		r.mu.Unlock()
		return notFound("shortcut", id)
	}

	delete(r.active, id)
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// ActivateGroup activates a group and all of its members, with the same
// conflict check as Activate applied to every member. Collisions are
// collected across the whole group and reported together; on conflict no
// activation state changes.
func (r *Registry) ActivateGroup(id string) error {
	r.mu.Lock()
	g, ok := r.groups[id]
	if !ok {
		r.mu.Unlock()
		return notFound("group", id)
	}

	// Members being activated are excluded from the comparison set.
	activating := make(map[string]bool, len(g.Members))
	for _, member := range g.Members {
		activating[member] = true
	}

	var all []string
	for _, member := range g.Members {
		e, ok := r.defs[member]
		if !ok {
			continue
		}
		if with := r.activeConflictsLocked(e, activating); len(with) > 0 {
			all = append(all, with...)
		}
	}
	if len(all) > 0 {
		r.mu.Unlock()
		return &ConflictError{ID: id, With: dedupe(all), Activation: true}
	}

	for _, member := range g.Members {
		r.active[member] = struct{}{}
	}
	r.activeGroups[id] = struct{}{}

	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// DeactivateGroup deactivates a group and all of its members.
func (r *Registry) DeactivateGroup(id string) error {
	r.mu.Lock()
	g, ok := r.groups[id]
	if !ok {
		r.mu.Unlock()
		return notFound("group", id)
	}

	for _, member := range g.Members {
		delete(r.active, member)
	}
	delete(r.activeGroups, id)

	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// SetShortcutFilter attaches (or, with nil, detaches) a per-shortcut filter.
func (r *Registry) SetShortcutFilter(id string, f filter.Func) error {
	r.mu.Lock()
	e, ok := r.defs[id]
	if !ok {
		r.mu.Unlock()
		return notFound("shortcut", id)
	}

	e.def.Filter = f
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// SetGroupFilter attaches (or, with nil, detaches) a group-level filter.
func (r *Registry) SetGroupFilter(id string, f filter.Func) error {
	r.mu.Lock()
	g, ok := r.groups[id]
	if !ok {
		r.mu.Unlock()
		return notFound("group", id)
	}

	g.Filter = f
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
	return nil
}

// BatchUpdate runs fn, suppressing snapshot recomputation until it
// returns; the snapshot is then recomputed exactly once. Batches nest.
func (r *Registry) BatchUpdate(fn func()) {
	r.mu.Lock()
	r.batchDepth++
	r.mu.Unlock()

	// The batch must unwind even if fn panics, or every later commit
	// would stay deferred into a batch that never ends.
	defer func() {
		r.mu.Lock()
		r.batchDepth--
		var snap Snapshot
		var obs []Observer
		changed := false
		if r.batchDepth == 0 && r.dirty {
			r.dirty = false
			snap, obs, changed = r.commitLocked()
		}
		r.mu.Unlock()

		deliver(snap, obs, changed)
	}()

	fn()
}

// IsRegistered returns true if a shortcut with the id exists.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// IsActive returns true if the shortcut is in the active set.
func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.active[id]
	return ok
}

// IsGroupRegistered returns true if a group with the id exists.
func (r *Registry) IsGroupRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.groups[id]
	return ok
}

// IsGroupActive returns true if the group is active.
func (r *Registry) IsGroupActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.activeGroups[id]
	return ok
}

// DefinitionOf returns a copy of a registered definition.
func (r *Registry) DefinitionOf(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.defs[id]
	if !ok {
		return Definition{}, false
	}
	return e.def, true
}

// Definitions returns copies of all definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.defs[id].def)
	}
	return defs
}

// Groups returns copies of all groups in registration order.
func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]Group, 0, len(r.gorder))
	for _, id := range r.gorder {
		groups = append(groups, r.groups[id].clone())
	}
	return groups
}

// GroupOf returns the owning group id of a shortcut, if any.
func (r *Registry) GroupOf(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gid, ok := r.groupOf[id]
	return gid, ok
}

// ActiveIDs returns the active shortcut ids in registration order. The
// result is a fresh slice, safe to iterate while actions mutate the
// registry mid-scan.
func (r *Registry) ActiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.active))
	for _, id := range r.order {
		if _, ok := r.active[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ActiveGroupFilters returns the filters of active groups that declare
// one, keyed by group id. Used to precompute the blocked-group set once
// per event.
func (r *Registry) ActiveGroupFilters() map[string]filter.Func {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filters map[string]filter.Func
	for id := range r.activeGroups {
		g := r.groups[id]
		if g == nil || g.Filter == nil {
			continue
		}
		if filters == nil {
			filters = make(map[string]filter.Func)
		}
		filters[id] = g.Filter
	}
	return filters
}

// StepsFor returns the platform-selected step sequence of a shortcut.
func (r *Registry) StepsFor(id string, p Platform) ([]key.Set, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.defs[id]
	if !ok {
		return nil, false
	}
	return e.stepsFor(p), true
}

// insertLocked stores an entry and indexes its group membership.
func (r *Registry) insertLocked(e *entry, groupID string) {
	r.defs[e.def.ID] = e
	r.order = append(r.order, e.def.ID)
	if groupID != "" {
		r.groupOf[e.def.ID] = groupID
	}
}

// removeLocked deletes an entry from every map and set and releases its
// lifetime goroutine.
func (r *Registry) removeLocked(e *entry) {
	id := e.def.ID
	delete(r.defs, id)
	delete(r.active, id)
	r.order = removeString(r.order, id)

	if gid, ok := r.groupOf[id]; ok {
		delete(r.groupOf, id)
		if g, ok := r.groups[gid]; ok {
			g.Members = removeString(g.Members, id)
		}
	}

	close(e.done)
}

// activeConflictsLocked returns the ids of active shortcuts whose keys
// collide with the candidate entry. Ids in the exclude set (and the
// candidate itself) are skipped.
func (r *Registry) activeConflictsLocked(e *entry, exclude map[string]bool) []string {
	var with []string
	for _, id := range r.order {
		if id == e.def.ID || exclude[id] {
			continue
		}
		if _, isActive := r.active[id]; !isActive {
			continue
		}
		if e.collidesWith(r.defs[id]) {
			with = append(with, id)
		}
	}
	return with
}

// watchLifetime wires the definition's lifetime handle to unregistration.
// The goroutine exits when either the handle fires or the entry is removed
// first; a handle firing after manual removal is a no-op.
func (r *Registry) watchLifetime(e *entry) {
	if e.def.Until == nil {
		return
	}

	go func() {
		select {
		case <-e.def.Until.Done():
			r.removeIfCurrent(e)
		case <-e.done:
		}
	}()
}

// removeIfCurrent unregisters the entry only if it is still the one
// registered under its id, so a stale lifetime signal cannot remove a
// re-registered shortcut.
func (r *Registry) removeIfCurrent(e *entry) {
	r.mu.Lock()
	current, ok := r.defs[e.def.ID]
	if !ok || current != e {
		r.mu.Unlock()
		return
	}

	r.removeLocked(e)
	snap, obs, changed := r.commitLocked()
	r.mu.Unlock()

	deliver(snap, obs, changed)
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	out := s[:0]
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
