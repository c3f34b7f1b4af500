package shortcut

// Snapshot is an immutable, versioned view of registry state, recomputed
// after every mutating call or exactly once at the end of a BatchUpdate.
// Dispatch never mutates registry state, so matching a shortcut does not
// produce a new snapshot.
type Snapshot struct {
	// Version increments with each recomputation.
	Version uint64

	// Active lists active shortcut definitions in registration order.
	Active []Definition

	// Inactive lists registered but inactive definitions.
	Inactive []Definition

	// All lists every registered definition.
	All []Definition

	// ActiveGroups and InactiveGroups list group ids in registration order.
	ActiveGroups   []string
	InactiveGroups []string
}

// Observer is called with each new snapshot.
type Observer func(Snapshot)

// Subscription represents an active snapshot subscription.
type Subscription struct {
	id       uint64
	registry *Registry
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.registry == nil {
		return
	}
	s.registry.mu.Lock()
	delete(s.registry.observers, s.id)
	s.registry.mu.Unlock()
}

// Subscribe registers an observer for snapshot changes. The observer is
// invoked outside registry locks, so it may call back into the registry.
func (r *Registry) Subscribe(obs Observer) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextObsID
	r.nextObsID++
	r.observers[id] = obs

	return &Subscription{id: id, registry: r}
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Version returns the current snapshot version.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Version
}

// commitLocked recomputes the snapshot unless a batch is in flight, in
// which case the work is deferred to the end of the batch. It returns the
// new snapshot and the observers to notify; delivery happens outside the
// lock via deliver.
func (r *Registry) commitLocked() (Snapshot, []Observer, bool) {
	if r.batchDepth > 0 {
		r.dirty = true
		return Snapshot{}, nil, false
	}

	r.version++
	r.current = r.buildSnapshotLocked()
	r.current.Version = r.version

	obs := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		obs = append(obs, o)
	}
	return r.current, obs, true
}

// buildSnapshotLocked assembles a snapshot from current state.
func (r *Registry) buildSnapshotLocked() Snapshot {
	snap := Snapshot{
		Active:   make([]Definition, 0, len(r.active)),
		Inactive: make([]Definition, 0, len(r.order)-len(r.active)),
		All:      make([]Definition, 0, len(r.order)),
	}

	for _, id := range r.order {
		def := r.defs[id].def
		snap.All = append(snap.All, def)
		if _, ok := r.active[id]; ok {
			snap.Active = append(snap.Active, def)
		} else {
			snap.Inactive = append(snap.Inactive, def)
		}
	}

	for _, id := range r.gorder {
		if _, ok := r.activeGroups[id]; ok {
			snap.ActiveGroups = append(snap.ActiveGroups, id)
		} else {
			snap.InactiveGroups = append(snap.InactiveGroups, id)
		}
	}

	return snap
}

// deliver invokes observers with a committed snapshot.
func deliver(snap Snapshot, obs []Observer, changed bool) {
	if !changed {
		return
	}
	for _, o := range obs {
		o(snap)
	}
}
