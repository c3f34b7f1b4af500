package shortcut

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noop() {}

func TestRegisterAndQuery(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("save", "ctrl+s", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !r.IsRegistered("save") {
		t.Error("save should be registered")
	}
	if !r.IsActive("save") {
		t.Error("save should be active after registration")
	}
	if r.IsRegistered("other") {
		t.Error("other should not be registered")
	}
}

func TestRegisterInvalid(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		def  Definition
	}{
		{name: "empty id", def: New("", "ctrl+s", noop)},
		{name: "nil action", def: New("x", "ctrl+s", nil)},
		{name: "empty keys", def: New("x", "", noop)},
		{name: "bad keys", def: New("x", "ctrl+", noop)},
		{name: "bad secondary", def: New("x", "ctrl+s", noop).WithSecondaryKeys("+")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.def)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("Register() error = %v, want ErrInvalidDefinition", err)
			}
		})
	}

	if len(r.Definitions()) != 0 {
		t.Error("failed registrations must not mutate the registry")
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("save", "ctrl+s", noop)); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	err := r.Register(New("save", "ctrl+q", noop))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second Register() error = %v, want ErrDuplicateID", err)
	}

	// Registry unchanged: the original keys still win.
	steps, ok := r.StepsFor("save", PlatformPrimary)
	if !ok || steps[0].String() != "ctrl+s" {
		t.Error("failed registration must not replace the original definition")
	}
	if len(r.Definitions()) != 1 {
		t.Errorf("Definitions() = %d, want 1", len(r.Definitions()))
	}
}

func TestRegisterActiveKeyConflict(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("a", "ctrl+k", noop)); err != nil {
		t.Fatalf("Register(a) error = %v", err)
	}

	err := r.Register(New("b", "ctrl+k", noop))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Register(b) error = %v, want ConflictError", err)
	}
	if len(conflict.With) != 1 || conflict.With[0] != "a" {
		t.Errorf("conflict.With = %v, want [a]", conflict.With)
	}
	if conflict.Activation {
		t.Error("registration conflict should not be flagged as activation")
	}
	if r.IsRegistered("b") {
		t.Error("conflicting registration must not insert")
	}

	// Deactivating the holder frees the keys.
	if err := r.Deactivate("a"); err != nil {
		t.Fatalf("Deactivate(a) error = %v", err)
	}
	if err := r.Register(New("b", "ctrl+k", noop)); err != nil {
		t.Errorf("Register(b) after deactivation error = %v", err)
	}
}

func TestConflictAcrossVariants(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("a", "ctrl+k", noop).WithSecondaryKeys("meta+k")); err != nil {
		t.Fatalf("Register(a) error = %v", err)
	}

	// Collides with a's secondary variant.
	err := r.Register(New("b", "meta+k", noop))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Register(b) error = %v, want ErrConflict", err)
	}
}

func TestSequenceConflict(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("seq", "ctrl+k s", noop)); err != nil {
		t.Fatalf("Register(seq) error = %v", err)
	}

	// Identical sequence collides.
	if err := r.Register(New("seq2", "ctrl+k s", noop)); !errors.Is(err, ErrConflict) {
		t.Errorf("identical sequence error = %v, want ErrConflict", err)
	}

	// A single step equal to the sequence prefix does not: the idle scan's
	// first-match rule arbitrates that case.
	if err := r.Register(New("prefix", "ctrl+k", noop)); err != nil {
		t.Errorf("prefix registration error = %v", err)
	}
}

func TestActivationConflict(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("b", "escape", noop)); err != nil {
		t.Fatalf("Register(b) error = %v", err)
	}
	if err := r.Deactivate("b"); err != nil {
		t.Fatalf("Deactivate(b) error = %v", err)
	}
	// Keys freed, so a second claimer registers fine.
	if err := r.Register(New("a", "escape", noop)); err != nil {
		t.Fatalf("Register(a) error = %v", err)
	}

	err := r.Activate("b")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Activate(b) error = %v, want ConflictError", err)
	}
	if !conflict.Activation {
		t.Error("activation conflict should be flagged")
	}
	if r.IsActive("b") {
		t.Error("b must stay inactive after failed activation")
	}
	if !r.IsActive("a") {
		t.Error("a must stay active after failed activation of b")
	}
}

func TestActivateIdempotent(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("a", "ctrl+k", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Activate("a"); err != nil {
		t.Errorf("Activate() of already-active shortcut error = %v", err)
	}
}

func TestNotFound(t *testing.T) {
	r := NewRegistry()

	calls := []struct {
		name string
		fn   func() error
	}{
		{"Unregister", func() error { return r.Unregister("x") }},
		{"UnregisterGroup", func() error { return r.UnregisterGroup("x") }},
		{"Activate", func() error { return r.Activate("x") }},
		{"Deactivate", func() error { return r.Deactivate("x") }},
		{"ActivateGroup", func() error { return r.ActivateGroup("x") }},
		{"DeactivateGroup", func() error { return r.DeactivateGroup("x") }},
		{"SetShortcutFilter", func() error { return r.SetShortcutFilter("x", nil) }},
		{"SetGroupFilter", func() error { return r.SetGroupFilter("x", nil) }},
	}

	for _, tt := range calls {
		if err := tt.fn(); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s on unknown id error = %v, want ErrNotFound", tt.name, err)
		}
	}
}

func TestRegisterGroup(t *testing.T) {
	r := NewRegistry()

	id, err := r.RegisterGroup("nav", []Definition{
		New("up", "k", noop),
		New("down", "j", noop),
	})
	if err != nil {
		t.Fatalf("RegisterGroup() error = %v", err)
	}
	if id != "nav" {
		t.Errorf("group id = %q, want %q", id, "nav")
	}

	if !r.IsGroupRegistered("nav") || !r.IsGroupActive("nav") {
		t.Error("group should be registered and active")
	}
	for _, sid := range []string{"up", "down"} {
		if !r.IsActive(sid) {
			t.Errorf("%s should be active", sid)
		}
		if gid, ok := r.GroupOf(sid); !ok || gid != "nav" {
			t.Errorf("GroupOf(%s) = %q, %v, want nav", sid, gid, ok)
		}
	}
}

func TestRegisterGroupGeneratedID(t *testing.T) {
	r := NewRegistry()

	id, err := r.RegisterGroup("", []Definition{New("x", "x", noop)})
	if err != nil {
		t.Fatalf("RegisterGroup() error = %v", err)
	}
	if id == "" {
		t.Error("empty group id should be generated")
	}
	if !r.IsGroupRegistered(id) {
		t.Error("generated group id should be registered")
	}
}

func TestRegisterGroupDuplicateGroupID(t *testing.T) {
	r := NewRegistry()

	if _, err := r.RegisterGroup("g", []Definition{New("a", "a", noop)}); err != nil {
		t.Fatalf("first RegisterGroup() error = %v", err)
	}
	_, err := r.RegisterGroup("g", []Definition{New("b", "b", noop)})
	if !errors.Is(err, ErrDuplicateGroupID) {
		t.Errorf("second RegisterGroup() error = %v, want ErrDuplicateGroupID", err)
	}
	if r.IsRegistered("b") {
		t.Error("rejected batch must not insert members")
	}
}

func TestRegisterGroupBatchValidation(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("taken", "ctrl+t", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := r.RegisterGroup("g", []Definition{
		New("taken", "x", noop),         // id exists elsewhere
		New("dup", "y", noop),           //
		New("dup", "z", noop),           // duplicated within batch
		New("clash", "ctrl+t s", noop),  //
		New("clash2", "ctrl+t s", noop), // collides with clash inside the batch
	})

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("RegisterGroup() error = %v, want BatchError", err)
	}

	if len(batchErr.AlreadyRegistered) != 1 || batchErr.AlreadyRegistered[0] != "taken" {
		t.Errorf("AlreadyRegistered = %v, want [taken]", batchErr.AlreadyRegistered)
	}
	if len(batchErr.DuplicateIDs) != 1 || batchErr.DuplicateIDs[0] != "dup" {
		t.Errorf("DuplicateIDs = %v, want [dup]", batchErr.DuplicateIDs)
	}
	if len(batchErr.Conflicts) != 2 {
		t.Errorf("Conflicts = %d entries, want 2 (both batch members)", len(batchErr.Conflicts))
	}

	// Nothing inserted.
	for _, id := range []string{"dup", "clash", "clash2"} {
		if r.IsRegistered(id) {
			t.Errorf("%s must not be inserted by a rejected batch", id)
		}
	}
	if r.IsGroupRegistered("g") {
		t.Error("rejected group must not be inserted")
	}
	if !errors.Is(err, ErrDuplicateID) || !errors.Is(err, ErrConflict) {
		t.Error("BatchError should match both sentinel kinds it contains")
	}
}

func TestRegisterGroupKeyConflictWithActive(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("holder", "ctrl+k", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := r.RegisterGroup("g", []Definition{New("claimer", "ctrl+k", noop)})
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("RegisterGroup() error = %v, want BatchError", err)
	}
	if len(batchErr.Conflicts) != 1 || batchErr.Conflicts[0].With[0] != "holder" {
		t.Errorf("Conflicts = %+v, want claimer vs holder", batchErr.Conflicts)
	}
}

func TestUnregisterGroup(t *testing.T) {
	r := NewRegistry()

	if _, err := r.RegisterGroup("g", []Definition{
		New("a", "a", noop),
		New("b", "b", noop),
	}); err != nil {
		t.Fatalf("RegisterGroup() error = %v", err)
	}

	if err := r.UnregisterGroup("g"); err != nil {
		t.Fatalf("UnregisterGroup() error = %v", err)
	}

	if r.IsGroupRegistered("g") {
		t.Error("group should be gone")
	}
	for _, id := range []string{"a", "b"} {
		if r.IsRegistered(id) {
			t.Errorf("%s should be unregistered with its group", id)
		}
	}
}

func TestGroupActivation(t *testing.T) {
	r := NewRegistry()

	if _, err := r.RegisterGroup("g", []Definition{New("a", "escape", noop)}); err != nil {
		t.Fatalf("RegisterGroup() error = %v", err)
	}
	if err := r.DeactivateGroup("g"); err != nil {
		t.Fatalf("DeactivateGroup() error = %v", err)
	}
	if r.IsGroupActive("g") || r.IsActive("a") {
		t.Fatal("group and members should be inactive")
	}

	// Another shortcut claims the keys while g is off.
	if err := r.Register(New("other", "escape", noop)); err != nil {
		t.Fatalf("Register(other) error = %v", err)
	}

	err := r.ActivateGroup("g")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("ActivateGroup() error = %v, want ConflictError", err)
	}
	if r.IsGroupActive("g") || r.IsActive("a") {
		t.Error("failed group activation must not change state")
	}

	// Freeing the keys lets the group activate.
	if err := r.Deactivate("other"); err != nil {
		t.Fatalf("Deactivate(other) error = %v", err)
	}
	if err := r.ActivateGroup("g"); err != nil {
		t.Fatalf("ActivateGroup() retry error = %v", err)
	}
	if !r.IsGroupActive("g") || !r.IsActive("a") {
		t.Error("group and members should be active")
	}
}

func TestSnapshotVersioning(t *testing.T) {
	r := NewRegistry()
	start := r.Version()

	if err := r.Register(New("a", "a", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := r.Version(); got != start+1 {
		t.Errorf("Version() = %d, want %d", got, start+1)
	}

	snap := r.Snapshot()
	if len(snap.Active) != 1 || snap.Active[0].ID != "a" {
		t.Errorf("snapshot Active = %+v, want [a]", snap.Active)
	}
	if len(snap.All) != 1 || len(snap.Inactive) != 0 {
		t.Error("snapshot All/Inactive mismatch")
	}

	if err := r.Deactivate("a"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	snap = r.Snapshot()
	if len(snap.Active) != 0 || len(snap.Inactive) != 1 {
		t.Error("snapshot should move a to Inactive")
	}
}

func TestSnapshotObserver(t *testing.T) {
	r := NewRegistry()

	var got []uint64
	sub := r.Subscribe(func(s Snapshot) {
		got = append(got, s.Version)
	})

	if err := r.Register(New("a", "a", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(New("b", "b", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("observer called %d times, want 2", len(got))
	}

	sub.Unsubscribe()
	if err := r.Register(New("c", "c", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(got) != 2 {
		t.Error("observer called after Unsubscribe")
	}
}

func TestBatchUpdate(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Subscribe(func(Snapshot) { calls++ })

	before := r.Version()
	r.BatchUpdate(func() {
		_ = r.Register(New("a", "a", noop))
		_ = r.Register(New("b", "b", noop))
		_ = r.Register(New("c", "c", noop))
	})

	if calls != 1 {
		t.Errorf("observer called %d times during batch, want 1", calls)
	}
	if got := r.Version(); got != before+1 {
		t.Errorf("Version() = %d, want %d (single recompute)", got, before+1)
	}
	if len(r.Snapshot().All) != 3 {
		t.Errorf("snapshot All = %d, want 3", len(r.Snapshot().All))
	}
}

func TestBatchUpdateWithoutMutation(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Subscribe(func(Snapshot) { calls++ })

	r.BatchUpdate(func() {})
	if calls != 0 {
		t.Error("empty batch should not publish a snapshot")
	}
}

func TestBatchUpdateUnwindsOnPanic(t *testing.T) {
	r := NewRegistry()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic did not propagate out of BatchUpdate")
			}
		}()
		r.BatchUpdate(func() {
			_ = r.Register(New("a", "a", noop))
			panic("boom")
		})
	}()

	// The aborted batch still publishes its partial work once.
	if len(r.Snapshot().All) != 1 {
		t.Fatalf("snapshot All = %d after panicking batch, want 1", len(r.Snapshot().All))
	}

	// Later mutations publish normally instead of deferring forever.
	before := r.Version()
	if err := r.Register(New("b", "b", noop)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := r.Version(); got != before+1 {
		t.Errorf("Version() = %d after batch panic, want %d", got, before+1)
	}
	if len(r.Snapshot().All) != 2 {
		t.Errorf("snapshot All = %d, want 2", len(r.Snapshot().All))
	}
}

func TestLifetimeUnregisters(t *testing.T) {
	r := NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Register(New("tmp", "ctrl+t", noop).WithLifetime(ctx)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	cancel()
	waitFor(t, func() bool { return !r.IsRegistered("tmp") })

	// Manual unregister after the handle fired observes NotFound.
	if err := r.Unregister("tmp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unregister() after lifetime fired error = %v, want ErrNotFound", err)
	}
}

func TestStaleLifetimeIgnored(t *testing.T) {
	r := NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Register(New("x", "ctrl+x", noop).WithLifetime(ctx)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Unregister("x"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	// Re-register under the same id, then fire the stale handle.
	if err := r.Register(New("x", "ctrl+x", noop)); err != nil {
		t.Fatalf("re-Register() error = %v", err)
	}
	cancel()

	time.Sleep(50 * time.Millisecond)
	if !r.IsRegistered("x") {
		t.Error("stale lifetime signal must not remove the re-registered shortcut")
	}
}

func TestDefinitionsOrdered(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"c", "a", "b"} {
		if err := r.Register(New(id, id, noop)); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}

	defs := r.Definitions()
	want := []string{"c", "a", "b"}
	for i, def := range defs {
		if def.ID != want[i] {
			t.Errorf("Definitions()[%d] = %q, want %q (registration order)", i, def.ID, want[i])
		}
	}
}

func TestStepsForPlatform(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(New("s", "ctrl+k", noop).WithSecondaryKeys("meta+k")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	steps, _ := r.StepsFor("s", PlatformPrimary)
	if steps[0].String() != "ctrl+k" {
		t.Errorf("primary steps = %v, want ctrl+k", steps[0].String())
	}
	steps, _ = r.StepsFor("s", PlatformSecondary)
	if steps[0].String() != "meta+k" {
		t.Errorf("secondary steps = %v, want meta+k", steps[0].String())
	}

	// Fallback when no secondary variant is declared.
	if err := r.Register(New("p", "ctrl+p", noop)); err != nil {
		t.Fatalf("Register(p) error = %v", err)
	}
	steps, _ = r.StepsFor("p", PlatformSecondary)
	if steps[0].String() != "ctrl+p" {
		t.Errorf("fallback steps = %v, want ctrl+p", steps[0].String())
	}
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
