package shortcut

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors
var (
	// ErrNotFound is returned when operating on an unknown shortcut or
	// group id.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when registering a shortcut id that
	// already exists anywhere in the registry.
	ErrDuplicateID = errors.New("duplicate shortcut id")

	// ErrDuplicateGroupID is returned when registering a group id that
	// already exists.
	ErrDuplicateGroupID = errors.New("duplicate group id")

	// ErrConflict is the base error for key collisions with the active set.
	ErrConflict = errors.New("key conflict with active shortcut")

	// ErrInvalidDefinition is returned for structurally invalid
	// definitions (empty id, unparseable keys, missing action).
	ErrInvalidDefinition = errors.New("invalid shortcut definition")
)

// ConflictError reports a key collision between a shortcut and one or more
// currently active shortcuts.
type ConflictError struct {
	// ID is the shortcut being registered or activated.
	ID string

	// With lists the active shortcut ids it collides with.
	With []string

	// Activation is true when the collision was detected during
	// activation rather than registration.
	Activation bool
}

func (e *ConflictError) Error() string {
	verb := "registering"
	if e.Activation {
		verb = "activating"
	}
	return fmt.Sprintf("%s %q: keys conflict with active shortcut(s): %s",
		verb, e.ID, strings.Join(e.With, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// BatchError reports every violation found while validating a group
// registration. The whole batch is rejected; nothing is inserted.
type BatchError struct {
	// GroupID is the group being registered.
	GroupID string

	// AlreadyRegistered lists batch ids that exist elsewhere in the
	// registry.
	AlreadyRegistered []string

	// DuplicateIDs lists ids that appear more than once within the batch.
	DuplicateIDs []string

	// Conflicts lists key collisions against the active set or between
	// batch members.
	Conflicts []*ConflictError
}

func (e *BatchError) Error() string {
	var parts []string
	if len(e.AlreadyRegistered) > 0 {
		parts = append(parts, "ids already registered: "+strings.Join(e.AlreadyRegistered, ", "))
	}
	if len(e.DuplicateIDs) > 0 {
		parts = append(parts, "duplicate ids within batch: "+strings.Join(e.DuplicateIDs, ", "))
	}
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%q conflicts with: %s", c.ID, strings.Join(c.With, ", ")))
	}
	return fmt.Sprintf("registering group %q: %s", e.GroupID, strings.Join(parts, "; "))
}

// Is lets callers test a BatchError against the sentinel for the violation
// kinds it contains.
func (e *BatchError) Is(target error) bool {
	switch target {
	case ErrDuplicateID:
		return len(e.AlreadyRegistered) > 0 || len(e.DuplicateIDs) > 0
	case ErrConflict:
		return len(e.Conflicts) > 0
	}
	return false
}

// notFound wraps ErrNotFound with the kind and id.
func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}
