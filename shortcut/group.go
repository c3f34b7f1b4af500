package shortcut

import "github.com/mrivasperez/ngx-keys-sub000/filter"

// Group is an ordered batch of shortcuts registered together. A shortcut
// belongs to at most one group; membership is established only through
// RegisterGroup, never after the fact.
type Group struct {
	// ID is the unique group identifier.
	ID string

	// Members lists member shortcut ids in registration order.
	Members []string

	// Filter is the optional group-level filter.
	Filter filter.Func
}

// clone returns a copy with its own member slice.
func (g *Group) clone() Group {
	members := make([]string, len(g.Members))
	copy(members, g.Members)
	return Group{
		ID:      g.ID,
		Members: members,
		Filter:  g.Filter,
	}
}

// GroupOption configures group registration.
type GroupOption func(*Group)

// WithGroupFilter attaches a group-level filter.
func WithGroupFilter(f filter.Func) GroupOption {
	return func(g *Group) {
		g.Filter = f
	}
}
