package config

import (
	"fmt"
	"time"

	"github.com/mrivasperez/ngx-keys-sub000/filter"
	"github.com/mrivasperez/ngx-keys-sub000/shortcut"
)

// Decl is one declarative shortcut.
type Decl struct {
	ID            string `toml:"id" yaml:"id" json:"id"`
	Keys          string `toml:"keys" yaml:"keys" json:"keys"`
	SecondaryKeys string `toml:"secondary_keys" yaml:"secondary_keys" json:"secondary_keys"`
	Action        string `toml:"action" yaml:"action" json:"action"`
	Description   string `toml:"description" yaml:"description" json:"description"`
	Filter        string `toml:"filter" yaml:"filter" json:"filter"`
	TimeoutMS     int    `toml:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
}

// GroupDecl is a declarative group of shortcuts sharing a filter.
type GroupDecl struct {
	ID        string `toml:"id" yaml:"id" json:"id"`
	Filter    string `toml:"filter" yaml:"filter" json:"filter"`
	Shortcuts []Decl `toml:"shortcut" yaml:"shortcuts" json:"shortcuts"`
}

// File is the decoded form of a config file.
type File struct {
	Shortcuts []Decl      `toml:"shortcut" yaml:"shortcuts" json:"shortcuts"`
	Groups    []GroupDecl `toml:"group" yaml:"groups" json:"groups"`
}

// Resolver binds the symbolic names in a config file to Go functions.
type Resolver struct {
	Actions map[string]func()
	Filters map[string]filter.Func
}

// action resolves a named action.
func (r Resolver) action(id, name string) (func(), error) {
	if name == "" {
		return nil, &ResolveError{ShortcutID: id, Name: name, Err: ErrUnknownAction}
	}
	fn, ok := r.Actions[name]
	if !ok {
		return nil, &ResolveError{ShortcutID: id, Name: name, Err: ErrUnknownAction}
	}
	return fn, nil
}

// filterFunc resolves a named filter. Empty means no filter.
func (r Resolver) filterFunc(id, name string) (filter.Func, error) {
	if name == "" {
		return nil, nil
	}
	fn, ok := r.Filters[name]
	if !ok {
		return nil, &ResolveError{ShortcutID: id, Name: name, Err: ErrUnknownFilter}
	}
	return fn, nil
}

// definition converts a declaration into a registry definition.
func (d Decl) definition(res Resolver) (shortcut.Definition, error) {
	if d.ID == "" {
		return shortcut.Definition{}, ErrMissingID
	}
	if d.Keys == "" {
		return shortcut.Definition{}, fmt.Errorf("shortcut %s: %w", d.ID, ErrMissingKeys)
	}

	action, err := res.action(d.ID, d.Action)
	if err != nil {
		return shortcut.Definition{}, err
	}

	def := shortcut.New(d.ID, d.Keys, action).WithDescription(d.Description)
	if d.SecondaryKeys != "" {
		def = def.WithSecondaryKeys(d.SecondaryKeys)
	}
	if d.TimeoutMS > 0 {
		def = def.WithTimeout(time.Duration(d.TimeoutMS) * time.Millisecond)
	}

	f, err := res.filterFunc(d.ID, d.Filter)
	if err != nil {
		return shortcut.Definition{}, err
	}
	if f != nil {
		def = def.WithFilter(f)
	}
	return def, nil
}

// Applied records what an Apply call installed, so a later reload can
// unregister exactly that.
type Applied struct {
	ShortcutIDs []string
	GroupIDs    []string
}

// Apply registers everything a file declares. Resolution and validation
// run before any mutation, so a file that fails leaves the registry
// untouched. Registration itself runs as a single batch.
func Apply(reg *shortcut.Registry, f *File, res Resolver) (Applied, error) {
	var applied Applied

	defs := make([]shortcut.Definition, 0, len(f.Shortcuts))
	for _, d := range f.Shortcuts {
		def, err := d.definition(res)
		if err != nil {
			return Applied{}, err
		}
		defs = append(defs, def)
	}

	type groupSet struct {
		decl GroupDecl
		defs []shortcut.Definition
		f    filter.Func
	}
	groups := make([]groupSet, 0, len(f.Groups))
	for _, g := range f.Groups {
		gs := groupSet{decl: g}
		for _, d := range g.Shortcuts {
			def, err := d.definition(res)
			if err != nil {
				return Applied{}, err
			}
			gs.defs = append(gs.defs, def)
		}
		if g.Filter != "" {
			fn, ok := res.Filters[g.Filter]
			if !ok {
				return Applied{}, &ResolveError{ShortcutID: g.ID, Name: g.Filter, Err: ErrUnknownFilter}
			}
			gs.f = fn
		}
		groups = append(groups, gs)
	}

	var applyErr error
	reg.BatchUpdate(func() {
		for _, def := range defs {
			if err := reg.Register(def); err != nil {
				applyErr = fmt.Errorf("registering %s: %w", def.ID, err)
				return
			}
			applied.ShortcutIDs = append(applied.ShortcutIDs, def.ID)
		}
		for _, gs := range groups {
			var opts []shortcut.GroupOption
			if gs.f != nil {
				opts = append(opts, shortcut.WithGroupFilter(gs.f))
			}
			id, err := reg.RegisterGroup(gs.decl.ID, gs.defs, opts...)
			if err != nil {
				applyErr = fmt.Errorf("registering group %s: %w", gs.decl.ID, err)
				return
			}
			applied.GroupIDs = append(applied.GroupIDs, id)
		}
	})
	if applyErr != nil {
		revert(reg, applied)
		return Applied{}, applyErr
	}

	return applied, nil
}

// Revert unregisters everything a previous Apply installed. Entries
// already removed by other means are skipped.
func Revert(reg *shortcut.Registry, a Applied) {
	revert(reg, a)
}

func revert(reg *shortcut.Registry, a Applied) {
	reg.BatchUpdate(func() {
		for _, id := range a.GroupIDs {
			_ = reg.UnregisterGroup(id)
		}
		for _, id := range a.ShortcutIDs {
			_ = reg.Unregister(id)
		}
	})
}
