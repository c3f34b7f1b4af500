package script

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrivasperez/ngx-keys-sub000/filter"
	"github.com/mrivasperez/ngx-keys-sub000/key"
)

// Errors returned by script operations.
var (
	ErrStateClosed = errors.New("script state is closed")
	ErrNotFunction = errors.New("script did not produce a function")
)

// ScriptError wraps a Lua compile or runtime failure.
type ScriptError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying Lua error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// State is a sandboxed Lua interpreter.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes all
// access so compiled actions and filters may be called from any
// goroutine.
type State struct {
	mu     sync.Mutex
	l      *lua.LState
	closed bool
}

// NewState creates a sandboxed interpreter.
func NewState() (*State, error) {
	l := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(l)

	// Remove the loaders the base library brings in.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		l.SetGlobal(name, lua.LNil)
	}

	return &State{l: l}, nil
}

// openSafeLibraries opens the side-effect-free standard libraries.
// io, os, debug, and package stay closed.
func openSafeLibraries(l *lua.LState) {
	lua.OpenBase(l)
	lua.OpenTable(l)
	lua.OpenString(l)
	lua.OpenMath(l)
}

// Bind exposes a Go function to scripts under the given global name.
func (s *State) Bind(name string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	s.l.SetGlobal(name, s.l.NewFunction(func(*lua.LState) int {
		fn()
		return 0
	}))
	return nil
}

// DoString executes a Lua chunk.
func (s *State) DoString(src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	if err := s.l.DoString(src); err != nil {
		return &ScriptError{Source: src, Err: err}
	}
	return nil
}

// CompileAction compiles a Lua chunk into a shortcut action. The chunk
// is compiled once and re-executed per invocation; runtime failures
// surface through the calling engine's panic containment.
func (s *State) CompileAction(src string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fn, err := s.l.LoadString(src)
	if err != nil {
		return nil, &ScriptError{Source: src, Err: err}
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return
		}
		s.l.Push(fn)
		if err := s.l.PCall(0, 0, nil); err != nil {
			panic(&ScriptError{Source: src, Err: err})
		}
	}, nil
}

// CompileFilter compiles a Lua expression into an event filter. The
// expression is evaluated with the event bound to the global ev; a
// runtime failure or non-truthy result blocks the event.
func (s *State) CompileFilter(expr string) (filter.Func, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fn, err := s.l.LoadString("return " + expr)
	if err != nil {
		return nil, &ScriptError{Source: expr, Err: err}
	}

	return func(ev key.Event) bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return false
		}

		t := s.l.NewTable()
		s.l.SetField(t, "key", lua.LString(ev.Token()))
		s.l.SetField(t, "ctrl", lua.LBool(ev.Mods.Has(key.ModCtrl)))
		s.l.SetField(t, "alt", lua.LBool(ev.Mods.Has(key.ModAlt)))
		s.l.SetField(t, "shift", lua.LBool(ev.Mods.Has(key.ModShift)))
		s.l.SetField(t, "meta", lua.LBool(ev.Mods.Has(key.ModMeta)))
		s.l.SetGlobal("ev", t)

		s.l.Push(fn)
		if err := s.l.PCall(0, 1, nil); err != nil {
			return false
		}
		ret := s.l.Get(-1)
		s.l.Pop(1)
		return lua.LVAsBool(ret)
	}, nil
}

// Close shuts down the interpreter. Compiled functions become inert.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.l.Close()
}
