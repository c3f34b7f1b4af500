// Package main is an interactive terminal demo for the shortcut engine.
//
// It translates tcell key events into engine events and shows dispatch
// results live. Terminals report no key-release events, so chord
// shortcuts that need plain keys held together cannot be demonstrated
// here; modifier-based shortcuts and sequences work fully.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/mrivasperez/ngx-keys-sub000/config"
	"github.com/mrivasperez/ngx-keys-sub000/engine"
	"github.com/mrivasperez/ngx-keys-sub000/filter"
	"github.com/mrivasperez/ngx-keys-sub000/key"
	"github.com/mrivasperez/ngx-keys-sub000/script"
	"github.com/mrivasperez/ngx-keys-sub000/shortcut"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	secondary  bool
	logPath    string
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a shortcut config file (toml, yaml, or json)")
	flag.StringVar(&opts.configPath, "c", "", "Path to a shortcut config file (shorthand)")
	flag.BoolVar(&opts.secondary, "secondary", false, "Match secondary key variants")
	flag.StringVar(&opts.logPath, "log", "", "Write debug logs to this file")
	flag.Parse()
	return opts
}

func run() int {
	opts := parseFlags()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	platform := shortcut.PlatformPrimary
	if opts.secondary {
		platform = shortcut.PlatformSecondary
	}

	eng := engine.New(engine.WithPlatform(platform), engine.WithLogger(logger))
	defer eng.Close()

	scripts, err := script.NewState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating script state: %v\n", err)
		return 1
	}
	defer scripts.Close()

	d := &demo{eng: eng, scripts: scripts}
	if err := d.registerShortcuts(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: registering shortcuts: %v\n", err)
		return 1
	}

	if opts.configPath != "" {
		w, err := config.NewWatcher(eng.Registry(), d.resolver(), config.WithWatcherLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating config watcher: %v\n", err)
			return 1
		}
		defer w.Close()
		if err := w.Watch(opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
			return 1
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing screen: %v\n", err)
		return 1
	}
	defer screen.Fini()
	screen.EnableFocus()

	sub := eng.Registry().Subscribe(func(snap shortcut.Snapshot) {
		d.setStatus(fmt.Sprintf("registry v%d: %d active", snap.Version, len(snap.Active)))
	})
	defer sub.Unsubscribe()

	for !d.done() {
		d.render(screen)
		ev := screen.PollEvent()
		switch tev := ev.(type) {
		case *tcell.EventKey:
			kev, ok := translate(tev)
			if !ok {
				continue
			}
			consumed := eng.Handle(kev)
			d.setLast(kev, consumed)
		case *tcell.EventFocus:
			if !tev.Focused {
				eng.Handle(key.NewFocusLost())
				d.setStatus("focus lost: input state cleared")
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
	return 0
}

// demo holds the mutable display state shared between the event loop and
// shortcut actions.
type demo struct {
	eng     *engine.Engine
	scripts *script.State

	luaAction func()
	noShift   filter.Func

	mu     sync.Mutex
	last   string
	status string
	log    []string
	quit   bool
}

func (d *demo) registerShortcuts() error {
	if err := d.compileScripts(); err != nil {
		return err
	}

	reg := d.eng.Registry()
	defs := []shortcut.Definition{
		shortcut.New("demo.quit", "ctrl+q", func() { d.stop() }).
			WithDescription("Quit the demo"),
		shortcut.New("demo.save", "ctrl+s", func() { d.note("saved") }).
			WithSecondaryKeys("meta+s").
			WithDescription("Pretend to save"),
		shortcut.New("demo.panel", "ctrl+k p", func() { d.note("panel toggled") }).
			WithDescription("Toggle panel (sequence)"),
		shortcut.New("demo.theme", "ctrl+t ctrl+t", func() { d.note("theme switched") }).
			WithDescription("Switch theme (sequence)"),
		shortcut.New("demo.lua", "ctrl+l", d.luaAction).
			WithFilter(d.noShift).
			WithDescription("Lua-scripted action"),
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// compileScripts builds the Lua-backed action and filter used both by
// the built-in demo.lua shortcut and by config files through the
// resolver.
func (d *demo) compileScripts() error {
	if err := d.scripts.Bind("notify", func() { d.note("lua action fired") }); err != nil {
		return err
	}

	action, err := d.scripts.CompileAction(`notify()`)
	if err != nil {
		return err
	}
	noShift, err := d.scripts.CompileFilter(`not ev.shift`)
	if err != nil {
		return err
	}

	d.luaAction = action
	d.noShift = noShift
	return nil
}

func (d *demo) resolver() config.Resolver {
	return config.Resolver{
		Actions: map[string]func(){
			"note":     func() { d.note("config action fired") },
			"quit":     func() { d.stop() },
			"lua-note": d.luaAction,
		},
		Filters: map[string]filter.Func{
			"no-shift": d.noShift,
		},
	}
}

func (d *demo) stop() {
	d.mu.Lock()
	d.quit = true
	d.mu.Unlock()
}

func (d *demo) done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quit
}

func (d *demo) note(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, msg)
	if len(d.log) > 10 {
		d.log = d.log[len(d.log)-10:]
	}
}

func (d *demo) setStatus(msg string) {
	d.mu.Lock()
	d.status = msg
	d.mu.Unlock()
}

func (d *demo) setLast(ev key.Event, consumed bool) {
	d.mu.Lock()
	d.last = fmt.Sprintf("%s consumed=%v", ev, consumed)
	d.mu.Unlock()
}

func (d *demo) render(screen tcell.Screen) {
	d.mu.Lock()
	lines := []string{
		"shortcut engine demo (ctrl+q quits, ctrl+s, ctrl+l, ctrl+k p, ctrl+t ctrl+t)",
		"",
		"last event: " + d.last,
		"status:     " + d.status,
	}
	if id, step, ok := d.eng.Pending(); ok {
		lines = append(lines, fmt.Sprintf("pending:    %s awaiting step %d", id, step+1))
	} else {
		lines = append(lines, "pending:    none")
	}
	st := d.eng.Stats()
	lines = append(lines, fmt.Sprintf("dispatched: %d (panics %d)", st.Dispatched, st.Panicked))
	lines = append(lines, "")
	lines = append(lines, d.log...)
	d.mu.Unlock()

	screen.Clear()
	style := tcell.StyleDefault
	for y, line := range lines {
		for x, r := range line {
			screen.SetContent(x, y, r, nil, style)
		}
	}
	screen.Show()
}

// translate converts a tcell key event into an engine event. Events with
// no stable token mapping are passed through to the terminal.
func translate(ev *tcell.EventKey) (key.Event, bool) {
	mods := translateMods(ev.Modifiers())

	if ev.Key() == tcell.KeyRune {
		return key.NewKeyDown(strings.ToLower(string(ev.Rune())), mods), true
	}

	// Named keys first: enter and tab share constants with ctrl+m and
	// ctrl+i.
	if token, ok := specialTokens[ev.Key()]; ok {
		return key.NewKeyDown(token, mods), true
	}

	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		// Terminals fold ctrl+letter into a control byte.
		letter := string(rune('a' + ev.Key() - tcell.KeyCtrlA))
		return key.NewKeyDown(letter, mods.With(key.ModCtrl)), true
	}

	return key.Event{}, false
}

var specialTokens = map[tcell.Key]string{
	tcell.KeyEscape:    "escape",
	tcell.KeyEnter:     "enter",
	tcell.KeyTab:       "tab",
	tcell.KeyBackspace: "backspace",
	tcell.KeyDelete:    "delete",
	tcell.KeyHome:      "home",
	tcell.KeyEnd:       "end",
	tcell.KeyPgUp:      "pageup",
	tcell.KeyPgDn:      "pagedown",
	tcell.KeyUp:        "up",
	tcell.KeyDown:      "down",
	tcell.KeyLeft:      "left",
	tcell.KeyRight:     "right",
	tcell.KeyF1:        "f1",
	tcell.KeyF2:        "f2",
	tcell.KeyF3:        "f3",
	tcell.KeyF4:        "f4",
}

func translateMods(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}
