package engine

import (
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// executor runs shortcut actions with panic recovery and timing.
type executor struct {
	logger *slog.Logger

	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	panicked    atomic.Uint64
	totalTimeNs atomic.Int64
}

func newExecutor(logger *slog.Logger) *executor {
	return &executor{logger: logger}
}

// run executes an action. A panic is recovered and logged; it never
// propagates to the dispatch path, so one faulty action cannot derail
// event handling.
func (x *executor) run(id string, action func()) {
	x.dispatched.Add(1)
	start := time.Now()

	defer func() {
		x.totalTimeNs.Add(time.Since(start).Nanoseconds())

		if r := recover(); r != nil {
			x.panicked.Add(1)
			x.logger.Error("shortcut action panicked",
				"shortcut", id,
				"panic", r,
				"stack", string(debug.Stack()))
			return
		}
		x.succeeded.Add(1)
	}()

	action()
}

// Stats contains action execution statistics.
type Stats struct {
	// Dispatched is the total number of actions executed.
	Dispatched uint64

	// Succeeded is the number of actions that completed normally.
	Succeeded uint64

	// Panicked is the number of actions that panicked.
	Panicked uint64

	// TotalDuration is the cumulative time spent in actions.
	TotalDuration time.Duration

	// AvgDuration is the average action execution time.
	AvgDuration time.Duration
}

// stats returns a consistent-enough view of the counters.
func (x *executor) stats() Stats {
	dispatched := x.dispatched.Load()
	totalNs := x.totalTimeNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return Stats{
		Dispatched:    dispatched,
		Succeeded:     x.succeeded.Load(),
		Panicked:      x.panicked.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}
