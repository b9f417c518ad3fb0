package scout

import (
	"time"

	"github.com/quickscout/quickscout-go/internal/clock"
)

// Task identifies a scheduled callback and the phase generation it was
// scheduled under.
type Task struct {
	id         uint64
	generation uint64
}

// Scheduler tracks the timers started for the current phase. A phase
// transition calls CancelAll, which stops every timer and bumps the
// generation so that a callback already in flight can tell it is stale.
//
// Scheduler is not safe for concurrent use; Session serialises access.
type Scheduler struct {
	clock      clock.Clock
	generation uint64
	nextID     uint64
	timers     map[uint64]clock.Timer
}

// NewScheduler creates a scheduler driven by c.
func NewScheduler(c clock.Clock) *Scheduler {
	return &Scheduler{
		clock:  c,
		timers: make(map[uint64]clock.Timer),
	}
}

// Schedule arranges for run to be called with the task handle after d.
func (s *Scheduler) Schedule(d time.Duration, run func(Task)) Task {
	s.nextID++
	task := Task{id: s.nextID, generation: s.generation}
	s.timers[task.id] = s.clock.AfterFunc(d, func() { run(task) })
	return task
}

// Finish retires task and reports whether it still belongs to the current
// generation. A false result means the callback is stale and must not
// touch session state.
func (s *Scheduler) Finish(task Task) bool {
	delete(s.timers, task.id)
	return task.generation == s.generation
}

// CancelAll stops every outstanding timer and invalidates any callback
// that already fired but has not yet run.
func (s *Scheduler) CancelAll() int {
	stopped := 0
	for id, timer := range s.timers {
		if timer.Stop() {
			stopped++
		}
		delete(s.timers, id)
	}
	s.generation++
	return stopped
}

// pending returns the number of timers not yet finished or cancelled.
func (s *Scheduler) pending() int {
	return len(s.timers)
}
