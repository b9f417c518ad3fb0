package scout

import "time"

// Machine is the phase state machine. It does not decide which
// transitions are legal: any target requested by a trigger is honoured.
type Machine struct {
	phase   Phase
	log     *EventLog
	undo    *UndoBuffer
	sched   *Scheduler
	onEnter map[Phase]func()
}

// NewMachine creates a machine starting in phase, writing mode events to
// log and disarming undo on every transition.
func NewMachine(phase Phase, log *EventLog, undo *UndoBuffer, sched *Scheduler) *Machine {
	return &Machine{
		phase:   phase,
		log:     log,
		undo:    undo,
		sched:   sched,
		onEnter: make(map[Phase]func()),
	}
}

// Phase returns the active phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// OnEnter registers fn to run after every transition into phase, once the
// previous phase's tasks have been cancelled.
func (m *Machine) OnEnter(phase Phase, fn func()) {
	m.onEnter[phase] = fn
}

// Transition moves to target. The implicit mode event is recorded with
// the new phase before the phase changes hands, except for review which
// is entered silently. The returned pointer is nil when nothing was
// logged.
func (m *Machine) Transition(target Phase, at time.Time) (previous Phase, logged *Event) {
	previous = m.phase
	if target.Logged() {
		event := m.log.Append(target.ModeAction(), target, at)
		logged = &event
	}
	m.phase = target
	m.undo.Disarm()
	m.sched.CancelAll()
	if fn, ok := m.onEnter[target]; ok {
		fn()
	}
	return previous, logged
}
