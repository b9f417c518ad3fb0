package scout

import "errors"

// ErrEmptyUndo is returned when undo is invoked with nothing armed.
// Callers treat it as a no-op.
var ErrEmptyUndo = errors.New("nothing to undo")

// UndoBuffer holds at most one saved view, the one that was on screen
// before the most recent recordable action.
type UndoBuffer struct {
	saved *View
}

// Arm stores a copy of view and makes undo available. An earlier
// snapshot is overwritten; undo never reaches back more than one step.
func (u *UndoBuffer) Arm(view View) {
	snapshot := view.Copy()
	u.saved = &snapshot
}

// Disarm drops the snapshot. Phase transitions call it because they are
// not undoable.
func (u *UndoBuffer) Disarm() {
	u.saved = nil
}

// Available reports whether Consume would succeed.
func (u *UndoBuffer) Available() bool {
	return u.saved != nil
}

// Consume rolls back the most recent action: it removes the last event
// from log, disarms, and returns the saved view together with the
// discarded event. With nothing armed it returns ErrEmptyUndo and leaves
// log untouched.
func (u *UndoBuffer) Consume(log *EventLog) (View, Event, error) {
	if u.saved == nil {
		return View{}, Event{}, ErrEmptyUndo
	}
	view := *u.saved
	u.saved = nil

	discarded, ok := log.RemoveLast()
	if !ok {
		return View{}, Event{}, ErrEmptyUndo
	}
	return view, discarded, nil
}
