package scout

import "strings"

// ZoneGrabPrefix prefixes the action recorded for the first stage of a
// zone grab; the zone identifier follows it ("cube-grab3").
const ZoneGrabPrefix = "cube-grab"

// ControlState is how one control should currently be drawn.
type ControlState struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Key      string `json:"key,omitempty"`
	Visible  bool   `json:"visible"`
	Disabled bool   `json:"disabled"`
	Armed    bool   `json:"armed"`
	Counter  *int   `json:"counter,omitempty"`
}

// View is the undoable part of what a surface renders. It is a pure
// function of the layout, the event log and the active phase, which is
// what makes single-step undo checkable: the view saved before an action
// equals the view recomputed after that action is removed.
type View struct {
	Phase         Phase          `json:"phase"`
	Controls      []ControlState `json:"controls"`
	Counters      Counters       `json:"counters"`
	StartWithCube bool           `json:"start_with_cube"`
	StartPosition string         `json:"start_position,omitempty"`
	PendingZone   string         `json:"pending_zone,omitempty"`
}

// Control returns the state of the control with id.
func (v View) Control(id string) (ControlState, bool) {
	for _, c := range v.Controls {
		if c.ID == id {
			return c, true
		}
	}
	return ControlState{}, false
}

// Copy returns a deep copy of the view.
func (v View) Copy() View {
	out := v
	out.Controls = make([]ControlState, len(v.Controls))
	for i, c := range v.Controls {
		if c.Counter != nil {
			n := *c.Counter
			c.Counter = &n
		}
		out.Controls[i] = c
	}
	out.Counters = v.Counters.Copy()
	return out
}

// Render computes the view for log while phase is active.
func Render(layout *Layout, log *EventLog, phase Phase) View {
	pressed := make(map[string]bool)
	counters := make(Counters)
	view := View{Phase: phase}

	log.each(func(e Event) {
		pressed[e.Action] = true
		switch {
		case strings.HasPrefix(e.Action, ZoneGrabPrefix):
			zone := strings.TrimPrefix(e.Action, ZoneGrabPrefix)
			if _, ok := layout.ZoneControl(zone); ok {
				view.PendingZone = zone
			}
		case layout.isCubeAction(e.Action):
			view.PendingZone = ""
		case layout.isStartPosition(e.Action):
			if view.StartPosition == "" {
				view.StartPosition = e.Action
			}
		}
		if e.Action == ActionStartWithCube {
			view.StartWithCube = true
		}
	})

	view.Controls = make([]ControlState, 0, len(layout.controls))
	for _, c := range layout.controls {
		state := ControlState{
			ID:      c.ID,
			Kind:    c.Kind.String(),
			Label:   c.Label,
			Key:     c.Key,
			Visible: c.VisibleIn(phase),
		}
		switch c.Kind {
		case ControlAction:
			state.Armed = pressed[c.Action]
		case ControlStartPosition:
			state.Armed = pressed[c.Action]
			state.Disabled = view.StartPosition != ""
		case ControlZone:
			state.Disabled = view.PendingZone != ""
			state.Armed = view.PendingZone == c.Zone
		case ControlCubeAction:
			state.Disabled = view.PendingZone == ""
		}
		if c.Counter {
			n := 0
			log.each(func(e Event) {
				if e.Action == c.Action {
					n++
				}
			})
			state.Counter = &n
			counters[c.Action] = n
		}
		view.Controls = append(view.Controls, state)
	}
	view.Counters = counters
	return view
}

// Tally counts recorded actions per phase, skipping the implicit mode
// events. It backs the review screen.
func Tally(log *EventLog) map[Phase]Counters {
	tally := make(map[Phase]Counters)
	log.each(func(e Event) {
		if strings.HasPrefix(e.Action, "mode-") {
			return
		}
		counters, ok := tally[e.Phase]
		if !ok {
			counters = make(Counters)
			tally[e.Phase] = counters
		}
		counters.Add(e.Action, 1)
	})
	return tally
}
