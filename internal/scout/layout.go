package scout

import (
	"fmt"
	"sort"
)

// ControlKind classifies an input control on the scouting surface.
type ControlKind int

const (
	// ControlAction records its action when pressed.
	ControlAction ControlKind = iota
	// ControlStartPosition records its action and locks out the other
	// start positions.
	ControlStartPosition
	// ControlZone is the first stage of the zone-grab gesture.
	ControlZone
	// ControlCubeAction is the second stage of the zone-grab gesture.
	ControlCubeAction
	// ControlEnterPhase transitions the phase machine.
	ControlEnterPhase
)

func (k ControlKind) String() string {
	switch k {
	case ControlAction:
		return "action"
	case ControlStartPosition:
		return "start_position"
	case ControlZone:
		return "zone"
	case ControlCubeAction:
		return "cube_action"
	case ControlEnterPhase:
		return "enter_phase"
	default:
		return "unknown"
	}
}

// Control describes one input on the scouting surface.
type Control struct {
	ID      string
	Kind    ControlKind
	Label   string
	Action  string  // recorded action for action, start-position and cube-action controls
	Zone    string  // zone identifier for zone controls
	Target  Phase   // destination for enter-phase controls
	Phases  []Phase // phases in which the control is visible
	Counter bool    // whether a press counter is displayed
	Key     string  // keyboard shortcut used by the terminal surface
}

// VisibleIn reports whether the control is shown while phase is active.
func (c Control) VisibleIn(phase Phase) bool {
	for _, p := range c.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// Layout is the set of controls a session renders.
type Layout struct {
	controls []Control
	byID     map[string]int
	byZone   map[string]string
	byAction map[string][]string
}

// NewLayout validates and indexes controls. IDs must be unique, zone
// controls need a zone, recording controls need an action and enter-phase
// controls need a valid target.
func NewLayout(controls []Control) (*Layout, error) {
	l := &Layout{
		controls: make([]Control, 0, len(controls)),
		byID:     make(map[string]int, len(controls)),
		byZone:   make(map[string]string),
		byAction: make(map[string][]string),
	}
	for _, c := range controls {
		if c.ID == "" {
			return nil, fmt.Errorf("control with empty id")
		}
		if _, dup := l.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate control id %q", c.ID)
		}
		switch c.Kind {
		case ControlAction, ControlStartPosition, ControlCubeAction:
			if c.Action == "" {
				return nil, fmt.Errorf("control %q: missing action", c.ID)
			}
			l.byAction[c.Action] = append(l.byAction[c.Action], c.ID)
		case ControlZone:
			if c.Zone == "" {
				return nil, fmt.Errorf("control %q: missing zone", c.ID)
			}
			if _, dup := l.byZone[c.Zone]; dup {
				return nil, fmt.Errorf("duplicate zone %q", c.Zone)
			}
			l.byZone[c.Zone] = c.ID
		case ControlEnterPhase:
			if !c.Target.Valid() {
				return nil, fmt.Errorf("control %q: invalid target phase", c.ID)
			}
		default:
			return nil, fmt.Errorf("control %q: unknown kind %d", c.ID, int(c.Kind))
		}
		l.byID[c.ID] = len(l.controls)
		l.controls = append(l.controls, c)
	}
	return l, nil
}

// MustLayout is NewLayout for static tables; it panics on error.
func MustLayout(controls []Control) *Layout {
	l, err := NewLayout(controls)
	if err != nil {
		panic(err)
	}
	return l
}

// Control looks up a control by ID.
func (l *Layout) Control(id string) (Control, bool) {
	idx, ok := l.byID[id]
	if !ok {
		return Control{}, false
	}
	return l.controls[idx], true
}

// ZoneControl returns the ID of the control for zone.
func (l *Layout) ZoneControl(zone string) (string, bool) {
	id, ok := l.byZone[zone]
	return id, ok
}

// visible returns the controls shown in phase, in declaration order.
func (l *Layout) visible(phase Phase) []Control {
	var out []Control
	for _, c := range l.controls {
		if c.VisibleIn(phase) {
			out = append(out, c)
		}
	}
	return out
}

// controlsOfKind returns the IDs of every control of kind.
func (l *Layout) controlsOfKind(kind ControlKind) []string {
	var ids []string
	for _, c := range l.controls {
		if c.Kind == kind {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// isCubeAction reports whether action closes a zone grab.
func (l *Layout) isCubeAction(action string) bool {
	for _, id := range l.byAction[action] {
		if l.controls[l.byID[id]].Kind == ControlCubeAction {
			return true
		}
	}
	return false
}

// isStartPosition reports whether action is a start-position choice.
func (l *Layout) isStartPosition(action string) bool {
	for _, id := range l.byAction[action] {
		if l.controls[l.byID[id]].Kind == ControlStartPosition {
			return true
		}
	}
	return false
}

// zones returns the zone identifiers in sorted order.
func (l *Layout) zones() []string {
	zones := make([]string, 0, len(l.byZone))
	for z := range l.byZone {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}
