package scout

import (
	"encoding/json"
	"fmt"
)

// Trigger is an input from a rendering surface. The set of triggers is
// closed; every concrete type lives in this file.
type Trigger interface {
	trigger()
	// Name is a short label used in logs.
	Name() string
}

// PressControl presses a simple action or start-position control.
type PressControl struct {
	ControlID string
}

// EnterPhase asks the phase machine to move to Phase.
type EnterPhase struct {
	Phase Phase
}

// GrabZone is the first stage of the zone-grab gesture.
type GrabZone struct {
	Zone string
}

// CubeAction is the second stage of the zone-grab gesture.
type CubeAction struct {
	ControlID string
}

// Undo rolls back the most recent recordable action.
type Undo struct{}

// Submit sends the log with the scouter's comments.
type Submit struct {
	Comments      string
	DriveComments string
}

func (PressControl) trigger() {}
func (EnterPhase) trigger()   {}
func (GrabZone) trigger()     {}
func (CubeAction) trigger()   {}
func (Undo) trigger()         {}
func (Submit) trigger()       {}

func (t PressControl) Name() string { return "press:" + t.ControlID }
func (t EnterPhase) Name() string   { return "enter:" + t.Phase.String() }
func (t GrabZone) Name() string     { return "grab:" + t.Zone }
func (t CubeAction) Name() string   { return "cube:" + t.ControlID }
func (Undo) Name() string           { return "undo" }
func (Submit) Name() string         { return "submit" }

// TriggerForControl maps a layout control to the trigger pressing it
// produces. Surfaces use it so that they never need to know about control
// kinds themselves.
func TriggerForControl(layout *Layout, id string) (Trigger, error) {
	c, ok := layout.Control(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownControl, id)
	}
	switch c.Kind {
	case ControlAction, ControlStartPosition:
		return PressControl{ControlID: c.ID}, nil
	case ControlZone:
		return GrabZone{Zone: c.Zone}, nil
	case ControlCubeAction:
		return CubeAction{ControlID: c.ID}, nil
	case ControlEnterPhase:
		return EnterPhase{Phase: c.Target}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownControl, id)
	}
}

// TriggerMessage is the JSON form of a trigger used by the WebSocket
// surface.
type TriggerMessage struct {
	Kind          string `json:"kind"`
	Control       string `json:"control,omitempty"`
	Phase         string `json:"phase,omitempty"`
	Zone          string `json:"zone,omitempty"`
	Comments      string `json:"comments,omitempty"`
	DriveComments string `json:"drive_comments,omitempty"`
}

// DecodeTrigger converts a JSON trigger message into a Trigger. Kind
// "control" resolves through the layout; the other kinds name the
// trigger directly.
func DecodeTrigger(layout *Layout, data []byte) (Trigger, error) {
	var msg TriggerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode trigger: %w", err)
	}
	return msg.Trigger(layout)
}

// Trigger resolves the message into a Trigger.
func (msg TriggerMessage) Trigger(layout *Layout) (Trigger, error) {
	switch msg.Kind {
	case "control":
		return TriggerForControl(layout, msg.Control)
	case "press":
		return PressControl{ControlID: msg.Control}, nil
	case "enter_phase":
		phase, err := ParsePhase(msg.Phase)
		if err != nil {
			return nil, fmt.Errorf("decode trigger: %w", err)
		}
		return EnterPhase{Phase: phase}, nil
	case "grab_zone":
		return GrabZone{Zone: msg.Zone}, nil
	case "cube_action":
		return CubeAction{ControlID: msg.Control}, nil
	case "undo":
		return Undo{}, nil
	case "submit":
		return Submit{Comments: msg.Comments, DriveComments: msg.DriveComments}, nil
	default:
		return nil, fmt.Errorf("decode trigger: unknown kind %q", msg.Kind)
	}
}
