package scout

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is a single timestamped, phase-tagged scouting observation.
type Event struct {
	Action string
	Time   time.Time
	Phase  Phase
}

// wireEvent is the JSON shape the backend expects.
type wireEvent struct {
	Action string `json:"action"`
	Time   int64  `json:"time"`
	Mode   Phase  `json:"mode"`
}

// MarshalJSON encodes the event as {action, time, mode} with time in
// milliseconds since the Unix epoch.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		Action: e.Action,
		Time:   e.Time.UnixMilli(),
		Mode:   e.Phase,
	})
}

// UnmarshalJSON decodes the {action, time, mode} form.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if w.Action == "" {
		return fmt.Errorf("decode event: missing action")
	}
	e.Action = w.Action
	e.Time = time.UnixMilli(w.Time)
	e.Phase = w.Mode
	return nil
}

// Payload is the document submitted once per match attempt.
type Payload struct {
	Comments      string  `json:"comments"`
	DriveComments string  `json:"drive_comments"`
	Events        []Event `json:"events"`
}
