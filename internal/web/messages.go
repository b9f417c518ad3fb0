package web

import (
	"encoding/json"

	"github.com/quickscout/quickscout-go/internal/scout"
)

// Message types exchanged over the socket.
const (
	// client -> server
	TypeStart   = "start"
	TypeResume  = "resume"
	TypeTrigger = "trigger"
	TypeState   = "state"

	// server -> client
	TypeSession     = "session"
	TypeRenderState = "render_state"
	TypeNavigate    = "navigate"
	TypeError       = "error"
)

// WSMessage is the envelope for every frame.
type WSMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// inbound is WSMessage with the payload left undecoded until the type is
// known.
type inbound struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StartData opens a session for a match.
type StartData struct {
	Match  int  `json:"match"`
	OnLeft bool `json:"on_left"`
}

// ResumeData reopens a stored draft.
type ResumeData struct {
	DraftID string `json:"draft_id"`
}

// SessionData announces the session a client is now attached to.
type SessionData struct {
	SessionID string `json:"session_id"`
	Match     int    `json:"match"`
	OnLeft    bool   `json:"on_left"`
}

// NavigateData tells the page that the next match is ready.
type NavigateData struct {
	Match     int    `json:"match"`
	SessionID string `json:"session_id"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// TriggerData is the trigger payload; see scout.TriggerMessage.
type TriggerData = scout.TriggerMessage

func encode(msg WSMessage) ([]byte, error) {
	return json.Marshal(msg)
}
