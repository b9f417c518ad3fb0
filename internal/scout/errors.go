package scout

import "errors"

var (
	// ErrControlDisabled is returned when a trigger targets a control
	// that is disabled in the current view.
	ErrControlDisabled = errors.New("control is disabled")
	// ErrUnknownControl is returned for a control ID or zone the layout
	// does not define, or a control of the wrong kind for the trigger.
	ErrUnknownControl = errors.New("unknown control")
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrAlreadySubmitted is returned for any trigger once the log has
	// been accepted by the backend.
	ErrAlreadySubmitted = errors.New("match already submitted")
	ErrSessionClosed    = errors.New("session closed")
	ErrNoSubmitter      = errors.New("no submitter configured")
)
