package scout

import (
	"fmt"
	"strings"
)

// Phase represents the segment of the match being scouted.
type Phase int

const (
	PhasePrematch Phase = iota
	PhaseAuton
	PhaseTeleop
	PhaseEndgame
	PhaseReview
)

var phaseNames = map[Phase]string{
	PhasePrematch: "prematch",
	PhaseAuton:    "auton",
	PhaseTeleop:   "teleop",
	PhaseEndgame:  "endgame",
	PhaseReview:   "review",
}

var phaseLabels = map[Phase]string{
	PhasePrematch: "Pre-match",
	PhaseAuton:    "Autonomous",
	PhaseTeleop:   "Teleoperated",
	PhaseEndgame:  "End game",
	PhaseReview:   "Review",
}

// phaseSequence is the typical order a scouter walks through.
var phaseSequence = []Phase{PhasePrematch, PhaseAuton, PhaseTeleop, PhaseEndgame, PhaseReview}

// String returns the wire name of the phase ("auton", "teleop", ...).
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase_%d", int(p))
}

// Label returns the human readable name shown to the scouter.
func (p Phase) Label() string {
	if label, ok := phaseLabels[p]; ok {
		return label
	}
	return p.String()
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

// Logged reports whether entering p appends a mode event. Review is the
// only phase that is entered silently.
func (p Phase) Logged() bool {
	return p != PhaseReview
}

// ModeAction returns the implicit action recorded when entering p.
func (p Phase) ModeAction() string {
	return "mode-" + p.String()
}

// next returns the phase that typically follows p. Review has no
// successor and returns itself.
func (p Phase) next() Phase {
	for i, phase := range phaseSequence {
		if phase == p && i+1 < len(phaseSequence) {
			return phaseSequence[i+1]
		}
	}
	return p
}

// ParsePhase converts a wire name into a Phase.
func ParsePhase(name string) (Phase, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for phase, n := range phaseNames {
		if n == name {
			return phase, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// MarshalText implements encoding.TextMarshaler so phases serialise by name.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Phases returns every phase in typical order.
func Phases() []Phase {
	out := make([]Phase, len(phaseSequence))
	copy(out, phaseSequence)
	return out
}
