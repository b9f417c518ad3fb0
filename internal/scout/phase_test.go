package scout

import "testing"

func TestPhaseNamesRoundTrip(t *testing.T) {
	for _, p := range Phases() {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", int(p), err)
		}
		var back Phase
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if back != p {
			t.Fatalf("expected %s, got %s", p, back)
		}
	}
	if _, err := ParsePhase("overtime"); err == nil {
		t.Fatal("expected error for unknown phase")
	}
	if _, err := Phase(99).MarshalText(); err == nil {
		t.Fatal("expected error marshalling invalid phase")
	}
}

func TestPhaseSequence(t *testing.T) {
	expected := []Phase{PhaseAuton, PhaseTeleop, PhaseEndgame, PhaseReview, PhaseReview}
	p := PhasePrematch
	for i, want := range expected {
		p = p.next()
		if p != want {
			t.Fatalf("step %d: expected %s, got %s", i, want, p)
		}
	}
}

func TestPhaseModeActions(t *testing.T) {
	if got := PhaseTeleop.ModeAction(); got != "mode-teleop" {
		t.Fatalf("expected mode-teleop, got %s", got)
	}
	if PhaseReview.Logged() {
		t.Fatal("review must not be logged")
	}
	if !PhaseAuton.Logged() {
		t.Fatal("auton must be logged")
	}
	if got := PhaseEndgame.Label(); got != "End game" {
		t.Fatalf("expected End game, got %s", got)
	}
}
