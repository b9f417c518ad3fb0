package scout

var (
	prematchOnly = []Phase{PhasePrematch}
	autonOnly    = []Phase{PhaseAuton}
	teleopOnly   = []Phase{PhaseTeleop}
	endgameOnly  = []Phase{PhaseEndgame}
	cubePhases   = []Phase{PhaseAuton, PhaseTeleop}
	matchPhases  = []Phase{PhaseAuton, PhaseTeleop, PhaseEndgame}
)

// ActionStartWithCube marks that the robot starts the match holding a cube.
const ActionStartWithCube = "start-with-cube"

// DefaultControls is the 2018 FIRST Power Up scouting surface: three start
// positions, five cube zones, the cube dispositions and the end-game climb
// outcomes.
func DefaultControls() []Control {
	controls := []Control{
		{ID: "start-far", Kind: ControlStartPosition, Label: "Start far", Action: "start-far", Phases: prematchOnly, Key: "f"},
		{ID: "start-middle", Kind: ControlStartPosition, Label: "Start middle", Action: "start-middle", Phases: prematchOnly, Key: "m"},
		{ID: "start-close", Kind: ControlStartPosition, Label: "Start close", Action: "start-close", Phases: prematchOnly, Key: "c"},
		{ID: ActionStartWithCube, Kind: ControlAction, Label: "Starts with cube", Action: ActionStartWithCube, Phases: prematchOnly, Key: "w"},
		{ID: "noshow", Kind: ControlAction, Label: "No show", Action: "noshow", Phases: prematchOnly, Key: "n"},
		{ID: "enter-auton", Kind: ControlEnterPhase, Label: "Start autonomous", Target: PhaseAuton, Phases: prematchOnly, Key: "enter"},
	}

	for _, zone := range []string{"1", "2", "3", "4", "5"} {
		controls = append(controls, Control{
			ID:     "cube-zone-" + zone,
			Kind:   ControlZone,
			Label:  "Zone " + zone,
			Zone:   zone,
			Phases: cubePhases,
			Key:    zone,
		})
	}

	controls = append(controls,
		Control{ID: "switch", Kind: ControlCubeAction, Label: "Switch", Action: "switch", Phases: cubePhases, Counter: true, Key: "s"},
		Control{ID: "scale", Kind: ControlCubeAction, Label: "Scale", Action: "scale", Phases: cubePhases, Counter: true, Key: "a"},
		Control{ID: "oswitch", Kind: ControlCubeAction, Label: "Opponent switch", Action: "oswitch", Phases: cubePhases, Counter: true, Key: "o"},
		Control{ID: "vault", Kind: ControlCubeAction, Label: "Vault", Action: "vault", Phases: cubePhases, Counter: true, Key: "v"},
		Control{ID: "drop", Kind: ControlCubeAction, Label: "Dropped", Action: "drop", Phases: cubePhases, Counter: true, Key: "d"},
		Control{ID: "died", Kind: ControlAction, Label: "Robot died", Action: "died", Phases: matchPhases, Key: "x"},
		Control{ID: "enter-teleop", Kind: ControlEnterPhase, Label: "Start teleop", Target: PhaseTeleop, Phases: autonOnly, Key: "enter"},
		Control{ID: "knockoff", Kind: ControlAction, Label: "Knocked cube off", Action: "knockoff", Phases: teleopOnly, Counter: true, Key: "k"},
		Control{ID: "enter-endgame", Kind: ControlEnterPhase, Label: "Start end game", Target: PhaseEndgame, Phases: teleopOnly, Key: "enter"},
		Control{ID: "endplatform", Kind: ControlAction, Label: "On platform", Action: "endplatform", Phases: endgameOnly, Key: "p"},
		Control{ID: "climbend", Kind: ControlAction, Label: "Climb finished", Action: "climbend", Phases: endgameOnly, Key: "e"},
		Control{ID: "climbfail", Kind: ControlAction, Label: "Climb failed", Action: "climbfail", Phases: endgameOnly, Key: "l"},
		Control{ID: "climbcarry0", Kind: ControlAction, Label: "Carried nobody", Action: "climbcarry0", Phases: endgameOnly, Key: "0"},
		Control{ID: "climbcarry1", Kind: ControlAction, Label: "Carried one", Action: "climbcarry1", Phases: endgameOnly, Key: "1"},
		Control{ID: "climbcarry2", Kind: ControlAction, Label: "Carried two", Action: "climbcarry2", Phases: endgameOnly, Key: "2"},
		Control{ID: "enter-review", Kind: ControlEnterPhase, Label: "Review", Target: PhaseReview, Phases: endgameOnly, Key: "enter"},
	)
	return controls
}

// DefaultLayout returns the validated Power Up layout.
func DefaultLayout() *Layout {
	return MustLayout(DefaultControls())
}

// StartZone returns the zone a robot that starts with a cube is treated as
// having grabbed from, depending on which side of the field it starts.
func StartZone(onLeft bool) string {
	if onLeft {
		return "1"
	}
	return "5"
}
