package solver

import "fmt"

// State is the phase of the solver's tick-driven state machine.
type State int

const (
	// Init allocates a fresh grid and component graph on the next Step.
	Init State = iota
	// Running collapses one cell per Step.
	Running
	// Failed means a cell ran out of candidates; the next Step restarts.
	Failed
	// Finished means every cell is resolved; the next Step stops.
	Finished
	// Stopped is idle until Reset.
	Stopped
)

var stateNames = []string{"INIT", "RUNNING", "FAILED", "FINISHED", "STOPPED"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}
