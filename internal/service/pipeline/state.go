package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

// UnitState is the progress of one unit of work: a calendar day for saints,
// a dated day for readings.
type UnitState string

const (
	StatePending    UnitState = "PENDING"
	StateFetching   UnitState = "FETCHING"
	StateExtracting UnitState = "EXTRACTING"
	StateResolving  UnitState = "RESOLVING"
	StateScoring    UnitState = "SCORING"
	StateMerging    UnitState = "MERGING"
	StateDone       UnitState = "DONE"
	StateSkipped    UnitState = "SKIPPED"
	StateFailed     UnitState = "FAILED"
)

var transitions = map[UnitState][]UnitState{
	StatePending:    {StateFetching, StateSkipped},
	StateFetching:   {StateExtracting, StateFailed},
	StateExtracting: {StateResolving, StateScoring, StateMerging, StateFailed},
	StateResolving:  {StateScoring},
	StateScoring:    {StateMerging},
	StateMerging:    {StateDone},
}

// CanTransition reports whether a unit may move from one state to the next.
func CanTransition(from, to UnitState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a unit.
func (s UnitState) Terminal() bool {
	return s == StateDone || s == StateSkipped || s == StateFailed
}

// unit tracks one unit of work through its states.
type unit struct {
	label  string
	state  UnitState
	logger *zap.Logger
}

func newUnit(label string, logger *zap.Logger) *unit {
	return &unit{label: label, state: StatePending, logger: logger}
}

// enter moves the unit to next. An illegal move is a programming error in
// the runner and is reported as such.
func (u *unit) enter(next UnitState) error {
	if !CanTransition(u.state, next) {
		return fmt.Errorf("unit %s: illegal transition %s -> %s", u.label, u.state, next)
	}
	u.logger.Debug("Unit state", zap.String("unit", u.label), zap.String("from", string(u.state)), zap.String("to", string(next)))
	u.state = next
	return nil
}

// fail moves the unit to FAILED from wherever it is. Panics and aborted runs
// can leave a unit in any state.
func (u *unit) fail() {
	u.state = StateFailed
}
