// Package lifecycle drives request and request-group state as observation
// outcomes arrive from the telescope network. All entity mutations go
// through a lock-read-recheck-write cycle inside a single transaction; the
// row lock is the only concurrency control.
package lifecycle

import (
	"fmt"

	"github.com/google/uuid"

	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
)

// stateTransitions is the legal transition graph shared by requests and
// request groups. COMPLETED is terminal; WINDOW_EXPIRED and CANCELED can
// still complete if late data shows the request was actually satisfied.
var stateTransitions = map[reqtypes.State][]reqtypes.State{
	reqtypes.StatePending:       {reqtypes.StateCompleted, reqtypes.StateWindowExpired, reqtypes.StateCanceled},
	reqtypes.StateCompleted:     {},
	reqtypes.StateWindowExpired: {reqtypes.StateCompleted},
	reqtypes.StateCanceled:      {reqtypes.StateCompleted},
}

// InvalidTransitionError is an illegal state change attempt on a request or
// request group.
type InvalidTransitionError struct {
	Entity string
	ID     uuid.UUID
	From   reqtypes.State
	To     reqtypes.State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s %s from state %s to %s", e.Entity, e.ID, e.From, e.To)
}

// legalTransition reports whether old -> new is in the transition graph.
// A no-op (old == new) is not a transition and returns false; callers
// short-circuit equality before writing.
func legalTransition(old, new reqtypes.State) bool {
	for _, s := range stateTransitions[old] {
		if s == new {
			return true
		}
	}
	return false
}

// ValidateStateChange fails with InvalidTransitionError unless old -> new is
// legal or a no-op.
func ValidateStateChange(entity string, id uuid.UUID, old, new reqtypes.State) error {
	if old == new {
		return nil
	}
	if !legalTransition(old, new) {
		return &InvalidTransitionError{Entity: entity, ID: id, From: old, To: new}
	}
	return nil
}
