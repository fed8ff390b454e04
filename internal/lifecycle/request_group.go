package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
)

// Aggregation priority: the first state in the list present among the
// children wins. SINGLE (AND semantics) surfaces expiry and pending work
// first; MANY (OR semantics) keeps the group live while any child is still
// pending and calls it completed as soon as one child completes.
var (
	statePriorityDefault = []reqtypes.State{
		reqtypes.StateWindowExpired,
		reqtypes.StatePending,
		reqtypes.StateCompleted,
		reqtypes.StateCanceled,
	}
	statePriorityMany = []reqtypes.State{
		reqtypes.StatePending,
		reqtypes.StateCompleted,
		reqtypes.StateWindowExpired,
		reqtypes.StateCanceled,
	}
)

// AggregateStateError is an internal-consistency fault: a group's child
// state set contained no known state. It indicates a broken invariant
// elsewhere and is never silently recovered.
type AggregateStateError struct {
	GroupID uuid.UUID
	States  []reqtypes.State
}

func (e *AggregateStateError) Error() string {
	return fmt.Sprintf("unable to aggregate states for request group %s: %v", e.GroupID, e.States)
}

// AggregateRequestStates derives a group state from its child request
// states under the operator's priority rule.
func AggregateRequestStates(groupID uuid.UUID, operator reqtypes.Operator, states []reqtypes.State) (reqtypes.State, error) {
	priority := statePriorityDefault
	if operator == reqtypes.OperatorMany {
		priority = statePriorityMany
	}

	present := map[reqtypes.State]bool{}
	for _, st := range states {
		present[st] = true
	}
	for _, st := range priority {
		if present[st] {
			return st, nil
		}
	}
	return "", &AggregateStateError{GroupID: groupID, States: states}
}

// UpdateRequestGroupState recomputes the group's state from its children
// and persists it under the same lock-and-recheck discipline as request
// updates. Returns whether the state changed; on change, group.State
// reflects the new state.
func (s *Service) UpdateRequestGroupState(ctx context.Context, group *reqtypes.RequestGroup) (bool, error) {
	states, err := s.requests.ListStatesByGroup(dbctx.Context{Ctx: ctx}, group.ID)
	if err != nil {
		return false, err
	}
	newState, err := AggregateRequestStates(group.ID, group.Operator, states)
	if err != nil {
		return false, err
	}

	changed := false
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		row, err := s.groups.LockByID(dbc, group.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("request group %s not found", group.ID)
		}
		if !legalTransition(row.State, newState) {
			return nil
		}
		if err := s.groups.UpdateState(dbc, group.ID, newState); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		group.State = newState
	}
	return changed, nil
}
