package lifecycle

import (
	"context"
	"fmt"
	"math"

	obstypes "github.com/codacy-badger/observation-portal/internal/domain/observations"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
)

// isClose is tolerance-based float equality (relative tolerance 1e-9),
// used so a completion percentage that equals the threshold up to float
// noise still counts as reaching it.
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

// requestStateFromCompletion returns COMPLETED when the executed completion
// percentage reaches the request's acceptability threshold, else the
// current state.
func requestStateFromCompletion(current reqtypes.State, acceptabilityThreshold, completionPercent float64) reqtypes.State {
	if isClose(acceptabilityThreshold, completionPercent) || completionPercent >= acceptabilityThreshold {
		return reqtypes.StateCompleted
	}
	return current
}

// UpdateRequestState recomputes a request's state from one observation's
// configuration statuses and whether the owning group's window has expired.
// The candidate state is validated against a freshly locked row, not the
// caller's possibly stale copy: concurrent updaters for the same request
// serialize on the row lock, and the loser's candidate is simply rejected.
// Returns whether the state changed; on change, req.State reflects the new
// state.
func (s *Service) UpdateRequestState(ctx context.Context, req *reqtypes.Request, statuses []*obstypes.ConfigurationStatus, groupExpired bool) (bool, error) {
	if req.State == reqtypes.StateCompleted {
		return false, nil
	}

	completionPercent := s.completion.Percent(statuses)
	newState := requestStateFromCompletion(req.State, req.AcceptabilityThreshold, completionPercent)
	if !newState.IsTerminal() && groupExpired {
		newState = reqtypes.StateWindowExpired
	}

	changed := false
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		row, err := s.requests.LockByID(dbc, req.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("request %s not found", req.ID)
		}
		if !legalTransition(row.State, newState) {
			return nil
		}
		if err := s.requests.UpdateState(dbc, req.ID, newState); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		req.State = newState
	}
	return changed, nil
}
