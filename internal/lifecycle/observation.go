package lifecycle

import (
	"context"

	obstypes "github.com/codacy-badger/observation-portal/internal/domain/observations"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
)

// observationStateFrom derives an observation's state from its
// configuration status states. First matching rule wins. ok is false when
// no rule matches, in which case the state is left as-is.
func observationStateFrom(states []obstypes.ConfigStatusState) (obstypes.State, bool) {
	if len(states) == 0 {
		return "", false
	}

	allPending := true
	allPendingOrAttempted := true
	allCompleted := true
	anyFailed := false
	anyAborted := false
	for _, s := range states {
		if s != obstypes.ConfigStatusPending {
			allPending = false
		}
		if s != obstypes.ConfigStatusPending && s != obstypes.ConfigStatusAttempted {
			allPendingOrAttempted = false
		}
		if s != obstypes.ConfigStatusCompleted {
			allCompleted = false
		}
		if s == obstypes.ConfigStatusFailed {
			anyFailed = true
		}
		if s == obstypes.ConfigStatusAborted {
			anyAborted = true
		}
	}

	switch {
	case allPending:
		return obstypes.StatePending, true
	case allPendingOrAttempted:
		return obstypes.StateInProgress, true
	case anyFailed:
		return obstypes.StateFailed, true
	case anyAborted:
		return obstypes.StateAborted, true
	case allCompleted:
		return obstypes.StateCompleted, true
	default:
		return "", false
	}
}

// UpdateObservationState recomputes an observation's state from its loaded
// configuration statuses and persists it. Terminal observations are never
// recomputed. A FAILED or ABORTED result records the last-change timestamp
// so the external scheduler triggers a reschedule.
func (s *Service) UpdateObservationState(ctx context.Context, obs *obstypes.Observation) (obstypes.State, error) {
	if obs.State.IsTerminal() {
		return obs.State, nil
	}

	states := make([]obstypes.ConfigStatusState, 0, len(obs.ConfigurationStatuses))
	for _, cs := range obs.ConfigurationStatuses {
		states = append(states, cs.State)
	}

	newState, ok := observationStateFrom(states)
	if !ok {
		return obs.State, nil
	}

	if newState != obs.State {
		if err := s.observations.UpdateState(dbctx.Context{Ctx: ctx}, obs.ID, newState); err != nil {
			return obs.State, err
		}
		obs.State = newState
	}

	if newState == obstypes.StateFailed || newState == obstypes.StateAborted {
		s.recordLastChange(ctx)
	}

	return newState, nil
}

func (s *Service) recordLastChange(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLastChange(ctx, s.now()); err != nil {
		s.log.Warn("failed to record last change time", "error", err)
	}
}
