package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	obstypes "github.com/codacy-badger/observation-portal/internal/domain/observations"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
)

func ptrStatuses(in []obstypes.ConfigurationStatus) []*obstypes.ConfigurationStatus {
	out := make([]*obstypes.ConfigurationStatus, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

// OnConfigurationStatusChanged is the ingestion entry point: the telescope
// control system reported a new outcome for one configuration. It cascades
// observation -> request -> request group, firing the state-change hooks
// for any entity whose persisted state actually moved.
func (s *Service) OnConfigurationStatusChanged(ctx context.Context, configurationStatusID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}

	cs, err := s.configStatuses.GetByID(dbc, configurationStatusID)
	if err != nil {
		return err
	}
	if cs == nil {
		return fmt.Errorf("configuration status %s not found", configurationStatusID)
	}
	obs, err := s.observations.GetByID(dbc, cs.ObservationID)
	if err != nil {
		return err
	}
	if obs == nil {
		return fmt.Errorf("observation %s not found", cs.ObservationID)
	}
	req, err := s.requests.GetByID(dbc, obs.RequestID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("request %s not found", obs.RequestID)
	}
	group, err := s.groups.GetByID(dbc, req.RequestGroupID)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("request group %s not found", req.RequestGroupID)
	}

	if !obs.State.IsTerminal() {
		if _, err := s.UpdateObservationState(ctx, obs); err != nil {
			return err
		}
	}

	oldReq := *req
	changed, err := s.UpdateRequestState(ctx, req, ptrStatuses(obs.ConfigurationStatuses), group.Expired(s.now()))
	if err != nil {
		return err
	}
	if changed {
		if err := s.OnRequestStateChanged(ctx, &oldReq, req, group); err != nil {
			return err
		}
	}

	oldGroup := *group
	groupChanged, err := s.UpdateRequestGroupState(ctx, group)
	if err != nil {
		return err
	}
	if groupChanged {
		if err := s.OnRequestGroupStateChanged(ctx, &oldGroup, group); err != nil {
			return err
		}
	}
	return nil
}

// OnRequestStateChanged runs after a request's persisted state changed:
// it records the last-change timestamp, asserts the transition was legal,
// and performs ipp accounting for NORMAL groups. The validation here is a
// consistency assertion on top of the lock-protected update, not a second
// decision point.
func (s *Service) OnRequestStateChanged(ctx context.Context, oldReq, newReq *reqtypes.Request, group *reqtypes.RequestGroup) error {
	if oldReq.State == newReq.State {
		return nil
	}
	s.recordLastChange(ctx)
	if err := ValidateStateChange("request", newReq.ID, oldReq.State, newReq.State); err != nil {
		return err
	}
	if group.ObservationType == reqtypes.ObservationTypeNormal && s.ledger != nil {
		s.ledger.ReconcileRequestStateChange(ctx, group, newReq, oldReq.State)
	}
	return nil
}

// OnRequestGroupStateChanged runs after a group's persisted state changed.
// A terminal group state force-propagates to still-PENDING children: this
// is the one place group state overrides child states instead of being
// derived from them.
func (s *Service) OnRequestGroupStateChanged(ctx context.Context, oldGroup, newGroup *reqtypes.RequestGroup) error {
	if oldGroup.State == newGroup.State {
		return nil
	}
	if err := ValidateStateChange("request group", newGroup.ID, oldGroup.State, newGroup.State); err != nil {
		return err
	}
	if !newGroup.State.IsTerminal() {
		return nil
	}

	pending, err := s.requests.ListByGroupAndStates(dbctx.Context{Ctx: ctx}, newGroup.ID, []reqtypes.State{reqtypes.StatePending})
	if err != nil {
		return err
	}
	for _, child := range pending {
		oldChild := *child
		childChanged := false
		err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
			row, err := s.requests.LockByID(dbc, child.ID)
			if err != nil {
				return err
			}
			if row == nil || row.State != reqtypes.StatePending {
				return nil
			}
			if err := s.requests.UpdateState(dbc, child.ID, newGroup.State); err != nil {
				return err
			}
			childChanged = true
			return nil
		})
		if err != nil {
			return err
		}
		if childChanged {
			child.State = newGroup.State
			if err := s.OnRequestStateChanged(ctx, &oldChild, child, newGroup); err != nil {
				return err
			}
		}
	}
	return nil
}
