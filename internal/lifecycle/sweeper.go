package lifecycle

import (
	"context"

	"github.com/codacy-badger/observation-portal/internal/data/repos"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
)

// SweepExpiredWindows demotes PENDING requests whose last window has passed
// to WINDOW_EXPIRED and re-aggregates any group that lost a request. This
// is the only state change with no external trigger; it runs on a schedule.
// Returns whether anything changed, for caller-side cache invalidation.
//
// Each request is demoted under its own lock-and-recheck transaction, so a
// sweep racing a completion report never clobbers a terminal state. A
// transient failure on one group is logged and skipped; the rest of the
// sweep continues.
func (s *Service) SweepExpiredWindows(ctx context.Context) (bool, error) {
	now := s.now()
	groups, err := s.groups.ListNonTerminal(dbctx.Context{Ctx: ctx})
	if err != nil {
		return false, err
	}

	anyChanged := false
	for _, group := range groups {
		if group.ObservationType == reqtypes.ObservationTypeDirect {
			continue
		}

		groupChanged := false
		for i := range group.Requests {
			req := &group.Requests[i]
			if req.State != reqtypes.StatePending {
				continue
			}
			maxWindow := req.MaxWindowTime()
			if maxWindow.IsZero() || !maxWindow.Before(now) {
				continue
			}

			s.log.Info("expiring request", "request_id", req.ID)
			oldReq := *req
			changed := false
			err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
				row, err := s.requests.LockByID(dbc, req.ID)
				if err != nil {
					return err
				}
				if row == nil || row.State != reqtypes.StatePending {
					return nil
				}
				if err := s.requests.UpdateState(dbc, req.ID, reqtypes.StateWindowExpired); err != nil {
					return err
				}
				changed = true
				return nil
			})
			if err != nil {
				if repos.IsRetryable(err) {
					s.log.Warn("transient failure expiring request, will retry next sweep",
						"request_id", req.ID, "error", err)
					continue
				}
				return anyChanged, err
			}
			if !changed {
				continue
			}
			req.State = reqtypes.StateWindowExpired
			anyChanged = true
			groupChanged = true
			if err := s.OnRequestStateChanged(ctx, &oldReq, req, group); err != nil {
				return anyChanged, err
			}
		}

		if groupChanged {
			oldGroup := *group
			changed, err := s.UpdateRequestGroupState(ctx, group)
			if err != nil {
				if repos.IsRetryable(err) {
					s.log.Warn("transient failure re-aggregating group, will retry next sweep",
						"request_group_id", group.ID, "error", err)
					continue
				}
				return anyChanged, err
			}
			if changed {
				if err := s.OnRequestGroupStateChanged(ctx, &oldGroup, group); err != nil {
					return anyChanged, err
				}
			}
		}
	}
	return anyChanged, nil
}
