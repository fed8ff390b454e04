// Package ipp keeps the priority-boost time ledger. Groups submitted with
// ipp_value > 1.0 pre-debit boost time from their proposal's allocation
// pools; the ledger reconciles that debit as requests reach terminal states.
// Accounting is best-effort: once a state transition has committed, ledger
// shortfalls are logged and clamped, never raised.
package ipp

import (
	"context"
	"fmt"
	"math"

	proposalsrepo "github.com/codacy-badger/observation-portal/internal/data/repos/proposals"
	"github.com/codacy-badger/observation-portal/internal/data/txn"
	proptypes "github.com/codacy-badger/observation-portal/internal/domain/proposals"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/completion"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

// Outcome reports how a single ledger mutation resolved.
type Outcome int

const (
	// OutcomeApplied: the full delta landed on the allocation.
	OutcomeApplied Outcome = iota
	// OutcomeClamped: the delta was applied but capped at the pool floor
	// (0) or ceiling (ipp_limit).
	OutcomeClamped
	// OutcomeSkipped: the mutation was not applied at all, e.g. a re-debit
	// against an allocation that cannot cover it.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeClamped:
		return "clamped"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// InsufficientTimeError rejects a submission whose ipp_value needs more
// boost time than the proposal has available. MaxAllowableIPP is the largest
// ipp_value the pool could cover, truncated to three decimals.
type InsufficientTimeError struct {
	InstrumentType  string
	ObservationType reqtypes.ObservationType
	RequestedIPP    float64
	MaxAllowableIPP float64
}

func (e *InsufficientTimeError) Error() string {
	return fmt.Sprintf(
		"an IPP value of %g requires more IPP time than is available for %s observations with the %s; lower the IPP value to <= %g and submit again",
		e.RequestedIPP, e.ObservationType, e.InstrumentType, e.MaxAllowableIPP,
	)
}

// Ledger owns all mutations of TimeAllocation.ipp_time_available.
type Ledger struct {
	runner    txn.Runner
	log       *logger.Logger
	allocs    proposalsrepo.TimeAllocationRepo
	durations completion.DurationCalculator
}

func NewLedger(runner txn.Runner, baseLog *logger.Logger, allocs proposalsrepo.TimeAllocationRepo, durations completion.DurationCalculator) *Ledger {
	return &Ledger{
		runner:    runner,
		log:       baseLog.With("service", "IPPLedger"),
		allocs:    allocs,
		durations: durations,
	}
}

// DebitOnCreate debits the boost time for a freshly persisted group from
// every allocation pool its requests map onto. The group is already
// committed when this runs, so failures are logged and swallowed; they must
// not fail the submission.
func (l *Ledger) DebitOnCreate(ctx context.Context, group *reqtypes.RequestGroup) {
	boost := group.IPPValue - 1.0
	if boost <= 0 {
		return
	}
	for key, seconds := range l.durations.GroupDurations(group) {
		if _, err := l.modify(ctx, group.ProposalID, key, -boost*seconds/3600); err != nil {
			l.log.Warn("problem debiting ipp time on creation",
				"request_group_id", group.ID,
				"proposal_id", group.ProposalID,
				"allocation", key.String(),
				"error", err,
			)
		}
	}
}

// ReconcileRequestStateChange applies the completion/cancellation accounting
// for one request whose state just changed. Only called for NORMAL groups.
//
// Completion of a discount request (ipp_value < 1) earns back the credit the
// submitter traded for the discount. Completion of a boosted request that
// had already been refunded by window expiry re-debits the refund, unless
// the pool can no longer cover it. Cancellation or expiry of a boosted
// request refunds the pre-debit.
func (l *Ledger) ReconcileRequestStateChange(ctx context.Context, group *reqtypes.RequestGroup, req *reqtypes.Request, oldState reqtypes.State) {
	boost := group.IPPValue - 1.0
	if boost == 0 {
		return
	}
	hours := l.durations.RequestDuration(req) / 3600
	key := completion.KeyForRequest(req)

	switch req.State {
	case reqtypes.StateCompleted:
		if group.IPPValue < 1.0 {
			l.credit(ctx, group, req, key, math.Abs(boost)*hours)
			return
		}
		if oldState == reqtypes.StateWindowExpired {
			outcome, err := l.debitIfSufficient(ctx, group.ProposalID, key, boost*hours)
			if err != nil {
				l.log.Warn("problem re-debiting ipp time", "request_id", req.ID, "error", err)
				return
			}
			if outcome == OutcomeSkipped {
				l.log.Warn("request switched from WINDOW_EXPIRED to COMPLETED but did not have enough ipp_time to debit",
					"request_id", req.ID,
					"allocation", key.String(),
				)
			}
		}
	case reqtypes.StateCanceled, reqtypes.StateWindowExpired:
		if group.IPPValue >= 1.0 {
			l.credit(ctx, group, req, key, boost*hours)
		}
	}
}

func (l *Ledger) credit(ctx context.Context, group *reqtypes.RequestGroup, req *reqtypes.Request, key proptypes.AllocationKey, hours float64) {
	if _, err := l.modify(ctx, group.ProposalID, key, hours); err != nil {
		l.log.Warn("problem crediting ipp time",
			"request_id", req.ID,
			"allocation", key.String(),
			"error", err,
		)
	}
}

// modify applies a signed delta (hours) to one allocation pool inside a
// transaction, clamping the result into [0, ipp_limit]. There is no lock
// re-check here: concurrent ipp adjustments are last-writer-wins, with the
// clamp bounding the damage.
func (l *Ledger) modify(ctx context.Context, proposalID string, key proptypes.AllocationKey, deltaHours float64) (Outcome, error) {
	outcome := OutcomeApplied
	err := l.runner.InTx(ctx, func(dbc dbctx.Context) error {
		alloc, err := l.allocs.GetByKey(dbc, proposalID, key)
		if err != nil {
			return err
		}
		modified := alloc.IPPTimeAvailable + deltaHours
		if modified < 0 {
			l.log.Warn("ipp debit would set ipp_time_available below zero, capping at 0",
				"allocation", key.String(), "proposal_id", proposalID)
			modified = 0
			outcome = OutcomeClamped
		} else if modified > alloc.IPPLimit {
			l.log.Warn("ipp credit would set ipp_time_available above ipp_limit, capping at limit",
				"allocation", key.String(), "proposal_id", proposalID, "ipp_limit", alloc.IPPLimit)
			modified = alloc.IPPLimit
			outcome = OutcomeClamped
		}
		return l.allocs.UpdateIPPTimeAvailable(dbc, alloc.ID, modified)
	})
	if err != nil {
		return OutcomeSkipped, err
	}
	return outcome, nil
}

// debitIfSufficient debits hours only when the pool fully covers them;
// otherwise it leaves the ledger untouched and reports OutcomeSkipped.
func (l *Ledger) debitIfSufficient(ctx context.Context, proposalID string, key proptypes.AllocationKey, hours float64) (Outcome, error) {
	outcome := OutcomeApplied
	err := l.runner.InTx(ctx, func(dbc dbctx.Context) error {
		alloc, err := l.allocs.GetByKey(dbc, proposalID, key)
		if err != nil {
			return err
		}
		if alloc.IPPTimeAvailable < hours {
			outcome = OutcomeSkipped
			return nil
		}
		return l.allocs.UpdateIPPTimeAvailable(dbc, alloc.ID, alloc.IPPTimeAvailable-hours)
	})
	if err != nil {
		return OutcomeSkipped, err
	}
	return outcome, nil
}

// ValidateBoostFeasible simulates the creation-time debit for a group draft
// before anything is persisted. totalDurations maps each allocation pool the
// draft touches onto its summed duration in seconds, as computed by the
// submission pipeline. The math mirrors DebitOnCreate exactly.
func (l *Ledger) ValidateBoostFeasible(ctx context.Context, proposalID string, ippValue float64, observationType reqtypes.ObservationType, totalDurations map[proptypes.AllocationKey]float64) error {
	boost := ippValue - 1.0
	if boost <= 0 {
		return nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	available := map[proptypes.AllocationKey]float64{}
	for key := range totalDurations {
		alloc, err := l.allocs.GetByKey(dbc, proposalID, key)
		if err != nil {
			return err
		}
		available[key] = alloc.IPPTimeAvailable
	}

	for key, seconds := range totalDurations {
		hours := seconds / 3600
		if available[key] < hours*boost {
			maxAllowable := available[key]/hours + 1
			return &InsufficientTimeError{
				InstrumentType:  key.InstrumentType,
				ObservationType: observationType,
				RequestedIPP:    ippValue,
				MaxAllowableIPP: math.Floor(maxAllowable*1000) / 1000,
			}
		}
		available[key] -= hours * boost
	}
	return nil
}
