package ipp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	proposalsrepo "github.com/codacy-badger/observation-portal/internal/data/repos/proposals"
	"github.com/codacy-badger/observation-portal/internal/data/txn"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/completion"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"

	proptypes "github.com/codacy-badger/observation-portal/internal/domain/proposals"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
)

const (
	testInstrument = "1M0-SCICAM-SINISTRO"
	testSemester   = "2026A"
	testProposal   = "LCO2026A-001"
)

var testKey = proptypes.AllocationKey{SemesterID: testSemester, InstrumentType: testInstrument}

type memAllocationRepo struct {
	mu   sync.Mutex
	rows map[proptypes.AllocationKey]*proptypes.TimeAllocation
}

func newMemAllocationRepo(rows ...*proptypes.TimeAllocation) *memAllocationRepo {
	r := &memAllocationRepo{rows: map[proptypes.AllocationKey]*proptypes.TimeAllocation{}}
	for _, row := range rows {
		cp := *row
		r.rows[row.Key()] = &cp
	}
	return r
}

func (r *memAllocationRepo) available(key proptypes.AllocationKey) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok {
		return row.IPPTimeAvailable
	}
	return 0
}

func (r *memAllocationRepo) Create(_ dbctx.Context, rows []*proptypes.TimeAllocation) ([]*proptypes.TimeAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.rows[row.Key()] = &cp
	}
	return rows, nil
}

func (r *memAllocationRepo) GetByKey(_ dbctx.Context, proposalID string, key proptypes.AllocationKey) (*proptypes.TimeAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok || row.ProposalID != proposalID {
		return nil, proposalsrepo.ErrAllocationNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *memAllocationRepo) ListByProposal(_ dbctx.Context, proposalID string) ([]*proptypes.TimeAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*proptypes.TimeAllocation
	for _, row := range r.rows {
		if row.ProposalID == proposalID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAllocationRepo) UpdateIPPTimeAvailable(_ dbctx.Context, id uuid.UUID, hours float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.IPPTimeAvailable = hours
		}
	}
	return nil
}

func newTestLedger(t *testing.T, allocs *memAllocationRepo) *Ledger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewLedger(txn.Passthrough{}, log, allocs, completion.StoredDurations{})
}

func alloc(available, limit float64) *proptypes.TimeAllocation {
	return &proptypes.TimeAllocation{
		ID:               uuid.New(),
		ProposalID:       testProposal,
		SemesterID:       testSemester,
		InstrumentType:   testInstrument,
		IPPLimit:         limit,
		IPPTimeAvailable: available,
	}
}

// twoHourGroup is a boosted group with a single two hour request.
func twoHourGroup(ippValue float64, state reqtypes.State) *reqtypes.RequestGroup {
	group := &reqtypes.RequestGroup{
		ID:              uuid.New(),
		ProposalID:      testProposal,
		State:           reqtypes.StatePending,
		Operator:        reqtypes.OperatorSingle,
		ObservationType: reqtypes.ObservationTypeNormal,
		IPPValue:        ippValue,
	}
	group.Requests = []reqtypes.Request{{
		ID:             uuid.New(),
		RequestGroupID: group.ID,
		State:          state,
		Duration:       7200,
		InstrumentType: testInstrument,
		SemesterID:     testSemester,
	}}
	return group
}

func TestDebitOnCreate(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(10, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StatePending)

	ledger.DebitOnCreate(context.Background(), group)

	if got := allocs.available(testKey); got != 9 {
		t.Fatalf("ipp_time_available %g, want 9 after debiting 0.5 * 2h", got)
	}
}

func TestDebitOnCreateNoBoostIsNoop(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(10, 10))
	ledger := newTestLedger(t, allocs)

	for _, ipp := range []float64{1.0, 0.5} {
		ledger.DebitOnCreate(context.Background(), twoHourGroup(ipp, reqtypes.StatePending))
	}
	if got := allocs.available(testKey); got != 10 {
		t.Fatalf("ipp_time_available %g, want 10 untouched", got)
	}
}

func TestDebitOnCreateClampsAtZero(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(0.5, 10))
	ledger := newTestLedger(t, allocs)

	ledger.DebitOnCreate(context.Background(), twoHourGroup(1.5, reqtypes.StatePending))

	if got := allocs.available(testKey); got != 0 {
		t.Fatalf("ipp_time_available %g, want 0 after clamping a 1h debit against 0.5h", got)
	}
}

func TestExpiryRefundsBoost(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(9, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StateWindowExpired)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StatePending)

	if got := allocs.available(testKey); got != 10 {
		t.Fatalf("ipp_time_available %g, want 10 after refunding the 1h pre-debit", got)
	}
}

func TestCancelRefundsBoost(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(9, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StateCanceled)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StatePending)

	if got := allocs.available(testKey); got != 10 {
		t.Fatalf("ipp_time_available %g, want 10 after refunding the 1h pre-debit", got)
	}
}

func TestExpiryRefundClampsAtLimit(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(9.5, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StateWindowExpired)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StatePending)

	if got := allocs.available(testKey); got != 10 {
		t.Fatalf("ipp_time_available %g, want capped at ipp_limit 10", got)
	}
}

func TestLateCompletionReDebitsRefund(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(10, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StateCompleted)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StateWindowExpired)

	if got := allocs.available(testKey); got != 9 {
		t.Fatalf("ipp_time_available %g, want 9 after re-debiting the 1h refund", got)
	}
}

// When the pool can no longer cover the re-debit, the ledger stays
// untouched rather than being clamped: the time was spent elsewhere in the
// meantime and the completion still stands.
func TestLateCompletionSkipsWhenInsufficient(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(0.5, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StateCompleted)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StateWindowExpired)

	if got := allocs.available(testKey); got != 0.5 {
		t.Fatalf("ipp_time_available %g, want 0.5 untouched", got)
	}
}

func TestCompletionFromPendingLeavesLedgerAlone(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(9, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(1.5, reqtypes.StateCompleted)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StatePending)

	if got := allocs.available(testKey); got != 9 {
		t.Fatalf("ipp_time_available %g, want 9 unchanged", got)
	}
}

func TestDiscountCompletionEarnsCredit(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(5, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(0.5, reqtypes.StateCompleted)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StatePending)

	if got := allocs.available(testKey); got != 6 {
		t.Fatalf("ipp_time_available %g, want 6 after earning back 0.5 * 2h", got)
	}
}

func TestDiscountExpiryLeavesLedgerAlone(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(5, 10))
	ledger := newTestLedger(t, allocs)
	group := twoHourGroup(0.5, reqtypes.StateWindowExpired)

	ledger.ReconcileRequestStateChange(context.Background(), group, &group.Requests[0], reqtypes.StatePending)

	if got := allocs.available(testKey); got != 5 {
		t.Fatalf("ipp_time_available %g, want 5 unchanged", got)
	}
}

func TestValidateBoostFeasible(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(1, 10))
	ledger := newTestLedger(t, allocs)
	durations := map[proptypes.AllocationKey]float64{testKey: 7200}

	if err := ledger.ValidateBoostFeasible(context.Background(), testProposal, 1.5, reqtypes.ObservationTypeNormal, durations); err != nil {
		t.Fatalf("an exactly coverable boost should validate, got %v", err)
	}
	if err := ledger.ValidateBoostFeasible(context.Background(), testProposal, 1.0, reqtypes.ObservationTypeNormal, durations); err != nil {
		t.Fatalf("ipp 1.0 needs no boost time, got %v", err)
	}

	err := ledger.ValidateBoostFeasible(context.Background(), testProposal, 2.0, reqtypes.ObservationTypeNormal, durations)
	var ite *InsufficientTimeError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InsufficientTimeError, got %v", err)
	}
	if ite.MaxAllowableIPP != 1.5 {
		t.Fatalf("MaxAllowableIPP %g, want 1.5", ite.MaxAllowableIPP)
	}
	if ite.RequestedIPP != 2.0 || ite.InstrumentType != testInstrument {
		t.Fatalf("unexpected error fields: %+v", ite)
	}
}

func TestValidateBoostFeasibleTruncatesMax(t *testing.T) {
	allocs := newMemAllocationRepo(alloc(1, 10))
	ledger := newTestLedger(t, allocs)
	durations := map[proptypes.AllocationKey]float64{testKey: 10800}

	err := ledger.ValidateBoostFeasible(context.Background(), testProposal, 2.0, reqtypes.ObservationTypeNormal, durations)
	var ite *InsufficientTimeError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InsufficientTimeError, got %v", err)
	}
	// 1h available / 3h duration + 1 = 1.333..., truncated not rounded.
	if ite.MaxAllowableIPP != 1.333 {
		t.Fatalf("MaxAllowableIPP %g, want 1.333", ite.MaxAllowableIPP)
	}
}

func TestValidateBoostFeasibleUnknownAllocation(t *testing.T) {
	allocs := newMemAllocationRepo()
	ledger := newTestLedger(t, allocs)
	durations := map[proptypes.AllocationKey]float64{testKey: 3600}

	err := ledger.ValidateBoostFeasible(context.Background(), testProposal, 1.5, reqtypes.ObservationTypeNormal, durations)
	if !errors.Is(err, proposalsrepo.ErrAllocationNotFound) {
		t.Fatalf("expected ErrAllocationNotFound, got %v", err)
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeApplied: "applied",
		OutcomeClamped: "clamped",
		OutcomeSkipped: "skipped",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Fatalf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
