package lifecycle

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	proposalsrepo "github.com/codacy-badger/observation-portal/internal/data/repos/proposals"
	"github.com/codacy-badger/observation-portal/internal/data/txn"
	obstypes "github.com/codacy-badger/observation-portal/internal/domain/observations"
	proptypes "github.com/codacy-badger/observation-portal/internal/domain/proposals"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/completion"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/ipp"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

func dbc() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func newTestLedger(log *logger.Logger, allocs *fakeTimeAllocationRepo) *ipp.Ledger {
	return ipp.NewLedger(txn.Passthrough{}, log, allocs, completion.StoredDurations{})
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type fakeRequestRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*reqtypes.Request
}

func newFakeRequestRepo(rows ...*reqtypes.Request) *fakeRequestRepo {
	r := &fakeRequestRepo{rows: map[uuid.UUID]*reqtypes.Request{}}
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return r
}

func (r *fakeRequestRepo) get(id uuid.UUID) *reqtypes.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil
	}
	cp := *row
	return &cp
}

func (r *fakeRequestRepo) setState(id uuid.UUID, state reqtypes.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.State = state
	}
}

func (r *fakeRequestRepo) Create(_ dbctx.Context, rows []*reqtypes.Request) ([]*reqtypes.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return rows, nil
}

func (r *fakeRequestRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*reqtypes.Request, error) {
	return r.get(id), nil
}

func (r *fakeRequestRepo) LockByID(_ dbctx.Context, id uuid.UUID) (*reqtypes.Request, error) {
	return r.get(id), nil
}

func (r *fakeRequestRepo) byGroup(groupID uuid.UUID) []*reqtypes.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reqtypes.Request
	for _, row := range r.rows {
		if row.RequestGroupID == groupID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *fakeRequestRepo) ListByGroup(_ dbctx.Context, groupID uuid.UUID) ([]*reqtypes.Request, error) {
	return r.byGroup(groupID), nil
}

func (r *fakeRequestRepo) ListByGroupAndStates(_ dbctx.Context, groupID uuid.UUID, states []reqtypes.State) ([]*reqtypes.Request, error) {
	var out []*reqtypes.Request
	for _, row := range r.byGroup(groupID) {
		for _, st := range states {
			if row.State == st {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) ListStatesByGroup(_ dbctx.Context, groupID uuid.UUID) ([]reqtypes.State, error) {
	var out []reqtypes.State
	for _, row := range r.byGroup(groupID) {
		out = append(out, row.State)
	}
	return out, nil
}

func (r *fakeRequestRepo) UpdateState(_ dbctx.Context, id uuid.UUID, state reqtypes.State) error {
	r.setState(id, state)
	return nil
}

type fakeRequestGroupRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*reqtypes.RequestGroup
	requests *fakeRequestRepo
}

func newFakeRequestGroupRepo(requests *fakeRequestRepo, rows ...*reqtypes.RequestGroup) *fakeRequestGroupRepo {
	r := &fakeRequestGroupRepo{rows: map[uuid.UUID]*reqtypes.RequestGroup{}, requests: requests}
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return r
}

func (r *fakeRequestGroupRepo) get(id uuid.UUID) *reqtypes.RequestGroup {
	r.mu.Lock()
	row, ok := r.rows[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	cp := *row
	r.mu.Unlock()
	if r.requests != nil {
		cp.Requests = nil
		for _, req := range r.requests.byGroup(id) {
			cp.Requests = append(cp.Requests, *req)
		}
	}
	return &cp
}

func (r *fakeRequestGroupRepo) Create(_ dbctx.Context, rows []*reqtypes.RequestGroup) ([]*reqtypes.RequestGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return rows, nil
}

func (r *fakeRequestGroupRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*reqtypes.RequestGroup, error) {
	return r.get(id), nil
}

func (r *fakeRequestGroupRepo) LockByID(_ dbctx.Context, id uuid.UUID) (*reqtypes.RequestGroup, error) {
	return r.get(id), nil
}

func (r *fakeRequestGroupRepo) ListNonTerminal(_ dbctx.Context) ([]*reqtypes.RequestGroup, error) {
	r.mu.Lock()
	var ids []uuid.UUID
	for id, row := range r.rows {
		if !row.State.IsTerminal() {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	var out []*reqtypes.RequestGroup
	for _, id := range ids {
		out = append(out, r.get(id))
	}
	return out, nil
}

func (r *fakeRequestGroupRepo) UpdateState(_ dbctx.Context, id uuid.UUID, state reqtypes.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.State = state
	}
	return nil
}

type fakeObservationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*obstypes.Observation
}

func newFakeObservationRepo(rows ...*obstypes.Observation) *fakeObservationRepo {
	r := &fakeObservationRepo{rows: map[uuid.UUID]*obstypes.Observation{}}
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return r
}

func (r *fakeObservationRepo) Create(_ dbctx.Context, rows []*obstypes.Observation) ([]*obstypes.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return rows, nil
}

func (r *fakeObservationRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*obstypes.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeObservationRepo) UpdateState(_ dbctx.Context, id uuid.UUID, state obstypes.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.State = state
	}
	return nil
}

type fakeConfigurationStatusRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*obstypes.ConfigurationStatus
}

func newFakeConfigurationStatusRepo(rows ...*obstypes.ConfigurationStatus) *fakeConfigurationStatusRepo {
	r := &fakeConfigurationStatusRepo{rows: map[uuid.UUID]*obstypes.ConfigurationStatus{}}
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return r
}

func (r *fakeConfigurationStatusRepo) Create(_ dbctx.Context, rows []*obstypes.ConfigurationStatus) ([]*obstypes.ConfigurationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.rows[row.ID] = &cp
	}
	return rows, nil
}

func (r *fakeConfigurationStatusRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*obstypes.ConfigurationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeConfigurationStatusRepo) ListByObservation(_ dbctx.Context, observationID uuid.UUID) ([]*obstypes.ConfigurationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*obstypes.ConfigurationStatus
	for _, row := range r.rows {
		if row.ObservationID == observationID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTimeAllocationRepo struct {
	mu   sync.Mutex
	rows map[proptypes.AllocationKey]*proptypes.TimeAllocation
}

func newFakeTimeAllocationRepo(rows ...*proptypes.TimeAllocation) *fakeTimeAllocationRepo {
	r := &fakeTimeAllocationRepo{rows: map[proptypes.AllocationKey]*proptypes.TimeAllocation{}}
	for _, row := range rows {
		cp := *row
		r.rows[row.Key()] = &cp
	}
	return r
}

func (r *fakeTimeAllocationRepo) available(key proptypes.AllocationKey) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok {
		return row.IPPTimeAvailable
	}
	return 0
}

func (r *fakeTimeAllocationRepo) Create(_ dbctx.Context, rows []*proptypes.TimeAllocation) ([]*proptypes.TimeAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		cp := *row
		r.rows[row.Key()] = &cp
	}
	return rows, nil
}

func (r *fakeTimeAllocationRepo) GetByKey(_ dbctx.Context, proposalID string, key proptypes.AllocationKey) (*proptypes.TimeAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok || row.ProposalID != proposalID {
		return nil, proposalsrepo.ErrAllocationNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeTimeAllocationRepo) ListByProposal(_ dbctx.Context, proposalID string) ([]*proptypes.TimeAllocation, error) {
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

func (r *fakeTimeAllocationRepo) UpdateIPPTimeAvailable(_ dbctx.Context, id uuid.UUID, hours float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.IPPTimeAvailable = hours
		}
	}
	return nil
}
