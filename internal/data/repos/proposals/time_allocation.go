package proposals

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/codacy-badger/observation-portal/internal/domain/proposals"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

// ErrAllocationNotFound is returned when a proposal has no time allocation
// for the requested semester/instrument pool.
var ErrAllocationNotFound = errors.New("time allocation not found")

type TimeAllocationRepo interface {
	Create(dbc dbctx.Context, rows []*types.TimeAllocation) ([]*types.TimeAllocation, error)

	GetByKey(dbc dbctx.Context, proposalID string, key types.AllocationKey) (*types.TimeAllocation, error)
	ListByProposal(dbc dbctx.Context, proposalID string) ([]*types.TimeAllocation, error)

	UpdateIPPTimeAvailable(dbc dbctx.Context, id uuid.UUID, hours float64) error
}

type timeAllocationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimeAllocationRepo(db *gorm.DB, baseLog *logger.Logger) TimeAllocationRepo {
	return &timeAllocationRepo{db: db, log: baseLog.With("repo", "TimeAllocationRepo")}
}

func (r *timeAllocationRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *timeAllocationRepo) Create(dbc dbctx.Context, rows []*types.TimeAllocation) ([]*types.TimeAllocation, error) {
	if len(rows) == 0 {
		return []*types.TimeAllocation{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *timeAllocationRepo) GetByKey(dbc dbctx.Context, proposalID string, key types.AllocationKey) (*types.TimeAllocation, error) {
	var row types.TimeAllocation
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("proposal_id = ? AND semester_id = ? AND instrument_type = ?",
			proposalID, key.SemesterID, key.InstrumentType).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrAllocationNotFound
	}
	return &row, nil
}

func (r *timeAllocationRepo) ListByProposal(dbc dbctx.Context, proposalID string) ([]*types.TimeAllocation, error) {
	var out []*types.TimeAllocation
	if proposalID == "" {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("proposal_id = ?", proposalID).
		Order("semester_id ASC, instrument_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *timeAllocationRepo) UpdateIPPTimeAvailable(dbc dbctx.Context, id uuid.UUID, hours float64) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.TimeAllocation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ipp_time_available": hours,
			"updated_at":         time.Now().UTC(),
		}).Error
}
