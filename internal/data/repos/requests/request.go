package requests

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/codacy-badger/observation-portal/internal/domain/requests"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

type RequestRepo interface {
	Create(dbc dbctx.Context, rows []*types.Request) ([]*types.Request, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error)
	// LockByID re-reads the row under FOR UPDATE. Callers must hold a
	// transaction in dbc.Tx; the lock releases when it ends.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error)

	ListByGroup(dbc dbctx.Context, groupID uuid.UUID) ([]*types.Request, error)
	ListByGroupAndStates(dbc dbctx.Context, groupID uuid.UUID, states []types.State) ([]*types.Request, error)
	ListStatesByGroup(dbc dbctx.Context, groupID uuid.UUID) ([]types.State, error)

	UpdateState(dbc dbctx.Context, id uuid.UUID, state types.State) error
}

type requestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequestRepo(db *gorm.DB, baseLog *logger.Logger) RequestRepo {
	return &requestRepo{db: db, log: baseLog.With("repo", "RequestRepo")}
}

func (r *requestRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *requestRepo) Create(dbc dbctx.Context, rows []*types.Request) ([]*types.Request, error) {
	if len(rows) == 0 {
		return []*types.Request{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Request
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Windows").
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *requestRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Request
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *requestRepo) ListByGroup(dbc dbctx.Context, groupID uuid.UUID) ([]*types.Request, error) {
	var out []*types.Request
	if groupID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Windows").
		Where("request_group_id = ?", groupID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestRepo) ListByGroupAndStates(dbc dbctx.Context, groupID uuid.UUID, states []types.State) ([]*types.Request, error) {
	var out []*types.Request
	if groupID == uuid.Nil || len(states) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Windows").
		Where("request_group_id = ? AND state IN ?", groupID, states).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestRepo) ListStatesByGroup(dbc dbctx.Context, groupID uuid.UUID) ([]types.State, error) {
	var out []types.State
	if groupID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Request{}).
		Where("request_group_id = ?", groupID).
		Pluck("state", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestRepo) UpdateState(dbc dbctx.Context, id uuid.UUID, state types.State) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Request{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now().UTC(),
		}).Error
}
