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

type RequestGroupRepo interface {
	Create(dbc dbctx.Context, rows []*types.RequestGroup) ([]*types.RequestGroup, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RequestGroup, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.RequestGroup, error)

	// ListNonTerminal returns groups that can still change state, with child
	// requests and windows preloaded for the expiry sweep.
	ListNonTerminal(dbc dbctx.Context) ([]*types.RequestGroup, error)

	UpdateState(dbc dbctx.Context, id uuid.UUID, state types.State) error
}

type requestGroupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequestGroupRepo(db *gorm.DB, baseLog *logger.Logger) RequestGroupRepo {
	return &requestGroupRepo{db: db, log: baseLog.With("repo", "RequestGroupRepo")}
}

func (r *requestGroupRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *requestGroupRepo) Create(dbc dbctx.Context, rows []*types.RequestGroup) ([]*types.RequestGroup, error) {
	if len(rows) == 0 {
		return []*types.RequestGroup{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requestGroupRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RequestGroup, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.RequestGroup
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Requests").
		Preload("Requests.Windows").
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

func (r *requestGroupRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.RequestGroup, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.RequestGroup
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

func (r *requestGroupRepo) ListNonTerminal(dbc dbctx.Context) ([]*types.RequestGroup, error) {
	var out []*types.RequestGroup
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Requests").
		Preload("Requests.Windows").
		Where("state NOT IN ?", types.TerminalStates).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestGroupRepo) UpdateState(dbc dbctx.Context, id uuid.UUID, state types.State) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.RequestGroup{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now().UTC(),
		}).Error
}
