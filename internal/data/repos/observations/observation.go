package observations

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/codacy-badger/observation-portal/internal/domain/observations"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

type ObservationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Observation) ([]*types.Observation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Observation, error)
	UpdateState(dbc dbctx.Context, id uuid.UUID, state types.State) error
}

type observationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewObservationRepo(db *gorm.DB, baseLog *logger.Logger) ObservationRepo {
	return &observationRepo{db: db, log: baseLog.With("repo", "ObservationRepo")}
}

func (r *observationRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *observationRepo) Create(dbc dbctx.Context, rows []*types.Observation) ([]*types.Observation, error) {
	if len(rows) == 0 {
		return []*types.Observation{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *observationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Observation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Observation
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("ConfigurationStatuses").
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

func (r *observationRepo) UpdateState(dbc dbctx.Context, id uuid.UUID, state types.State) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Observation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now().UTC(),
		}).Error
}
