package observations

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/codacy-badger/observation-portal/internal/domain/observations"
	"github.com/codacy-badger/observation-portal/internal/platform/dbctx"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

type ConfigurationStatusRepo interface {
	Create(dbc dbctx.Context, rows []*types.ConfigurationStatus) ([]*types.ConfigurationStatus, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ConfigurationStatus, error)
	ListByObservation(dbc dbctx.Context, observationID uuid.UUID) ([]*types.ConfigurationStatus, error)
}

type configurationStatusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConfigurationStatusRepo(db *gorm.DB, baseLog *logger.Logger) ConfigurationStatusRepo {
	return &configurationStatusRepo{db: db, log: baseLog.With("repo", "ConfigurationStatusRepo")}
}

func (r *configurationStatusRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *configurationStatusRepo) Create(dbc dbctx.Context, rows []*types.ConfigurationStatus) ([]*types.ConfigurationStatus, error) {
	if len(rows) == 0 {
		return []*types.ConfigurationStatus{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *configurationStatusRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ConfigurationStatus, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ConfigurationStatus
	err := r.handle(dbc).WithContext(dbc.Ctx).
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

func (r *configurationStatusRepo) ListByObservation(dbc dbctx.Context, observationID uuid.UUID) ([]*types.ConfigurationStatus, error) {
	var out []*types.ConfigurationStatus
	if observationID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("observation_id = ?", observationID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
