package repos

import (
	"gorm.io/gorm"

	"github.com/codacy-badger/observation-portal/internal/data/repos/observations"
	"github.com/codacy-badger/observation-portal/internal/data/repos/proposals"
	"github.com/codacy-badger/observation-portal/internal/data/repos/requests"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
)

type RequestRepo = requests.RequestRepo
type RequestGroupRepo = requests.RequestGroupRepo

type ObservationRepo = observations.ObservationRepo
type ConfigurationStatusRepo = observations.ConfigurationStatusRepo

type TimeAllocationRepo = proposals.TimeAllocationRepo

func NewRequestRepo(db *gorm.DB, baseLog *logger.Logger) RequestRepo {
	return requests.NewRequestRepo(db, baseLog)
}
func NewRequestGroupRepo(db *gorm.DB, baseLog *logger.Logger) RequestGroupRepo {
	return requests.NewRequestGroupRepo(db, baseLog)
}

func NewObservationRepo(db *gorm.DB, baseLog *logger.Logger) ObservationRepo {
	return observations.NewObservationRepo(db, baseLog)
}
func NewConfigurationStatusRepo(db *gorm.DB, baseLog *logger.Logger) ConfigurationStatusRepo {
	return observations.NewConfigurationStatusRepo(db, baseLog)
}

func NewTimeAllocationRepo(db *gorm.DB, baseLog *logger.Logger) TimeAllocationRepo {
	return proposals.NewTimeAllocationRepo(db, baseLog)
}
