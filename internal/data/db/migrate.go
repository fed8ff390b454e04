package db

import (
	"gorm.io/gorm"

	"github.com/codacy-badger/observation-portal/internal/domain/observations"
	"github.com/codacy-badger/observation-portal/internal/domain/proposals"
	"github.com/codacy-badger/observation-portal/internal/domain/requests"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Proposals + time accounting
		&proposals.Proposal{},
		&proposals.Semester{},
		&proposals.TimeAllocation{},

		// Request graph
		&requests.RequestGroup{},
		&requests.Request{},
		&requests.Window{},

		// Execution reporting
		&observations.Observation{},
		&observations.ConfigurationStatus{},
	)
}
