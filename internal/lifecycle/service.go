package lifecycle

import (
	"time"

	obsrepo "github.com/codacy-badger/observation-portal/internal/data/repos/observations"
	reqrepo "github.com/codacy-badger/observation-portal/internal/data/repos/requests"
	"github.com/codacy-badger/observation-portal/internal/data/txn"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/completion"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/ipp"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
	"github.com/codacy-badger/observation-portal/internal/platform/schedcache"
)

// Service is the lifecycle core. It is invoked in-process by the
// configuration-status ingestion pipeline and by the periodic window-expiry
// sweep; many instances may run concurrently across processes.
type Service struct {
	log    *logger.Logger
	runner txn.Runner

	requests       reqrepo.RequestRepo
	groups         reqrepo.RequestGroupRepo
	observations   obsrepo.ObservationRepo
	configStatuses obsrepo.ConfigurationStatusRepo

	completion completion.Calculator
	ledger     *ipp.Ledger
	cache      schedcache.Notifier

	now func() time.Time
}

func NewService(
	runner txn.Runner,
	baseLog *logger.Logger,
	requests reqrepo.RequestRepo,
	groups reqrepo.RequestGroupRepo,
	observations obsrepo.ObservationRepo,
	configStatuses obsrepo.ConfigurationStatusRepo,
	completionCalc completion.Calculator,
	ledger *ipp.Ledger,
	cache schedcache.Notifier,
) *Service {
	return &Service{
		log:            baseLog.With("service", "LifecycleService"),
		runner:         runner,
		requests:       requests,
		groups:         groups,
		observations:   observations,
		configStatuses: configStatuses,
		completion:     completionCalc,
		ledger:         ledger,
		cache:          cache,
		now:            time.Now,
	}
}
