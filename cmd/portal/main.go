package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/codacy-badger/observation-portal/internal/data/db"
	"github.com/codacy-badger/observation-portal/internal/data/repos"
	"github.com/codacy-badger/observation-portal/internal/data/txn"
	"github.com/codacy-badger/observation-portal/internal/lifecycle"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/completion"
	"github.com/codacy-badger/observation-portal/internal/lifecycle/ipp"
	"github.com/codacy-badger/observation-portal/internal/platform/envutil"
	"github.com/codacy-badger/observation-portal/internal/platform/logger"
	"github.com/codacy-badger/observation-portal/internal/platform/schedcache"
)

func main() {
	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := db.AutoMigrateAll(postgresService.DB()); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Schedule-change cache. Redis is shared across processes; fall back to
	// a process-local cache when it is not configured.
	cache, err := schedcache.NewRedisNotifier(log)
	if err != nil {
		log.Warn("Redis sched cache unavailable, using in-memory notifier", "error", err)
		cache = schedcache.NewMemoryNotifier()
	}

	// Repos
	log.Info("Setting up repos...")
	requestRepo := repos.NewRequestRepo(thePG, log)
	requestGroupRepo := repos.NewRequestGroupRepo(thePG, log)
	observationRepo := repos.NewObservationRepo(thePG, log)
	configurationStatusRepo := repos.NewConfigurationStatusRepo(thePG, log)
	timeAllocationRepo := repos.NewTimeAllocationRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	runner := txn.NewGormRunner(thePG)
	ledger := ipp.NewLedger(runner, log, timeAllocationRepo, completion.StoredDurations{})
	lifecycleService := lifecycle.NewService(
		runner,
		log,
		requestRepo,
		requestGroupRepo,
		observationRepo,
		configurationStatusRepo,
		completion.ExposureCalculator{},
		ledger,
		cache,
	)

	// Window-expiry sweep on a cron schedule.
	sweepSpec := envutil.Str("SWEEP_CRON", "*/5 * * * *")
	c := cron.New()
	_, err = c.AddFunc(sweepSpec, func() {
		changed, err := lifecycleService.SweepExpiredWindows(context.Background())
		if err != nil {
			log.Error("window expiry sweep failed", "error", err)
			return
		}
		if changed {
			log.Info("window expiry sweep changed request states")
		}
	})
	if err != nil {
		log.Fatal("invalid SWEEP_CRON expression", "spec", sweepSpec, "error", err)
	}
	c.Start()
	log.Info("observation portal lifecycle runner started", "sweep_cron", sweepSpec)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down...")
	<-c.Stop().Done()
}
