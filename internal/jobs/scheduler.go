package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"RahkaranSync/internal/config"
	"RahkaranSync/internal/logger"
	"RahkaranSync/internal/serviceiface"

	"github.com/robfig/cron/v3"
)

// CronConfig controls the nightly sync schedule.
type CronConfig struct {
	Schedule string // cron expression (default: "0 2 * * *", 2 AM nightly)
	TimeZone string
}

// NewDefaultCronConfig reads the schedule from the environment with sane
// defaults.
func NewDefaultCronConfig() *CronConfig {
	schedule := os.Getenv("SYNC_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultSyncSchedule
	}
	return &CronConfig{
		Schedule: schedule,
		TimeZone: config.DefaultTimeZone,
	}
}

// CronService schedules the nightly ledger sync. Manual triggers from the
// HTTP surface share the same overlap guard, so at most one sync pass runs
// at a time.
type CronService struct {
	config    map[string]interface{}
	processor *SyncProcessor

	cron    *cron.Cron
	running sync.Mutex
}

func NewCronService(cfg map[string]interface{}, processor *SyncProcessor) *CronService {
	return &CronService{
		config:    cfg,
		processor: processor,
	}
}

// SetConfig replaces the services.yaml config block. Call before Start.
func (s *CronService) SetConfig(cfg map[string]interface{}) {
	s.config = cfg
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("🚀 Starting cron service...")

	cronCfg := NewDefaultCronConfig()
	if s.config != nil {
		if schedule, ok := s.config["sync_schedule"].(string); ok && schedule != "" {
			cronCfg.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			cronCfg.TimeZone = tz
		}
	}

	loc, err := time.LoadLocation(cronCfg.TimeZone)
	if err != nil {
		loc = time.UTC
		logger.Audit(fmt.Sprintf("Invalid timezone %s, falling back to UTC: %v", cronCfg.TimeZone, err))
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cronCfg.Schedule, func() {
		logger.Audit(fmt.Sprintf("Starting scheduled ledger sync at %s", time.Now().In(loc).Format(time.RFC3339)))
		summary, err := s.Trigger(context.Background())
		if err != nil {
			logger.Audit(fmt.Sprintf("Scheduled ledger sync failed: %v", err))
			log.Printf("ERROR: scheduled ledger sync failed: %v", err)
			return
		}
		logger.Audit(fmt.Sprintf("Scheduled ledger sync completed: %d vouchers, %d skipped", len(summary.Vouchers), len(summary.Skipped)))
	})
	if err != nil {
		return fmt.Errorf("unable to schedule ledger sync: %v", err)
	}

	c.Start()
	s.cron = c
	logger.Audit(fmt.Sprintf("Ledger sync scheduler started with schedule: %s (timezone: %s)", cronCfg.Schedule, cronCfg.TimeZone))
	log.Printf("[AUDIT] Ledger sync scheduler started: %s (%s)", cronCfg.Schedule, cronCfg.TimeZone)
	return nil
}

// ErrSyncBusy is returned by Trigger while another pass holds the run lock.
var ErrSyncBusy = errors.New("a sync pass is already running")

// Trigger runs one sync pass immediately. A second trigger while one is
// running fails fast instead of queueing.
func (s *CronService) Trigger(ctx context.Context) (RunSummary, error) {
	if !s.running.TryLock() {
		return RunSummary{}, ErrSyncBusy
	}
	defer s.running.Unlock()
	return s.processor.Run(ctx)
}

func (s *CronService) Stop() error {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}
	log.Println("Cron service stopped.")
	return nil
}

var _ serviceiface.Service = (*CronService)(nil)
