package sync

import (
	"RahkaranSync/internal/jobs"
	"RahkaranSync/internal/normalize"
	"RahkaranSync/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries everything the sync HTTP surface needs.
type Deps struct {
	Pool      *pgxpool.Pool
	Cron      *jobs.CronService
	Normalize normalize.Options
}

// SyncService is the service wrapper for the ledger-sync HTTP surface.
type SyncService struct {
	config map[string]interface{}
	deps   *Deps
}

func NewSyncService(cfg map[string]interface{}, deps *Deps) serviceiface.Service {
	return &SyncService{config: cfg, deps: deps}
}

func (s *SyncService) Name() string {
	return "sync"
}

func (s *SyncService) Start() error {
	go StartSyncService(s.config, s.deps)
	return nil
}

func (s *SyncService) Stop() error {
	// Implement stop logic if needed
	return nil
}
