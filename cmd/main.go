package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	syncapi "RahkaranSync/api/sync"
	"RahkaranSync/internal/appmanager"
	"RahkaranSync/internal/audit"
	"RahkaranSync/internal/classify"
	"RahkaranSync/internal/config"
	"RahkaranSync/internal/directory"
	"RahkaranSync/internal/jobs"
	"RahkaranSync/internal/normalize"
	"RahkaranSync/internal/oracle"
	"RahkaranSync/internal/rahkaran"
	"RahkaranSync/internal/voucher"
)

// InitDB loads DB config from env vars
func InitDB() (*sql.DB, string, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, pass, host, port, name,
	)
	db, err := sql.Open("postgres", connStr)
	return db, connStr, err
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	// Load .env for local dev
	_ = godotenv.Load("../.env")

	ctx := context.Background()

	db, connStr, err := InitDB()
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatal("failed to create pgx pool:", err)
	}
	appmanager.SetDB(db)
	appmanager.SetPgxPool(pool)

	registryPath := os.Getenv("REGISTRY_FILE")
	if registryPath == "" {
		registryPath = "../registries.yaml"
	}
	reg, err := directory.LoadRegistry(registryPath)
	if err != nil {
		log.Fatal("failed to load registries:", err)
	}

	gemini, err := oracle.NewGeminiClient(ctx)
	if err != nil {
		log.Fatal("failed to init Gemini client:", err)
	}
	orc := oracle.New(gemini)

	dir := directory.New(pool, reg, gemini)
	classifier := classify.New(dir, orc, classify.DefaultOptions())
	auditor := audit.New(orc, reg, audit.Policy{FailOpen: true})
	builder := voucher.NewBuilder(orc, reg.Accounts.BankSL, reg.HostBank.DLCode)

	ledger := rahkaran.NewClient(rahkaran.Config{
		ProxyURL:          os.Getenv("RAHKARAN_PROXY_URL"),
		ProxySecret:       os.Getenv("RAHKARAN_PROXY_SECRET"),
		Timeout:           time.Duration(envInt("RAHKARAN_TIMEOUT_SECONDS", config.ProxyTimeoutSeconds)) * time.Second,
		Attempts:          envInt("RAHKARAN_ATTEMPTS", config.SubmitAttempts),
		Backoff:           time.Duration(config.SubmitBackoffSeconds) * time.Second,
		NumberingAttempts: envInt("RAHKARAN_NUMBERING_ATTEMPTS", config.NumberingAttempts),
		DailyGapOffset:    int64(envInt("RAHKARAN_DAILY_GAP_OFFSET", config.DailyNumberGapOffset)),
	})

	loc, err := time.LoadLocation(config.DefaultTimeZone)
	if err != nil {
		loc = time.UTC
	}
	normOpts := normalize.Options{
		DefaultBadDatesToToday: os.Getenv("STRICT_DATES") == "",
		Location:               loc,
	}

	processor := &jobs.SyncProcessor{
		Pool:       pool,
		SQLDB:      db,
		Refresher:  dir,
		Classifier: classifier,
		Auditor:    auditor,
		Builder:    builder,
		Ledger:     ledger,
		Coords: jobs.LedgerCoords{
			LedgerID:     envInt("RAHKARAN_LEDGER_ID", 1),
			FiscalYearID: envInt("RAHKARAN_FISCAL_YEAR_ID", 1),
			BranchID:     envInt("RAHKARAN_BRANCH_ID", 1),
			VoucherType:  envInt("RAHKARAN_VOUCHER_TYPE", config.DefaultVoucherType),
		},
		Normalize: normOpts,
		Workers:   envInt("CLASSIFY_WORKERS", config.ClassifyWorkers),
		BatchSize: envInt("SYNC_BATCH_SIZE", config.BatchSize),
	}

	cron := jobs.NewCronService(nil, processor)
	appmanager.SetRuntime(cron, &syncapi.Deps{
		Pool:      pool,
		Cron:      cron,
		Normalize: normOpts,
	})

	manager := appmanager.NewAppManager()

	servicesPath := os.Getenv("SERVICES_FILE")
	if servicesPath == "" {
		servicesPath = "../services.yaml"
	}
	servicesCfg, err := appmanager.LoadServiceSequence(servicesPath)
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	manager.AutoRegisterServices(servicesCfg)

	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}
