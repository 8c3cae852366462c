package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mquispe/accessdir/internal/auth"
	"github.com/mquispe/accessdir/internal/config"
	"github.com/mquispe/accessdir/internal/db"
	"github.com/mquispe/accessdir/internal/directory/audit"
	"github.com/mquispe/accessdir/internal/directory/service"
	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/store/csvfile"
	"github.com/mquispe/accessdir/internal/directory/store/sqlite"
	"github.com/mquispe/accessdir/internal/httpapi"
)

func main() {
	logger := log.New(os.Stdout, "accessdir-server ", log.LstdFlags|log.LUTC)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		records  store.RecordStore
		backups  store.BackupStore
		exporter store.Exporter
		pruner   *service.BackupPruner
	)

	switch cfg.StoreBackend {
	case "sqlite":
		sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			logger.Fatalf("open db: %v", err)
		}
		defer sqlDB.Close()

		if cfg.Env == "dev" {
			if err := db.SeedDev(ctx, sqlDB); err != nil {
				logger.Fatalf("seed dev db: %v", err)
			}
		}

		writer := db.NewWriter(sqlDB)
		defer writer.Close()

		records = sqlite.NewRecordStore(sqlDB, writer)

	default: // csv
		st, err := csvfile.New(cfg.DataDir)
		if err != nil {
			logger.Fatalf("open record store: %v", err)
		}
		records = st
		exporter = st
		if cfg.BackupOnWrite {
			backups = st
		}
		pruner = service.NewBackupPruner(st, service.PrunerConfig{
			RetentionDays: cfg.BackupRetentionDays,
			IntervalHours: cfg.PruneIntervalHours,
		}, logger)
	}

	trail, err := audit.New(cfg.DataDir, cfg.AuditBufferCap)
	if err != nil {
		logger.Fatalf("open audit trail: %v", err)
	}

	authSvc, err := auth.New(cfg.DataDir)
	if err != nil {
		logger.Fatalf("open accounts: %v", err)
	}
	if err := authSvc.EnsureAdmin(); err != nil {
		logger.Fatalf("ensure admin account: %v", err)
	}

	directory, err := service.New(ctx, service.Dependencies{
		Records:  records,
		Backups:  backups,
		Exporter: exporter,
		Trail:    trail,
	})
	if err != nil {
		logger.Fatalf("load directory: %v", err)
	}

	if pruner != nil {
		pruner.Start(ctx)
		defer pruner.Stop()
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:           logger,
		Addr:             cfg.HTTPAddr,
		Directory:        directory,
		Auth:             authSvc,
		Trail:            trail,
		AlertHorizonDays: cfg.AlertHorizonDays,
		DashboardTopN:    cfg.DashboardTopN,
	})

	go func() {
		logger.Printf("listening on %s (backend=%s)", cfg.HTTPAddr, cfg.StoreBackend)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
