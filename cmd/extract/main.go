// Command extract copies the loan payments table from PostgreSQL into the
// local snapshot file read by the pipeline.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/loanpipe/internal/adapters/repository"
	"github.com/okian/loanpipe/internal/adapters/source"
	"github.com/okian/loanpipe/internal/config"
	"github.com/okian/loanpipe/pkg/logger"
	"github.com/okian/loanpipe/pkg/metrics"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Named("extract")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	if err := extract(ctx, cfg, log); err != nil {
		log.Error(ctx, "extract failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func extract(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	db, err := source.Open(ctx, source.Settings{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	return snapshot(ctx, db, cfg, log)
}

// snapshot copies the configured table from db into the input snapshot file.
func snapshot(ctx context.Context, db *sql.DB, cfg *config.Config, log logger.Logger) error {
	t, err := source.NewLoader(db, source.WithLogger(log)).Extract(ctx, cfg.DBTable)
	if err != nil {
		return err
	}
	m := metrics.NewManager(metrics.WithSourceTable(cfg.DBTable))
	m.RecordRowsLoaded(t.Len())

	store := repository.NewCSVStore(cfg.InputPath, repository.WithLogger(log))
	if err := store.Save(ctx, t); err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	return nil
}
