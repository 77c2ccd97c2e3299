package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/loanpipe/internal/adapters/repository"
	app "github.com/okian/loanpipe/internal/app"
	"github.com/okian/loanpipe/internal/config"
	"github.com/okian/loanpipe/pkg/logger"
	"github.com/okian/loanpipe/pkg/metrics"
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger.Get(), os.Stdout); err != nil {
		os.Stderr.WriteString("pipeline failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run executes one pipeline pass and prints the report lines to out.
func run(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) error {
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log.Named("pipeline")),
		app.WithInput(repository.NewCSVStore(cfg.InputPath, repository.WithLogger(log))),
		app.WithNullThreshold(cfg.NullThreshold),
		app.WithFixedPopulation(cfg.FixedPopulation),
		app.WithMetrics(metrics.NewManager(metrics.WithSourceTable(cfg.DBTable))),
		app.WithMetricsFile(cfg.MetricsFile),
	}
	if cfg.OutputPath != "" {
		opts = append(opts, app.WithOutput(repository.NewCSVStore(cfg.OutputPath, repository.WithLogger(log))))
	}

	res, err := app.New(opts...).Run(ctx)
	if err != nil {
		return err
	}
	for _, line := range res.Report.Lines(cfg.CurrencySymbol) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
