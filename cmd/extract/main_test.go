package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/okian/loanpipe/internal/adapters/repository"
	"github.com/okian/loanpipe/internal/config"
	"github.com/okian/loanpipe/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.New()
	cfg.InputPath = filepath.Join(dir, "loan_payments.csv")
	cfg.MetricsFile = filepath.Join(dir, "extract.prom")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loan_payments"`)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "term"}).
			AddRow(int64(1), "36 months").
			AddRow(int64(2), "60 months"),
	)

	require.NoError(t, snapshot(ctx, db, cfg, logger.Nop()))
	require.NoError(t, mock.ExpectationsWereMet())

	saved, err := repository.NewCSVStore(cfg.InputPath).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Len())

	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `loanpipe_cleaning_rows_loaded_total{source="loan_payments"} 2`)
}
