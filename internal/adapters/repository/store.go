// Package repository persists loan table snapshots.
package repository

import (
	"context"

	"github.com/okian/loanpipe/internal/domain/table"
)

// Store provides read/write access to a table snapshot.
type Store interface {
	// Load reads the snapshot. Every column comes back as raw text.
	// Returns ErrNotFound if no snapshot exists.
	Load(ctx context.Context) (*table.Table, error)

	// Save replaces the snapshot with t.
	Save(ctx context.Context, t *table.Table) error
}
