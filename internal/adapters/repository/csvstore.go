package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/loanpipe/internal/domain/schema"
	"github.com/okian/loanpipe/internal/domain/table"
	"github.com/okian/loanpipe/pkg/logger"
)

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 4096

// CSVStore keeps a snapshot in a single CSV file with a header row.
type CSVStore struct {
	path       string
	comma      rune
	dateLayout string
	logger     logger.Logger
}

var _ Store = (*CSVStore)(nil)

// NewCSVStore creates a store backed by the file at path.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	s := &CSVStore{path: path, comma: ',', dateLayout: schema.DateLayout, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Load reads the file into raw text columns. Blank header names are replaced
// with "Unnamed: <position>".
func (s *CSVStore) Load(ctx context.Context) (*table.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("open snapshot %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.comma
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: missing header", ErrMalformed, s.path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.path, err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		names[i] = h
	}

	values := make([][]string, len(names))
	for row := 0; ; row++ {
		if row%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.path, err)
		}
		for i, v := range rec {
			values[i] = append(values[i], v)
		}
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = table.NewRaw(name, values[i])
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, s.path, err)
	}
	rows, width := t.Shape()
	s.logger.Info(ctx, "snapshot loaded",
		logger.String("path", s.path),
		logger.Int("rows", rows),
		logger.Int("columns", width),
	)
	return t, nil
}

// Save writes t to a temporary file next to the target and renames it into
// place. Nulls are written as empty fields. Dates use the store's date layout,
// the day/month/year form of the source snapshot unless overridden.
func (s *CSVStore) Save(ctx context.Context, t *table.Table) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := s.write(ctx, tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	rows, width := t.Shape()
	s.logger.Info(ctx, "snapshot saved",
		logger.String("path", s.path),
		logger.Int("rows", rows),
		logger.Int("columns", width),
	)
	return nil
}

func (s *CSVStore) write(ctx context.Context, w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = s.comma
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	cols := t.Columns()
	rec := make([]string, len(cols))
	for row := 0; row < t.Len(); row++ {
		if row%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for i, c := range cols {
			if c.Kind() == table.KindTemporal && !c.IsNull(row) {
				rec[i] = c.Time(row).Format(s.dateLayout)
				continue
			}
			rec[i] = c.Text(row)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	return nil
}
