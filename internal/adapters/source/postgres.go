// Package source extracts the raw loan payments table from PostgreSQL.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/okian/loanpipe/internal/domain/schema"
	"github.com/okian/loanpipe/internal/domain/table"
	"github.com/okian/loanpipe/pkg/logger"
)

// Sentinel kinds for source errors.
var (
	ErrConnect      = errors.New("database connection failed")
	ErrQuery        = errors.New("source query failed")
	ErrInvalidTable = errors.New("invalid source table name")
)

// Settings are the connection parameters of the source database.
type Settings struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns a postgres:// connection URL.
func (s Settings) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.User, s.Password),
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   s.Database,
	}
	q := u.Query()
	if s.SSLMode != "" {
		q.Set("sslmode", s.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, s Settings) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s:%d: %w", ErrConnect, s.Host, s.Port, err)
	}
	return db, nil
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the loader.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// Loader reads whole tables as raw text columns.
type Loader struct {
	db     *sql.DB
	logger logger.Logger
}

// NewLoader creates a loader over an open database handle.
func NewLoader(db *sql.DB, opts ...Option) *Loader {
	l := &Loader{db: db, logger: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Extract returns every row of tableName. Values are rendered as text so the
// result matches a freshly loaded snapshot; dates use the source's
// day/month/year layout.
func (l *Loader) Extract(ctx context.Context, tableName string) (*table.Table, error) {
	if tableName == "" {
		return nil, ErrInvalidTable
	}
	rows, err := l.db.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(tableName))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, tableName, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, tableName, err)
	}
	values := make([][]string, len(names))
	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrQuery, tableName, err)
		}
		for i, v := range dest {
			values[i] = append(values[i], render(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, tableName, err)
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = table.NewRaw(name, values[i])
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	l.logger.Info(ctx, "source table extracted",
		logger.String("table", tableName),
		logger.Int("rows", t.Len()),
		logger.Int("columns", t.Width()),
	)
	return t, nil
}

// render converts a scanned driver value to text. NULL becomes "".
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(schema.DateLayout)
	default:
		return fmt.Sprint(x)
	}
}
