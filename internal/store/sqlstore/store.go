// Package sqlstore implements store.Store on database/sql, backed by
// SQLite (modernc.org/sqlite) or PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brainvault/brainvault-server/internal/store"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so stored strings sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sqlitePragmas apply to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Options configures Open.
type Options struct {
	Driver       string // sqlite or postgres
	DSN          string // file path for sqlite, connection URL for postgres
	MaxOpenConns int
	Logger       *slog.Logger
}

// Store provides SQL-backed persistence for the Brain Vault server.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger

	searchIndexer store.SearchIndexer

	// now is swapped in tests to control timestamps.
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and applies the schema.
func Open(opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	dsn := opts.DSN
	if d.name == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(maxOpen/2, 1))
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	opts.Logger.Info("database opened", "driver", d.name)

	return &Store{
		db:            db,
		dialect:       d,
		logger:        opts.Logger,
		searchIndexer: store.NewNoopSearchIndexer(),
		now:           time.Now,
	}, nil
}

// OpenSQLite is shorthand for a SQLite store at path.
func OpenSQLite(path string, logger *slog.Logger) (*Store, error) {
	return Open(Options{Driver: DriverSQLite, DSN: path, Logger: logger})
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + strings.TrimPrefix(path, "file:") + sep + strings.Join(params, "&")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetSearchIndexer sets the indexer notified after committed idea writes.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	if indexer == nil {
		indexer = store.NewNoopSearchIndexer()
	}
	s.searchIndexer = indexer
}

// Driver reports which dialect the store speaks.
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString maps the empty string to NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullablePatch maps a patch pointer to a column value: nil pointers are not
// passed here, and a pointer to "" becomes NULL.
func nullablePatch(s *string) sql.NullString {
	return nullString(strings.TrimSpace(*s))
}
