// Package sql is a relational storage backend over SQLite or Postgres.
package sql

import (
	"context"
	dbsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mcoot/vinyltrader/internal/model"
	"github.com/mcoot/vinyltrader/internal/storage"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the database engine
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config holds database connection settings
type Config struct {
	Dialect    Dialect
	SQLitePath string // Used by DialectSQLite
	DSN        string // Used by DialectPostgres
}

// DefaultConfig returns a local SQLite database
func DefaultConfig() Config {
	return Config{
		Dialect:    DialectSQLite,
		SQLitePath: filepath.Join("tmp", "vinyltrader.sqlite"),
	}
}

// Storage is a SQL implementation of the storage interface
type Storage struct {
	dialect Dialect
	db      *sqlx.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open connects, verifies the connection and applies pending migrations
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	var driverName, dsn string
	switch cfg.Dialect {
	case DialectSQLite, "":
		cfg.Dialect = DialectSQLite
		driverName = "sqlite"
		path := cfg.SQLitePath
		if path == "" {
			path = DefaultConfig().SQLitePath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		// Writers take the lock at BEGIN and wait for each other instead of failing
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	case DialectPostgres:
		driverName = "pgx"
		dsn = strings.TrimSpace(cfg.DSN)
		if dsn == "" {
			return nil, errors.New("postgres dialect requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	if cfg.Dialect == DialectSQLite {
		db.SetMaxOpenConns(4)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Dialect, err)
	}

	s := &Storage{dialect: cfg.Dialect, db: db}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := s.db.SelectContext(ctx, &done, "SELECT version FROM schema_migrations"); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", s.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		record := tx.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)")
		if _, err := tx.ExecContext(ctx, record, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// Atomically runs fn in one database transaction
func (s *Storage) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	dtx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("begin tx: %w", err))
	}
	if err := fn(&sqlTx{tx: dtx}); err != nil {
		_ = dtx.Rollback()
		return err
	}
	if err := dtx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// isUniqueViolation recognises duplicate-key errors from either driver
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// mapError turns lock contention and serialization failures into retryable conflicts
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return fmt.Errorf("%w: %s", model.ErrConcurrentModification, pgErr.Message)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_BUSY {
		return fmt.Errorf("%w: %s", model.ErrConcurrentModification, liteErr.Error())
	}
	return err
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, dbsql.ErrNoRows) {
		return sentinel
	}
	return mapError(err)
}
