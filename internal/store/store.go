// Package store opens the relational backend the pipeline persists into.
//
// Two backends are supported:
//   - sqlite: an embedded file database (modernc.org/sqlite, no cgo)
//   - postgres: a networked server reached through pgx's database/sql driver
//
// Both are exposed as a *sql.DB plus a Dialect, so writers and the migrator
// stay backend-agnostic apart from placeholder syntax and per-dialect DDL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/blockwatch/internal/config"
)

// ErrConfiguration marks failures caused by bad backend parameters or an
// unreachable backend at startup. These are fatal to initialization.
var ErrConfiguration = errors.New("backend configuration error")

// Dialect identifies the SQL flavour of a backend.
type Dialect string

const (
	SQLite   Dialect = config.BackendSQLite
	Postgres Dialect = config.BackendPostgres
)

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// DB is an opened backend.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an already opened database. Mostly useful in tests.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// Open connects to the backend described by cfg and verifies it is reachable.
func Open(ctx context.Context, cfg config.DatabaseConf) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err = openSQLite(cfg)
	case config.BackendPostgres:
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfiguration, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrConfiguration, cfg.Backend, err)
	}

	return &DB{db: db, dialect: Dialect(cfg.Backend)}, nil
}

func openSQLite(cfg config.DatabaseConf) (*sql.DB, error) {
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrConfiguration)
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create sqlite dir: %v", ErrConfiguration, err)
		}
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + cfg.SQLitePath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrConfiguration, err)
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func openPostgres(cfg config.DatabaseConf) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres dsn: %v", ErrConfiguration, err)
	}
	db := stdlib.OpenDB(*connCfg)
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MaxConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// SQL returns the underlying pool.
func (d *DB) SQL() *sql.DB { return d.db }

// Dialect returns the backend flavour.
func (d *DB) Dialect() Dialect { return d.dialect }

// Ping checks the backend is reachable.
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Close releases the pool.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
