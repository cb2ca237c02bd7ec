// Package db provides store connectivity, scoped connection acquisition,
// and migration support for the bundled sample schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"      // register duckdb driver
	_ "github.com/jackc/pgx/v5/stdlib"      // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"         // register sqlite3 driver

	"flightlens/config"
	"flightlens/domain"
)

// SQLite DSN parameters for analytical-read hardening.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultJournalMode = "WAL"
)

const pingTimeout = 5 * time.Second

// Manager owns the single live connection pool to the historical store.
// Its configuration is supplied once at Open and immutable for the process
// lifetime; all query execution goes through Acquire.
type Manager struct {
	db     *sql.DB
	driver string

	// onRelease, when set, is invoked exactly once per Acquire as the
	// scope's release path runs. Tests use it to account for releases.
	onRelease func()
}

// Open builds the driver DSN from the store configuration, opens the pool,
// and verifies the store is reachable. Malformed configuration yields
// *domain.ConfigurationError; an unreachable store or rejected credentials
// yield *domain.ConnectionError. No retries are attempted: a retry against
// a mis-configured target is worse than a fast failure.
func Open(cfg config.StoreConfig) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driverName, dsn := buildDSN(cfg)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, domain.ErrConfiguration("open %s store: %v", cfg.Driver, err)
	}

	// One analyst process, one connection at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.ErrConnection(err, "ping %s store", cfg.Driver)
	}

	return &Manager{db: db, driver: cfg.Driver}, nil
}

// buildDSN constructs the driver name and DSN for the configured store.
func buildDSN(cfg config.StoreConfig) (driverName, dsn string) {
	switch cfg.Driver {
	case config.DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Credential),
			Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Path:   "/" + cfg.Database,
		}
		params := url.Values{}
		if cfg.SearchPath != "" {
			params.Set("search_path", cfg.SearchPath)
		}
		u.RawQuery = params.Encode()
		return "pgx", u.String()

	case config.DriverSQLite:
		params := url.Values{}
		params.Set("_journal_mode", defaultJournalMode)
		params.Set("_busy_timeout", defaultBusyTimeout)
		params.Set("_foreign_keys", "on")
		return "sqlite3", cfg.Database + "?" + params.Encode()

	default: // duckdb
		path := cfg.Database
		if path == ":memory:" {
			path = ""
		}
		return "duckdb", path
	}
}

// Acquire runs fn inside a scoped acquisition of the connection: a
// transaction that is committed when fn returns nil and rolled back when
// fn returns an error or panics. The release path runs exactly once per
// acquisition on every exit path.
func (m *Manager) Acquire(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ErrConnection(err, "acquire %s connection", m.driver)
	}

	released := false
	release := func(commit bool) error {
		if released {
			return nil
		}
		released = true
		if m.onRelease != nil {
			m.onRelease()
		}
		if commit {
			return tx.Commit()
		}
		return tx.Rollback()
	}

	defer func() {
		if p := recover(); p != nil {
			_ = release(false)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = release(false)
		return err
	}
	if err := release(true); err != nil {
		return domain.ErrConnection(err, "release %s connection", m.driver)
	}
	return nil
}

// Placeholder returns the driver's native positional parameter marker for
// the 1-based argument position. Parameter values only ever travel through
// these markers, never through string interpolation.
func (m *Manager) Placeholder(pos int) string {
	if m.driver == config.DriverPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// Driver returns the configured driver name.
func (m *Manager) Driver() string { return m.driver }

// DB returns the underlying pool, for migration helpers and tests.
func (m *Manager) DB() *sql.DB { return m.db }

// Close releases the pool.
func (m *Manager) Close() error { return m.db.Close() }
