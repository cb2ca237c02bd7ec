package db

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	"flightlens/config"
)

// Migrate applies the embedded sample-schema migrations. Postgres and
// SQLite go through goose. DuckDB has no goose dialect, so its up-sections
// are applied directly with our own applied-file bookkeeping; re-running
// is a no-op on every driver.
func (m *Manager) Migrate(ctx context.Context) error {
	switch m.driver {
	case config.DriverPostgres, config.DriverSQLite:
		goose.SetBaseFS(EmbedMigrations)

		dialect := "postgres"
		if m.driver == config.DriverSQLite {
			dialect = "sqlite3"
		}
		if err := goose.SetDialect(dialect); err != nil {
			return fmt.Errorf("goose set dialect: %w", err)
		}
		if err := goose.Up(m.db, "migrations"); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil

	default:
		return m.applyRaw(ctx)
	}
}

// applyRaw executes the up-section of every embedded migration in order,
// recording applied files in a bookkeeping table so re-runs are no-ops.
func (m *Manager) applyRaw(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`); err != nil {
		return fmt.Errorf("create migration bookkeeping: %w", err)
	}

	entries, err := fs.Glob(EmbedMigrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, name := range entries {
		var applied int
		if err := m.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE filename = ?`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		raw, err := EmbedMigrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx, upSection(string(raw))); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx,
			`INSERT INTO schema_migrations (filename) VALUES (?)`, name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// upSection returns the statements between "-- +goose Up" and
// "-- +goose Down".
func upSection(sqlText string) string {
	const upMarker = "+goose Up"
	const downMarker = "+goose Down"

	if i := strings.Index(sqlText, upMarker); i >= 0 {
		sqlText = sqlText[i+len(upMarker):]
	}
	if i := strings.Index(sqlText, downMarker); i >= 0 {
		sqlText = sqlText[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(sqlText), "--")
}
