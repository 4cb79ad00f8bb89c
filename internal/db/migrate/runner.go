// Package migrate runs database migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"inventory-audit/backend/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations in the given direction using the provided DSN.
// direction must be "up" or "down". The dialect (and so the migration directory) follows the DSN:
// postgres:// uses the Postgres migrations, anything else the SQLite ones, creating the file if absent.
// Returns nil on success and when already at the target version; other errors for DB or I/O failures.
func Run(dsn string, direction string) error {
	if strings.TrimSpace(dsn) == "" {
		return errors.New("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	dialect, _, err := db.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	databaseURL, err := URL(dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	sourceDriver, err := iofs.New(db.MigrationFS, db.MigrationDir(dialect))
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}
	return nil
}

// URL converts an application DSN into the URL form golang-migrate expects:
// Postgres DSNs pass through; SQLite DSNs become sqlite://<path>.
func URL(dsn string) (string, error) {
	dialect, _, err := db.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	if dialect == db.DialectPostgres {
		return strings.TrimSpace(dsn), nil
	}
	path := strings.TrimSpace(dsn)
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:"):
		path = path[len("file:"):]
	}
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	return "sqlite://" + path, nil
}
