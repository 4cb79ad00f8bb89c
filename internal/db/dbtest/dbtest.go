// Package dbtest opens migrated throwaway stores for repository and service tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"inventory-audit/backend/internal/db"
	"inventory-audit/backend/internal/db/migrate"
)

// Open returns a freshly migrated SQLite store in t's temp dir. It is closed on cleanup.
func Open(t testing.TB) *db.DB {
	t.Helper()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "audits.db")
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
