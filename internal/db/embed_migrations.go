package db

import (
	"embed"
	"io/fs"
)

// MigrationFS embeds SQL migration files from internal/db/migrations, one directory per dialect.
// Used by the migrate runner (cmd/migrate and server auto-migrate) to apply migrations.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var MigrationFS embed.FS

// MigrationDir returns the directory inside MigrationFS holding migrations for dialect.
func MigrationDir(d Dialect) string {
	if d == DialectPostgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// Migrations returns the migration files for dialect rooted at their directory.
func Migrations(d Dialect) (fs.FS, error) {
	return fs.Sub(MigrationFS, MigrationDir(d))
}
