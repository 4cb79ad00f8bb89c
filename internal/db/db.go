package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a DB handle.
type Dialect string

const (
	// DialectSQLite is the single-file store (modernc.org/sqlite, driver "sqlite").
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres is Postgres through pgx (driver "pgx").
	DialectPostgres Dialect = "postgres"
)

// sqlitePragmas are applied on every pooled SQLite connection.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// sqliteLowerFunc is registered on every SQLite connection. SQLite's built-in LOWER only folds
// ASCII, so "BALANÇA" would never match "balança".
const sqliteLowerFunc = "unicode_lower"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower); err != nil {
		panic(fmt.Sprintf("db: register %s: %v", sqliteLowerFunc, err))
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Lower wraps expr in the dialect's Unicode-aware lower-case function.
func (d Dialect) Lower(expr string) string {
	if d == DialectPostgres {
		return "LOWER(" + expr + ")"
	}
	return sqliteLowerFunc + "(" + expr + ")"
}

// DB is a *sql.DB that knows its dialect. It is constructed once at startup and passed
// into repositories; there is no package-level handle.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ParseDSN resolves the dialect and the driver-level data source name for dsn.
// Accepted forms: sqlite://<path>, file:<path>, a bare file path, postgres://..., postgresql://...
func ParseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", "", errors.New("database url is empty")
	}
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqliteDSN(dsn[len("sqlite://"):])
	case strings.HasPrefix(lower, "file:"):
		return sqliteDSN(dsn[len("file:"):])
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme in %q", dsn)
	default:
		return sqliteDSN(dsn)
	}
}

func sqliteDSN(path string) (Dialect, string, error) {
	query := ""
	if i := strings.Index(path, "?"); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	if strings.TrimSpace(path) == "" {
		return "", "", errors.New("sqlite path is empty")
	}
	out := "file:" + filepath.Clean(path) + "?" + sqlitePragmas
	if query != "" {
		out += "&" + query
	}
	return DialectSQLite, out, nil
}

// Open opens the store named by dsn and pings it. Caller must call Close when done.
func Open(dsn string) (*DB, error) {
	dialect, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	driver := "sqlite"
	if dialect == DialectPostgres {
		driver = "pgx"
	}
	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{DB: conn, Dialect: dialect}, nil
}

// Rebind rewrites ? placeholders to $1..$n for Postgres. Question marks inside single-quoted
// literals are left alone. SQLite queries are returned unchanged.
func (d *DB) Rebind(query string) string {
	if d == nil || d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// InTx runs fn inside a transaction, committing when fn returns nil and rolling back otherwise.
func (d *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ToMillis converts t to the unix-millisecond UTC form stored in timestamp columns.
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis converts a stored unix-millisecond value back to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
