package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
)

// sqlitePragmas are applied by the driver to every connection it opens.
const sqlitePragmas = `_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)`

// SQLiteLowerFunc is a Unicode-aware replacement for SQLite's lower(),
// which only folds ASCII.
const SQLiteLowerFunc = "unicode_lower"

var registerFuncsOnce sync.Once
var registerFuncsErr error

func registerSQLiteFuncs() error {
	registerFuncsOnce.Do(func() {
		registerFuncsErr = sqlite.RegisterDeterministicScalarFunction(SQLiteLowerFunc, 1, unicodeLower)
	})
	return registerFuncsErr
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// sqliteDSN appends the connection pragmas to path.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}

// NewSQLiteDB opens (creating if needed) the embedded database file at path
// and brings its schema up to date.
func NewSQLiteDB(ctx context.Context, path string, log zerolog.Logger) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("open sqlite: create parent dir: %w", err)
		}
	}

	if err := registerSQLiteFuncs(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer connection keeps WAL writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := RunSQLiteMigrations(ctx, db, DefaultSQLiteMigrations()); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().
		Str("path", path).
		Int("schema_version", CurrentSQLiteSchemaVersion()).
		Msg("SQLite database opened")

	return db, nil
}
