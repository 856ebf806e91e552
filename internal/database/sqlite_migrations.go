package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// SQLiteMigration is one forward-only schema step for the embedded store.
type SQLiteMigration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

var defaultSQLiteMigrations = []SQLiteMigration{
	{
		Version:     1,
		Description: "create students table",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			// AUTOINCREMENT guarantees ids of deleted rows are never handed out again.
			_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS students (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				age INTEGER NOT NULL,
				gender TEXT NOT NULL,
				midterm REAL NOT NULL,
				final REAL NOT NULL,
				created_at INTEGER NOT NULL
			)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index students by creation time",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_students_created_at ON students(created_at DESC, id DESC)`)
			return err
		},
	},
}

// DefaultSQLiteMigrations returns a copy of the built-in migration list.
func DefaultSQLiteMigrations() []SQLiteMigration {
	out := make([]SQLiteMigration, len(defaultSQLiteMigrations))
	copy(out, defaultSQLiteMigrations)
	return out
}

// CurrentSQLiteSchemaVersion is the version reached by DefaultSQLiteMigrations.
func CurrentSQLiteSchemaVersion() int {
	latest := 0
	for _, m := range defaultSQLiteMigrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

// RunSQLiteMigrations applies every migration newer than the recorded
// schema version, each in its own transaction.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB, migrations []SQLiteMigration) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := SQLiteSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applySQLiteMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func applySQLiteMigration(ctx context.Context, db *sql.DB, m SQLiteMigration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.Up(ctx, tx); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations(version, description, applied_at) VALUES(?, ?, ?)`,
		m.Version, m.Description, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", m.Version, err)
	}
	return nil
}

// SQLiteSchemaVersion returns the highest applied migration version, or 0.
func SQLiteSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
