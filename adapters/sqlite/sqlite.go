// Package sqlite provides SQLite implementations of the backend storage ports.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/artpar/newsdemo/ports"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store errors, aliased from ports so callers need not know the driver.
var (
	ErrNotFound  = ports.ErrNotFound
	ErrDuplicate = ports.ErrDuplicate
)

// DB is a SQLite connection pool. X is the same pool seen through sqlx.
type DB struct {
	*sql.DB
	X *sqlx.DB
}

// Open opens the database file at path. ":memory:" gives a private
// database held on a single connection.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL"
	inMemory := path == ":memory:"
	if inMemory {
		dsn = "file::memory:?_foreign_keys=on"
	}

	x, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if inMemory {
		// Every new connection would see an empty database.
		x.SetMaxOpenConns(1)
	}
	if err := x.Ping(); err != nil {
		x.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &DB{DB: x.DB, X: x}, nil
}

// Migrate runs the embedded migrations not yet recorded in
// schema_migrations, in file name order, each in its own transaction.
func (db *DB) Migrate() error {
	if _, err := db.X.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var versions []string
	if err := db.X.Select(&versions, `SELECT version FROM schema_migrations`); err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}
	done := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		done[v] = struct{}{}
	}

	// fs.Glob returns names sorted.
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, file := range files {
		version := strings.TrimSuffix(strings.TrimPrefix(file, "migrations/"), ".sql")
		if _, ok := done[version]; ok {
			continue
		}
		if err := db.apply(file, version); err != nil {
			return fmt.Errorf("migration %s: %w", version, err)
		}
	}
	return nil
}

func (db *DB) apply(file, version string) error {
	script, err := migrations.ReadFile(file)
	if err != nil {
		return err
	}

	tx, err := db.X.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(script)); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) Close() error {
	return db.X.Close()
}

// oneRow turns a delete that matched nothing into ErrNotFound.
func oneRow(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
