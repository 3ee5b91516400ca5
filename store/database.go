package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"task-api/config"
	"task-api/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the task store handle. It is opened once at startup and closed at shutdown.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to the store selected by cfg and applies the schema.
func Open(ctx context.Context, cfg config.Database) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens a SQLite database at path. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer, and ":memory:" is per connection.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{DB: sqlDB, driver: DriverSQLite}
	if err := db.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// OpenPostgres opens a PostgreSQL database through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: DriverPostgres}
	if err := db.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Driver returns the name of the backing driver.
func (db *DB) Driver() string {
	return db.driver
}

// Migrate creates the tasks table when it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, db.schema()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (db *DB) schema() string {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	timeColumn := "created_at DATETIME NOT NULL"
	if db.driver == DriverPostgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
		timeColumn = "created_at TIMESTAMPTZ NOT NULL"
	}

	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS tasks (
		%s,
		title TEXT NOT NULL CHECK (title <> ''),
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN (%s)),
		%s
	)`, idColumn, statusList(), timeColumn)
}

func statusList() string {
	quoted := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return strings.Join(quoted, ", ")
}

// rebind rewrites '?' placeholders into the driver's native form.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
