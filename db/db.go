package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the database behind the snapshot store and abandon outbox.
type Options struct {
	Driver string // sqlite (default) or postgres
	Path   string // SQLite file, default ./data/driverdesk.db
	URL    string // PostgreSQL connection string
}

// Open creates and returns a database connection. SQLite files are opened
// with WAL mode enabled and their directory is created if missing.
func Open(opts Options) (*sql.DB, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		return openSQLite(opts.Path)
	case DriverPostgres:
		return openPostgres(opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func openSQLite(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = "./data/driverdesk.db"
	}

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	slog.Info("database connected", "driver", DriverSQLite, "path", dbPath)
	return db, nil
}

func openPostgres(url string) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	slog.Info("database connected", "driver", DriverPostgres)
	return db, nil
}
