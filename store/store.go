// Package store wraps the SQL database that holds imported spreadsheet data.
// The default backend is an embedded SQLite file; Postgres and MySQL can be
// selected through the environment for shared setups.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DefaultDBFile is the SQLite database file used when nothing else is configured.
const DefaultDBFile = "spreadsheet.db"

var (
	// ErrUnsupportedDriver is returned for driver names other than sqlite, postgres, mysql.
	ErrUnsupportedDriver = errors.New("store: unsupported driver")

	// ErrNoTables is returned when the database contains no tables.
	ErrNoTables = errors.New("store: no tables in database")
)

// Config describes how to reach the database.
type Config struct {
	Driver string
	DSN    string
}

// ConfigFromEnv builds a Config from environment variables.
//
// SHEETQL_DRIVER selects the backend (sqlite, postgres, mysql; default sqlite).
// SHEETQL_DSN is passed to the driver verbatim. For SQLite, SHEETQL_DB names
// the database file instead (default spreadsheet.db).
func ConfigFromEnv() Config {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("SHEETQL_DRIVER")))
	if driver == "" {
		driver = DriverSQLite
	}

	dsn := os.Getenv("SHEETQL_DSN")
	if dsn == "" && driver == DriverSQLite {
		dsn = os.Getenv("SHEETQL_DB")
		if dsn == "" {
			dsn = DefaultDBFile
		}
	}

	return Config{Driver: driver, DSN: dsn}
}

// Store is an open database handle plus the driver-specific catalog queries.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and verifies the connection.
func Open(cfg Config) (*Store, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", cfg.Driver, err)
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

// DB exposes the underlying handle for callers that need database/sql directly.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the active driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Column is one column of a table schema.
type Column struct {
	Name string
	Type string
}

// ListTables returns the names of all user tables, sorted by the catalog.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var query string
	switch s.driver {
	case DriverSQLite:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case DriverPostgres:
		query = `SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename`
	case DriverMySQL:
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableSchema returns the ordered columns of a table.
func (s *Store) TableSchema(ctx context.Context, table string) ([]Column, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch s.driver {
	case DriverSQLite:
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdentifier(table)))
	case DriverPostgres:
		rows, err = s.db.QueryContext(ctx,
			`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`, table)
	case DriverMySQL:
		rows, err = s.db.QueryContext(ctx,
			`SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`, table)
	}
	if err != nil {
		return nil, fmt.Errorf("store: schema of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if s.driver == DriverSQLite {
			// PRAGMA table_info: cid, name, type, notnull, dflt_value, pk
			var cid, notNull, pk int
			var dflt sql.NullString
			if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
				return nil, fmt.Errorf("store: scan column info: %w", err)
			}
		} else {
			if err := rows.Scan(&col.Name, &col.Type); err != nil {
				return nil, fmt.Errorf("store: scan column info: %w", err)
			}
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// SchemaDescription formats all table schemas as one line per table,
// suitable for embedding in an LLM prompt:
//
//	- sales (region (TEXT), amount (REAL))
func (s *Store) SchemaDescription(ctx context.Context) (string, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", ErrNoTables
	}

	var b strings.Builder
	for _, table := range tables {
		columns, err := s.TableSchema(ctx, table)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			parts = append(parts, fmt.Sprintf("%s (%s)", col.Name, col.Type))
		}
		fmt.Fprintf(&b, "- %s (%s)\n", table, strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// QuoteIdentifier quotes a table or column name for the active driver.
func (s *Store) QuoteIdentifier(name string) string {
	if s.driver == DriverMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the bind-parameter placeholder for position n (1-based).
func (s *Store) Placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
