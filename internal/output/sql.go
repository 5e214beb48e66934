// internal/output/sql.go
package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Database driver names as registered by the blank imports above.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// SQLOptions configures a SQL run-history writer.
type SQLOptions struct {
	Driver string
	DSN    string
	Table  string
}

// SQLWriter appends records to a results table, creating it on first use.
type SQLWriter struct {
	db     *sql.DB
	driver string
	table  string
	closed bool
}

// NewSQLWriter opens the database and ensures the results table exists
func NewSQLWriter(ctx context.Context, options SQLOptions) (*SQLWriter, error) {
	switch options.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", options.Driver)
	}
	if options.DSN == "" {
		return nil, fmt.Errorf("%s connection string is required", options.Driver)
	}
	if options.Table == "" {
		options.Table = "suite_results"
	}
	if !IsValidSQLIdentifier(options.Table) {
		return nil, fmt.Errorf("invalid table name %q", options.Table)
	}

	dsn := options.DSN
	if options.Driver == DriverSQLite {
		// Create directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", options.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", options.Driver, err)
	}

	w := &SQLWriter{db: db, driver: options.Driver, table: options.Table}
	if err := w.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) createTable(ctx context.Context) error {
	timestampType := "TIMESTAMP"
	if w.driver == DriverMySQL {
		timestampType = "DATETIME(6)"
	}
	textType := "TEXT"
	if w.driver == DriverMySQL {
		textType = "VARCHAR(255)"
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id %s NOT NULL,
		suite %s NOT NULL,
		case_name %s NOT NULL,
		outcome %s NOT NULL,
		code %s,
		message TEXT,
		duration_ms BIGINT NOT NULL,
		started_at %s NOT NULL
	)`, w.table, textType, textType, textType, textType, textType, timestampType)

	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", w.table, err)
	}
	return nil
}

// insertQuery builds a single-row INSERT with driver-specific placeholders.
func (w *SQLWriter) insertQuery() string {
	placeholders := make([]string, 8)
	for i := range placeholders {
		if w.driver == DriverPostgres {
			placeholders[i] = "$" + strconv.Itoa(i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (run_id, suite, case_name, outcome, code, message, duration_ms, started_at) VALUES (%s)",
		w.table, strings.Join(placeholders, ", "))
}

// Write inserts all records in one transaction
func (w *SQLWriter) Write(ctx context.Context, records []Record) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, w.insertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Suite, r.Case, r.Outcome, r.Code, r.Message,
			r.DurationMS(), r.StartedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.Case, err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection
func (w *SQLWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.db.Close()
}
