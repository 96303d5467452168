package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // embedded SQLite driver
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	pingAttempts           = 10
	pingInterval           = 2 * time.Second
)

// DB is a connection pool plus the SQL dialect it speaks.
type DB struct {
	*sqlx.DB
	driver string
}

// Open connects to the database, waiting for it to come up, and creates the
// listing and ledger tables if they do not exist.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	if driver == DriverSQLite {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(defaultMaxOpenConns)
		db.SetMaxIdleConns(defaultMaxIdleConns)
		db.SetConnMaxLifetime(defaultConnMaxLifetime)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(pingInterval)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping failed after retries: %w", err)
	}

	d := &DB{DB: db, driver: driver}
	if err := d.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Wrap adopts an existing connection. It does not touch the schema.
func Wrap(db *sqlx.DB, driver string) *DB {
	return &DB{DB: db, driver: driver}
}

// Driver returns the SQL driver name.
func (d *DB) Driver() string {
	return d.driver
}

// EnsureSchema creates the staging, final and tasks tables.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(d.driver) {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fault("ensure schema", err)
		}
	}
	return nil
}
