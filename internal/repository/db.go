package repository

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver
	_ "github.com/lib/pq"             // registers the postgres driver
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, *Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	if driver == DriverSQLite {
		// SQLite serialises writers, a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return nil, nil, errors.Wrap(err, "failed to enable WAL")
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrapf(err, "failed to ping %s database", driver)
	}
	return db, dialect, nil
}

// EnsureSchema creates the account table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect *Dialect) error {
	for _, stmt := range dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	return nil
}
