package repository

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

const uniqueViolation = "23505"

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Dialect holds the statements that differ between the supported engines.
// Queries are written with $N placeholders and rebound per engine.
type Dialect struct {
	driver        string
	containsEmail string
	schema        []string
}

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (*Dialect, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return &Dialect{
			driver:        driver,
			containsEmail: "strpos(email_address, $1) > 0",
			schema: []string{
				`CREATE TABLE IF NOT EXISTS account (
					id BIGINT PRIMARY KEY,
					first_name VARCHAR(100) NOT NULL,
					last_name VARCHAR(100) NOT NULL,
					email_address VARCHAR(100) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL,
					deleted_at TIMESTAMPTZ
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS account_email_address_live_idx
					ON account (email_address) WHERE deleted_at IS NULL`,
			},
		}, nil
	case DriverSQLite:
		return &Dialect{
			driver:        driver,
			containsEmail: "instr(email_address, $1) > 0",
			schema: []string{
				`CREATE TABLE IF NOT EXISTS account (
					id INTEGER PRIMARY KEY,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					email_address TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					deleted_at DATETIME
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS account_email_address_live_idx
					ON account (email_address) WHERE deleted_at IS NULL`,
			},
		}, nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}
}

// Driver returns the database/sql driver name.
func (d *Dialect) Driver() string {
	return d.driver
}

// Rebind rewrites $N placeholders into the engine's syntax.
func (d *Dialect) Rebind(query string) string {
	if d.driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?${1}")
}

// translate maps a unique-constraint violation to ErrDuplicateEmail or
// ErrDuplicateID and returns nil for anything else.
func (d *Dialect) translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return constraintError(pqErr.Constraint)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return constraintError(pgErr.ConstraintName)
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return constraintError(sqliteErr.Error())
	}
	return nil
}

func constraintError(constraint string) error {
	if strings.Contains(constraint, "email_address") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateID
}
