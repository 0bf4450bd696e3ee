package orm

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a query expects exactly one row but finds none.
var ErrNotFound = errors.New("orm: not found")

// ErrUnknownDriver is returned when no Dialect is known for a driver name.
var ErrUnknownDriver = errors.New("orm: unknown driver")

// MySQL error numbers for integrity constraint violations.
const (
	mysqlErrDupEntry        = 1062
	mysqlErrBadNull         = 1048
	mysqlErrNoReferencedRow = 1452
	mysqlErrRowIsReferenced = 1451
	mysqlErrCheckViolated   = 3819
)

// IsConstraintViolation reports whether err is an integrity constraint
// violation (unique, not null, foreign key, check) raised by any of the
// supported drivers.
func IsConstraintViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDupEntry, mysqlErrBadNull, mysqlErrNoReferencedRow, mysqlErrRowIsReferenced, mysqlErrCheckViolated:
			return true
		}
		return false
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		// Class 23: integrity constraint violation.
		return strings.HasPrefix(pe.Code, "23")
	}

	return false
}
