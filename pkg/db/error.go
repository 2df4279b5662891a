package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"

	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// IsDuplicateKeyErr reports a unique constraint violation on any supported
// dialect.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	// TranslateError maps driver errors to the gorm sentinel when it can.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pgCode(err) == pgUniqueViolation || mysqlNumber(err) == mysqlDuplicateEntry {
		return true
	}

	// glebarez/sqlite has no typed error; match the message.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Error 1062")
}

// IsLockTimeoutErr reports that a row lock could not be acquired in time.
func IsLockTimeoutErr(err error) bool {
	return err != nil && (pgCode(err) == pgLockNotAvailable || mysqlNumber(err) == mysqlLockWaitTimeout)
}

// IsSerializationErr reports a serialization failure or deadlock; the
// transaction can be retried as a whole.
func IsSerializationErr(err error) bool {
	if err == nil {
		return false
	}
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return mysqlNumber(err) == mysqlDeadlock
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func mysqlNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}
