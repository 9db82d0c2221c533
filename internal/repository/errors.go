// Package repository implements persistence for every aggregate on top of
// database/sql. Queries use the SQL subset shared by MySQL and SQLite.
//
// The sentinel errors below let higher layers distinguish failure modes
// without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row addressed by ID (and tenant) does not
// exist. Handlers translate it to 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another tenant.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a uniqueness rule or
// conflicts with the current state of the row. Handlers translate it to 409.
var ErrConflict = errors.New("conflict")

// ErrSoldOut is returned by TicketRepo.Reserve when the conditional
// increment matched no row because the ticket type has no units left.
var ErrSoldOut = errors.New("ticket type sold out")

// ErrEmailExists is returned when registering an email that is already used.
var ErrEmailExists = errors.New("email already exists")

// ErrSlugExists is returned when a tenant slug is already taken.
var ErrSlugExists = errors.New("slug already exists")

// isUniqueViolation reports whether err is a duplicate-key error from
// either supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isCheckViolation reports whether err is a CHECK constraint failure.
func isCheckViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 3819
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}
