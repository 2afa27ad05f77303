package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/attendsure/attendance-authority/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful
// messages. Returns nil if the error is not a pq.Error, so callers can
// fall back to a generic internal error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return mapUniqueConstraint(pqErr)

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: present, half_day, absent, sunday, holiday, leave",
		})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// mapUniqueConstraint maps the unique indexes this service's
// idempotence invariants rely on to the business-facing error codes
// callers expect.
func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "attendance_employee_date"):
		return errors.DuplicateCheckIn()
	case strings.Contains(constraint, "payroll_employee_month"):
		return errors.AlreadyExists("payroll for this employee and month already exists")
	case strings.Contains(constraint, "holidays_date"):
		return errors.DuplicateHoliday()
	default:
		return errors.Conflict("a record with these values already exists")
	}
}
