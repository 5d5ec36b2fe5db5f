package database

import (
	"net/http"
	"strings"

	"github.com/lib/pq"
	"github.com/samtime/samtime-backend/pkg/errors"
)

// Unique constraints with a dedicated client message
const (
	ConstraintEmployeesPK   = "employees_pkey"
	ConstraintCompanyEmail  = "companies_email_key"
	ConstraintPunchEmployee = "punches_employee_fkey"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
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
		if pqErr.Constraint == ConstraintPunchEmployee {
			return errors.NotFoundWithKey("employee")
		}
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.MissingField(col)

	// String too long for its column (22001)
	case "22001":
		return errors.Validation(map[string]string{fieldOf(pqErr): "value too long"})

	// Numeric value out of range (22003)
	case "22003":
		return errors.Validation(map[string]string{fieldOf(pqErr): "value out of range"})

	default:
		return nil
	}
}

// IsUniqueViolation reports whether err is a 23505 on the named constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// fieldOf names the offending column. PostgreSQL leaves it empty for
// data exceptions raised while coercing a parameter.
func fieldOf(pqErr *pq.Error) string {
	if pqErr.Column != "" {
		return pqErr.Column
	}
	return "value"
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "kind_valid"):
		return errors.InvalidField("kind")
	case strings.Contains(constraint, "email_format"):
		return errors.InvalidField("email")
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	switch pqErr.Constraint {
	case ConstraintEmployeesPK:
		return errors.NewWithKey("EMPLOYEE_ID_CONFLICT", "errors.conflict", http.StatusConflict)
	case ConstraintCompanyEmail:
		return errors.NewWithKey("EMAIL_TAKEN", "errors.company.email_taken", http.StatusConflict)
	default:
		return errors.Conflict("a record with these values already exists")
	}
}
