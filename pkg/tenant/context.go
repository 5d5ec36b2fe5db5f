// Package tenant carries the company scope of a request.
//
// Every roster and punch query is filtered by the company id found here,
// so a request can never read or change another company's employees.
package tenant

import (
	"context"
	"errors"
	"strconv"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const companyIDKey contextKey = "company_id"

var (
	// ErrNoCompanyInContext is returned when company scope is missing
	ErrNoCompanyInContext = errors.New("no company in context")
)

// WithCompanyID adds the company scope to the context
func WithCompanyID(ctx context.Context, companyID int64) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

// CompanyID extracts the company id from context.
// Returns ErrNoCompanyInContext if it is missing or not positive.
func CompanyID(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(companyIDKey).(int64)
	if !ok || id <= 0 {
		return 0, ErrNoCompanyInContext
	}
	return id, nil
}

// MustCompanyID extracts the company id and panics if not found.
// Use only behind middleware that guarantees the scope.
func MustCompanyID(ctx context.Context) int64 {
	id, err := CompanyID(ctx)
	if err != nil {
		panic("company id not found in context")
	}
	return id
}

// ParseCompanyID accepts the wire forms of a company id: a JSON number,
// a numeric string, or an integer. ok is false for anything else,
// including zero and negative values.
func ParseCompanyID(v any) (int64, bool) {
	var id int64
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		id = int64(t)
	case int64:
		id = t
	case int:
		id = int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}
