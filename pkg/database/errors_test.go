package database

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "company email taken",
			err:        &pq.Error{Code: "23505", Constraint: ConstraintCompanyEmail},
			wantCode:   "EMAIL_TAKEN",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "employee id taken",
			err:        fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: ConstraintEmployeesPK}),
			wantCode:   "EMPLOYEE_ID_CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "punch for unknown employee",
			err:        &pq.Error{Code: "23503", Constraint: ConstraintPunchEmployee},
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "not null",
			err:        &pq.Error{Code: "23502", Column: "name"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "string too long",
			err:        fmt.Errorf("insert employee: %w", &pq.Error{Code: "22001"}),
			wantCode:   "VALIDATION_ERROR",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "integer out of range",
			err:        &pq.Error{Code: "22003", Column: "seq"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapPQError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
		})
	}

	assert.Nil(t, MapPQError(stderrors.New("connection refused")))
	assert.Nil(t, MapPQError(&pq.Error{Code: "40001"}))
}

func TestMapPQError_DataExceptionDetails(t *testing.T) {
	appErr := MapPQError(&pq.Error{Code: "22001"})
	require.NotNil(t, appErr)
	assert.Equal(t, "value too long", appErr.Details["value"])

	appErr = MapPQError(&pq.Error{Code: "22003", Column: "seq"})
	require.NotNil(t, appErr)
	assert.Equal(t, "value out of range", appErr.Details["seq"])
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: ConstraintEmployeesPK}

	assert.True(t, IsUniqueViolation(err, ConstraintEmployeesPK))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, ConstraintCompanyEmail))
	assert.False(t, IsUniqueViolation(errors.Conflict("x"), ""))
}
