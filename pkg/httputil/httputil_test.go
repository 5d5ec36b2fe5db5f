package httputil

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Status(rec, map[string]interface{}{"nextId": "EMP-1-001"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","nextId":"EMP-1-001"}`, rec.Body.String())
}

func TestStatusError_AlwaysOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/employees", nil)
	rec := httptest.NewRecorder()

	StatusError(rec, req, errors.NotFoundWithKey("employee"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body StatusEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "Employee not found", body.Message)
}

func TestStatusError_LocalizedAndHidesInternals(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/employees", nil)
	req = req.WithContext(i18n.WithLocale(req.Context(), i18n.LocalePortuguese))
	rec := httptest.NewRecorder()

	StatusError(rec, req, stderrors.New("dial tcp 10.0.0.3:5432: connection refused"))

	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Contains(t, rec.Body.String(), "erro interno do servidor")
}

func TestErrorLocalized_UsesStatusCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees/EMP-1-001", nil)
	rec := httptest.NewRecorder()

	ErrorLocalized(rec, req, errors.Conflict("taken"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "CONFLICT", body.Error.Code)
}

func TestDecodeJSONLocalized(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":`))
	var v map[string]interface{}

	err := DecodeJSONLocalized(req, &v)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_JSON", appErr.Code)
	assert.True(t, strings.HasPrefix(appErr.Message, "Invalid JSON: "))
}

func TestValidate(t *testing.T) {
	type input struct {
		Name  string `json:"name" validate:"notblank"`
		Email string `json:"email" validate:"required,email"`
	}

	err := Validate(input{Name: "  ", Email: "nope"})

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "this field is required", appErr.Details["name"])
	assert.Equal(t, "must be a valid email address", appErr.Details["email"])

	assert.NoError(t, Validate(input{Name: "Ana", Email: "ana@example.com"}))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
