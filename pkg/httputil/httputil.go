package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/i18n"
)

// Response is the envelope used by the /api/v1 routes
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody represents an error in the response
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

// ErrorLocalized sends a localized error response using request context
func ErrorLocalized(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody(r, err)
	status := http.StatusInternalServerError
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
	}
	writeJSON(w, status, Response{Success: false, Error: body})
}

// Status sends the action endpoint success envelope:
// {"status":"success", ...fields}.
func Status(w http.ResponseWriter, fields map[string]interface{}) {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["status"] = "success"
	writeJSON(w, http.StatusOK, out)
}

// StatusEnvelope is the action endpoint error shape
type StatusEnvelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// StatusError sends {"status":"error", message, code, details} with HTTP 200.
// The legacy mobile client drops the body of any non-2xx response, so the
// outcome travels in the envelope only.
func StatusError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody(r, err)
	writeJSON(w, http.StatusOK, StatusEnvelope{
		Status:  "error",
		Message: body.Message,
		Code:    body.Code,
		Details: body.Details,
	})
}

func errorBody(r *http.Request, err error) *ErrorBody {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
		return &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Localize(r.Context()),
			Details: appErr.Details,
		}
	}

	// Server side causes are never echoed to the client
	code := "INTERNAL_ERROR"
	if appErr != nil {
		code = appErr.Code
	}
	return &ErrorBody{
		Code:    code,
		Message: i18n.TFromContext(r.Context(), "errors.internal"),
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// DecodeJSONLocalized decodes the request body, reporting the decoder's
// complaint in the localized "Invalid JSON" message.
func DecodeJSONLocalized(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return InvalidJSON(err)
	}
	return nil
}

// InvalidJSON builds the error returned for an undecodable body
func InvalidJSON(cause error) *errors.AppError {
	return errors.NewWithKey("INVALID_JSON", "errors.invalid_json", http.StatusBadRequest,
		map[string]string{"detail": cause.Error()})
}
