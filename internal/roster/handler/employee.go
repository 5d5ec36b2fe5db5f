package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samtime/samtime-backend/internal/roster/service"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/httputil"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/tenant"
	"github.com/skip2/go-qrcode"
)

// qrSize is the badge edge in pixels
const qrSize = 256

// EmployeeHandler serves the token scoped employee routes
type EmployeeHandler struct {
	service Service
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc Service, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: svc,
		logger:  log,
	}
}

// CreateEmployeeRequest is the body of POST /api/v1/employees
type CreateEmployeeRequest struct {
	Name             string `json:"name" validate:"notblank,max=100"`
	Position         string `json:"position" validate:"notblank,max=100"`
	Department       string `json:"department" validate:"notblank,max=100"`
	DigitalSignature bool   `json:"digitalSignature"`
}

// UpdateSignatureRequest is the body of PUT /api/v1/employees/{id}/digital-signature
type UpdateSignatureRequest struct {
	DigitalSignature *bool `json:"digitalSignature" validate:"required"`
}

// List lists the company's employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	employees, err := h.service.List(r.Context(), companyID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employees)
}

// NextID returns the next candidate id without reserving it
func (h *EmployeeHandler) NextID(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	next, err := h.service.NextID(r.Context(), companyID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"nextId": next})
}

// Create registers an employee under a server allocated id
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	var req CreateEmployeeRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	emp, err := h.service.RegisterAuto(r.Context(), service.RegisterInput{
		CompanyID:        companyID,
		Name:             req.Name,
		Position:         req.Position,
		Department:       req.Department,
		DigitalSignature: req.DigitalSignature,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, emp)
}

// Get gets an employee by id
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	emp, err := h.service.Get(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// UpdateSignature sets the digital signature flag
func (h *EmployeeHandler) UpdateSignature(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	var req UpdateSignatureRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.UpdateSignature(r.Context(), companyID, id, *req.DigitalSignature); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	emp, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, emp)
}

// Delete removes an employee
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), companyID, chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// QRCode renders a PNG badge encoding the employee id
func (h *EmployeeHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	emp, err := h.service.Get(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	png, err := qrcode.Encode(emp.ID, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error().Err(err).Str("employee_id", emp.ID).Msg("failed to encode badge")
		httputil.ErrorLocalized(w, r, errors.Internal("failed to encode badge"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+emp.ID+`.png"`)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// companyOf reads the authenticated company, answering 401 when absent
func companyOf(w http.ResponseWriter, r *http.Request) (int64, bool) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.NewWithKey("UNAUTHORIZED", "errors.unauthorized", http.StatusUnauthorized))
		return 0, false
	}
	return companyID, true
}
