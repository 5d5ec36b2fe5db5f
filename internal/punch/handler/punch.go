// Package handler exposes the punch clock over HTTP.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samtime/samtime-backend/internal/punch/domain"
	"github.com/samtime/samtime-backend/internal/punch/report"
	"github.com/samtime/samtime-backend/internal/punch/service"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/httputil"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/tenant"
)

// Service is what the punch routes need from the punch service
type Service interface {
	Record(ctx context.Context, in service.RecordInput) (*domain.Punch, error)
	Status(ctx context.Context, companyID int64, employeeID string) (*service.EmployeeStatus, error)
	List(ctx context.Context, companyID int64, date, employeeID string) ([]*domain.Punch, error)
	DailyReport(ctx context.Context, companyID int64, date string) (*domain.Report, error)
}

var _ Service = (*service.PunchService)(nil)

// PunchHandler serves punches, employee status and the daily report
type PunchHandler struct {
	service Service
	logger  *logger.Logger
}

// NewPunchHandler creates a new punch handler
func NewPunchHandler(svc Service, log *logger.Logger) *PunchHandler {
	return &PunchHandler{
		service: svc,
		logger:  log.WithComponent("punch"),
	}
}

// RecordPunchRequest is the body of POST /api/v1/punches
type RecordPunchRequest struct {
	EmployeeID string `json:"employee_id" validate:"notblank,max=50"`
	Kind       string `json:"kind" validate:"notblank"`
	Verified   bool   `json:"verified"`
	DeviceID   string `json:"device_id" validate:"max=100"`
}

// Record stores a punch for the authenticated company
func (h *PunchHandler) Record(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	var req RecordPunchRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	p, err := h.service.Record(r.Context(), service.RecordInput{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Kind:       req.Kind,
		Verified:   req.Verified,
		DeviceID:   req.DeviceID,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, p)
}

// List lists the punches of ?date=, optionally for one ?employee_id=
func (h *PunchHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	punches, err := h.service.List(r.Context(), companyID, q.Get("date"), q.Get("employee_id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, punches)
}

// Status reports whether the employee is working, on break or out
func (h *PunchHandler) Status(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}

// DailyReport serves the report of ?date= as json, xlsx or pdf
func (h *PunchHandler) DailyReport(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyOf(w, r)
	if !ok {
		return
	}

	format, ok := report.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		httputil.ErrorLocalized(w, r, errors.NewWithKey("PUNCH_INVALID_FORMAT", "errors.punch.invalid_format", http.StatusBadRequest))
		return
	}

	rep, err := h.service.DailyReport(r.Context(), companyID, r.URL.Query().Get("date"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if format == report.FormatJSON {
		httputil.JSON(w, http.StatusOK, rep)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, rep, i18n.LocalizerFromContext(r.Context())); err != nil {
		h.logger.WithCompanyID(companyID).Error().Err(err).Str("format", string(format)).Msg("failed to render report")
		httputil.ErrorLocalized(w, r, errors.Internal("failed to render report"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(rep, format)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
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
