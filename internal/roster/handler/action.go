package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/internal/roster/service"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/httputil"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/tenant"
)

// Actions understood by the single POST endpoint used by the mobile app
const (
	ActionGetNextID              = "getNextId"
	ActionRegisterEmployee       = "registerEmployee"
	ActionGetEmployees           = "getEmployees"
	ActionUpdateDigitalSignature = "updateDigitalSignature"
	ActionDeleteEmployee         = "deleteEmployee"
)

// APIVersion is reported by the connectivity check
const APIVersion = "1.0"

// ActionHandler serves the action dispatching endpoint. Every outcome is
// answered with HTTP 200 and a status envelope.
type ActionHandler struct {
	service Service
	logger  *logger.Logger
	actions map[string]actionFunc
}

type actionFunc func(ctx context.Context, companyID int64, body map[string]interface{}) (map[string]interface{}, error)

// NewActionHandler creates a new action handler
func NewActionHandler(svc Service, log *logger.Logger) *ActionHandler {
	h := &ActionHandler{
		service: svc,
		logger:  log.WithComponent("roster_actions"),
	}
	h.actions = map[string]actionFunc{
		ActionGetNextID:              h.getNextID,
		ActionRegisterEmployee:       h.registerEmployee,
		ActionGetEmployees:           h.getEmployees,
		ActionUpdateDigitalSignature: h.updateDigitalSignature,
		ActionDeleteEmployee:         h.deleteEmployee,
	}
	return h
}

// Health answers the GET connectivity check of the app
func (h *ActionHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.Status(w, map[string]interface{}{
		"message": i18n.TFromContext(r.Context(), "messages.api_running"),
		"version": APIVersion,
	})
}

// Dispatch decodes the body and runs the requested action
func (h *ActionHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := httputil.DecodeJSONLocalized(r, &body); err != nil {
		h.reject(w, r, "", err)
		return
	}

	action := stringField(body, "action")
	if action == "" {
		h.reject(w, r, action, errors.NewWithKey("ACTION_REQUIRED", "errors.action.missing", http.StatusBadRequest))
		return
	}
	run, ok := h.actions[action]
	if !ok {
		h.reject(w, r, action, errors.NewWithKey("ACTION_UNKNOWN", "errors.action.unknown", http.StatusBadRequest))
		return
	}

	companyID, err := resolveCompany(r.Context(), body)
	if err != nil {
		h.reject(w, r, action, err)
		return
	}

	ctx := r.Context()
	if companyID > 0 {
		ctx = tenant.WithCompanyID(ctx, companyID)
		httputil.RecordCompany(ctx)
	}

	fields, err := run(ctx, companyID, body)
	if err != nil {
		h.reject(w, r, action, err)
		return
	}
	httputil.Status(w, fields)
}

func (h *ActionHandler) reject(w http.ResponseWriter, r *http.Request, action string, err error) {
	appErr := errors.FromError(err)
	event := h.logger.Warn()
	if appErr.StatusCode >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("request_id", httputil.GetRequestID(r.Context())).
		Str("action", action).
		Str("code", appErr.Code).
		Msg("action rejected")

	httputil.StatusError(w, r, err)
}

func (h *ActionHandler) getNextID(ctx context.Context, companyID int64, _ map[string]interface{}) (map[string]interface{}, error) {
	next, err := h.service.NextID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"nextId": next}, nil
}

// registerEmployeeRequest bounds the action fields to the employees columns.
// Missing fields are reported by the service.
type registerEmployeeRequest struct {
	ID         string `json:"id" validate:"max=30"`
	Name       string `json:"name" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
}

func (h *ActionHandler) registerEmployee(ctx context.Context, companyID int64, body map[string]interface{}) (map[string]interface{}, error) {
	signature, _, err := boolField(body, "digitalSignature")
	if err != nil {
		return nil, err
	}

	req := registerEmployeeRequest{
		ID:         stringField(body, "id"),
		Name:       stringField(body, "name"),
		Position:   stringField(body, "position"),
		Department: stringField(body, "department"),
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	_, err = h.service.Register(ctx, service.RegisterInput{
		ID:               req.ID,
		CompanyID:        companyID,
		Name:             req.Name,
		Position:         req.Position,
		Department:       req.Department,
		DigitalSignature: signature,
	})
	if err != nil {
		return nil, err
	}
	return message(ctx, "messages.employee_registered"), nil
}

// employeeView is the employee shape the app renders
type employeeView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Position         string `json:"position"`
	Department       string `json:"department"`
	DigitalSignature bool   `json:"digitalSignature"`
}

func toView(e *domain.Employee) employeeView {
	return employeeView{
		ID:               e.ID,
		Name:             e.Name,
		Position:         e.Position,
		Department:       e.Department,
		DigitalSignature: e.DigitalSignature,
	}
}

func (h *ActionHandler) getEmployees(ctx context.Context, companyID int64, _ map[string]interface{}) (map[string]interface{}, error) {
	employees, err := h.service.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	views := make([]employeeView, 0, len(employees))
	for _, e := range employees {
		views = append(views, toView(e))
	}
	return map[string]interface{}{"employees": views}, nil
}

func (h *ActionHandler) updateDigitalSignature(ctx context.Context, companyID int64, body map[string]interface{}) (map[string]interface{}, error) {
	value, present, err := boolField(body, "digitalSignature")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, errors.MissingField("digitalSignature")
	}

	if err := h.service.UpdateSignature(ctx, companyID, stringField(body, "id"), value); err != nil {
		return nil, err
	}
	return message(ctx, "messages.signature_updated"), nil
}

func (h *ActionHandler) deleteEmployee(ctx context.Context, companyID int64, body map[string]interface{}) (map[string]interface{}, error) {
	if err := h.service.Delete(ctx, companyID, stringField(body, "id")); err != nil {
		return nil, err
	}
	return message(ctx, "messages.employee_deleted"), nil
}

func message(ctx context.Context, key string) map[string]interface{} {
	return map[string]interface{}{"message": i18n.TFromContext(ctx, key)}
}

// resolveCompany reads company_id (or the app's older empresa_id) from the
// body. Without one the authenticated company is used. A body company that
// differs from the authenticated one is refused. Zero means no company.
func resolveCompany(ctx context.Context, body map[string]interface{}) (int64, error) {
	raw, ok := body["company_id"]
	if !ok || isBlank(raw) {
		raw, ok = body["empresa_id"]
	}

	authenticated, authErr := tenant.CompanyID(ctx)
	if !ok || isBlank(raw) {
		if authErr == nil {
			return authenticated, nil
		}
		return 0, nil
	}

	companyID, valid := tenant.ParseCompanyID(raw)
	if !valid {
		return 0, errors.InvalidField("company_id")
	}
	if authErr == nil && authenticated != companyID {
		return 0, errors.NewWithKey("COMPANY_MISMATCH", "errors.company.mismatch", http.StatusForbidden)
	}
	return companyID, nil
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// stringField reads a text field. Numbers are accepted since the app
// sometimes sends numeric looking values unquoted.
func stringField(body map[string]interface{}, key string) string {
	switch v := body[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// boolField reads a flag sent as a JSON boolean, 0/1, or "true"/"false".
func boolField(body map[string]interface{}, key string) (value bool, present bool, err error) {
	raw, ok := body[key]
	if !ok || raw == nil {
		return false, false, nil
	}

	switch v := raw.(type) {
	case bool:
		return v, true, nil
	case float64:
		return v != 0, true, nil
	case string:
		parsed, perr := strconv.ParseBool(strings.TrimSpace(v))
		if perr != nil {
			return false, true, errors.InvalidField(key)
		}
		return parsed, true, nil
	default:
		return false, true, errors.InvalidField(key)
	}
}
