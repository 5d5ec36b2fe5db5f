package handler

import (
	"net/http"

	"github.com/samtime/samtime-backend/internal/account/service"
	"github.com/samtime/samtime-backend/pkg/httputil"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/tenant"
)

// AccountHandler handles company account endpoints
type AccountHandler struct {
	service *service.AccountService
	logger  *logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(svc *service.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		service: svc,
		logger:  log,
	}
}

// Register handles company sign up
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	response, err := h.service.Register(r.Context(), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, response)
}

// Login handles company login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, response)
}

// Refresh handles token refresh
func (h *AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	response, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, response)
}

// Me returns the authenticated company
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, errUnauthenticated())
		return
	}

	company, err := h.service.Me(r.Context(), companyID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, company)
}
