package handler_test

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/internal/roster/handler"
	"github.com/samtime/samtime-backend/internal/roster/service"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/tenant"
)

// stubService is a minimal in-memory roster used to drive the handlers
type stubService struct {
	mu        sync.Mutex
	employees map[string]*domain.Employee
	nextSeq   map[int64]int
	err       error
}

func newStubService(employees ...*domain.Employee) *stubService {
	s := &stubService{employees: map[string]*domain.Employee{}, nextSeq: map[int64]int{}}
	for _, e := range employees {
		s.employees[e.ID] = e
		if seq := domain.ParseID(e.ID).Seq; seq >= s.nextSeq[e.CompanyID] {
			s.nextSeq[e.CompanyID] = seq
		}
	}
	return s
}

func employee(companyID int64, seq int, name string) *domain.Employee {
	return &domain.Employee{
		ID:         domain.FormatID(companyID, seq),
		CompanyID:  companyID,
		Name:       name,
		Position:   "Caixa",
		Department: "Vendas",
	}
}

func (s *stubService) NextID(_ context.Context, companyID int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if companyID <= 0 {
		return "", errors.NewWithKey("COMPANY_ID_REQUIRED", "errors.company.missing", http.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FormatID(companyID, s.nextSeq[companyID]+1), nil
}

func (s *stubService) List(_ context.Context, companyID int64) ([]*domain.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Employee{}
	for _, e := range s.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubService) Get(_ context.Context, companyID int64, id string) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok || e.CompanyID != companyID {
		return nil, errors.NotFoundWithKey("employee")
	}
	return e, nil
}

func (s *stubService) Register(_ context.Context, in service.RegisterInput) (*domain.Employee, error) {
	if in.Name == "" {
		return nil, errors.MissingField("name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.employees[in.ID]; taken {
		return nil, errors.NewWithKey("EMPLOYEE_ID_CONFLICT", "errors.employee.id_conflict", http.StatusConflict,
			map[string]string{"id": in.ID, "next_id": "EMP-1-099"}).
			WithDetails(map[string]string{"nextId": "EMP-1-099"})
	}
	e := &domain.Employee{
		ID: in.ID, CompanyID: in.CompanyID, Name: in.Name, Position: in.Position,
		Department: in.Department, DigitalSignature: in.DigitalSignature,
	}
	s.employees[e.ID] = e
	return e, nil
}

func (s *stubService) RegisterAuto(_ context.Context, in service.RegisterInput) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq[in.CompanyID]++
	e := &domain.Employee{
		ID: domain.FormatID(in.CompanyID, s.nextSeq[in.CompanyID]), CompanyID: in.CompanyID,
		Name: in.Name, Position: in.Position, Department: in.Department,
		DigitalSignature: in.DigitalSignature,
	}
	s.employees[e.ID] = e
	return e, nil
}

func (s *stubService) UpdateSignature(_ context.Context, companyID int64, id string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok || e.CompanyID != companyID {
		return errors.NotFoundWithKey("employee")
	}
	e.DigitalSignature = value
	return nil
}

func (s *stubService) Delete(_ context.Context, companyID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok || e.CompanyID != companyID {
		return errors.NotFoundWithKey("employee")
	}
	delete(s.employees, id)
	return nil
}

var _ handler.Service = (*stubService)(nil)

// withCompany stands in for the auth middleware
func withCompany(companyID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(tenant.WithCompanyID(r.Context(), companyID)))
		})
	}
}

func actionRouter(svc handler.Service, authenticated int64) http.Handler {
	h := handler.NewActionHandler(svc, logger.Nop())
	r := chi.NewRouter()
	r.Use(i18n.Middleware)
	if authenticated > 0 {
		r.Use(withCompany(authenticated))
	}
	for _, path := range []string{"/api/employees", "/api_employees.php"} {
		r.Get(path, h.Health)
		r.Post(path, h.Dispatch)
	}
	return r
}

func restRouter(svc handler.Service, companyID int64) http.Handler {
	h := handler.NewEmployeeHandler(svc, logger.Nop())
	r := chi.NewRouter()
	r.Use(i18n.Middleware)
	if companyID > 0 {
		r.Use(withCompany(companyID))
	}
	r.Route("/api/v1/employees", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/next-id", h.NextID)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/digital-signature", h.UpdateSignature)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/qrcode", h.QRCode)
	})
	return r
}
