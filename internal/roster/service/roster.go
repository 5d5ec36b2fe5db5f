package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/internal/roster/events"
	"github.com/samtime/samtime-backend/pkg/actor"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/logger"
)

// Repository is the persistence the roster service needs
type Repository interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	LastID(ctx context.Context, companyID int64) (string, bool, error)
	List(ctx context.Context, companyID int64) ([]*domain.Employee, error)
	Get(ctx context.Context, companyID int64, id string) (*domain.Employee, error)
	Insert(ctx context.Context, emp *domain.Employee) (domain.Outcome, error)
	UpdateSignature(ctx context.Context, companyID int64, id string, value bool) (domain.Outcome, error)
	Delete(ctx context.Context, companyID int64, id string) (domain.Outcome, error)
	LockCompanySequence(ctx context.Context, companyID int64) error
	ListLegacy(ctx context.Context) ([]*domain.Employee, error)
	RenameID(ctx context.Context, oldID, newID string, seq int) (domain.Outcome, error)
}

// RegisterInput carries a new employee. ID is ignored by RegisterAuto.
type RegisterInput struct {
	ID               string
	CompanyID        int64
	Name             string
	Position         string
	Department       string
	DigitalSignature bool
}

// RosterService handles roster business logic
type RosterService struct {
	repo      Repository
	publisher *events.RosterEventPublisher
	retries   int
	logger    *logger.Logger
}

// NewRosterService creates a new roster service. allocationRetries bounds
// how many times RegisterAuto retries after losing an id to a concurrent
// insert.
func NewRosterService(
	repo Repository,
	publisher *events.RosterEventPublisher,
	allocationRetries int,
	log *logger.Logger,
) *RosterService {
	if allocationRetries < 1 {
		allocationRetries = 1
	}
	return &RosterService{
		repo:      repo,
		publisher: publisher,
		retries:   allocationRetries,
		logger:    log.WithComponent("roster"),
	}
}

// NextID returns the candidate id for the company's next employee.
// The candidate is not reserved.
func (s *RosterService) NextID(ctx context.Context, companyID int64) (string, error) {
	if companyID <= 0 {
		return "", errCompanyRequired()
	}

	lastID, found, err := s.repo.LastID(ctx, companyID)
	if err != nil {
		s.logger.WithCompanyID(companyID).Error().Err(err).Msg("failed to compute next employee id")
		return "", err
	}

	if domain.SequenceExhausted(lastID, found) {
		s.logger.WithCompanyID(companyID).Warn().Str("last_id", lastID).Msg("employee id sequence exhausted")
		return "", errSequenceExhausted(companyID)
	}

	return domain.NextID(companyID, lastID, found), nil
}

// List returns the company's employees ordered by id
func (s *RosterService) List(ctx context.Context, companyID int64) ([]*domain.Employee, error) {
	if companyID <= 0 {
		return nil, errCompanyRequired()
	}

	employees, err := s.repo.List(ctx, companyID)
	if err != nil {
		s.logger.WithCompanyID(companyID).Error().Err(err).Msg("failed to list employees")
		return nil, err
	}
	return employees, nil
}

// Get returns one employee of the company
func (s *RosterService) Get(ctx context.Context, companyID int64, id string) (*domain.Employee, error) {
	if companyID <= 0 {
		return nil, errCompanyRequired()
	}
	return s.repo.Get(ctx, companyID, strings.TrimSpace(id))
}

// Register inserts an employee under a caller supplied id, normally one
// obtained from NextID. The id must be a scoped id of the same company.
// A taken id fails with EMPLOYEE_ID_CONFLICT carrying a fresh candidate in
// details.nextId.
func (s *RosterService) Register(ctx context.Context, in RegisterInput) (*domain.Employee, error) {
	emp, err := s.newEmployee(ctx, in, true)
	if err != nil {
		return nil, err
	}

	parsed := domain.ParseID(emp.ID)
	if !parsed.IsOwnedBy(emp.CompanyID) {
		s.logger.WithCompanyID(emp.CompanyID).Warn().Str("employee_id", emp.ID).Msg("rejected employee id outside company scope")
		return nil, errors.NewWithKey("EMPLOYEE_ID_INVALID", "errors.employee.id_invalid", http.StatusBadRequest,
			map[string]string{"id": emp.ID, "company_id": strconv.FormatInt(emp.CompanyID, 10)}).
			WithDetails(map[string]string{"id": "invalid"})
	}
	seq := parsed.Seq
	emp.Seq = &seq

	outcome, err := s.repo.Insert(ctx, emp)
	if err != nil {
		if errors.FromError(err).StatusCode < http.StatusInternalServerError {
			s.logger.WithCompanyID(emp.CompanyID).Warn().Err(err).Msg("employee registration rejected")
			return nil, err
		}
		s.logger.WithCompanyID(emp.CompanyID).Error().Err(err).Msg("failed to register employee")
		return nil, err
	}
	if outcome == domain.OutcomeConflict {
		return nil, s.idConflict(ctx, emp)
	}

	s.publisher.PublishEmployeeRegistered(ctx, emp, false)
	return emp, nil
}

// RegisterAuto inserts an employee under an id allocated by the server.
// Allocation and insert run in one transaction holding the company's
// sequence lock, so concurrent callers never receive the same id.
// Conflicts with ids inserted through Register are retried.
func (s *RosterService) RegisterAuto(ctx context.Context, in RegisterInput) (*domain.Employee, error) {
	emp, err := s.newEmployee(ctx, in, false)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.retries; attempt++ {
		var outcome domain.Outcome
		err := s.repo.Transaction(ctx, func(ctx context.Context) error {
			if err := s.repo.LockCompanySequence(ctx, emp.CompanyID); err != nil {
				return err
			}
			lastID, found, err := s.repo.LastID(ctx, emp.CompanyID)
			if err != nil {
				return err
			}
			if domain.SequenceExhausted(lastID, found) {
				return errSequenceExhausted(emp.CompanyID)
			}
			emp.ID = domain.NextID(emp.CompanyID, lastID, found)
			seq := domain.ParseID(emp.ID).Seq
			emp.Seq = &seq

			outcome, err = s.repo.Insert(ctx, emp)
			return err
		})
		if err != nil {
			if errors.FromError(err).StatusCode < http.StatusInternalServerError {
				s.logger.WithCompanyID(emp.CompanyID).Warn().Err(err).Msg("employee id allocation rejected")
				return nil, err
			}
			s.logger.WithCompanyID(emp.CompanyID).Error().Err(err).Msg("failed to allocate employee id")
			return nil, err
		}
		if outcome == domain.OutcomeUpdated {
			s.publisher.PublishEmployeeRegistered(ctx, emp, true)
			return emp, nil
		}

		s.logger.WithCompanyID(emp.CompanyID).Warn().
			Str("employee_id", emp.ID).
			Int("attempt", attempt).
			Msg("allocated employee id already taken, retrying")
	}

	return nil, errors.NewWithKey("EMPLOYEE_ID_ALLOCATION_FAILED", "errors.employee.allocation_failed", http.StatusConflict)
}

// UpdateSignature sets the digital signature flag of one employee
func (s *RosterService) UpdateSignature(ctx context.Context, companyID int64, id string, value bool) error {
	id, err := requireScope(companyID, id)
	if err != nil {
		return err
	}

	outcome, err := s.repo.UpdateSignature(ctx, companyID, id, value)
	if err != nil {
		s.logger.WithCompanyID(companyID).Error().Err(err).Msg("failed to update digital signature")
		return err
	}
	if outcome == domain.OutcomeNotFound {
		return errors.NotFoundWithKey("employee")
	}

	s.publisher.PublishSignatureUpdated(ctx, companyID, id, value)
	return nil
}

// Delete removes one employee. Deleting a missing employee, or one owned by
// another company, is a not found error.
func (s *RosterService) Delete(ctx context.Context, companyID int64, id string) error {
	id, err := requireScope(companyID, id)
	if err != nil {
		return err
	}

	outcome, err := s.repo.Delete(ctx, companyID, id)
	if err != nil {
		s.logger.WithCompanyID(companyID).Error().Err(err).Msg("failed to delete employee")
		return err
	}
	if outcome == domain.OutcomeNotFound {
		return errors.NotFoundWithKey("employee")
	}

	s.publisher.PublishEmployeeDeleted(ctx, companyID, id)
	return nil
}

func (s *RosterService) newEmployee(ctx context.Context, in RegisterInput, needID bool) (*domain.Employee, error) {
	emp := &domain.Employee{
		ID:               strings.TrimSpace(in.ID),
		CompanyID:        in.CompanyID,
		Name:             strings.TrimSpace(in.Name),
		Position:         strings.TrimSpace(in.Position),
		Department:       strings.TrimSpace(in.Department),
		DigitalSignature: in.DigitalSignature,
		CreatedBy:        actor.OrSystem(ctx).AuditID(),
	}

	required := []struct {
		field string
		value string
		max   int
	}{
		{"id", emp.ID, domain.MaxIDLength},
		{"name", emp.Name, domain.MaxFieldLength},
		{"position", emp.Position, domain.MaxFieldLength},
		{"department", emp.Department, domain.MaxFieldLength},
	}
	for _, r := range required {
		if r.field == "id" && !needID {
			continue
		}
		if r.value == "" {
			s.logger.Warn().Str("field", r.field).Msg("employee registration missing field")
			return nil, errors.MissingField(r.field)
		}
		if utf8.RuneCountInString(r.value) > r.max {
			s.logger.Warn().Str("field", r.field).Msg("employee registration field too long")
			return nil, errors.Validation(map[string]string{
				r.field: "must be at most " + strconv.Itoa(r.max) + " characters",
			})
		}
	}
	if emp.CompanyID <= 0 {
		return nil, errCompanyRequired()
	}

	return emp, nil
}

// idConflict builds the error returned when a client supplied id is
// taken, suggesting the id the caller should retry with
func (s *RosterService) idConflict(ctx context.Context, emp *domain.Employee) error {
	next, err := s.NextID(ctx, emp.CompanyID)
	if err != nil {
		return err
	}

	s.logger.WithCompanyID(emp.CompanyID).Warn().
		Str("employee_id", emp.ID).
		Str("next_id", next).
		Msg("employee id already taken")

	return errors.NewWithKey("EMPLOYEE_ID_CONFLICT", "errors.employee.id_conflict", http.StatusConflict,
		map[string]string{"id": emp.ID, "next_id": next}).
		WithDetails(map[string]string{"nextId": next})
}

func requireScope(companyID int64, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.MissingField("id")
	}
	if companyID <= 0 {
		return "", errCompanyRequired()
	}
	return id, nil
}

func errSequenceExhausted(companyID int64) *errors.AppError {
	return errors.NewWithKey("EMPLOYEE_ID_ALLOCATION_FAILED", "errors.employee.sequence_exhausted", http.StatusConflict,
		map[string]string{"company_id": strconv.FormatInt(companyID, 10), "max": strconv.Itoa(domain.MaxSeq)})
}

func errCompanyRequired() *errors.AppError {
	return errors.NewWithKey("COMPANY_ID_REQUIRED", "errors.company.missing", http.StatusBadRequest).
		WithDetails(map[string]string{"company_id": "required"})
}
