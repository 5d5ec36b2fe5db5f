package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samtime/samtime-backend/internal/punch/domain"
	rosterdomain "github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/messaging"
)

// Repository is the punch persistence the service needs
type Repository interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	LockEmployee(ctx context.Context, companyID int64, employeeID string) error
	Last(ctx context.Context, companyID int64, employeeID string, from, to time.Time) (*domain.Punch, error)
	Insert(ctx context.Context, p *domain.Punch) error
	List(ctx context.Context, companyID int64, from, to time.Time, employeeID string) ([]*domain.Punch, error)
}

// Roster looks up the employees punches belong to
type Roster interface {
	Get(ctx context.Context, companyID int64, id string) (*rosterdomain.Employee, error)
	List(ctx context.Context, companyID int64) ([]*rosterdomain.Employee, error)
}

// Options tunes punch acceptance
type Options struct {
	RequireSignature bool
	Location         *time.Location
}

// PunchService records punches and builds daily reports
type PunchService struct {
	repo      Repository
	roster    Roster
	debouncer Debouncer
	publisher messaging.EventPublisher
	opts      Options
	now       func() time.Time
	logger    *logger.Logger
}

// NewPunchService creates a new punch service
func NewPunchService(
	repo Repository,
	roster Roster,
	debouncer Debouncer,
	publisher messaging.EventPublisher,
	opts Options,
	log *logger.Logger,
) *PunchService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &PunchService{
		repo:      repo,
		roster:    roster,
		debouncer: debouncer,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		logger:    log.WithComponent("punch"),
	}
}

// RecordInput is a punch sent by a device
type RecordInput struct {
	CompanyID  int64
	EmployeeID string
	Kind       string
	Verified   bool
	DeviceID   string
}

// EmployeeStatus is an employee's standing for the current day
type EmployeeStatus struct {
	EmployeeID string        `json:"employee_id"`
	Status     domain.Status `json:"status"`
	LastPunch  *domain.Punch `json:"last_punch,omitempty"`
}

// Record validates and stores a punch. The break kind is resolved to
// break_start or break_end from the employee's status.
func (s *PunchService) Record(ctx context.Context, in RecordInput) (*domain.Punch, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, errors.MissingField("employee_id")
	}
	kind, ok := domain.ParseKind(strings.TrimSpace(in.Kind))
	if !ok {
		return nil, errors.NewWithKey("PUNCH_INVALID_KIND", "errors.punch.invalid_kind", http.StatusBadRequest,
			map[string]string{"kind": in.Kind})
	}
	if !in.Verified {
		s.logger.WithCompanyID(in.CompanyID).Warn().Str("employee_id", employeeID).Msg("unverified punch refused")
		return nil, errors.NewWithKey("PUNCH_NOT_VERIFIED", "errors.punch.not_verified", http.StatusForbidden)
	}

	emp, err := s.roster.Get(ctx, in.CompanyID, employeeID)
	if err != nil {
		return nil, err
	}
	if s.opts.RequireSignature && !emp.DigitalSignature {
		s.logger.WithCompanyID(in.CompanyID).Warn().Str("employee_id", employeeID).Msg("punch without digital signature refused")
		return nil, errors.NewWithKey("PUNCH_SIGNATURE_REQUIRED", "errors.punch.signature_required", http.StatusForbidden)
	}

	key := debounceKey(in.CompanyID, employeeID)
	free, err := s.debouncer.Acquire(ctx, key)
	if err != nil {
		// Redis trouble must not stop the clock
		s.logger.Warn().Err(err).Msg("punch debounce unavailable")
		free = true
	}
	if !free {
		s.logger.WithCompanyID(in.CompanyID).Warn().Str("employee_id", employeeID).Msg("duplicate punch refused")
		return nil, errors.NewWithKey("PUNCH_DUPLICATE", "errors.punch.duplicate", http.StatusConflict)
	}

	p := &domain.Punch{
		ID:         uuid.NewString(),
		CompanyID:  in.CompanyID,
		EmployeeID: employeeID,
		Verified:   true,
	}
	if d := strings.TrimSpace(in.DeviceID); d != "" {
		p.DeviceID = &d
	}

	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockEmployee(ctx, in.CompanyID, employeeID); err != nil {
			return err
		}

		p.RecordedAt = s.now().UTC()
		from, to := domain.DayBounds(p.RecordedAt, s.opts.Location)
		last, err := s.repo.Last(ctx, in.CompanyID, employeeID, from, to)
		if err != nil {
			return err
		}

		status := domain.StatusAfter(last)
		resolved, ok := domain.Resolve(kind, status)
		if !ok {
			return errors.NewWithKey("PUNCH_INVALID_TRANSITION", "errors.punch.invalid_transition", http.StatusBadRequest,
				map[string]string{"kind": string(kind), "status": string(status)}).
				WithDetails(map[string]string{"status": string(status)})
		}
		p.Kind = resolved

		return s.repo.Insert(ctx, p)
	})
	if err != nil {
		if relErr := s.debouncer.Release(ctx, key); relErr != nil {
			s.logger.Warn().Err(relErr).Msg("failed to release punch window")
		}
		if errors.FromError(err).StatusCode >= http.StatusInternalServerError {
			s.logger.WithCompanyID(in.CompanyID).Error().Err(err).Msg("failed to record punch")
		}
		return nil, err
	}

	s.logger.WithCompanyID(in.CompanyID).Info().
		Str("employee_id", employeeID).
		Str("kind", string(p.Kind)).
		Msg("punch recorded")

	event := messaging.PunchRecordedEvent{
		PunchID:    p.ID,
		CompanyID:  p.CompanyID,
		EmployeeID: p.EmployeeID,
		Kind:       string(p.Kind),
		RecordedAt: p.RecordedAt,
	}
	if p.DeviceID != nil {
		event.DeviceID = *p.DeviceID
	}
	if err := s.publisher.Publish(ctx, messaging.EventPunchRecorded, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish punch recorded event")
	}

	return p, nil
}

// Status returns where the employee stands today
func (s *PunchService) Status(ctx context.Context, companyID int64, employeeID string) (*EmployeeStatus, error) {
	emp, err := s.roster.Get(ctx, companyID, strings.TrimSpace(employeeID))
	if err != nil {
		return nil, err
	}

	from, to := domain.DayBounds(s.now(), s.opts.Location)
	last, err := s.repo.Last(ctx, companyID, emp.ID, from, to)
	if err != nil {
		return nil, err
	}

	return &EmployeeStatus{
		EmployeeID: emp.ID,
		Status:     domain.StatusAfter(last),
		LastPunch:  last,
	}, nil
}

// List returns the company's punches of date, today when empty
func (s *PunchService) List(ctx context.Context, companyID int64, date, employeeID string) ([]*domain.Punch, error) {
	from, to, err := s.day(date)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, companyID, from, to, strings.TrimSpace(employeeID))
}

// DailyReport lists every employee of the company with the punches of
// date and the time worked and spent on break
func (s *PunchService) DailyReport(ctx context.Context, companyID int64, date string) (*domain.Report, error) {
	from, to, err := s.day(date)
	if err != nil {
		return nil, err
	}

	employees, err := s.roster.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	punches, err := s.repo.List(ctx, companyID, from, to, "")
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string][]*domain.Punch, len(employees))
	for _, p := range punches {
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}

	until := s.now()
	if until.After(to) {
		until = to
	}

	report := &domain.Report{
		CompanyID: companyID,
		Date:      from.Format(domain.DateLayout),
		Employees: make([]*domain.EmployeeDay, 0, len(employees)),
	}
	for _, emp := range employees {
		day := byEmployee[emp.ID]
		line := &domain.EmployeeDay{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			Department: emp.Department,
			Punches:    make([]*domain.PunchLine, 0, len(day)),
			Totals:     domain.Summarize(day, until),
		}
		var last *domain.Punch
		for _, p := range day {
			line.Punches = append(line.Punches, &domain.PunchLine{Kind: p.Kind, At: p.RecordedAt.In(s.opts.Location)})
			last = p
		}
		line.Status = domain.StatusAfter(last)
		report.Employees = append(report.Employees, line)
	}

	return report, nil
}

// Location is the timezone days are cut in
func (s *PunchService) Location() *time.Location {
	return s.opts.Location
}

func (s *PunchService) day(date string) (time.Time, time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		from, to := domain.DayBounds(s.now(), s.opts.Location)
		return from, to, nil
	}
	from, err := domain.ParseDate(date, s.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewWithKey("PUNCH_INVALID_DATE", "errors.punch.invalid_date", http.StatusBadRequest).
			WithDetails(map[string]string{"date": "invalid"})
	}
	return from, from.AddDate(0, 0, 1), nil
}
