package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/samtime/samtime-backend/internal/punch/domain"
	"github.com/samtime/samtime-backend/pkg/database"
)

// PunchRepository handles punch persistence
type PunchRepository struct {
	db *database.DB
}

// NewPunchRepository creates a new punch repository
func NewPunchRepository(db *database.DB) *PunchRepository {
	return &PunchRepository{db: db}
}

const punchColumns = `id, company_id, employee_id, kind, recorded_at, verified, device_id, created_at`

// employeeLockClass namespaces the advisory locks taken per employee
const employeeLockClass = 7202

// Transaction runs fn in a transaction shared by the repository calls
// made with its context
func (r *PunchRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(ctx, fn)
}

// LockEmployee serializes punches of one employee until the surrounding
// transaction ends. Must be called inside Transaction.
func (r *PunchRepository) LockEmployee(ctx context.Context, companyID int64, employeeID string) error {
	if !database.InTransaction(ctx) {
		return fmt.Errorf("lock employee: no transaction in context")
	}
	_, err := r.db.Q(ctx).ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1, hashtext($2::text || ':' || $3))`,
		employeeLockClass, companyID, employeeID)
	if err != nil {
		return fmt.Errorf("failed to lock employee punches: %w", err)
	}
	return nil
}

// Last returns the employee's latest punch in [from, to), or nil
func (r *PunchRepository) Last(ctx context.Context, companyID int64, employeeID string, from, to time.Time) (*domain.Punch, error) {
	var p domain.Punch
	err := r.db.Q(ctx).GetContext(ctx, &p, `
		SELECT `+punchColumns+` FROM punches
		WHERE company_id = $1 AND employee_id = $2
		  AND recorded_at >= $3 AND recorded_at < $4
		ORDER BY recorded_at DESC
		LIMIT 1
	`, companyID, employeeID, from, to)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last punch: %w", err)
	}
	return &p, nil
}

// Insert stores p
func (r *PunchRepository) Insert(ctx context.Context, p *domain.Punch) error {
	err := r.db.Q(ctx).QueryRowxContext(ctx, `
		INSERT INTO punches (id, company_id, employee_id, kind, recorded_at, verified, device_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.CompanyID, p.EmployeeID, p.Kind, p.RecordedAt, p.Verified, p.DeviceID).Scan(&p.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to insert punch: %w", err)
	}
	return nil
}

// List returns the company's punches in [from, to) in time order.
// A non-empty employeeID narrows the list to that employee.
func (r *PunchRepository) List(ctx context.Context, companyID int64, from, to time.Time, employeeID string) ([]*domain.Punch, error) {
	query := `SELECT ` + punchColumns + ` FROM punches
		WHERE company_id = $1 AND recorded_at >= $2 AND recorded_at < $3`
	args := []interface{}{companyID, from, to}
	if employeeID != "" {
		query += ` AND employee_id = $4`
		args = append(args, employeeID)
	}
	query += ` ORDER BY recorded_at ASC, id ASC`

	punches := []*domain.Punch{}
	if err := r.db.Q(ctx).SelectContext(ctx, &punches, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	return punches, nil
}
