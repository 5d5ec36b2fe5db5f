package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/pkg/database"
	"github.com/samtime/samtime-backend/pkg/errors"
)

// EmployeeRepository handles employee persistence.
// Every query except the legacy migration ones is filtered by company_id.
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, company_id, seq, name, position, department, digital_signature, created_by, created_at, updated_at`

// Transaction runs fn in a transaction shared by every repository call
// made with the context it receives
func (r *EmployeeRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(ctx, fn)
}

// LastID returns the highest id of the company. Scoped ids compare by
// their numeric sequence so EMP-1-1000 sorts above EMP-1-999. Rows without
// a sequence come last and fall back to string order.
func (r *EmployeeRepository) LastID(ctx context.Context, companyID int64) (string, bool, error) {
	var id string
	err := r.db.Q(ctx).GetContext(ctx, &id, `
		SELECT id FROM employees
		WHERE company_id = $1
		ORDER BY seq DESC NULLS LAST, id DESC
		LIMIT 1
	`, companyID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read last employee id: %w", err)
	}
	return id, true, nil
}

// List returns the company's roster ordered by id
func (r *EmployeeRepository) List(ctx context.Context, companyID int64) ([]*domain.Employee, error) {
	employees := []*domain.Employee{}
	err := r.db.Q(ctx).SelectContext(ctx, &employees, `
		SELECT `+employeeColumns+` FROM employees
		WHERE company_id = $1
		ORDER BY id ASC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// Get returns one employee of the company
func (r *EmployeeRepository) Get(ctx context.Context, companyID int64, id string) (*domain.Employee, error) {
	var emp domain.Employee
	err := r.db.Q(ctx).GetContext(ctx, &emp, `
		SELECT `+employeeColumns+` FROM employees
		WHERE id = $1 AND company_id = $2
	`, id, companyID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundWithKey("employee")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &emp, nil
}

// Insert adds emp. A taken id yields OutcomeConflict instead of an error.
func (r *EmployeeRepository) Insert(ctx context.Context, emp *domain.Employee) (domain.Outcome, error) {
	err := r.db.Q(ctx).QueryRowxContext(ctx, `
		INSERT INTO employees (id, company_id, seq, name, position, department, digital_signature, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at
	`,
		emp.ID, emp.CompanyID, emp.Seq, emp.Name, emp.Position, emp.Department,
		emp.DigitalSignature, emp.CreatedBy,
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.OutcomeConflict, nil
	}
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return domain.OutcomeUpdated, appErr
		}
		return domain.OutcomeUpdated, fmt.Errorf("failed to insert employee: %w", err)
	}
	return domain.OutcomeUpdated, nil
}

// UpdateSignature sets digital_signature on one employee and leaves every
// other column alone
func (r *EmployeeRepository) UpdateSignature(ctx context.Context, companyID int64, id string, value bool) (domain.Outcome, error) {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE employees
		SET digital_signature = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3
	`, value, id, companyID)
	if err != nil {
		return domain.OutcomeNotFound, fmt.Errorf("failed to update digital signature: %w", err)
	}
	return outcomeOf(res)
}

// Delete removes one employee of the company
func (r *EmployeeRepository) Delete(ctx context.Context, companyID int64, id string) (domain.Outcome, error) {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		DELETE FROM employees WHERE id = $1 AND company_id = $2
	`, id, companyID)
	if err != nil {
		return domain.OutcomeNotFound, fmt.Errorf("failed to delete employee: %w", err)
	}
	return outcomeOf(res)
}

// LockCompanySequence serializes id allocation for one company until the
// surrounding transaction ends. Must be called inside Transaction.
func (r *EmployeeRepository) LockCompanySequence(ctx context.Context, companyID int64) error {
	if !database.InTransaction(ctx) {
		return fmt.Errorf("lock company sequence: no transaction in context")
	}
	if _, err := r.db.Q(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2::text))`, sequenceLockClass, companyID); err != nil {
		return fmt.Errorf("failed to lock company sequence: %w", err)
	}
	return nil
}

// sequenceLockClass namespaces the advisory locks taken per company
const sequenceLockClass = 7201

// ListLegacy returns every employee still carrying an EMPnnn id, across companies
func (r *EmployeeRepository) ListLegacy(ctx context.Context) ([]*domain.Employee, error) {
	employees := []*domain.Employee{}
	err := r.db.Q(ctx).SelectContext(ctx, &employees, `
		SELECT `+employeeColumns+` FROM employees
		WHERE id ~ '^EMP[0-9]+$'
		ORDER BY company_id ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy employees: %w", err)
	}
	return employees, nil
}

// RenameID moves an employee to a new id and sequence. Punches follow
// through the foreign key. A taken newID is reported as OutcomeConflict
// without issuing the update, which would abort the surrounding
// transaction.
func (r *EmployeeRepository) RenameID(ctx context.Context, oldID, newID string, seq int) (domain.Outcome, error) {
	var taken bool
	if err := r.db.Q(ctx).GetContext(ctx, &taken,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, newID); err != nil {
		return domain.OutcomeNotFound, fmt.Errorf("failed to check employee id: %w", err)
	}
	if taken {
		return domain.OutcomeConflict, nil
	}

	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE employees SET id = $1, seq = $2, updated_at = NOW() WHERE id = $3
	`, newID, seq, oldID)
	if err != nil {
		if database.IsUniqueViolation(err, database.ConstraintEmployeesPK) {
			return domain.OutcomeConflict, nil
		}
		return domain.OutcomeNotFound, fmt.Errorf("failed to rename employee id: %w", err)
	}
	return outcomeOf(res)
}

func outcomeOf(res sql.Result) (domain.Outcome, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.OutcomeNotFound, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.OutcomeNotFound, nil
	}
	return domain.OutcomeUpdated, nil
}
