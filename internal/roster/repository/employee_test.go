package repository_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/internal/roster/repository"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employeeCols = []string{
	"id", "company_id", "seq", "name", "position", "department",
	"digital_signature", "created_by", "created_at", "updated_at",
}

func newRepo(t *testing.T) (*repository.EmployeeRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })
	return repository.NewEmployeeRepository(mockDB.Database()), mockDB
}

func TestEmployeeRepository_LastID(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("ORDER BY seq DESC NULLS LAST, id DESC").
		WithArgs(int64(7)).
		WillReturnRows(testutil.MockRows("id").AddRow("EMP-7-1000"))

	id, found, err := repo.LastID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "EMP-7-1000", id)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_LastID_EmptyScope(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("SELECT id FROM employees").
		WithArgs(int64(3)).
		WillReturnRows(testutil.MockRows("id"))

	id, found, err := repo.LastID(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)
}

func TestEmployeeRepository_List(t *testing.T) {
	repo, mockDB := newRepo(t)
	now := time.Now()

	mockDB.ExpectQuery("WHERE company_id = $1").
		WithArgs(int64(2)).
		WillReturnRows(testutil.MockRows(employeeCols...).
			AddRow("EMP-2-001", 2, 1, "Ana", "Caixa", "Vendas", true, "system", now, now).
			AddRow("EMP-2-002", 2, 2, "Bruno", "Gerente", "Loja", false, "system", now, now))

	employees, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "EMP-2-001", employees[0].ID)
	assert.True(t, employees[0].DigitalSignature)
	assert.Equal(t, int64(2), employees[1].CompanyID)
}

func TestEmployeeRepository_List_EmptyIsNotNil(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("ORDER BY id ASC").
		WithArgs(int64(9)).
		WillReturnRows(testutil.MockRows(employeeCols...))

	employees, err := repo.List(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, employees)
	assert.Empty(t, employees)
}

func TestEmployeeRepository_Get_NotFound(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("WHERE id = $1 AND company_id = $2").
		WithArgs("EMP-1-001", int64(2)).
		WillReturnRows(testutil.MockRows(employeeCols...))

	_, err := repo.Get(context.Background(), 2, "EMP-1-001")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestEmployeeRepository_Insert(t *testing.T) {
	repo, mockDB := newRepo(t)
	seq := 4
	emp := &domain.Employee{
		ID: "EMP-1-004", CompanyID: 1, Seq: &seq,
		Name: "Carla", Position: "Cozinheira", Department: "Cozinha", CreatedBy: "system",
	}
	now := time.Now()

	mockDB.ExpectQuery("ON CONFLICT (id) DO NOTHING").
		WithArgs("EMP-1-004", int64(1), &seq, "Carla", "Cozinheira", "Cozinha", false, "system").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	outcome, err := repo.Insert(context.Background(), emp)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, outcome)
	assert.Equal(t, now, emp.CreatedAt)
}

func TestEmployeeRepository_Insert_Conflict(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("INSERT INTO employees").
		WillReturnRows(testutil.MockRows("created_at", "updated_at"))

	outcome, err := repo.Insert(context.Background(), &domain.Employee{ID: "EMP-1-001", CompanyID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConflict, outcome)
}

func TestEmployeeRepository_Insert_ValueTooLong(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("INSERT INTO employees").
		WillReturnError(&pq.Error{Code: "22001"})

	_, err := repo.Insert(context.Background(), &domain.Employee{ID: "EMP-1-001", CompanyID: 1})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestEmployeeRepository_UpdateSignature(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     domain.Outcome
	}{
		{"row updated", 1, domain.OutcomeUpdated},
		{"no row in scope", 0, domain.OutcomeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := newRepo(t)
			mockDB.ExpectExec("SET digital_signature = $1, updated_at = NOW()").
				WithArgs(true, "EMP-1-001", int64(1)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			outcome, err := repo.UpdateSignature(context.Background(), 1, "EMP-1-001", true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestEmployeeRepository_Delete(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectExec("DELETE FROM employees WHERE id = $1 AND company_id = $2").
		WithArgs("EMP-1-001", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	outcome, err := repo.Delete(context.Background(), 2, "EMP-1-001")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotFound, outcome)
}

func TestEmployeeRepository_Delete_DatabaseError(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectExec("DELETE FROM employees").
		WillReturnError(stderrors.New("connection reset"))

	_, err := repo.Delete(context.Background(), 2, "EMP-2-001")
	assert.ErrorContains(t, err, "connection reset")
}

func TestEmployeeRepository_LockCompanySequence(t *testing.T) {
	repo, mockDB := newRepo(t)

	err := repo.LockCompanySequence(context.Background(), 1)
	require.Error(t, err, "lock outside a transaction must fail")

	mockDB.ExpectBegin()
	mockDB.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectCommit()

	err = repo.Transaction(context.Background(), func(ctx context.Context) error {
		return repo.LockCompanySequence(ctx, 1)
	})
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_RenameID(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("SELECT EXISTS").
		WithArgs("EMP-3-042").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))
	mockDB.ExpectExec("UPDATE employees SET id = $1, seq = $2").
		WithArgs("EMP-3-042", 42, "EMP042").
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome, err := repo.RenameID(context.Background(), "EMP042", "EMP-3-042", 42)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, outcome)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_RenameID_Taken(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("SELECT EXISTS").
		WithArgs("EMP-3-001").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	outcome, err := repo.RenameID(context.Background(), "EMP001", "EMP-3-001", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConflict, outcome)
	mockDB.ExpectationsWereMet(t)
}
