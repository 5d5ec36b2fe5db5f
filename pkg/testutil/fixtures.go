package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/samtime/samtime-backend/pkg/database"
)

// CompanyFixture represents a company account row
type CompanyFixture struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

// EmployeeFixture represents an employee row
type EmployeeFixture struct {
	ID               string
	CompanyID        int64
	Seq              *int
	Name             string
	Position         string
	Department       string
	DigitalSignature bool
}

// FixtureFactory builds rows with unique values
type FixtureFactory struct {
	mu  sync.Mutex
	seq int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) nextSeq() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

// Company builds a company fixture
func (f *FixtureFactory) Company(opts ...func(*CompanyFixture)) CompanyFixture {
	n := f.nextSeq()
	c := CompanyFixture{
		Name:  fmt.Sprintf("Empresa %d", n),
		Email: fmt.Sprintf("empresa%d@example.com", n),
		// not a valid login, use the account service to create one
		PasswordHash: "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixt",
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Employee builds an employee fixture for companyID with the given sequence
func (f *FixtureFactory) Employee(companyID int64, seq int, opts ...func(*EmployeeFixture)) EmployeeFixture {
	s := seq
	e := EmployeeFixture{
		ID:         fmt.Sprintf("EMP-%d-%03d", companyID, seq),
		CompanyID:  companyID,
		Seq:        &s,
		Name:       fmt.Sprintf("Funcionário %d", f.nextSeq()),
		Position:   "Atendente",
		Department: "Vendas",
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// WithLegacyID gives the employee an old style EMPnnn id
func WithLegacyID(id string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.ID = id
		e.Seq = nil
	}
}

// WithSignature sets the digital signature flag
func WithSignature(v bool) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.DigitalSignature = v
	}
}

// InsertCompany writes c and returns it with its generated id
func InsertCompany(ctx context.Context, db *database.DB, c CompanyFixture) (CompanyFixture, error) {
	err := db.QueryRowxContext(ctx,
		`INSERT INTO companies (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		c.Name, c.Email, c.PasswordHash,
	).Scan(&c.ID)
	return c, err
}

// InsertEmployee writes e
func InsertEmployee(ctx context.Context, db *database.DB, e EmployeeFixture) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO employees (id, company_id, seq, name, position, department, digital_signature, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'fixture')`,
		e.ID, e.CompanyID, e.Seq, e.Name, e.Position, e.Department, e.DigitalSignature,
	)
	return err
}
