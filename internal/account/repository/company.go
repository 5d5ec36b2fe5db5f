package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/samtime/samtime-backend/pkg/database"
	"github.com/samtime/samtime-backend/pkg/errors"
)

// Company is a company account. Employees are scoped by its id.
type Company struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CompanyRepository handles company account persistence
type CompanyRepository struct {
	db *database.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *database.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts c and fills its generated fields
func (r *CompanyRepository) Create(ctx context.Context, c *Company) error {
	err := r.db.Q(ctx).QueryRowxContext(ctx, `
		INSERT INTO companies (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Email, c.PasswordHash).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetByEmail finds a company by its login email
func (r *CompanyRepository) GetByEmail(ctx context.Context, email string) (*Company, error) {
	var c Company
	err := r.db.Q(ctx).GetContext(ctx, &c, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM companies WHERE email = $1
	`, email)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundWithKey("company")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by email: %w", err)
	}
	return &c, nil
}

// GetByID finds a company by id
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*Company, error) {
	var c Company
	err := r.db.Q(ctx).GetContext(ctx, &c, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM companies WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundWithKey("company")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}
