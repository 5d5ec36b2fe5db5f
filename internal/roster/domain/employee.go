package domain

import "time"

// Employee is a roster entry owned by one company.
type Employee struct {
	ID               string    `db:"id" json:"id"`
	CompanyID        int64     `db:"company_id" json:"company_id"`
	Seq              *int      `db:"seq" json:"-"`
	Name             string    `db:"name" json:"name"`
	Position         string    `db:"position" json:"position"`
	Department       string    `db:"department" json:"department"`
	DigitalSignature bool      `db:"digital_signature" json:"digitalSignature"`
	CreatedBy        string    `db:"created_by" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Outcome tags the result of a write against the roster.
type Outcome int

const (
	// OutcomeUpdated means exactly the addressed row was written
	OutcomeUpdated Outcome = iota
	// OutcomeNotFound means no row matched the id within the company
	OutcomeNotFound
	// OutcomeConflict means the id is already taken
	OutcomeConflict
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeConflict:
		return "conflict"
	default:
		return "unknown"
	}
}
