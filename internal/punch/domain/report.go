package domain

import "time"

// Report is the daily punch report of a company
type Report struct {
	CompanyID int64          `json:"company_id"`
	Date      string         `json:"date"`
	Employees []*EmployeeDay `json:"employees"`
}

// EmployeeDay is one employee's line in the daily report
type EmployeeDay struct {
	EmployeeID string       `json:"employee_id"`
	Name       string       `json:"name"`
	Department string       `json:"department"`
	Status     Status       `json:"status"`
	Punches    []*PunchLine `json:"punches"`
	Totals
}

// PunchLine is a punch as shown on the report
type PunchLine struct {
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`
}
