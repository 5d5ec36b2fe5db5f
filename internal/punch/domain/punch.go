// Package domain holds the punch clock rules: which punch may follow
// which, and how a day of punches adds up to worked and break time.
package domain

import (
	"sort"
	"time"
)

// Kind is the type of a punch
type Kind string

const (
	KindClockIn    Kind = "clock_in"
	KindBreakStart Kind = "break_start"
	KindBreakEnd   Kind = "break_end"
	KindClockOut   Kind = "clock_out"

	// KindBreak is accepted from clients and resolved to break_start or
	// break_end from the employee's status
	KindBreak Kind = "break"
)

// ParseKind accepts the stored kinds and the break toggle
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindClockIn, KindBreakStart, KindBreakEnd, KindClockOut, KindBreak:
		return k, true
	default:
		return "", false
	}
}

// Status is where an employee stands within the day
type Status string

const (
	StatusClockedOut Status = "clocked_out"
	StatusClockedIn  Status = "clocked_in"
	StatusOnBreak    Status = "on_break"
)

// Punch is one recorded clock event
type Punch struct {
	ID         string    `db:"id" json:"id"`
	CompanyID  int64     `db:"company_id" json:"company_id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	Kind       Kind      `db:"kind" json:"kind"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	Verified   bool      `db:"verified" json:"verified"`
	DeviceID   *string   `db:"device_id" json:"device_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StatusAfter returns the status left by the last punch, nil meaning no
// punch yet today
func StatusAfter(last *Punch) Status {
	if last == nil {
		return StatusClockedOut
	}
	switch last.Kind {
	case KindClockIn, KindBreakEnd:
		return StatusClockedIn
	case KindBreakStart:
		return StatusOnBreak
	default:
		return StatusClockedOut
	}
}

// Resolve checks that kind may be punched from status and returns the
// kind to store. ok is false for a transition that is not allowed.
func Resolve(kind Kind, status Status) (Kind, bool) {
	if kind == KindBreak {
		switch status {
		case StatusClockedIn:
			return KindBreakStart, true
		case StatusOnBreak:
			return KindBreakEnd, true
		default:
			return kind, false
		}
	}

	switch status {
	case StatusClockedOut:
		return kind, kind == KindClockIn
	case StatusClockedIn:
		return kind, kind == KindBreakStart || kind == KindClockOut
	case StatusOnBreak:
		return kind, kind == KindBreakEnd || kind == KindClockOut
	default:
		return kind, false
	}
}

// Totals is the time an employee spent working and on break
type Totals struct {
	WorkedMinutes int `json:"worked_minutes"`
	BreakMinutes  int `json:"break_minutes"`
}

// Summarize adds up a day of punches. Intervals still open at until are
// counted up to until. Punches that break the transition rules are
// skipped.
func Summarize(punches []*Punch, until time.Time) Totals {
	sorted := make([]*Punch, len(punches))
	copy(sorted, punches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	var worked, onBreak time.Duration
	status := StatusClockedOut
	var since time.Time

	for _, p := range sorted {
		if _, ok := Resolve(p.Kind, status); !ok {
			continue
		}
		switch status {
		case StatusClockedIn:
			worked += p.RecordedAt.Sub(since)
		case StatusOnBreak:
			onBreak += p.RecordedAt.Sub(since)
		}
		status = StatusAfter(p)
		since = p.RecordedAt
	}

	if until.After(since) {
		switch status {
		case StatusClockedIn:
			worked += until.Sub(since)
		case StatusOnBreak:
			onBreak += until.Sub(since)
		}
	}

	return Totals{
		WorkedMinutes: int(worked / time.Minute),
		BreakMinutes:  int(onBreak / time.Minute),
	}
}

// DayBounds returns the start of the day containing t in loc and the
// start of the following day
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// DateLayout is the wire format of report and filter dates
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD date as the start of that day in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
