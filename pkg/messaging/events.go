package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Roster events
	EventEmployeeRegistered       = "roster.employee.registered"
	EventEmployeeSignatureUpdated = "roster.employee.signature_updated"
	EventEmployeeDeleted          = "roster.employee.deleted"
	EventEmployeeIDMigrated       = "roster.employee.id_migrated"

	// Punch clock events
	EventPunchRecorded = "punch.recorded"

	// Account events
	EventCompanyRegistered = "account.company.registered"
)

// ExchangeEvents is the single topic exchange all samtime events go to
const ExchangeEvents = "samtime.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// EmployeeRegisteredEvent is published after an employee row is inserted
type EmployeeRegisteredEvent struct {
	CompanyID  int64  `json:"company_id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	// Allocated is true when the server picked the id
	Allocated bool   `json:"allocated"`
	CreatedBy string `json:"created_by"`
}

// EmployeeSignatureUpdatedEvent is published when the signature flag changes
type EmployeeSignatureUpdatedEvent struct {
	CompanyID        int64  `json:"company_id"`
	EmployeeID       string `json:"employee_id"`
	DigitalSignature bool   `json:"digital_signature"`
}

// EmployeeDeletedEvent is published after an employee row is removed
type EmployeeDeletedEvent struct {
	CompanyID  int64  `json:"company_id"`
	EmployeeID string `json:"employee_id"`
}

// EmployeeIDMigratedEvent is published for each legacy id rewritten
type EmployeeIDMigratedEvent struct {
	CompanyID int64  `json:"company_id"`
	OldID     string `json:"old_id"`
	NewID     string `json:"new_id"`
}

// PunchRecordedEvent is published for every accepted punch
type PunchRecordedEvent struct {
	PunchID    string    `json:"punch_id"`
	CompanyID  int64     `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	Kind       string    `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`
	DeviceID   string    `json:"device_id,omitempty"`
}

// CompanyRegisteredEvent is published when a company account is created
type CompanyRegisteredEvent struct {
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
