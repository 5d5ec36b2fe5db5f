package events

import (
	"context"

	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/messaging"
)

// RosterEventPublisher publishes roster events. Failures are logged and
// never fail the request that caused them.
type RosterEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewRosterEventPublisher creates a new roster event publisher
func NewRosterEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *RosterEventPublisher {
	return &RosterEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("roster-events"),
	}
}

// PublishEmployeeRegistered publishes an employee registered event
func (p *RosterEventPublisher) PublishEmployeeRegistered(ctx context.Context, emp *domain.Employee, allocated bool) {
	data := messaging.EmployeeRegisteredEvent{
		CompanyID:  emp.CompanyID,
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Position:   emp.Position,
		Department: emp.Department,
		Allocated:  allocated,
		CreatedBy:  emp.CreatedBy,
	}

	p.publish(ctx, messaging.EventEmployeeRegistered, emp.ID, data)
}

// PublishSignatureUpdated publishes a digital signature change
func (p *RosterEventPublisher) PublishSignatureUpdated(ctx context.Context, companyID int64, employeeID string, value bool) {
	data := messaging.EmployeeSignatureUpdatedEvent{
		CompanyID:        companyID,
		EmployeeID:       employeeID,
		DigitalSignature: value,
	}

	p.publish(ctx, messaging.EventEmployeeSignatureUpdated, employeeID, data)
}

// PublishEmployeeDeleted publishes an employee deleted event
func (p *RosterEventPublisher) PublishEmployeeDeleted(ctx context.Context, companyID int64, employeeID string) {
	data := messaging.EmployeeDeletedEvent{
		CompanyID:  companyID,
		EmployeeID: employeeID,
	}

	p.publish(ctx, messaging.EventEmployeeDeleted, employeeID, data)
}

// PublishIDMigrated publishes a legacy id rewrite
func (p *RosterEventPublisher) PublishIDMigrated(ctx context.Context, companyID int64, oldID, newID string) {
	data := messaging.EmployeeIDMigratedEvent{
		CompanyID: companyID,
		OldID:     oldID,
		NewID:     newID,
	}

	p.publish(ctx, messaging.EventEmployeeIDMigrated, newID, data)
}

func (p *RosterEventPublisher) publish(ctx context.Context, eventType, employeeID string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("employee_id", employeeID).
			Msg("failed to publish roster event")
	}
}
