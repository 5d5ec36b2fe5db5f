package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventEmployeeDeleted, "samtime", "req-7", EmployeeDeletedEvent{
		CompanyID:  3,
		EmployeeID: "EMP-3-004",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "roster.employee.deleted", event.Type)
	assert.Equal(t, "req-7", event.CorrelationID)

	var data EmployeeDeletedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, "EMP-3-004", data.EmployeeID)
	assert.Equal(t, int64(3), data.CompanyID)
}

func TestGenerateEventID_Unique(t *testing.T) {
	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}
