package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseDomainEvent(t *testing.T) {
	aggID := uuid.New()
	tenantID := uuid.New()

	e := NewBaseDomainEvent("PayableEntryCreated", "PayableEntry", aggID, tenantID)

	assert.NotEqual(t, uuid.Nil, e.EventID())
	assert.Equal(t, "PayableEntryCreated", e.EventType())
	assert.Equal(t, "PayableEntry", e.AggregateType())
	assert.Equal(t, aggID, e.AggregateID())
	assert.Equal(t, tenantID, e.TenantID())
	assert.Equal(t, time.UTC, e.OccurredAt().Location())
	assert.WithinDuration(t, time.Now(), e.OccurredAt(), time.Minute)

	other := NewBaseDomainEvent("PayableEntryCreated", "PayableEntry", aggID, tenantID)
	assert.NotEqual(t, e.EventID(), other.EventID())
}

func TestBaseDomainEvent_JSONEnvelope(t *testing.T) {
	e := NewBaseDomainEvent("RecurrenceGroupCreated", "RecurrenceGroup", uuid.New(), uuid.New())

	data, err := json.Marshal(&e)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "type", "timestamp", "aggregate_id", "aggregate_type", "tenant_id"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "RecurrenceGroup", fields["aggregate_type"])
}
