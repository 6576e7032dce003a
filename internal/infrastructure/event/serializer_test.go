package event

import (
	"testing"
	"time"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(t *testing.T) *finance.PayableEntry {
	t.Helper()
	entry, err := finance.NewPayableEntry(uuid.New(), finance.PayableEntryFields{
		EntryNumber: "DES-000001",
		CustomerID:  uuid.New(),
		Description: "Office rent",
		GrossAmount: decimal.NewFromInt(1000),
		DueDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return entry
}

func TestEventSerializer_RegisterAndTypes(t *testing.T) {
	s := NewEventSerializer()
	s.Register("Second", &finance.PayableEntryCancelledEvent{})
	s.Register("First", &finance.PayableEntryCancelledEvent{})

	assert.True(t, s.IsRegistered("First"))
	assert.False(t, s.IsRegistered("Unknown"))
	assert.Equal(t, []string{"First", "Second"}, s.RegisteredTypes())
}

func TestNewPayableEventSerializer_KnowsAllPayableEvents(t *testing.T) {
	s := NewPayableEventSerializer()

	for _, et := range []string{
		finance.EventTypePayableEntryCreated,
		finance.EventTypePayableLaunchAdded,
		finance.EventTypePayableLaunchRemoved,
		finance.EventTypePayableEntrySettled,
		finance.EventTypePayableEntryCancelled,
		finance.EventTypeRecurrenceGroupCreated,
		finance.EventTypeRecurrenceGroupRebalanced,
		finance.EventTypeRecurrenceGroupCollapsed,
	} {
		assert.True(t, s.IsRegistered(et), et)
	}
}

func TestEventSerializer_RoundTrip_EntryCreated(t *testing.T) {
	s := NewPayableEventSerializer()
	entry := newTestEntry(t)
	original := finance.NewPayableEntryCreatedEvent(entry)

	data, err := s.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entry_number":"DES-000001"`)

	decoded, err := s.Deserialize(finance.EventTypePayableEntryCreated, data)
	require.NoError(t, err)

	got, ok := decoded.(*finance.PayableEntryCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, original.TenantID(), got.TenantID())
	assert.Equal(t, entry.ID, got.EntryID)
	assert.True(t, entry.GrossAmount.Equal(got.GrossAmount))
	assert.True(t, entry.DueDate.Equal(got.DueDate))
}

func TestEventSerializer_RoundTrip_GroupEvent(t *testing.T) {
	s := NewPayableEventSerializer()
	plan := &finance.GroupPlan{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		RecurrenceID: uuid.New(),
		Outcome:      finance.OutcomeRebalanced,
		Survivors: []finance.GroupMember{
			{EntryID: uuid.New(), InstallmentLabel: "1/2"},
			{EntryID: uuid.New(), InstallmentLabel: "2/2"},
		},
	}
	original := finance.NewRecurrenceGroupEvent(plan.EventType(), plan)

	data, err := s.Serialize(original)
	require.NoError(t, err)

	decoded, err := s.Deserialize(finance.EventTypeRecurrenceGroupRebalanced, data)
	require.NoError(t, err)

	got := decoded.(*finance.RecurrenceGroupEvent)
	assert.Equal(t, finance.EventTypeRecurrenceGroupRebalanced, got.EventType())
	assert.Equal(t, plan.RecurrenceID, got.RecurrenceID)
	assert.Equal(t, 2, got.Total)
	assert.Len(t, got.EntryIDs, 2)
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	s := NewPayableEventSerializer()

	_, err := s.Deserialize("UnknownEvent", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")

	_, err = s.Deserialize(finance.EventTypePayableEntryCancelled, []byte(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}
