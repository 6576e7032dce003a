package finance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory PayableEntryStore that can be told to fail
type memStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]PayableEntry
	calls   []GroupStepKind
	failOn  int // 1-based call number to fail, 0 = never
}

func newMemStore(entries ...*PayableEntry) *memStore {
	s := &memStore{entries: map[uuid.UUID]PayableEntry{}}
	for _, e := range entries {
		s.entries[e.ID] = *e
	}
	return s
}

func (s *memStore) tick(kind GroupStepKind) error {
	s.calls = append(s.calls, kind)
	if s.failOn > 0 && len(s.calls) == s.failOn {
		return errors.New("connection reset")
	}
	return nil
}

func (s *memStore) Create(_ context.Context, e *PayableEntry) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tick(StepCreate); err != nil {
		return uuid.Nil, err
	}
	s.entries[e.ID] = *e
	return e.ID, nil
}

func (s *memStore) Update(_ context.Context, _, id uuid.UUID, p InstallmentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tick(StepUpdate); err != nil {
		return err
	}
	e, ok := s.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.ApplyInstallmentPatch(p)
	e.IncrementVersion()
	s.entries[id] = e
	return nil
}

func (s *memStore) Delete(_ context.Context, _, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tick(StepDelete); err != nil {
		return err
	}
	delete(s.entries, id)
	return nil
}

func (s *memStore) ListByRecurrenceID(_ context.Context, _, recurrenceID uuid.UUID) ([]PayableEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PayableEntry
	for _, e := range s.entries {
		if e.Recurrence != nil && e.Recurrence.RecurrenceID == recurrenceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// memTracker is an in-memory shared.StepTracker
type memTracker struct {
	done map[string]bool
}

func (m *memTracker) MarkCompleted(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.done[key] {
		return false, nil
	}
	m.done[key] = true
	return true, nil
}

func (m *memTracker) IsCompleted(_ context.Context, key string) (bool, error) {
	return m.done[key], nil
}

func (m *memTracker) Close() error { return nil }

var monthly = RecurrenceRule{Period: PeriodMonthly, Count: 3, WeekendRule: WeekendKeep}

func buildGroup(t *testing.T, n int) (*memStore, *PayableEntry, *RecurrenceGroupManager) {
	t.Helper()
	source := newTestEntry(t)
	store := newMemStore(source)
	m := NewRecurrenceGroupManager(store)

	rule := monthly
	rule.Count = n - 1
	dates, err := ProjectDates(source.DueDate, rule)
	require.NoError(t, err)
	_, err = m.CreateRecurrences(context.Background(), source, rule, Simulate(source.Fields(), dates))
	require.NoError(t, err)
	store.calls = nil
	return store, source, m
}

func assertContiguous(t *testing.T, group []PayableEntry) {
	t.Helper()
	for i, e := range group {
		require.NotNil(t, e.Recurrence)
		assert.Equal(t, i+1, e.Recurrence.Current)
		assert.Equal(t, len(group), e.Recurrence.Total)
		assert.Equal(t, FormatInstallmentLabel(i+1, len(group)), e.InstallmentLabel)
		if i > 0 {
			assert.False(t, e.DueDate.Before(group[i-1].DueDate))
		}
	}
}

func TestCreateRecurrences(t *testing.T) {
	source := newTestEntry(t)
	store := newMemStore(source)
	m := NewRecurrenceGroupManager(store)

	dates, err := ProjectDates(source.DueDate, monthly)
	require.NoError(t, err)
	plan, err := m.CreateRecurrences(context.Background(), source, monthly, Simulate(source.Fields(), dates))
	require.NoError(t, err)

	assert.Equal(t, []GroupStepKind{StepUpdate, StepCreate, StepCreate, StepCreate}, store.calls)
	assert.Equal(t, OutcomeCreated, plan.Outcome)
	assert.Equal(t, EventTypeRecurrenceGroupCreated, plan.EventType())
	assert.Len(t, plan.CreatedEntries(), 3)

	group, err := m.LoadGroup(context.Background(), source.TenantID, plan.RecurrenceID)
	require.NoError(t, err)
	require.Len(t, group, 4)
	assertContiguous(t, group)
	assert.Equal(t, source.ID, group[0].ID)
	assert.Equal(t, "001/004", source.InstallmentLabel)
	for _, e := range group {
		assert.Equal(t, plan.RecurrenceID, e.Recurrence.RecurrenceID)
		assert.Equal(t, PeriodMonthly, e.Recurrence.Period)
		assert.True(t, e.GrossAmount.Equal(d(100)))
	}
}

func TestCreateRecurrences_OverrideReordersByDueDate(t *testing.T) {
	source := newTestEntry(t)
	store := newMemStore(source)
	m := NewRecurrenceGroupManager(store)

	items := Simulate(source.Fields(), []time.Time{date(2024, 2, 10), date(2024, 3, 10)})
	early := date(2024, 1, 5)
	items[1].Overrides.CustomDueDate = &early

	plan, err := m.CreateRecurrences(context.Background(), source, monthly, items)
	require.NoError(t, err)

	group, err := m.LoadGroup(context.Background(), source.TenantID, plan.RecurrenceID)
	require.NoError(t, err)
	require.Len(t, group, 3)
	assertContiguous(t, group)
	assert.Equal(t, early, group[0].DueDate)
	assert.Equal(t, "002/003", source.InstallmentLabel)
}

func TestPlanCreateRecurrences_Rejections(t *testing.T) {
	m := NewRecurrenceGroupManager(newMemStore())

	t.Run("no items", func(t *testing.T) {
		_, err := m.PlanCreateRecurrences(newTestEntry(t), monthly, nil)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("already grouped", func(t *testing.T) {
		e := newTestEntry(t)
		e.Recurrence = &RecurrenceInfo{RecurrenceID: uuid.New(), Current: 1, Total: 2}
		_, err := m.PlanCreateRecurrences(e, monthly, Simulate(e.Fields(), []time.Time{date(2024, 2, 1)}))
		assert.Error(t, err)
	})

	t.Run("missing customer override", func(t *testing.T) {
		e := newTestEntry(t)
		e.CustomerID = uuid.Nil
		_, err := m.PlanCreateRecurrences(e, monthly, Simulate(e.Fields(), []time.Time{date(2024, 2, 1)}))
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestDeleteRecurrences_Rebalance(t *testing.T) {
	store, source, m := buildGroup(t, 4)
	group, err := m.LoadGroup(context.Background(), source.TenantID, source.Recurrence.RecurrenceID)
	require.NoError(t, err)

	plan, err := m.DeleteRecurrences(context.Background(), source.TenantID, source.Recurrence.RecurrenceID,
		[]uuid.UUID{group[1].ID, group[3].ID})
	require.NoError(t, err)

	assert.Equal(t, OutcomeRebalanced, plan.Outcome)
	assert.Equal(t, []GroupStepKind{StepDelete, StepDelete, StepUpdate, StepUpdate}, store.calls)

	survivors, err := m.LoadGroup(context.Background(), source.TenantID, source.Recurrence.RecurrenceID)
	require.NoError(t, err)
	require.Len(t, survivors, 2)
	assertContiguous(t, survivors)
	assert.Equal(t, group[0].ID, survivors[0].ID)
	assert.Equal(t, group[2].ID, survivors[1].ID)
	assert.Equal(t, "001/002", survivors[0].InstallmentLabel)
	assert.Equal(t, "002/002", survivors[1].InstallmentLabel)
}

func TestDeleteRecurrences_Collapse(t *testing.T) {
	store, source, m := buildGroup(t, 3)
	recurrenceID := source.Recurrence.RecurrenceID
	group, err := m.LoadGroup(context.Background(), source.TenantID, recurrenceID)
	require.NoError(t, err)

	plan, err := m.DeleteRecurrences(context.Background(), source.TenantID, recurrenceID, []uuid.UUID{group[0].ID, group[2].ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCollapsed, plan.Outcome)

	last := store.entries[group[1].ID]
	assert.Equal(t, StandaloneInstallmentLabel, last.InstallmentLabel)
	assert.Nil(t, last.Recurrence)

	_, err = m.LoadGroup(context.Background(), source.TenantID, recurrenceID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteRecurrences_Dissolve(t *testing.T) {
	store, source, m := buildGroup(t, 2)
	group, err := m.LoadGroup(context.Background(), source.TenantID, source.Recurrence.RecurrenceID)
	require.NoError(t, err)

	plan, err := m.DeleteRecurrences(context.Background(), source.TenantID, source.Recurrence.RecurrenceID,
		[]uuid.UUID{group[0].ID, group[1].ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDissolved, plan.Outcome)
	assert.Empty(t, plan.Survivors)
	assert.Empty(t, store.entries)
}

func TestPlanDeleteRecurrences_Rejections(t *testing.T) {
	_, source, m := buildGroup(t, 3)
	group, err := m.LoadGroup(context.Background(), source.TenantID, source.Recurrence.RecurrenceID)
	require.NoError(t, err)

	_, err = m.PlanDeleteRecurrences(group, nil)
	assert.Error(t, err)

	_, err = m.PlanDeleteRecurrences(group, []uuid.UUID{uuid.New()})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = m.PlanDeleteRecurrences(nil, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckDeletePreconditions(t *testing.T) {
	_, source, m := buildGroup(t, 3)
	group, err := m.LoadGroup(context.Background(), source.TenantID, source.Recurrence.RecurrenceID)
	require.NoError(t, err)

	group[1].Launches = []Launch{{Amount: d(100), Operation: OperationDebit, IsSettlement: true}}

	err = m.CheckDeletePreconditions(group, []uuid.UUID{group[0].ID, group[1].ID}, date(2024, 1, 1))
	var pv *PreconditionViolation
	require.True(t, errors.As(err, &pv))
	assert.Equal(t, []uuid.UUID{group[1].ID}, pv.EntryIDs)
	assert.Equal(t, CodePrecondition, shared.ErrorCode(err))

	assert.NoError(t, m.CheckDeletePreconditions(group, []uuid.UUID{group[2].ID}, date(2024, 1, 1)))
}

func TestExecute_PartialFailureAndResume(t *testing.T) {
	source := newTestEntry(t)
	store := newMemStore(source)
	tracker := &memTracker{done: map[string]bool{}}
	m := NewRecurrenceGroupManager(store, WithStepTracker(tracker, time.Hour))

	dates, err := ProjectDates(source.DueDate, monthly)
	require.NoError(t, err)
	plan, err := m.PlanCreateRecurrences(source, monthly, Simulate(source.Fields(), dates))
	require.NoError(t, err)

	store.failOn = 3
	err = m.Execute(context.Background(), plan)

	var pf *PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, CodePartialFailure, shared.ErrorCode(err))
	assert.Len(t, pf.Completed, 2)
	assert.Len(t, pf.Pending, 2)
	assert.Equal(t, 2, pf.Pending[0].Index)
	assert.Len(t, store.entries, 2)

	remaining := pf.RemainingPlan()
	assert.Equal(t, plan.ID, remaining.ID)
	require.Len(t, remaining.Steps, 2)

	store.failOn = 0
	require.NoError(t, m.Execute(context.Background(), remaining))
	assert.Len(t, store.entries, 4)

	// re-running the whole plan skips every recorded step
	calls := len(store.calls)
	require.NoError(t, m.Execute(context.Background(), plan))
	assert.Equal(t, calls, len(store.calls))

	group, err := m.LoadGroup(context.Background(), source.TenantID, plan.RecurrenceID)
	require.NoError(t, err)
	assertContiguous(t, group)
}

func TestCreateRecurrences_SourceUntouchedOnFailure(t *testing.T) {
	source := newTestEntry(t)
	store := newMemStore(source)
	store.failOn = 1
	m := NewRecurrenceGroupManager(store)

	items := Simulate(source.Fields(), []time.Time{date(2024, 2, 10)})
	plan, err := m.CreateRecurrences(context.Background(), source, monthly, items)
	require.Error(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, StandaloneInstallmentLabel, source.InstallmentLabel)
	assert.Len(t, store.entries, 1)
}
