package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/domain/shared"
)

// EventSerializer encodes events as JSON and decodes them back into their
// registered Go types
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewPayableEventSerializer creates a serializer that knows every payables event
func NewPayableEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(finance.EventTypePayableEntryCreated, &finance.PayableEntryCreatedEvent{})
	s.Register(finance.EventTypePayableLaunchAdded, &finance.PayableLaunchAddedEvent{})
	s.Register(finance.EventTypePayableLaunchRemoved, &finance.PayableLaunchRemovedEvent{})
	s.Register(finance.EventTypePayableEntrySettled, &finance.PayableEntrySettledEvent{})
	s.Register(finance.EventTypePayableEntryCancelled, &finance.PayableEntryCancelledEvent{})
	s.Register(finance.EventTypeRecurrenceGroupCreated, &finance.RecurrenceGroupEvent{})
	s.Register(finance.EventTypeRecurrenceGroupRebalanced, &finance.RecurrenceGroupEvent{})
	s.Register(finance.EventTypeRecurrenceGroupCollapsed, &finance.RecurrenceGroupEvent{})
	return s
}

// Register maps eventType to the concrete type of instance
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes data into a new instance of the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", eventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type registered for %s does not implement DomainEvent", eventType)
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
