package event

import (
	"testing"

	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// offlineNATSBus builds a bus without a connection for decode and dispatch tests
func offlineNATSBus(prefix string) *NATSEventBus {
	return &NATSEventBus{
		prefix:     prefix,
		serializer: NewPayableEventSerializer(),
		registry:   NewHandlerRegistry(),
		logger:     zap.NewNop(),
	}
}

func TestNATSEventBus_Subject(t *testing.T) {
	bus := offlineNATSBus("acme.payables")
	assert.Equal(t, "acme.payables.PayableEntrySettled", bus.Subject(finance.EventTypePayableEntrySettled))
}

func TestNATSEventBus_Decode(t *testing.T) {
	bus := offlineNATSBus(DefaultSubjectPrefix)
	event := cancelledEvent(t)
	data, err := bus.serializer.Serialize(event)
	require.NoError(t, err)

	t.Run("event type from header", func(t *testing.T) {
		msg := nats.NewMsg("somewhere.else")
		msg.Header.Set(headerEventType, finance.EventTypePayableEntryCancelled)
		msg.Data = data

		got, err := bus.decode(msg)
		require.NoError(t, err)
		assert.Equal(t, event.EventID(), got.EventID())
	})

	t.Run("event type from subject", func(t *testing.T) {
		msg := &nats.Msg{Subject: bus.Subject(finance.EventTypePayableEntryCancelled), Data: data}

		got, err := bus.decode(msg)
		require.NoError(t, err)
		assert.IsType(t, &finance.PayableEntryCancelledEvent{}, got)
	})

	t.Run("unknown type", func(t *testing.T) {
		msg := &nats.Msg{Subject: bus.Subject("Mystery"), Data: data}

		_, err := bus.decode(msg)
		assert.Error(t, err)
	})
}

func TestNATSEventBus_HandleMessageDispatches(t *testing.T) {
	bus := offlineNATSBus(DefaultSubjectPrefix)
	handler := &recordingHandler{eventTypes: []string{finance.EventTypePayableEntryCancelled}}
	bus.Subscribe(handler)

	event := cancelledEvent(t)
	data, err := bus.serializer.Serialize(event)
	require.NoError(t, err)

	bus.handleMessage(&nats.Msg{Subject: bus.Subject(event.EventType()), Data: data})
	bus.handleMessage(&nats.Msg{Subject: bus.Subject(event.EventType()), Data: []byte("garbage")})

	got := handler.received()
	require.Len(t, got, 1)
	assert.Equal(t, event.EventID(), got[0].EventID())
}

func TestNewEventBus(t *testing.T) {
	logger := zap.NewNop()

	bus, err := NewEventBus(config.EventConfig{Transport: TransportMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryEventBus{}, bus)

	bus, err = NewEventBus(config.EventConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryEventBus{}, bus)

	_, err = NewEventBus(config.EventConfig{Transport: "kafka"}, logger)
	assert.Error(t, err)

	_, err = NewEventBus(config.EventConfig{Transport: TransportNATS, NATSURL: "nats://127.0.0.1:1"}, logger)
	assert.Error(t, err)
}
