package event

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is used when no subject prefix is configured
const DefaultSubjectPrefix = "payables.events"

const (
	headerEventType = "Event-Type"
	headerTenantID  = "Tenant-ID"
	headerEventID   = "Event-ID"
)

// NATSEventBus publishes events to NATS subjects of the form <prefix>.<EventType>
// and, once started, delivers events received on <prefix>.> to local handlers
type NATSEventBus struct {
	conn       *nats.Conn
	prefix     string
	serializer *EventSerializer
	registry   *HandlerRegistry
	logger     *zap.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSEventBus connects to url and returns a bus publishing under prefix
func NewNATSEventBus(url, prefix string, logger *zap.Logger) (*NATSEventBus, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	conn, err := nats.Connect(url,
		nats.Name("payables"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return &NATSEventBus{
		conn:       conn,
		prefix:     strings.TrimSuffix(prefix, "."),
		serializer: NewPayableEventSerializer(),
		registry:   NewHandlerRegistry(),
		logger:     logger,
	}, nil
}

// Subject returns the subject an event type is published on
func (b *NATSEventBus) Subject(eventType string) string {
	return b.prefix + "." + eventType
}

// Publish sends every event as a JSON message. It stops at the first failure.
func (b *NATSEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled before publish: %w", err)
		}
		data, err := b.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", event.EventType(), err)
		}
		msg := nats.NewMsg(b.Subject(event.EventType()))
		msg.Header.Set(headerEventType, event.EventType())
		msg.Header.Set(headerEventID, event.EventID().String())
		msg.Header.Set(headerTenantID, event.TenantID().String())
		msg.Data = data
		if err := b.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish %s: %w", msg.Subject, err)
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, defaulting to handler.EventTypes()
func (b *NATSEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
}

// Unsubscribe removes a handler
func (b *NATSEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start subscribes to every subject under the prefix
func (b *NATSEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return nil
	}
	sub, err := b.conn.Subscribe(b.prefix+".>", b.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe to %s.>: %w", b.prefix, err)
	}
	b.sub = sub
	b.logger.Info("event bus started",
		zap.String("transport", TransportNATS),
		zap.String("subject", sub.Subject),
	)
	return nil
}

// Stop drains the connection so in-flight messages reach their handlers
func (b *NATSEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.sub = nil
	b.mu.Unlock()

	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	b.logger.Info("event bus stopped", zap.String("transport", TransportNATS))
	return nil
}

func (b *NATSEventBus) handleMessage(msg *nats.Msg) {
	event, err := b.decode(msg)
	if err != nil {
		b.logger.Warn("dropping undecodable event message",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}
	dispatch(context.Background(), b.registry, b.logger, event)
}

// decode reads the event type from the header, falling back to the subject suffix
func (b *NATSEventBus) decode(msg *nats.Msg) (shared.DomainEvent, error) {
	eventType := ""
	if msg.Header != nil {
		eventType = msg.Header.Get(headerEventType)
	}
	if eventType == "" {
		eventType = strings.TrimPrefix(msg.Subject, b.prefix+".")
	}
	return b.serializer.Deserialize(eventType, msg.Data)
}

var _ shared.EventBus = (*NATSEventBus)(nil)
