package event

import (
	"fmt"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Supported event transports
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// NewEventBus builds the bus selected by cfg.Transport
func NewEventBus(cfg config.EventConfig, logger *zap.Logger) (shared.EventBus, error) {
	switch cfg.Transport {
	case "", TransportMemory:
		return NewInMemoryEventBus(logger), nil
	case TransportNATS:
		return NewNATSEventBus(cfg.NATSURL, cfg.SubjectPrefix, logger)
	default:
		return nil, fmt.Errorf("unsupported event transport %q", cfg.Transport)
	}
}
