package cache

import (
	"context"
	"fmt"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend names accepted by recurrence.tracker_backend
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// StepTrackerFactory builds the step tracker selected by configuration
type StepTrackerFactory struct {
	backend       string
	redisConfig   config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// StepTrackerFactoryOption configures the factory
type StepTrackerFactoryOption func(*StepTrackerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StepTrackerFactoryOption {
	return func(f *StepTrackerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to memory.
// Default is true.
func WithInMemoryFallback(allow bool) StepTrackerFactoryOption {
	return func(f *StepTrackerFactory) {
		f.allowFallback = allow
	}
}

// NewStepTrackerFactory creates a factory for the given backend
func NewStepTrackerFactory(backend string, redisCfg config.RedisConfig, opts ...StepTrackerFactoryOption) *StepTrackerFactory {
	f := &StepTrackerFactory{
		backend:       backend,
		redisConfig:   redisCfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured tracker
func (f *StepTrackerFactory) Create(ctx context.Context) (shared.StepTracker, error) {
	switch f.backend {
	case "", BackendMemory:
		f.logger.Info("Using in-memory recurrence step tracker")
		return NewInMemoryStepTracker(), nil
	case BackendRedis:
		tracker, err := NewRedisStepTracker(ctx, &redis.Options{
			Addr:     f.redisConfig.Addr(),
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		})
		if err == nil {
			f.logger.Info("Using Redis recurrence step tracker", zap.String("addr", f.redisConfig.Addr()))
			return tracker, nil
		}
		if !f.allowFallback {
			return nil, fmt.Errorf("redis step tracker required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory step tracker; "+
			"resumed plans will not see steps completed on other instances",
			zap.Error(err))
		return NewInMemoryStepTracker(), nil
	default:
		return nil, fmt.Errorf("unknown step tracker backend %q", f.backend)
	}
}
