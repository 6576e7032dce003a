package shared

import (
	"context"
	"time"
)

// StepTracker remembers which steps of a multi-step plan already ran, so a
// retried plan can skip them.
type StepTracker interface {
	// MarkCompleted records key as done. It returns false if key was already recorded.
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsCompleted reports whether key was recorded and has not expired
	IsCompleted(ctx context.Context, key string) (bool, error)

	Close() error
}

// DefaultStepTrackerTTL bounds how long a failed plan can be resumed
const DefaultStepTrackerTTL = 24 * time.Hour
