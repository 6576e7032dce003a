// Package cache provides step-tracker backends for recurrence group plans.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/payables/internal/domain/shared"
)

const cleanupInterval = 5 * time.Minute

// InMemoryStepTracker keeps completed plan steps in process memory.
// State is lost on restart and not shared between instances.
type InMemoryStepTracker struct {
	mu        sync.RWMutex
	expiry    map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryStepTracker starts a tracker with a background sweeper
func NewInMemoryStepTracker() *InMemoryStepTracker {
	t := &InMemoryStepTracker{
		expiry:   make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.sweepLoop()
	return t
}

// MarkCompleted records key until ttl elapses
func (t *InMemoryStepTracker) MarkCompleted(_ context.Context, key string, ttl time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if exp, ok := t.expiry[key]; ok && now.Before(exp) {
		return false, nil
	}
	t.expiry[key] = now.Add(ttl)
	return true, nil
}

// IsCompleted reports whether key is recorded and unexpired
func (t *InMemoryStepTracker) IsCompleted(_ context.Context, key string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	exp, ok := t.expiry[key]
	return ok && t.now().Before(exp), nil
}

// Close stops the sweeper. Safe to call more than once.
func (t *InMemoryStepTracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
	return nil
}

// Size returns the number of recorded keys, expired or not
func (t *InMemoryStepTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.expiry)
}

func (t *InMemoryStepTracker) sweepLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *InMemoryStepTracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for key, exp := range t.expiry {
		if !now.Before(exp) {
			delete(t.expiry, key)
		}
	}
}

var _ shared.StepTracker = (*InMemoryStepTracker)(nil)
