package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModelCallLimit is returned once an agent execution exceeds its model
// call budget.
var ErrModelCallLimit = errors.New("model call limit exceeded")

// ModelLimiter counts the model calls of one agent execution. A limit of 0
// disables the bound.
type ModelLimiter struct {
	mu    sync.Mutex
	limit int
	calls int
}

// NewModelLimiter creates a limiter allowing limit calls.
func NewModelLimiter(limit int) *ModelLimiter {
	return &ModelLimiter{limit: limit}
}

// Increment records one call and fails once the budget is exceeded.
func (ml *ModelLimiter) Increment() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.calls++
	if ml.limit > 0 && ml.calls > ml.limit {
		return fmt.Errorf("%w: max %d", ErrModelCallLimit, ml.limit)
	}
	return nil
}

// Limit returns the configured budget.
func (ml *ModelLimiter) Limit() int { return ml.limit }

// Count returns the number of recorded calls.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.calls
}

// Remaining returns the calls left, or -1 when unbounded.
func (ml *ModelLimiter) Remaining() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.limit == 0 {
		return -1
	}
	return max(ml.limit-ml.calls, 0)
}
