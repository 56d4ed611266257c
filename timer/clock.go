package timer

import (
	"sync"
	"time"
)

// Clock is the time source of stopwatches, timers and schedulers.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now, keeping the monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MockClock only moves when told to. Timers polled against it fire
// deterministically, which keeps poll-loop tests free of sleeps.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps to t, which may lie in the past.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *MockClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
