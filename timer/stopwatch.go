// Package timer provides elapsed-time accumulators and timeout sources for
// polled state machines. Nothing here starts goroutines; timeouts are raised
// when the owner calls Poll.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// Resolution is the granularity String renders.
const Resolution = 100 * time.Millisecond

// Stopwatch accumulates elapsed time across start/stop cycles.
// Each instance owns its state; instances share nothing but the clock.
type Stopwatch struct {
	mu          sync.Mutex
	clock       Clock
	running     bool
	startedAt   time.Time
	accumulated time.Duration
}

// NewStopwatch creates a stopped, zeroed stopwatch. A nil clock uses the
// system clock.
func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Stopwatch{clock: clock}
}

// Start begins accumulating from now. No-op if already running.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.startedAt = s.clock.Now()
}

// Stop freezes the accumulator. No-op if already stopped.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.accumulated += s.clock.Now().Sub(s.startedAt)
	s.running = false
}

// Reset zeroes the accumulator and leaves the stopwatch stopped.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.accumulated = 0
}

// Restore loads a previously saved elapsed value into a stopped stopwatch.
func (s *Stopwatch) Restore(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.accumulated = elapsed
}

// Elapsed returns the accumulated time. It never mutates state.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Stopwatch) elapsedLocked() time.Duration {
	if !s.running {
		return s.accumulated
	}
	return s.accumulated + s.clock.Now().Sub(s.startedAt)
}

// Running reports whether the stopwatch is accumulating.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Seconds returns the elapsed time in seconds.
func (s *Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}

// String renders elapsed seconds truncated to Resolution, e.g. "12.3".
func (s *Stopwatch) String() string {
	d := s.Elapsed().Truncate(Resolution)
	return fmt.Sprintf("%.1f", d.Seconds())
}
