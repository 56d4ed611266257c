package timer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/pollfsm"
)

// EventSink accepts events raised by timers; *pollfsm.Machine satisfies it.
type EventSink interface {
	Post(ev pollfsm.EventID) error
}

// Timer is a Stopwatch that can also raise an event once its elapsed time
// reaches a configured timeout. Without a timeout it behaves as a plain
// stopwatch.
type Timer struct {
	*Stopwatch

	name     string
	timeout  time.Duration
	periodic bool
	event    pollfsm.EventID
	sink     EventSink
	logger   *zap.Logger

	mu    sync.Mutex
	fired int64 // expiries already posted since the last Reset
}

// Option configures a Timer.
type Option func(*Timer)

// WithTimeout posts the timer's event to sink when elapsed time reaches d.
func WithTimeout(d time.Duration, sink EventSink) Option {
	return func(t *Timer) {
		t.timeout = d
		t.sink = sink
	}
}

// WithPeriodic makes the timer fire on every multiple of its timeout.
func WithPeriodic() Option {
	return func(t *Timer) {
		t.periodic = true
	}
}

// WithEvent overrides the posted event. Defaults to pollfsm.Timeout.
func WithEvent(ev pollfsm.EventID) Option {
	return func(t *Timer) {
		t.event = ev
	}
}

// WithLogger sets the logger used for expiry messages.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Timer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a stopped, zeroed timer.
func New(name string, clock Clock, opts ...Option) *Timer {
	t := &Timer{
		Stopwatch: NewStopwatch(clock),
		name:      name,
		event:     pollfsm.Timeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the timer's name.
func (t *Timer) Name() string {
	return t.name
}

// Reset zeroes the timer, stops it and re-arms its timeout.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.fired = 0
	t.mu.Unlock()
	t.Stopwatch.Reset()
}

// Restore loads a saved elapsed value; expiries already covered by it are
// treated as fired.
func (t *Timer) Restore(elapsed time.Duration) {
	t.mu.Lock()
	if t.timeout > 0 {
		t.fired = int64(elapsed / t.timeout)
	}
	t.mu.Unlock()
	t.Stopwatch.Restore(elapsed)
}

// Poll posts the timeout event when due. A one-shot timer fires once and
// stops; a periodic timer fires once per Poll however many periods were
// missed. Reports whether an event was posted.
func (t *Timer) Poll() (bool, error) {
	if t.timeout <= 0 || t.sink == nil {
		return false, nil
	}
	elapsed := t.Elapsed()
	due := int64(elapsed / t.timeout)

	t.mu.Lock()
	if due <= t.fired || (!t.periodic && t.fired > 0) {
		t.mu.Unlock()
		return false, nil
	}
	missed := due - t.fired - 1
	t.fired = due
	t.mu.Unlock()

	if !t.periodic {
		t.Stopwatch.Stop()
	}
	if missed > 0 {
		t.logger.Debug("timer periods coalesced", zap.String("timer", t.name), zap.Int64("missed", missed))
	}
	t.logger.Debug("timer fired", zap.String("timer", t.name), zap.Duration("elapsed", elapsed))
	if err := t.sink.Post(t.event); err != nil {
		return false, err
	}
	return true, nil
}
