package realtime

import "time"

// TickSource paces poll cycles.
type TickSource interface {
	Ticks() <-chan time.Time
	Stop()
}

// IntervalSource emits ticks at a fixed rate.
type IntervalSource struct {
	ticker *time.Ticker
}

// NewIntervalSource creates a source ticking every d.
func NewIntervalSource(d time.Duration) *IntervalSource {
	return &IntervalSource{ticker: time.NewTicker(d)}
}

func (s *IntervalSource) Ticks() <-chan time.Time { return s.ticker.C }

func (s *IntervalSource) Stop() { s.ticker.Stop() }

// ManualSource emits a tick whenever Fire is called.
type ManualSource struct {
	ch chan time.Time
}

// NewManualSource creates a source with room for buffer undelivered ticks.
func NewManualSource(buffer int) *ManualSource {
	return &ManualSource{ch: make(chan time.Time, buffer)}
}

// Fire schedules one cycle. Returns false if the buffer is full.
func (s *ManualSource) Fire() bool {
	select {
	case s.ch <- time.Now():
		return true
	default:
		return false
	}
}

func (s *ManualSource) Ticks() <-chan time.Time { return s.ch }

func (s *ManualSource) Stop() {}
