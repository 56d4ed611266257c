// Package input turns button and sensor activity into press/release
// notifications and maps those onto machine events.
package input

import (
	"sync"
	"time"

	"github.com/comalice/pollfsm/timer"
)

// Handler receives press/release notifications by button name.
type Handler interface {
	ButtonPressed(name string)
	ButtonReleased(name string)
}

// Edge distinguishes press from release.
type Edge int

const (
	Press Edge = iota
	Release
)

func (e Edge) String() string {
	if e == Release {
		return "release"
	}
	return "press"
}

// DefaultDebounce is the minimum interval between accepted edges.
const DefaultDebounce = 50 * time.Millisecond

// Button debounces one input line. Levels are fed with Sample (polled
// hardware) or edges with Press/Release (callback sources such as a
// keyboard); either way the handler sees alternating, debounced edges.
type Button struct {
	name     string
	debounce time.Duration
	clock    timer.Clock
	handler  Handler

	mu       sync.Mutex
	pressed  bool
	lastEdge time.Time
	seen     bool
}

// ButtonOption configures a Button.
type ButtonOption func(*Button)

// WithDebounce sets the minimum interval between accepted edges.
func WithDebounce(d time.Duration) ButtonOption {
	return func(b *Button) {
		b.debounce = d
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c timer.Clock) ButtonOption {
	return func(b *Button) {
		b.clock = c
	}
}

// NewButton creates a released button notifying handler.
func NewButton(name string, handler Handler, opts ...ButtonOption) *Button {
	b := &Button{
		name:     name,
		debounce: DefaultDebounce,
		clock:    timer.SystemClock{},
		handler:  handler,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the button's stable identifier.
func (b *Button) Name() string {
	return b.name
}

// Pressed reports the debounced level.
func (b *Button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// Sample feeds the current raw level. Returns true if an edge was reported.
func (b *Button) Sample(level bool) bool {
	b.mu.Lock()
	if level == b.pressed || !b.acceptLocked() {
		b.mu.Unlock()
		return false
	}
	b.pressed = level
	b.mu.Unlock()

	if level {
		b.handler.ButtonPressed(b.name)
	} else {
		b.handler.ButtonReleased(b.name)
	}
	return true
}

// Press reports a press edge from a callback source.
func (b *Button) Press() bool {
	return b.Sample(true)
}

// Release reports a release edge from a callback source.
func (b *Button) Release() bool {
	return b.Sample(false)
}

// Tap reports a press immediately followed by a release, for sources that
// only deliver key-down notifications. The release bypasses debouncing.
func (b *Button) Tap() bool {
	if !b.Press() {
		return false
	}
	b.mu.Lock()
	b.pressed = false
	b.mu.Unlock()
	b.handler.ButtonReleased(b.name)
	return true
}

func (b *Button) acceptLocked() bool {
	now := b.clock.Now()
	if b.seen && now.Sub(b.lastEdge) < b.debounce {
		return false
	}
	b.seen = true
	b.lastEdge = now
	return true
}
