package input

import (
	"sync"

	"go.uber.org/zap"

	"github.com/comalice/pollfsm"
)

// EventSink accepts mapped events; *pollfsm.Machine satisfies it.
type EventSink interface {
	Post(ev pollfsm.EventID) error
}

type binding struct {
	name string
	edge Edge
}

// EventMap translates (button name, edge) notifications into machine
// events. Notifications without a binding are ignored.
type EventMap struct {
	sink   EventSink
	logger *zap.Logger

	mu       sync.RWMutex
	bindings map[binding]pollfsm.EventID
	next     Handler
}

// NewEventMap creates a map posting into sink.
func NewEventMap(sink EventSink, logger *zap.Logger) *EventMap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventMap{
		sink:     sink,
		logger:   logger,
		bindings: make(map[binding]pollfsm.EventID),
	}
}

// Bind maps an edge of a named button to ev, replacing any earlier binding.
func (m *EventMap) Bind(name string, edge Edge, ev pollfsm.EventID) *EventMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[binding{name: name, edge: edge}] = ev
	return m
}

// Chain forwards every notification to h after mapping, e.g. to sound a
// buzzer on each press.
func (m *EventMap) Chain(h Handler) *EventMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next = h
	return m
}

// Lookup returns the event bound to (name, edge).
func (m *EventMap) Lookup(name string, edge Edge) (pollfsm.EventID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.bindings[binding{name: name, edge: edge}]
	return ev, ok
}

func (m *EventMap) ButtonPressed(name string) {
	m.dispatch(name, Press)
	if h := m.chained(); h != nil {
		h.ButtonPressed(name)
	}
}

func (m *EventMap) ButtonReleased(name string) {
	m.dispatch(name, Release)
	if h := m.chained(); h != nil {
		h.ButtonReleased(name)
	}
}

func (m *EventMap) chained() Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.next
}

func (m *EventMap) dispatch(name string, edge Edge) {
	ev, ok := m.Lookup(name, edge)
	if !ok {
		return
	}
	if err := m.sink.Post(ev); err != nil {
		m.logger.Warn("input event not posted",
			zap.String("button", name),
			zap.Stringer("edge", edge),
			zap.Error(err))
	}
}
