package pollfsm

import "fmt"

// Built-in events. Button kinds mirror the four physical buttons a template
// board exposes; Timeout is raised by timer sources.
const (
	BTN1Press EventID = iota + 1
	BTN2Press
	BTN3Press
	BTN4Press
	Timeout
)

// FirstCustomEvent is the lowest id accepted by RegisterEvent.
const FirstCustomEvent EventID = 100

var builtinNames = map[EventID]string{
	BTN1Press: "BTN1_PRESS",
	BTN2Press: "BTN2_PRESS",
	BTN3Press: "BTN3_PRESS",
	BTN4Press: "BTN4_PRESS",
	Timeout:   "TIMEOUT",
}

// CustomEvent returns the n-th custom event id.
func CustomEvent(n int) EventID {
	return FirstCustomEvent + EventID(n)
}

// IsBuiltin reports whether ev belongs to the closed built-in set.
func IsBuiltin(ev EventID) bool {
	_, ok := builtinNames[ev]
	return ok
}

// BuiltinEvent resolves a built-in event by its canonical name.
func BuiltinEvent(name string) (EventID, bool) {
	for id, n := range builtinNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// alphabet is the set of events a Machine accepts: the built-ins plus
// whatever the owner registered.
type alphabet struct {
	custom map[EventID]string
}

func newAlphabet() alphabet {
	return alphabet{custom: make(map[EventID]string)}
}

func (a *alphabet) register(ev EventID, name string) error {
	if ev < FirstCustomEvent {
		return fmt.Errorf("custom event %d below %d: %w", ev, FirstCustomEvent, ErrUnknownEvent)
	}
	if existing, ok := a.custom[ev]; ok {
		return fmt.Errorf("custom event %d already registered as %q", ev, existing)
	}
	for id, n := range a.custom {
		if name != "" && n == name {
			return fmt.Errorf("event name %q already used by %d", name, id)
		}
	}
	a.custom[ev] = name
	return nil
}

func (a *alphabet) known(ev EventID) bool {
	if IsBuiltin(ev) {
		return true
	}
	_, ok := a.custom[ev]
	return ok
}

func (a *alphabet) name(ev EventID) string {
	if n, ok := builtinNames[ev]; ok {
		return n
	}
	if n, ok := a.custom[ev]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("event(%d)", ev)
}

func (a *alphabet) lookup(name string) (EventID, bool) {
	if id, ok := BuiltinEvent(name); ok {
		return id, true
	}
	for id, n := range a.custom {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
