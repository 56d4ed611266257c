package pollfsm

import "sort"

// Transition is a static (From, Event) -> To rule.
type Transition struct {
	From  StateID
	Event EventID
	To    StateID
}

type transitionKey struct {
	from  StateID
	event EventID
}

// TransitionTable maps (state, event) pairs to target states. It is built
// during setup and only read afterwards, so lookups take no lock.
type TransitionTable struct {
	stateCount int
	edges      map[transitionKey]StateID
}

// NewTransitionTable creates an empty table over states [0, stateCount).
func NewTransitionTable(stateCount int) *TransitionTable {
	return &TransitionTable{
		stateCount: stateCount,
		edges:      make(map[transitionKey]StateID),
	}
}

func (t *TransitionTable) checkState(s StateID) error {
	if s < 0 || int(s) >= t.stateCount {
		return &InvalidStateError{State: s, Count: t.stateCount}
	}
	return nil
}

// Add registers one edge. On error the table is left unchanged.
func (t *TransitionTable) Add(from StateID, ev EventID, to StateID) error {
	if err := t.checkState(from); err != nil {
		return err
	}
	if err := t.checkState(to); err != nil {
		return err
	}
	key := transitionKey{from: from, event: ev}
	if existing, ok := t.edges[key]; ok {
		return &DuplicateTransitionError{From: from, Event: ev, Existing: existing, Requested: to}
	}
	t.edges[key] = to
	return nil
}

// Lookup returns the target for (from, ev).
func (t *TransitionTable) Lookup(from StateID, ev EventID) (StateID, bool) {
	to, ok := t.edges[transitionKey{from: from, event: ev}]
	return to, ok
}

// Len returns the number of registered edges.
func (t *TransitionTable) Len() int {
	return len(t.edges)
}

// StateCount returns the size of the state space.
func (t *TransitionTable) StateCount() int {
	return t.stateCount
}

// Transitions returns every edge ordered by (From, Event).
func (t *TransitionTable) Transitions() []Transition {
	out := make([]Transition, 0, len(t.edges))
	for k, to := range t.edges {
		out = append(out, Transition{From: k.from, Event: k.event, To: to})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].Event < out[j].Event
	})
	return out
}
