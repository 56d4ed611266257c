package pollfsm

import (
	"fmt"

	"go.uber.org/multierr"
)

// MachineBuilder provides a fluent API for constructing machines from state
// and event names instead of raw integer ids. Problems are collected and
// reported together by Build.
type MachineBuilder struct {
	nameToID map[string]StateID
	names    []string
	events   []namedEvent
	edges    []namedEdge
	initial  string
	errs     error
}

type namedEvent struct {
	id   EventID
	name string
}

type namedEdge struct {
	from, event, to string
}

// NewMachineBuilder creates an empty builder.
func NewMachineBuilder() *MachineBuilder {
	return &MachineBuilder{nameToID: make(map[string]StateID)}
}

// State declares a state. Ids are assigned in declaration order, starting at 0.
func (b *MachineBuilder) State(names ...string) *MachineBuilder {
	for _, name := range names {
		b.assignID(name)
	}
	return b
}

// Event registers a custom event under name.
func (b *MachineBuilder) Event(id EventID, name string) *MachineBuilder {
	b.events = append(b.events, namedEvent{id: id, name: name})
	return b
}

// On adds a transition. States mentioned for the first time are declared.
func (b *MachineBuilder) On(from, event, to string) *MachineBuilder {
	b.assignID(from)
	b.assignID(to)
	b.edges = append(b.edges, namedEdge{from: from, event: event, to: to})
	return b
}

// Initial sets the initial state by name. Defaults to the first declared state.
func (b *MachineBuilder) Initial(name string) *MachineBuilder {
	b.initial = name
	return b
}

// GetID returns the id assigned to a state name.
func (b *MachineBuilder) GetID(name string) (StateID, bool) {
	id, ok := b.nameToID[name]
	return id, ok
}

// Build validates the configuration and constructs the Machine.
func (b *MachineBuilder) Build(runner Runner, opts ...Option) (*Machine, error) {
	if len(b.names) == 0 {
		return nil, fmt.Errorf("no states declared: %w", ErrInvalidConfiguration)
	}
	errs := b.errs

	var initial StateID
	if b.initial != "" {
		id, ok := b.nameToID[b.initial]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("initial state %q not declared", b.initial))
		}
		initial = id
	}

	base := []Option{WithStateNames(b.names...), WithInitialState(initial)}
	m, err := New(len(b.names), runner, append(base, opts...)...)
	if err != nil {
		return nil, multierr.Append(errs, err)
	}

	for _, ev := range b.events {
		errs = multierr.Append(errs, m.RegisterEvent(ev.id, ev.name))
	}
	for _, e := range b.edges {
		ev, ok := m.EventByName(e.event)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("transition %s -[%s]-> %s: %w", e.from, e.event, e.to, ErrUnknownEvent))
			continue
		}
		errs = multierr.Append(errs, m.AddTransition(b.nameToID[e.from], ev, b.nameToID[e.to]))
	}

	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, errs)
	}
	return m, nil
}

// assignID returns the existing ID for a name, or creates a new sequential ID.
func (b *MachineBuilder) assignID(name string) StateID {
	if id, exists := b.nameToID[name]; exists {
		return id
	}
	if name == "" {
		b.errs = multierr.Append(b.errs, fmt.Errorf("empty state name"))
	}
	id := StateID(len(b.names))
	b.nameToID[name] = id
	b.names = append(b.names, name)
	return id
}
