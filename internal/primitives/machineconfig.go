package primitives

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/comalice/pollfsm"
)

// MachineConfig defines a complete transition table.
type MachineConfig struct {
	Version     string             `json:"version,omitempty" yaml:"version,omitempty"`
	ID          string             `json:"id" yaml:"id"`
	Initial     string             `json:"initial,omitempty" yaml:"initial,omitempty"`
	States      []string           `json:"states" yaml:"states"`
	Events      []EventConfig      `json:"events,omitempty" yaml:"events,omitempty"`
	Transitions []TransitionConfig `json:"transitions" yaml:"transitions"`
}

// EventConfig declares a custom event.
type EventConfig struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TransitionConfig defines one (from, event) -> to rule by name.
type TransitionConfig struct {
	From  string `json:"from" yaml:"from"`
	Event string `json:"event" yaml:"event"`
	To    string `json:"to" yaml:"to"`
}

// Parse decodes a YAML table definition and validates it.
func Parse(data []byte) (*MachineConfig, error) {
	var cfg MachineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a YAML table definition file.
func Load(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the whole definition and reports every problem found:
// - Non-empty ID and at least one state
// - Unique, non-empty state names
// - Initial (when set) names a state
// - Custom events use ids >= pollfsm.FirstCustomEvent and unique names
// - Transitions reference declared states and known events, at most one
//   target per (from, event)
func (m *MachineConfig) Validate() error {
	var errs error
	if m.ID == "" {
		errs = multierr.Append(errs, errors.New("machine ID is required"))
	}
	if len(m.States) == 0 {
		errs = multierr.Append(errs, errors.New("states list is required and cannot be empty"))
	}

	states := make(map[string]bool, len(m.States))
	for i, name := range m.States {
		switch {
		case strings.TrimSpace(name) == "":
			errs = multierr.Append(errs, fmt.Errorf("state %d has an empty name", i))
		case states[name]:
			errs = multierr.Append(errs, fmt.Errorf("duplicate state name %q", name))
		}
		states[name] = true
	}
	if m.Initial != "" && !states[m.Initial] {
		errs = multierr.Append(errs, fmt.Errorf("initial state %q not found in states", m.Initial))
	}

	events := make(map[string]bool, len(m.Events))
	ids := make(map[int]bool, len(m.Events))
	for _, ev := range m.Events {
		if ev.ID < int(pollfsm.FirstCustomEvent) {
			errs = multierr.Append(errs, fmt.Errorf("event %q id %d below %d", ev.Name, ev.ID, pollfsm.FirstCustomEvent))
		}
		if _, builtin := pollfsm.BuiltinEvent(ev.Name); builtin || events[ev.Name] || ev.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("event name %q is empty, built in or duplicated", ev.Name))
		}
		if ids[ev.ID] {
			errs = multierr.Append(errs, fmt.Errorf("duplicate event id %d", ev.ID))
		}
		events[ev.Name] = true
		ids[ev.ID] = true
	}

	seen := make(map[[2]string]string, len(m.Transitions))
	for i, t := range m.Transitions {
		if !states[t.From] {
			errs = multierr.Append(errs, fmt.Errorf("transition %d: unknown source state %q", i, t.From))
		}
		if !states[t.To] {
			errs = multierr.Append(errs, fmt.Errorf("transition %d: unknown target state %q", i, t.To))
		}
		if _, builtin := pollfsm.BuiltinEvent(t.Event); !builtin && !events[t.Event] {
			errs = multierr.Append(errs, fmt.Errorf("transition %d: unknown event %q", i, t.Event))
		}
		key := [2]string{t.From, t.Event}
		if prev, dup := seen[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("transition %d: (%s, %s) already targets %q", i, t.From, t.Event, prev))
			continue
		}
		seen[key] = t.To
	}
	return errs
}

// StateIndex returns the id of a named state.
func (m *MachineConfig) StateIndex(name string) (pollfsm.StateID, bool) {
	for i, n := range m.States {
		if n == name {
			return pollfsm.StateID(i), true
		}
	}
	return 0, false
}

// Build validates the definition and constructs a machine driving runner.
func (m *MachineConfig) Build(runner pollfsm.Runner, opts ...pollfsm.Option) (*pollfsm.Machine, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("machine %q: %w", m.ID, err)
	}
	b := pollfsm.NewMachineBuilder().State(m.States...)
	if m.Initial != "" {
		b.Initial(m.Initial)
	}
	for _, ev := range m.Events {
		b.Event(pollfsm.EventID(ev.ID), ev.Name)
	}
	for _, t := range m.Transitions {
		b.On(t.From, t.Event, t.To)
	}
	return b.Build(runner, opts...)
}

// FromMachine describes an existing machine's table.
func FromMachine(id string, machine *pollfsm.Machine) MachineConfig {
	cfg := MachineConfig{
		ID:      id,
		Initial: machine.StateName(machine.Initial()),
	}
	for s := 0; s < machine.StateCount(); s++ {
		cfg.States = append(cfg.States, machine.StateName(pollfsm.StateID(s)))
	}
	customs := map[pollfsm.EventID]bool{}
	for _, t := range machine.Table().Transitions() {
		if !pollfsm.IsBuiltin(t.Event) && !customs[t.Event] {
			customs[t.Event] = true
			cfg.Events = append(cfg.Events, EventConfig{ID: int(t.Event), Name: machine.EventName(t.Event)})
		}
		cfg.Transitions = append(cfg.Transitions, TransitionConfig{
			From:  machine.StateName(t.From),
			Event: machine.EventName(t.Event),
			To:    machine.StateName(t.To),
		})
	}
	return cfg
}
