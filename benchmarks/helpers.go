// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"github.com/comalice/pollfsm"
	"github.com/comalice/pollfsm/internal/primitives"
)

// GenRingConfig creates n states cycling via BTN1_PRESS.
func GenRingConfig(n int) primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	config := primitives.MachineConfig{
		ID:      fmt.Sprintf("ring_%d", n),
		Initial: "s0",
	}
	for i := 0; i < n; i++ {
		config.States = append(config.States, fmt.Sprintf("s%d", i))
	}
	for i := 0; i < n; i++ {
		config.Transitions = append(config.Transitions, primitives.TransitionConfig{
			From:  fmt.Sprintf("s%d", i),
			Event: "BTN1_PRESS",
			To:    fmt.Sprintf("s%d", (i+1)%n),
		})
	}
	return config
}

// GenDenseMachine creates n states where every custom event from every
// state has a target, for lookup cost on large tables.
func GenDenseMachine(n, events int, opts ...pollfsm.Option) (*pollfsm.Machine, error) {
	m, err := pollfsm.New(n, nil, opts...)
	if err != nil {
		return nil, err
	}
	for e := 0; e < events; e++ {
		if err := m.RegisterEvent(pollfsm.CustomEvent(e), ""); err != nil {
			return nil, err
		}
	}
	for s := 0; s < n; s++ {
		for e := 0; e < events; e++ {
			if err := m.AddTransition(pollfsm.StateID(s), pollfsm.CustomEvent(e), pollfsm.StateID((s+e+1)%n)); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MustStart builds and starts a machine from config.
func MustStart(config primitives.MachineConfig, runner pollfsm.Runner, opts ...pollfsm.Option) *pollfsm.Machine {
	m, err := config.Build(runner, opts...)
	if err != nil {
		panic(err)
	}
	if err := m.Start(); err != nil {
		panic(err)
	}
	return m
}
