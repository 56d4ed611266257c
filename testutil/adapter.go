package testutil

import (
	"github.com/comalice/pollfsm"
	"github.com/comalice/pollfsm/realtime"
)

// Driver provides a common interface for feeding events to a machine either
// synchronously or through the queue and a poll loop. This allows running
// the same test suite on both paths.
type Driver interface {
	Start() error
	Stop() error
	Send(ev pollfsm.EventID) error
	// Settle returns once every sent event has been applied.
	Settle() error
	Current() pollfsm.StateID
}

// DirectDriver calls ProcessEvent for every event.
type DirectDriver struct {
	m *pollfsm.Machine
}

// NewDirectDriver creates a driver applying events immediately.
func NewDirectDriver(m *pollfsm.Machine) *DirectDriver {
	return &DirectDriver{m: m}
}

func (d *DirectDriver) Start() error                  { return d.m.Start() }
func (d *DirectDriver) Stop() error                   { return d.m.Stop() }
func (d *DirectDriver) Send(ev pollfsm.EventID) error { return d.m.ProcessEvent(ev) }
func (d *DirectDriver) Settle() error                 { return nil }
func (d *DirectDriver) Current() pollfsm.StateID      { return d.m.CurrentState() }

// TickDriver posts events to the queue and steps a runtime until it drains.
// No goroutines are started; Settle steps the runtime on the caller's.
type TickDriver struct {
	m  *pollfsm.Machine
	rt *realtime.Runtime
}

// NewTickDriver creates a driver running cycles of a realtime.Runtime.
func NewTickDriver(m *pollfsm.Machine, cfg realtime.Config) *TickDriver {
	return &TickDriver{m: m, rt: realtime.NewRuntime(m, cfg)}
}

func (d *TickDriver) Start() error                  { return d.m.Start() }
func (d *TickDriver) Stop() error                   { return d.m.Stop() }
func (d *TickDriver) Send(ev pollfsm.EventID) error { return d.m.Post(ev) }
func (d *TickDriver) Current() pollfsm.StateID      { return d.m.CurrentState() }

func (d *TickDriver) Settle() error {
	for d.m.IsRunning() && d.m.Pending() > 0 {
		if err := d.rt.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Runtime exposes the stepped runtime.
func (d *TickDriver) Runtime() *realtime.Runtime {
	return d.rt
}
