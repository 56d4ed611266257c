// Package testutil provides Runners and drivers shared by the test suites.
package testutil

import (
	"fmt"
	"sync"

	"github.com/comalice/pollfsm"
)

// Recorder is a Runner that records its callbacks as "enter:N" and
// "exit:N". OnEnter/OnExit, when set, run after recording and their
// errors are returned to the engine.
type Recorder struct {
	mu    sync.Mutex
	trace []string

	OnEnter func(s pollfsm.StateID) error
	OnExit  func(s pollfsm.StateID) error
}

func (r *Recorder) OnStateEntered(s pollfsm.StateID) error {
	r.record(fmt.Sprintf("enter:%d", s))
	if r.OnEnter != nil {
		return r.OnEnter(s)
	}
	return nil
}

func (r *Recorder) OnStateExited(s pollfsm.StateID) error {
	r.record(fmt.Sprintf("exit:%d", s))
	if r.OnExit != nil {
		return r.OnExit(s)
	}
	return nil
}

// Trace returns a copy of the recorded callbacks.
func (r *Recorder) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.trace...)
}

// Count returns how often entry (or exit) fired for s.
func (r *Recorder) Count(phase string, s pollfsm.StateID) int {
	want := fmt.Sprintf("%s:%d", phase, s)
	n := 0
	for _, e := range r.Trace() {
		if e == want {
			n++
		}
	}
	return n
}

// Reset clears the trace.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = nil
}

func (r *Recorder) record(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, e)
}

// StopwatchTable registers the four-state stopwatch transitions on m.
func StopwatchTable(m *pollfsm.Machine) error {
	for _, t := range StopwatchTransitions {
		if err := m.AddTransition(t.From, t.Event, t.To); err != nil {
			return err
		}
	}
	return nil
}

// StopwatchTransitions is the sample table by index: idle 0, running 1,
// stopped 2, lap 3.
var StopwatchTransitions = []pollfsm.Transition{
	{From: 0, Event: pollfsm.BTN1Press, To: 1},
	{From: 1, Event: pollfsm.BTN1Press, To: 3},
	{From: 2, Event: pollfsm.BTN1Press, To: 1},
	{From: 3, Event: pollfsm.BTN1Press, To: 3},
	{From: 1, Event: pollfsm.BTN2Press, To: 2},
	{From: 3, Event: pollfsm.BTN2Press, To: 2},
	{From: 2, Event: pollfsm.BTN2Press, To: 0},
}
