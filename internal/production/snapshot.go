// Package production provides production integrations: snapshot
// persistence, snapshot inspection and table visualization.
package production

import (
	"fmt"
	"time"

	"github.com/comalice/pollfsm"
)

// MachineSnapshot is the serializable runtime state of a machine and the
// timers its Runner owns.
type MachineSnapshot struct {
	MachineID string           `json:"machineID" yaml:"machineID"`
	Version   string           `json:"version,omitempty" yaml:"version,omitempty"`
	State     int              `json:"state" yaml:"state"`
	StateName string           `json:"stateName,omitempty" yaml:"stateName,omitempty"`
	Running   bool             `json:"running" yaml:"running"`
	Timers    map[string]int64 `json:"timers,omitempty" yaml:"timers,omitempty"` // elapsed milliseconds
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
}

// Capture records the machine's current state.
func Capture(machineID, version string, m *pollfsm.Machine) MachineSnapshot {
	s := m.CurrentState()
	return MachineSnapshot{
		MachineID: machineID,
		Version:   version,
		State:     int(s),
		StateName: m.StateName(s),
		Running:   m.IsRunning(),
		Timers:    map[string]int64{},
		Timestamp: time.Now().UTC(),
	}
}

// SetTimer records a timer's elapsed value.
func (s *MachineSnapshot) SetTimer(name string, elapsed time.Duration) {
	if s.Timers == nil {
		s.Timers = map[string]int64{}
	}
	s.Timers[name] = elapsed.Milliseconds()
}

// Timer returns a recorded elapsed value.
func (s *MachineSnapshot) Timer(name string) (time.Duration, bool) {
	ms, ok := s.Timers[name]
	return time.Duration(ms) * time.Millisecond, ok
}

// Resume starts m in the snapshot's state. A snapshot of a stopped machine
// leaves m stopped.
func (s *MachineSnapshot) Resume(m *pollfsm.Machine) error {
	if !s.Running {
		return nil
	}
	if s.State < 0 || s.State >= m.StateCount() {
		return fmt.Errorf("snapshot state %d: %w", s.State, pollfsm.ErrInvalidState)
	}
	return m.StartAt(pollfsm.StateID(s.State))
}
