package pollfsm_test

import (
	"errors"
	"testing"

	. "github.com/comalice/pollfsm"
)

func TestMachineBuilder(t *testing.T) {
	b := NewMachineBuilder().
		State("idle", "running").
		Event(CustomEvent(0), "RESET").
		On("idle", "BTN1_PRESS", "running").
		On("running", "BTN1_PRESS", "lap").
		On("lap", "RESET", "idle").
		Initial("running")

	if id, ok := b.GetID("lap"); !ok || id != 2 {
		t.Fatalf("GetID(lap) = %d, %v", id, ok)
	}

	var entered []StateID
	m, err := b.Build(RunnerFuncs{Entered: func(s StateID) error {
		entered = append(entered, s)
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if m.StateCount() != 3 || m.Initial() != 1 || m.StateName(2) != "lap" {
		t.Fatalf("count=%d initial=%d name=%q", m.StateCount(), m.Initial(), m.StateName(2))
	}

	_ = m.Start()
	_ = m.ProcessEvent(BTN1Press)
	reset, _ := m.EventByName("RESET")
	_ = m.ProcessEvent(reset)
	if m.CurrentState() != 0 {
		t.Fatalf("state = %s", m.StateName(m.CurrentState()))
	}
	if len(entered) != 3 {
		t.Fatalf("entered = %v", entered)
	}
}

func TestMachineBuilderCollectsErrors(t *testing.T) {
	_, err := NewMachineBuilder().
		On("a", "BTN1_PRESS", "b").
		On("a", "BTN1_PRESS", "a").
		On("b", "NOPE", "a").
		Initial("c").
		Build(nil)

	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Build = %v, want ErrInvalidConfiguration", err)
	}
	if !errors.Is(err, ErrDuplicateTransition) || !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("Build = %v, want duplicate and unknown event errors", err)
	}

	if _, err := NewMachineBuilder().Build(nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("empty Build = %v", err)
	}
}
