package pollfsm_test

import (
	"errors"
	"testing"

	. "github.com/comalice/pollfsm"
)

func TestTransitionTable(t *testing.T) {
	tbl := NewTransitionTable(3)
	if err := tbl.Add(2, BTN1Press, 0); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Add(0, BTN2Press, 1); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Add(0, BTN1Press, 2); err != nil {
		t.Fatal(err)
	}

	if err := tbl.Add(0, BTN1Press, 1); !errors.Is(err, ErrDuplicateTransition) {
		t.Fatalf("duplicate Add = %v", err)
	}
	if err := tbl.Add(3, BTN1Press, 1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("out-of-range Add = %v", err)
	}
	if to, ok := tbl.Lookup(0, BTN1Press); !ok || to != 2 {
		t.Fatalf("Lookup(0, BTN1) = %d, %v", to, ok)
	}
	if _, ok := tbl.Lookup(1, BTN1Press); ok {
		t.Fatal("Lookup found a missing edge")
	}

	want := []Transition{
		{From: 0, Event: BTN1Press, To: 2},
		{From: 0, Event: BTN2Press, To: 1},
		{From: 2, Event: BTN1Press, To: 0},
	}
	got := tbl.Transitions()
	if len(got) != len(want) {
		t.Fatalf("Transitions = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Transitions[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEvents(t *testing.T) {
	for _, ev := range []EventID{BTN1Press, BTN2Press, BTN3Press, BTN4Press, Timeout} {
		if !IsBuiltin(ev) {
			t.Errorf("%d not built in", ev)
		}
	}
	if IsBuiltin(CustomEvent(0)) {
		t.Error("custom event reported built in")
	}
	if ev, ok := BuiltinEvent("BTN3_PRESS"); !ok || ev != BTN3Press {
		t.Errorf("BuiltinEvent = %d, %v", ev, ok)
	}
}
