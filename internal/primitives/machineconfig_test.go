package primitives

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/comalice/pollfsm"
)

const doorYAML = `
id: door
initial: closed
states: [closed, open, locked]
events:
  - {id: 100, name: LOCK}
transitions:
  - {from: closed, event: BTN1_PRESS, to: open}
  - {from: open, event: TIMEOUT, to: closed}
  - {from: closed, event: LOCK, to: locked}
  - {from: locked, event: BTN2_PRESS, to: closed}
`

func TestParseAndBuild(t *testing.T) {
	cfg, err := Parse([]byte(doorYAML))
	if err != nil {
		t.Fatal(err)
	}
	if id, ok := cfg.StateIndex("locked"); !ok || id != 2 {
		t.Fatalf("StateIndex(locked) = %d, %v", id, ok)
	}

	m, err := cfg.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Start()
	lock, ok := m.EventByName("LOCK")
	if !ok || lock != 100 {
		t.Fatalf("LOCK = %d, %v", lock, ok)
	}
	_ = m.ProcessEvent(lock)
	if m.StateName(m.CurrentState()) != "locked" {
		t.Fatalf("state = %s", m.StateName(m.CurrentState()))
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := MachineConfig{
		States:  []string{"a", "a", ""},
		Initial: "z",
		Events: []EventConfig{
			{ID: 5, Name: "LOW"},
			{ID: 101, Name: "TIMEOUT"},
		},
		Transitions: []TransitionConfig{
			{From: "a", Event: "BTN1_PRESS", To: "b"},
			{From: "q", Event: "NOPE", To: "a"},
			{From: "a", Event: "BTN1_PRESS", To: "a"},
		},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate passed")
	}
	// id, duplicate, empty, initial, low id, builtin name,
	// unknown target, unknown source, unknown event, duplicate edge
	if n := len(multierr.Errors(err)); n != 10 {
		t.Fatalf("got %d problems, want 10:\n%v", n, err)
	}
	if _, err := cfg.Build(nil); err == nil {
		t.Fatal("Build accepted an invalid table")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "door.yaml")
	if err := os.WriteFile(path, []byte(doorYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil || cfg.ID != "door" {
		t.Fatalf("Load = %v, %v", cfg, err)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file = %v", err)
	}
	if _, err := Parse([]byte("states: [")); err == nil || !strings.Contains(err.Error(), "yaml") {
		t.Fatalf("bad yaml = %v", err)
	}
}

func TestFromMachineRoundTrip(t *testing.T) {
	cfg, _ := Parse([]byte(doorYAML))
	m, err := cfg.Build(nil)
	if err != nil {
		t.Fatal(err)
	}

	back := FromMachine("door", m)
	if err := back.Validate(); err != nil {
		t.Fatalf("exported table invalid: %v", err)
	}
	if back.Initial != "closed" || len(back.States) != 3 || len(back.Transitions) != 4 {
		t.Fatalf("exported %+v", back)
	}
	if len(back.Events) != 1 || back.Events[0].Name != "LOCK" {
		t.Fatalf("events = %+v", back.Events)
	}

	rebuilt, err := back.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.Table().Len() != m.Table().Len() {
		t.Fatal("rebuilt table differs")
	}
}

func TestComputeVersion(t *testing.T) {
	a, _ := Parse([]byte(doorYAML))
	b, _ := Parse([]byte(doorYAML))
	if ComputeVersion(a) != ComputeVersion(b) || len(ComputeVersion(a)) != 16 {
		t.Fatalf("versions %q %q", ComputeVersion(a), ComputeVersion(b))
	}

	b.Transitions = b.Transitions[:3]
	if ComputeVersion(a) == ComputeVersion(b) {
		t.Fatal("different tables hash equally")
	}

	b.Version = "v2"
	if ComputeVersion(b) != "v2" {
		t.Fatal("explicit version ignored")
	}
	if _, ok := pollfsm.BuiltinEvent("LOCK"); ok {
		t.Fatal("LOCK should be custom")
	}
}
