package pollfsm_test

import (
	"errors"
	"sync"
	"testing"

	. "github.com/comalice/pollfsm"
	"github.com/comalice/pollfsm/testutil"
)

func newStopwatchMachine(t *testing.T, rec *testutil.Recorder, opts ...Option) *Machine {
	t.Helper()
	m, err := New(4, rec, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := testutil.StopwatchTable(m); err != nil {
		t.Fatal(err)
	}
	return m
}

func equalTrace(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("trace = %v, want %v", got, want)
		}
	}
}

// The literal scenario: 0 -1-> 1 -2-> 2 -1-> 1 -1-> 3 -1-> 3 -2-> 2 -2-> 0.
func TestStopwatchSequenceEndsInIdle(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newStopwatchMachine(t, rec)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		ev   EventID
		want StateID
	}{
		{BTN1Press, 1},
		{BTN2Press, 2},
		{BTN1Press, 1},
		{BTN1Press, 3},
		{BTN1Press, 3},
		{BTN2Press, 2},
		{BTN2Press, 0},
	}
	for i, s := range steps {
		if err := m.ProcessEvent(s.ev); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := m.CurrentState(); got != s.want {
			t.Fatalf("step %d: state = %d, want %d", i, got, s.want)
		}
	}

	// The 3 -> 3 self-loop still exits and re-enters.
	equalTrace(t, rec.Trace(), []string{
		"enter:0",
		"exit:0", "enter:1",
		"exit:1", "enter:2",
		"exit:2", "enter:1",
		"exit:1", "enter:3",
		"exit:3", "enter:3",
		"exit:3", "enter:2",
		"exit:2", "enter:0",
	})
}

func TestStartFiresInitialEntryOnce(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newStopwatchMachine(t, rec, WithInitialState(2))

	if m.IsRunning() {
		t.Fatal("machine running before Start")
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if !m.IsRunning() || m.CurrentState() != 2 {
		t.Fatalf("after Start: running=%v state=%d", m.IsRunning(), m.CurrentState())
	}
	if err := m.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start = %v, want ErrAlreadyRunning", err)
	}
	equalTrace(t, rec.Trace(), []string{"enter:2"})
}

func TestUnmatchedEventIsSilent(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newStopwatchMachine(t, rec)
	_ = m.Start()
	rec.Reset()

	for _, ev := range []EventID{BTN2Press, BTN3Press, BTN4Press, Timeout} {
		if err := m.ProcessEvent(ev); err != nil {
			t.Fatalf("ProcessEvent(%s) = %v", m.EventName(ev), err)
		}
	}
	if m.CurrentState() != 0 {
		t.Fatalf("state = %d, want 0", m.CurrentState())
	}
	if len(rec.Trace()) != 0 {
		t.Fatalf("callbacks fired: %v", rec.Trace())
	}
}

func TestStopFiresNoExitByDefault(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newStopwatchMachine(t, rec)
	_ = m.Start()
	_ = m.ProcessEvent(BTN1Press)

	if err := m.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop = %v", err)
	}
	if m.IsRunning() {
		t.Fatal("still running after Stop")
	}
	if got := rec.Count("exit", 1); got != 0 {
		t.Fatalf("exit:1 fired %d times", got)
	}

	// No transition fires while stopped.
	if err := m.ProcessEvent(BTN2Press); err != nil {
		t.Fatal(err)
	}
	if m.CurrentState() != 1 {
		t.Fatalf("state changed while stopped: %d", m.CurrentState())
	}
}

func TestStopWithExitOnStop(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newStopwatchMachine(t, rec, WithExitOnStop(true))
	_ = m.Start()
	_ = m.ProcessEvent(BTN1Press)
	_ = m.Stop()

	equalTrace(t, rec.Trace(), []string{"enter:0", "exit:0", "enter:1", "exit:1"})
}

func TestRestartReentersCurrentState(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newStopwatchMachine(t, rec)
	_ = m.Start()
	_ = m.ProcessEvent(BTN1Press)
	_ = m.Stop()
	if err := m.StartAt(m.CurrentState()); err != nil {
		t.Fatal(err)
	}
	if got := rec.Count("enter", 1); got != 2 {
		t.Fatalf("enter:1 fired %d times, want 2", got)
	}
	if err := m.StartAt(3); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("StartAt on running machine = %v, want ErrAlreadyRunning", err)
	}
}

func TestStartAtRejectsInvalidState(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{})
	if err := m.StartAt(4); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("StartAt(4) = %v, want ErrInvalidState", err)
	}
	if m.IsRunning() {
		t.Fatal("machine running after failed StartAt")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("New(0) = %v, want ErrInvalidState", err)
	}
	if _, err := New(2, nil, WithInitialState(2)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("initial out of range = %v, want ErrInvalidState", err)
	}
	if _, err := New(1, nil, WithStateNames("a", "b")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("too many names = %v, want ErrInvalidState", err)
	}
	m, err := New(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Errorf("nil runner Start = %v", err)
	}
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		add  func(m *Machine) error
		want error
	}{
		{"from out of range", func(m *Machine) error { return m.AddTransition(-1, BTN1Press, 0) }, ErrInvalidState},
		{"to out of range", func(m *Machine) error { return m.AddTransition(0, BTN1Press, 4) }, ErrInvalidState},
		{"duplicate", func(m *Machine) error { return m.AddTransition(0, BTN1Press, 2) }, ErrDuplicateTransition},
		{"unknown event", func(m *Machine) error { return m.AddTransition(0, EventID(42), 1) }, ErrUnknownEvent},
		{"unregistered custom", func(m *Machine) error { return m.AddTransition(0, CustomEvent(1), 1) }, ErrUnknownEvent},
		{"custom below range", func(m *Machine) error { return m.RegisterEvent(EventID(50), "x") }, ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &testutil.Recorder{}
			m := newStopwatchMachine(t, rec)

			if err := tt.add(m); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if m.Table().Len() != len(testutil.StopwatchTransitions) {
				t.Fatalf("table changed: %d edges", m.Table().Len())
			}
			if to, _ := m.Table().Lookup(0, BTN1Press); to != 1 {
				t.Fatalf("(0, BTN1) -> %d, want 1", to)
			}

			err := m.Start()
			if !errors.Is(err, ErrInvalidConfiguration) || !errors.Is(err, tt.want) {
				t.Fatalf("Start = %v, want ErrInvalidConfiguration wrapping %v", err, tt.want)
			}
			if m.IsRunning() || len(rec.Trace()) != 0 {
				t.Fatal("misconfigured machine started")
			}
		})
	}
}

func TestDuplicateTransitionDetails(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{})
	err := m.AddTransition(1, BTN2Press, 0)
	var dup *DuplicateTransitionError
	if !errors.As(err, &dup) {
		t.Fatalf("got %T, want *DuplicateTransitionError", err)
	}
	if dup.Existing != 2 || dup.Requested != 0 {
		t.Fatalf("existing=%d requested=%d", dup.Existing, dup.Requested)
	}
}

func TestSetupRejectedWhileRunning(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{})
	_ = m.Start()
	if err := m.AddTransition(0, BTN3Press, 1); !errors.Is(err, ErrMachineRunning) {
		t.Fatalf("AddTransition = %v, want ErrMachineRunning", err)
	}
	if err := m.RegisterEvent(CustomEvent(0), "lap"); !errors.Is(err, ErrMachineRunning) {
		t.Fatalf("RegisterEvent = %v, want ErrMachineRunning", err)
	}
	// Rejections while running do not poison a later restart.
	_ = m.Stop()
	if err := m.Start(); err != nil {
		t.Fatalf("restart = %v", err)
	}
}

func TestCustomEvents(t *testing.T) {
	sensor := CustomEvent(1)
	m, _ := New(2, nil, WithStateNames("closed", "open"))
	if err := m.RegisterEvent(sensor, "DOOR_OPENED"); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterEvent(sensor, "AGAIN"); err == nil {
		t.Fatal("re-registering an id succeeded")
	}
	if err := m.RegisterEvent(CustomEvent(2), "DOOR_OPENED"); err == nil {
		t.Fatal("re-registering a name succeeded")
	}
	if err := m.AddTransition(0, sensor, 1); err != nil {
		t.Fatal(err)
	}

	// Registration errors above poison the configuration.
	if err := m.Start(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Start = %v, want ErrInvalidConfiguration", err)
	}

	if ev, ok := m.EventByName("DOOR_OPENED"); !ok || ev != sensor {
		t.Fatalf("EventByName = %d, %v", ev, ok)
	}
	if got := m.EventName(sensor); got != "DOOR_OPENED" {
		t.Fatalf("EventName = %q", got)
	}
	if got := m.EventName(CustomEvent(9)); got != "event(109)" {
		t.Fatalf("EventName fallback = %q", got)
	}
}

func TestNames(t *testing.T) {
	m, _ := New(3, nil, WithStateNames("idle", "", "busy"))
	if got := m.StateName(0); got != "idle" {
		t.Errorf("StateName(0) = %q", got)
	}
	if got := m.StateName(1); got != "state(1)" {
		t.Errorf("StateName(1) = %q", got)
	}
	if s, ok := m.StateByName("busy"); !ok || s != 2 {
		t.Errorf("StateByName(busy) = %d, %v", s, ok)
	}
	if ev, ok := m.EventByName("TIMEOUT"); !ok || ev != Timeout {
		t.Errorf("EventByName(TIMEOUT) = %d, %v", ev, ok)
	}
	if !m.KnownEvent(BTN4Press) || m.KnownEvent(0) {
		t.Error("KnownEvent mismatch")
	}
}

func TestExitFailureKeepsSourceState(t *testing.T) {
	boom := errors.New("boom")
	rec := &testutil.Recorder{OnExit: func(s StateID) error {
		if s == 1 {
			return boom
		}
		return nil
	}}
	m := newStopwatchMachine(t, rec)
	_ = m.Start()
	_ = m.ProcessEvent(BTN1Press)

	err := m.ProcessEvent(BTN2Press)
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Phase != "exit" || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want exit ActionError wrapping boom", err)
	}
	if m.CurrentState() != 1 {
		t.Fatalf("state = %d, want 1", m.CurrentState())
	}
	if rec.Count("enter", 2) != 0 {
		t.Fatal("target entered after failed exit")
	}
}

func TestEntryFailureLeavesTargetState(t *testing.T) {
	boom := errors.New("boom")
	rec := &testutil.Recorder{OnEnter: func(s StateID) error {
		if s == 1 {
			return boom
		}
		return nil
	}}
	m := newStopwatchMachine(t, rec)
	_ = m.Start()

	if err := m.ProcessEvent(BTN1Press); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if m.CurrentState() != 1 {
		t.Fatalf("state = %d, want 1", m.CurrentState())
	}
	if !m.IsRunning() {
		t.Fatal("machine stopped after callback failure")
	}
}

func TestReentrantEventIsDeferred(t *testing.T) {
	var m *Machine
	rec := &testutil.Recorder{}
	rec.OnEnter = func(s StateID) error {
		if s == 1 {
			// Request the lap immediately; must not recurse.
			return m.ProcessEvent(BTN1Press)
		}
		return nil
	}
	m = newStopwatchMachine(t, rec)
	_ = m.Start()

	if err := m.ProcessEvent(BTN1Press); err != nil {
		t.Fatal(err)
	}
	if m.CurrentState() != 3 {
		t.Fatalf("state = %d, want 3", m.CurrentState())
	}
	equalTrace(t, rec.Trace(), []string{"enter:0", "exit:0", "enter:1", "exit:1", "enter:3"})
}

func TestReentrantChainIsBounded(t *testing.T) {
	var m *Machine
	armed := false
	rec := &testutil.Recorder{}
	rec.OnEnter = func(s StateID) error {
		if !armed {
			return nil
		}
		return m.ProcessEvent(BTN1Press)
	}
	m, _ = New(1, rec, WithMaxChainedSteps(5))
	_ = m.AddTransition(0, BTN1Press, 0)
	_ = m.Start()

	armed = true
	err := m.ProcessEvent(BTN1Press)
	if !errors.Is(err, ErrChainLimit) {
		t.Fatalf("err = %v, want ErrChainLimit", err)
	}

	// The machine recovers for the next call.
	armed = false
	if err := m.ProcessEvent(BTN1Press); err != nil {
		t.Fatalf("after limit: %v", err)
	}
}

func TestStartEntryMayInjectEvents(t *testing.T) {
	var m *Machine
	rec := &testutil.Recorder{}
	rec.OnEnter = func(s StateID) error {
		if s == 0 && len(rec.Trace()) == 1 {
			return m.ProcessEvent(BTN1Press)
		}
		return nil
	}
	m = newStopwatchMachine(t, rec)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if m.CurrentState() != 1 {
		t.Fatalf("state = %d, want 1", m.CurrentState())
	}
}

func TestTickProcessesOneEventInOrder(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{})
	if ok, err := m.Tick(); ok || err != nil {
		t.Fatalf("Tick on stopped machine = %v, %v", ok, err)
	}
	_ = m.Start()
	if ok, _ := m.Tick(); ok {
		t.Fatal("Tick on empty queue consumed an event")
	}

	for _, ev := range []EventID{BTN1Press, BTN2Press, BTN1Press} {
		if err := m.Post(ev); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range []StateID{1, 2, 1} {
		ok, err := m.Tick()
		if !ok || err != nil {
			t.Fatalf("Tick = %v, %v", ok, err)
		}
		if got := m.CurrentState(); got != want {
			t.Fatalf("state = %d, want %d", got, want)
		}
	}
	if m.Pending() != 0 {
		t.Fatalf("pending = %d", m.Pending())
	}
}

func TestPostRejectsUnknownAndFull(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{}, WithQueueSize(2))
	_ = m.Start()

	if err := m.Post(EventID(77)); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("Post(77) = %v, want ErrUnknownEvent", err)
	}
	_ = m.Post(BTN1Press)
	_ = m.Post(BTN1Press)
	if err := m.Post(BTN2Press); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third Post = %v, want ErrQueueFull", err)
	}
	if m.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", m.Pending())
	}
}

func TestStoppedPolicies(t *testing.T) {
	t.Run("discard", func(t *testing.T) {
		m := newStopwatchMachine(t, &testutil.Recorder{})
		_ = m.Start()
		_ = m.Post(BTN1Press)
		_ = m.Stop()
		if m.Pending() != 0 {
			t.Fatalf("queue not cleared on Stop: %d", m.Pending())
		}
		if err := m.Post(BTN1Press); err != nil {
			t.Fatal(err)
		}
		_ = m.ProcessEvent(BTN1Press)
		_ = m.Start()
		if ok, _ := m.Tick(); ok || m.CurrentState() != 0 {
			t.Fatalf("stopped-time event applied: state %d", m.CurrentState())
		}
	})

	t.Run("queue", func(t *testing.T) {
		m := newStopwatchMachine(t, &testutil.Recorder{}, WithStoppedPolicy(QueueWhileStopped))
		_ = m.Post(BTN1Press)
		_ = m.ProcessEvent(BTN1Press)
		if m.Pending() != 2 {
			t.Fatalf("pending = %d, want 2", m.Pending())
		}
		_ = m.Start()
		_, _ = m.Tick()
		_, _ = m.Tick()
		if m.CurrentState() != 3 {
			t.Fatalf("state = %d, want 3", m.CurrentState())
		}
	})
}

func TestStartDropsEventsLeftFromStop(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{})
	_ = m.Start()
	_ = m.Stop()
	// a Post that passed the running check before Stop cleared the queue
	if err := QueueOf(m).Push(BTN1Press); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.Tick(); ok || m.CurrentState() != 0 || m.Pending() != 0 {
		t.Fatalf("stale event applied: state %d pending %d", m.CurrentState(), m.Pending())
	}
}

func TestRestartFromCallbackIsRejected(t *testing.T) {
	var (
		m          *Machine
		restartErr error
		seen       []Transition
	)
	rec := &testutil.Recorder{}
	rec.OnEnter = func(s StateID) error {
		if s == 1 {
			_ = m.Stop()
			restartErr = m.StartAt(2)
		}
		return nil
	}
	m = newStopwatchMachine(t, rec, WithObserver(func(tr Transition) {
		seen = append(seen, tr)
	}))
	_ = m.Start()
	if err := m.ProcessEvent(BTN1Press); err != nil {
		t.Fatal(err)
	}

	if !errors.Is(restartErr, ErrRestartInCallback) {
		t.Fatalf("StartAt in callback = %v", restartErr)
	}
	if m.IsRunning() || m.CurrentState() != 1 {
		t.Fatalf("running %v state %d", m.IsRunning(), m.CurrentState())
	}
	if len(seen) != 1 || seen[0].To != m.CurrentState() {
		t.Fatalf("observed %v, current %d", seen, m.CurrentState())
	}
	if rec.Count("enter", 2) != 0 {
		t.Fatal("restart entry action ran")
	}
	if err := m.StartAt(2); err != nil {
		t.Fatal(err)
	}
}

func TestExitOnStopDefersInjectedEvents(t *testing.T) {
	var m *Machine
	rec := &testutil.Recorder{}
	rec.OnExit = func(s StateID) error { return m.ProcessEvent(BTN2Press) }
	m = newStopwatchMachine(t, rec, WithExitOnStop(true), WithStoppedPolicy(QueueWhileStopped))
	_ = m.Start()
	_ = m.Stop()

	if m.CurrentState() != 0 {
		t.Fatalf("event ran during Stop: state %d", m.CurrentState())
	}
	if m.Pending() != 1 {
		t.Fatalf("pending = %d, want the injected event queued", m.Pending())
	}
}

func TestObserver(t *testing.T) {
	var seen []Transition
	m := newStopwatchMachine(t, &testutil.Recorder{}, WithObserver(func(tr Transition) {
		seen = append(seen, tr)
	}))
	_ = m.Start()
	_ = m.ProcessEvent(BTN1Press)
	_ = m.ProcessEvent(BTN3Press)

	if len(seen) != 1 || seen[0] != (Transition{From: 0, Event: BTN1Press, To: 1}) {
		t.Fatalf("observed %v", seen)
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a := newStopwatchMachine(t, &testutil.Recorder{})
	b := newStopwatchMachine(t, &testutil.Recorder{})
	_ = a.Start()
	_ = b.Start()
	_ = a.ProcessEvent(BTN1Press)
	_ = b.Stop()
	if b.CurrentState() != 0 || !a.IsRunning() {
		t.Fatalf("a=%d/%v b=%d/%v", a.CurrentState(), a.IsRunning(), b.CurrentState(), b.IsRunning())
	}
}

func TestConcurrentPost(t *testing.T) {
	m := newStopwatchMachine(t, &testutil.Recorder{}, WithQueueSize(1000))
	_ = m.Start()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = m.Post(BTN3Press)
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		ok, err := m.Tick()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		n++
	}
	if n != 400 {
		t.Fatalf("ticked %d events, want 400", n)
	}
}
