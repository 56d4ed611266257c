package pollfsm

import (
	"fmt"
	"sync/atomic"

	"github.com/armon/go-metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type StateID int
type EventID int

// StoppedPolicy decides what happens to events that arrive while the machine
// is stopped.
type StoppedPolicy int

const (
	// DiscardWhileStopped drops the events and clears the queue on Stop.
	DiscardWhileStopped StoppedPolicy = iota
	// QueueWhileStopped keeps posted events queued until the next Start.
	QueueWhileStopped
)

// DefaultMaxChainedSteps bounds how many events callbacks may inject during
// a single ProcessEvent call.
const DefaultMaxChainedSteps = 64

// Machine is the polling state machine engine.
//
// Start, Stop, ProcessEvent and Tick belong to the goroutine that owns the
// machine (the poll loop). Post, CurrentState and IsRunning are safe from any
// goroutine. Setup calls (AddTransition, RegisterEvent) must finish before
// Start.
type Machine struct {
	stateCount int
	initial    StateID
	names      []string
	table      *TransitionTable
	events     alphabet
	runner     Runner
	queue      *EventQueue

	current atomic.Int64
	running atomic.Bool

	// dispatching is set while callbacks run; nested ProcessEvent calls are
	// appended to deferred and drained by the outermost call.
	dispatching bool
	deferred    []EventID
	maxChain    int

	configErr     error
	stoppedPolicy StoppedPolicy
	exitOnStop    bool
	queueSize     int

	logger   *zap.Logger
	metrics  *metrics.Metrics
	observer func(Transition)
}

// New creates a machine over states [0, stateCount) driving runner's
// callbacks. A nil runner is allowed.
func New(stateCount int, runner Runner, opts ...Option) (*Machine, error) {
	if stateCount <= 0 {
		return nil, fmt.Errorf("state count %d: %w", stateCount, ErrInvalidState)
	}
	if runner == nil {
		runner = RunnerFuncs{}
	}
	m := &Machine{
		stateCount: stateCount,
		table:      NewTransitionTable(stateCount),
		events:     newAlphabet(),
		runner:     runner,
		maxChain:   DefaultMaxChainedSteps,
		queueSize:  DefaultQueueSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.table.checkState(m.initial); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	if len(m.names) > stateCount {
		return nil, fmt.Errorf("%d state names for %d states: %w", len(m.names), stateCount, ErrInvalidState)
	}
	m.queue = NewEventQueue(m.queueSize)
	m.current.Store(int64(m.initial))
	return m, nil
}

// RegisterEvent adds a custom event to the machine's alphabet.
func (m *Machine) RegisterEvent(ev EventID, name string) error {
	if m.running.Load() {
		return ErrMachineRunning
	}
	if err := m.events.register(ev, name); err != nil {
		m.configErr = multierr.Append(m.configErr, err)
		return err
	}
	return nil
}

// AddTransition registers (from, ev) -> to. Any failure other than
// ErrMachineRunning is remembered and makes Start fail.
func (m *Machine) AddTransition(from StateID, ev EventID, to StateID) error {
	if m.running.Load() {
		return ErrMachineRunning
	}
	err := m.addTransition(from, ev, to)
	if err != nil {
		m.configErr = multierr.Append(m.configErr, err)
	}
	return err
}

func (m *Machine) addTransition(from StateID, ev EventID, to StateID) error {
	if !m.events.known(ev) {
		return &UnknownEventError{Event: ev}
	}
	if err := m.table.Add(from, ev, to); err != nil {
		return err
	}
	m.logger.Debug("transition added",
		zap.String("from", m.StateName(from)),
		zap.String("event", m.EventName(ev)),
		zap.String("to", m.StateName(to)))
	return nil
}

// Start enters the initial state. See StartAt.
func (m *Machine) Start() error {
	return m.StartAt(m.initial)
}

// StartAt sets the machine running in state s and fires its entry action
// exactly once. Calling it on a running machine is a no-op that returns
// ErrAlreadyRunning; calling it from an entry or exit action returns
// ErrRestartInCallback.
func (m *Machine) StartAt(s StateID) error {
	if m.configErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, m.configErr)
	}
	if m.running.Load() {
		return ErrAlreadyRunning
	}
	if m.dispatching {
		return ErrRestartInCallback
	}
	if err := m.table.checkState(s); err != nil {
		return err
	}
	if m.stoppedPolicy == DiscardWhileStopped {
		// a Post racing the last Stop may have landed after its Clear
		if n := m.queue.Clear(); n > 0 {
			m.incr(float32(n), "events", "discarded")
		}
	}

	m.current.Store(int64(s))
	m.running.Store(true)
	m.logger.Debug("machine started", zap.String("state", m.StateName(s)))

	m.dispatching = true
	defer m.endDispatch()

	if err := m.enter(s); err != nil {
		return err
	}
	return m.drainDeferred()
}

// Stop clears the running flag. The current state's exit action only fires
// when WithExitOnStop(true) was given. Stopping a stopped machine is a no-op.
func (m *Machine) Stop() error {
	if !m.running.Load() {
		return nil
	}
	var err error
	if m.exitOnStop {
		err = m.exitOnShutdown()
	}
	m.running.Store(false)

	if m.stoppedPolicy == DiscardWhileStopped {
		if n := m.queue.Clear(); n > 0 {
			m.logger.Debug("pending events discarded on stop", zap.Int("count", n))
			m.incr(float32(n), "events", "discarded")
		}
	}
	m.logger.Debug("machine stopped", zap.String("state", m.StateName(m.CurrentState())))
	return err
}

// ProcessEvent applies ev synchronously. Events without a matching
// transition, and events arriving while stopped, are discarded. When called
// from inside an entry/exit callback the event is deferred until the running
// transition has completed.
func (m *Machine) ProcessEvent(ev EventID) error {
	if m.dispatching {
		if len(m.deferred) >= m.maxChain {
			return ErrChainLimit
		}
		m.deferred = append(m.deferred, ev)
		return nil
	}
	if !m.running.Load() {
		if m.stoppedPolicy == QueueWhileStopped && m.events.known(ev) {
			return m.queue.Push(ev)
		}
		m.discard(ev, "stopped")
		return nil
	}

	m.dispatching = true
	defer m.endDispatch()

	if err := m.step(ev); err != nil {
		return err
	}
	return m.drainDeferred()
}

// Post enqueues ev for a later Tick. Safe for concurrent use.
func (m *Machine) Post(ev EventID) error {
	if !m.events.known(ev) {
		return &UnknownEventError{Event: ev}
	}
	if !m.running.Load() && m.stoppedPolicy == DiscardWhileStopped {
		m.discard(ev, "stopped")
		return nil
	}
	if err := m.queue.Push(ev); err != nil {
		m.logger.Warn("event dropped", zap.String("event", m.EventName(ev)), zap.Error(err))
		m.incr(1, "events", "dropped")
		return err
	}
	return nil
}

// Tick processes at most one queued event. It reports whether an event was
// consumed and never blocks.
func (m *Machine) Tick() (bool, error) {
	if !m.running.Load() {
		return false, nil
	}
	ev, ok := m.queue.Pop()
	if !ok {
		return false, nil
	}
	if m.metrics != nil {
		m.metrics.SetGauge([]string{"queue", "depth"}, float32(m.queue.Len()))
	}
	return true, m.ProcessEvent(ev)
}

// CurrentState returns the active state.
func (m *Machine) CurrentState() StateID {
	return StateID(m.current.Load())
}

// IsRunning reports whether the machine accepts transitions.
func (m *Machine) IsRunning() bool {
	return m.running.Load()
}

// Pending returns the number of queued events.
func (m *Machine) Pending() int {
	return m.queue.Len()
}

// Table exposes the transition table for inspection.
func (m *Machine) Table() *TransitionTable {
	return m.table
}

// StateCount returns the number of states.
func (m *Machine) StateCount() int {
	return m.stateCount
}

// Initial returns the configured start state.
func (m *Machine) Initial() StateID {
	return m.initial
}

// StateName returns the configured name of s, or a numeric fallback.
func (m *Machine) StateName(s StateID) string {
	if s >= 0 && int(s) < len(m.names) && m.names[s] != "" {
		return m.names[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// StateByName resolves a configured state name.
func (m *Machine) StateByName(name string) (StateID, bool) {
	for i, n := range m.names {
		if n == name {
			return StateID(i), true
		}
	}
	return 0, false
}

// EventName returns the name of a built-in or registered event.
func (m *Machine) EventName(ev EventID) string {
	return m.events.name(ev)
}

// EventByName resolves a built-in or registered event name.
func (m *Machine) EventByName(name string) (EventID, bool) {
	return m.events.lookup(name)
}

// KnownEvent reports whether ev is built in or registered.
func (m *Machine) KnownEvent(ev EventID) bool {
	return m.events.known(ev)
}

//
// Helper Functions (internal API)
//

func (m *Machine) step(ev EventID) error {
	if !m.running.Load() {
		m.discard(ev, "stopped")
		return nil
	}
	from := m.CurrentState()
	to, ok := m.table.Lookup(from, ev)
	if !ok {
		m.discard(ev, "no transition")
		return nil
	}

	if err := m.exit(from); err != nil {
		return err
	}
	m.current.Store(int64(to))
	if err := m.enter(to); err != nil {
		return err
	}

	m.incr(1, "events", "processed")
	m.incr(1, "transitions")
	m.logger.Debug("transition",
		zap.String("from", m.StateName(from)),
		zap.String("event", m.EventName(ev)),
		zap.String("to", m.StateName(to)))
	if m.observer != nil {
		m.observer(Transition{From: from, Event: ev, To: to})
	}
	return nil
}

func (m *Machine) drainDeferred() error {
	for i := 0; i < len(m.deferred); i++ {
		if err := m.step(m.deferred[i]); err != nil {
			return err
		}
	}
	return nil
}

// exitOnShutdown fires the final exit action. Events it injects cannot run
// on a stopping machine; they are queued or dropped per the stopped policy.
func (m *Machine) exitOnShutdown() error {
	if m.dispatching {
		return m.exit(m.CurrentState())
	}
	m.dispatching = true
	defer m.endDispatch()

	err := m.exit(m.CurrentState())
	for _, ev := range m.deferred {
		if m.stoppedPolicy == QueueWhileStopped {
			if qerr := m.queue.Push(ev); qerr != nil {
				err = multierr.Append(err, qerr)
			}
			continue
		}
		m.discard(ev, "stopping")
	}
	return err
}

func (m *Machine) endDispatch() {
	m.dispatching = false
	m.deferred = m.deferred[:0]
}

func (m *Machine) enter(s StateID) error {
	if err := m.runner.OnStateEntered(s); err != nil {
		return &ActionError{Phase: "entry", State: s, Err: err}
	}
	return nil
}

func (m *Machine) exit(s StateID) error {
	if err := m.runner.OnStateExited(s); err != nil {
		return &ActionError{Phase: "exit", State: s, Err: err}
	}
	return nil
}

func (m *Machine) discard(ev EventID, reason string) {
	m.logger.Debug("event discarded",
		zap.String("event", m.EventName(ev)),
		zap.String("state", m.StateName(m.CurrentState())),
		zap.String("reason", reason))
	m.incr(1, "events", "discarded")
}

func (m *Machine) incr(n float32, key ...string) {
	if m.metrics != nil {
		m.metrics.IncrCounter(key, n)
	}
}
