// Package stopwatch is the sample Runner: a two-button stopwatch with a lap
// timer rendered on a two-row display.
//
// startbutton raises BTN1_PRESS and stopbutton raises BTN2_PRESS. From idle,
// start runs both timers; start again records a lap by zeroing the split
// timer; stop freezes both; stop again returns to idle and clears them.
package stopwatch

import (
	_ "embed"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/comalice/pollfsm"
	"github.com/comalice/pollfsm/input"
	"github.com/comalice/pollfsm/internal/display"
	"github.com/comalice/pollfsm/internal/primitives"
	"github.com/comalice/pollfsm/internal/production"
	"github.com/comalice/pollfsm/timer"
)

// Button names as reported by input sources.
const (
	StartButton = "startbutton"
	StopButton  = "stopbutton"
)

// Timer names used in snapshots.
const (
	TotalTimer = "t1"
	SplitTimer = "t2"
)

//go:embed stopwatch.yaml
var defaultTable []byte

// DefaultTable returns the built-in transition table.
func DefaultTable() (*primitives.MachineConfig, error) {
	return primitives.Parse(defaultTable)
}

// Runner owns the machine, both timers, the display and the button map.
type Runner struct {
	machine *pollfsm.Machine
	config  *primitives.MachineConfig
	version string
	modes   []mode

	total   *timer.Timer
	split   *timer.Timer
	display display.Display
	events  *input.EventMap
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*settings)

type settings struct {
	clock   timer.Clock
	display display.Display
	table   *primitives.MachineConfig
	logger  *zap.Logger
	machine []pollfsm.Option
}

// WithClock sets the clock both timers read.
func WithClock(c timer.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithDisplay sets the display. Defaults to a line display discarding output.
func WithDisplay(d display.Display) Option {
	return func(s *settings) { s.display = d }
}

// WithTable replaces the built-in transition table.
func WithTable(cfg *primitives.MachineConfig) Option {
	return func(s *settings) { s.table = cfg }
}

// WithLogger sets the logger for the runner and its machine.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMachineOptions passes options through to the engine.
func WithMachineOptions(opts ...pollfsm.Option) Option {
	return func(s *settings) { s.machine = append(s.machine, opts...) }
}

// New builds a stopped Runner. Call Machine().Start (or run it through a
// realtime.Runtime) to enter the initial state.
func New(opts ...Option) (*Runner, error) {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.display == nil {
		s.display = display.NewLine(io.Discard)
	}
	if s.table == nil {
		cfg, err := DefaultTable()
		if err != nil {
			return nil, fmt.Errorf("default table: %w", err)
		}
		s.table = cfg
	}

	r := &Runner{
		config:  s.table,
		version: primitives.ComputeVersion(s.table),
		total:   timer.New(TotalTimer, s.clock, timer.WithLogger(s.logger)),
		split:   timer.New(SplitTimer, s.clock, timer.WithLogger(s.logger)),
		display: s.display,
		logger:  s.logger,
	}
	for _, name := range s.table.States {
		m, ok := modesByName[name]
		if !ok {
			m = nopMode{}
		}
		r.modes = append(r.modes, m)
	}

	machineOpts := append([]pollfsm.Option{pollfsm.WithLogger(s.logger)}, s.machine...)
	machine, err := s.table.Build(r, machineOpts...)
	if err != nil {
		return nil, err
	}
	r.machine = machine

	r.events = input.NewEventMap(machine, s.logger).
		Bind(StartButton, input.Press, pollfsm.BTN1Press).
		Bind(StopButton, input.Press, pollfsm.BTN2Press)
	return r, nil
}

// Machine returns the driven machine.
func (r *Runner) Machine() *pollfsm.Machine {
	return r.machine
}

// Config returns the transition table in use.
func (r *Runner) Config() *primitives.MachineConfig {
	return r.config
}

// Events returns the button map; feed it press/release notifications.
func (r *Runner) Events() *input.EventMap {
	return r.events
}

// Total returns the overall timer.
func (r *Runner) Total() *timer.Timer {
	return r.total
}

// Split returns the lap timer.
func (r *Runner) Split() *timer.Timer {
	return r.split
}

func (r *Runner) OnStateEntered(s pollfsm.StateID) error {
	r.logger.Info("state entered", zap.String("state", r.machine.StateName(s)))
	return r.modes[s].enter(r)
}

func (r *Runner) OnStateExited(s pollfsm.StateID) error {
	return r.modes[s].exit(r)
}

// DoAction performs the per-cycle behaviour of state s.
func (r *Runner) DoAction(s pollfsm.StateID) error {
	return r.modes[s].do(r)
}

func (r *Runner) show() error {
	return display.ShowRows(r.display, r.total.String(), r.split.String())
}

// Snapshot captures the machine state and both timers.
func (r *Runner) Snapshot() production.MachineSnapshot {
	snap := production.Capture(r.config.ID, r.version, r.machine)
	snap.SetTimer(TotalTimer, r.total.Elapsed())
	snap.SetTimer(SplitTimer, r.split.Elapsed())
	return snap
}

// Restore loads timer values from snap and, if the snapshot was running,
// starts the machine in its state. The machine must be stopped.
func (r *Runner) Restore(snap production.MachineSnapshot) error {
	if r.machine.IsRunning() {
		return pollfsm.ErrMachineRunning
	}
	if snap.MachineID != r.config.ID {
		return fmt.Errorf("snapshot of %q cannot restore %q", snap.MachineID, r.config.ID)
	}
	if snap.Version != "" && snap.Version != r.version {
		r.logger.Warn("snapshot version differs from table",
			zap.String("snapshot", snap.Version),
			zap.String("table", r.version))
	}
	if d, ok := snap.Timer(TotalTimer); ok {
		r.total.Restore(d)
	}
	if d, ok := snap.Timer(SplitTimer); ok {
		r.split.Restore(d)
	}
	return snap.Resume(r.machine)
}
