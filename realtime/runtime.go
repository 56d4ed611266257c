package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/pollfsm"
)

// DefaultTickRate matches the polling cadence of small boards.
const DefaultTickRate = 100 * time.Millisecond

// ErrStopped is returned by Run when the machine stops itself.
var ErrStopped = errors.New("machine stopped")

// Poller is polled once per cycle before the machine ticks.
// *timer.Timer, *timer.Scheduler and *input.Panel satisfy it through
// the adapters in this package.
type Poller interface {
	Poll() error
}

// PollerFunc adapts a function to Poller.
type PollerFunc func() error

func (f PollerFunc) Poll() error { return f() }

// PanicError reports a panic raised by a callback during a cycle.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in poll cycle: %v", e.Value)
}

// Config configures the runtime.
type Config struct {
	TickRate time.Duration    // Cycle period for Run/Start (default 100ms)
	Source   TickSource       // Overrides TickRate when set
	DoAction pollfsm.DoAction // Per-cycle action for the current state
	Logger   *zap.Logger
}

// Runtime drives a machine from a single goroutine.
type Runtime struct {
	machine  *pollfsm.Machine
	tickRate time.Duration
	source   TickSource
	doAction pollfsm.DoAction
	pollers  []Poller
	logger   *zap.Logger

	mu      sync.Mutex
	tickNum uint64

	cancel  context.CancelFunc
	stopped chan struct{}
	err     error
}

// NewRuntime creates a runtime for machine.
func NewRuntime(machine *pollfsm.Machine, cfg Config) *Runtime {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runtime{
		machine:  machine,
		tickRate: cfg.TickRate,
		source:   cfg.Source,
		doAction: cfg.DoAction,
		logger:   cfg.Logger,
	}
}

// AddPoller registers a source polled at the start of every cycle.
func (rt *Runtime) AddPoller(p Poller) {
	rt.pollers = append(rt.pollers, p)
}

// Run starts the machine if needed and cycles until ctx is done, the
// machine stops (ErrStopped) or a cycle fails.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.machine.IsRunning() {
		if err := rt.machine.Start(); err != nil {
			return fmt.Errorf("start machine: %w", err)
		}
	}

	source := rt.source
	if source == nil {
		source = NewIntervalSource(rt.tickRate)
	}
	defer source.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-source.Ticks():
			if err := rt.Step(); err != nil {
				rt.logger.Error("poll cycle failed", zap.Error(err))
				return err
			}
			if !rt.machine.IsRunning() {
				return ErrStopped
			}
		}
	}
}

// Start runs the loop on its own goroutine.
func (rt *Runtime) Start(ctx context.Context) {
	var runCtx context.Context
	runCtx, rt.cancel = context.WithCancel(ctx)
	rt.stopped = make(chan struct{})

	go func() {
		defer close(rt.stopped)
		err := rt.Run(runCtx)
		rt.mu.Lock()
		rt.err = err
		rt.mu.Unlock()
	}()
}

// Stop cancels a loop started with Start and waits for it to exit. It
// returns the loop's error, ignoring cancellation and ErrStopped.
func (rt *Runtime) Stop() error {
	if rt.cancel == nil {
		return nil
	}
	rt.cancel()
	<-rt.stopped

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if errors.Is(rt.err, context.Canceled) || errors.Is(rt.err, ErrStopped) {
		return nil
	}
	return rt.err
}

// TickNumber returns the number of completed cycles.
func (rt *Runtime) TickNumber() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.tickNum
}

// Machine returns the driven machine.
func (rt *Runtime) Machine() *pollfsm.Machine {
	return rt.machine
}
