package realtime

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/comalice/pollfsm"
)

// Step runs one cycle. Panics raised by callbacks are returned as
// *PanicError.
func (rt *Runtime) Step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	// Phase 1: let sources post their events
	if err := rt.pollSources(); err != nil {
		return err
	}

	// Phase 2: apply at most one event
	if _, err := rt.machine.Tick(); err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	// Phase 3: continuous behaviour of the current state
	if err := rt.runDoAction(); err != nil {
		return err
	}

	rt.mu.Lock()
	rt.tickNum++
	rt.mu.Unlock()
	return nil
}

// pollSources polls every registered source. A full queue is logged rather
// than failing the cycle; the event is lost either way.
func (rt *Runtime) pollSources() error {
	for _, p := range rt.pollers {
		if err := p.Poll(); err != nil {
			if !errors.Is(err, pollfsm.ErrQueueFull) {
				return fmt.Errorf("poll: %w", err)
			}
			rt.logger.Warn("poller dropped event", zap.Error(err))
		}
	}
	return nil
}

func (rt *Runtime) runDoAction() error {
	if rt.doAction == nil || !rt.machine.IsRunning() {
		return nil
	}
	state := rt.machine.CurrentState()
	if err := rt.doAction(state); err != nil {
		return fmt.Errorf("do-action for %s: %w", rt.machine.StateName(state), err)
	}
	return nil
}
