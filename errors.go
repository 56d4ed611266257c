package pollfsm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState         = errors.New("invalid state")
	ErrDuplicateTransition  = errors.New("duplicate transition")
	ErrUnknownEvent         = errors.New("unknown event")
	ErrInvalidConfiguration = errors.New("invalid machine configuration")
	ErrAlreadyRunning       = errors.New("machine already running")
	ErrMachineRunning       = errors.New("machine is running; table is static")
	ErrQueueFull            = errors.New("event queue full")
	ErrChainLimit           = errors.New("chained event limit exceeded")
	ErrRestartInCallback    = errors.New("machine cannot be started from an entry or exit action")
)

// InvalidStateError reports a state index outside [0, Count).
type InvalidStateError struct {
	State StateID
	Count int
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("state %d outside [0, %d)", e.State, e.Count)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// DuplicateTransitionError reports a second target for an existing (From, Event) key.
type DuplicateTransitionError struct {
	From      StateID
	Event     EventID
	Existing  StateID
	Requested StateID
}

func (e *DuplicateTransitionError) Error() string {
	return fmt.Sprintf("transition (%d, %d) already targets %d; refusing %d", e.From, e.Event, e.Existing, e.Requested)
}

func (e *DuplicateTransitionError) Unwrap() error { return ErrDuplicateTransition }

// UnknownEventError reports an event tag that is neither built in nor registered.
type UnknownEventError struct {
	Event EventID
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("event %d is not built in or registered", e.Event)
}

func (e *UnknownEventError) Unwrap() error { return ErrUnknownEvent }

// ActionError wraps a failure returned by a Runner callback.
type ActionError struct {
	Phase string // "entry" or "exit"
	State StateID
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s action for state %d: %v", e.Phase, e.State, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
