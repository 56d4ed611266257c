package pollfsm

// Runner owns a Machine and receives its entry/exit callbacks. Callbacks run
// synchronously inside Start/ProcessEvent and should return quickly; a
// returned error is propagated to the engine's caller.
type Runner interface {
	OnStateEntered(s StateID) error
	OnStateExited(s StateID) error
}

// RunnerFuncs adapts plain functions to Runner. Nil fields are no-ops.
type RunnerFuncs struct {
	Entered func(s StateID) error
	Exited  func(s StateID) error
}

func (r RunnerFuncs) OnStateEntered(s StateID) error {
	if r.Entered == nil {
		return nil
	}
	return r.Entered(s)
}

func (r RunnerFuncs) OnStateExited(s StateID) error {
	if r.Exited == nil {
		return nil
	}
	return r.Exited(s)
}

// DoAction is the per-cycle behaviour a Runner performs for the current
// state. The engine never calls it; poll loops do.
type DoAction func(s StateID) error
