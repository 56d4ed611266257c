package stopwatch

// mode is the behaviour of one state. The Runner holds one mode per state
// index and dispatches callbacks through it.
type mode interface {
	enter(r *Runner) error
	exit(r *Runner) error
	do(r *Runner) error
}

type (
	idleMode    struct{}
	runningMode struct{}
	stoppedMode struct{}
	lapMode     struct{}
	nopMode     struct{}
)

// modesByName binds table state names to behaviour. States with other names
// get nopMode.
var modesByName = map[string]mode{
	"idle":    idleMode{},
	"running": runningMode{},
	"stopped": stoppedMode{},
	"lap":     lapMode{},
}

func (idleMode) enter(r *Runner) error {
	r.total.Reset()
	r.split.Reset()
	return r.display.Reset()
}
func (idleMode) exit(*Runner) error { return nil }
func (idleMode) do(*Runner) error   { return nil }

func (runningMode) enter(r *Runner) error {
	r.total.Start()
	r.split.Start()
	return nil
}
func (runningMode) exit(*Runner) error { return nil }
func (runningMode) do(r *Runner) error { return r.show() }

func (stoppedMode) enter(r *Runner) error {
	r.total.Stop()
	r.split.Stop()
	return nil
}
func (stoppedMode) exit(*Runner) error { return nil }
func (stoppedMode) do(*Runner) error   { return nil }

// lap zeroes the split timer. The total keeps running; Start is a no-op on
// the normal path and resumes it when a snapshot is restored into lap.
func (lapMode) enter(r *Runner) error {
	r.total.Start()
	r.split.Reset()
	return nil
}
func (lapMode) exit(*Runner) error { return nil }
func (lapMode) do(r *Runner) error { return r.show() }

func (nopMode) enter(*Runner) error { return nil }
func (nopMode) exit(*Runner) error  { return nil }
func (nopMode) do(*Runner) error    { return nil }
