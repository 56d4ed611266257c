package realtime

// Counting and Flagging adapt sources whose Poll reports a count or flag alongside the
// error, such as *timer.Timer, *timer.Scheduler and *input.Panel.
type countPoller interface {
	Poll() (int, error)
}

type flagPoller interface {
	Poll() (bool, error)
}

// Counting wraps a source whose Poll returns (int, error).
func Counting(p countPoller) Poller {
	return PollerFunc(func() error {
		_, err := p.Poll()
		return err
	})
}

// Flagging wraps a source whose Poll returns (bool, error).
func Flagging(p flagPoller) Poller {
	return PollerFunc(func() error {
		_, err := p.Poll()
		return err
	})
}
