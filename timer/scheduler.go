package timer

import (
	"sync"
	"time"

	"github.com/google/btree"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/comalice/pollfsm"
)

// deadline is a pending named timeout ordered by expiry, then arm order.
type deadline struct {
	at     time.Time
	seq    uint64
	name   string
	period time.Duration // zero for one-shot
	event  pollfsm.EventID
}

func (d *deadline) Less(than btree.Item) bool {
	o := than.(*deadline)
	if !d.at.Equal(o.at) {
		return d.at.Before(o.at)
	}
	return d.seq < o.seq
}

// Scheduler holds named timeouts in deadline order and posts their events
// from Poll. Arming a name that is already active replaces it.
type Scheduler struct {
	mu     sync.Mutex
	clock  Clock
	sink   EventSink
	tree   *btree.BTree
	byName map[string]*deadline
	seq    uint64
	logger *zap.Logger
}

// NewScheduler creates a scheduler posting into sink.
func NewScheduler(clock Clock, sink EventSink, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  clock,
		sink:   sink,
		tree:   btree.New(8),
		byName: make(map[string]*deadline),
		logger: logger,
	}
}

// Start arms a one-shot timeout posting ev after d.
func (s *Scheduler) Start(name string, d time.Duration, ev pollfsm.EventID) {
	s.arm(name, d, 0, ev)
}

// StartPeriodic arms a timeout posting ev every d.
func (s *Scheduler) StartPeriodic(name string, d time.Duration, ev pollfsm.EventID) {
	s.arm(name, d, d, ev)
}

func (s *Scheduler) arm(name string, after, period time.Duration, ev pollfsm.EventID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(name)
	s.seq++
	d := &deadline{
		at:     s.clock.Now().Add(after),
		seq:    s.seq,
		name:   name,
		period: period,
		event:  ev,
	}
	s.tree.ReplaceOrInsert(d)
	s.byName[name] = d
	s.logger.Debug("timeout armed", zap.String("name", name), zap.Duration("after", after))
}

// Stop cancels a timeout. Reports whether it was active.
func (s *Scheduler) Stop(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

// Reset re-arms an active timeout with a new duration, keeping its event and
// period mode. Reports whether it was active.
func (s *Scheduler) Reset(name string, d time.Duration) bool {
	s.mu.Lock()
	entry, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	period := time.Duration(0)
	if entry.period > 0 {
		period = d
	}
	s.arm(name, d, period, entry.event)
	return true
}

// Active reports whether name is armed.
func (s *Scheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byName[name]
	return ok
}

// Len returns the number of armed timeouts.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Len()
}

// StopAll cancels every timeout.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Clear(false)
	s.byName = make(map[string]*deadline)
}

// Poll posts the event of every due timeout in deadline order and returns
// how many were posted. Periodic timeouts are re-armed past now.
func (s *Scheduler) Poll() (int, error) {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*deadline
	for {
		item := s.tree.Min()
		if item == nil {
			break
		}
		d := item.(*deadline)
		if d.at.After(now) {
			break
		}
		s.tree.DeleteMin()
		due = append(due, d)

		if d.period <= 0 {
			delete(s.byName, d.name)
			continue
		}
		next := *d
		missed := now.Sub(d.at)/d.period + 1
		next.at = d.at.Add(missed * d.period)
		s.seq++
		next.seq = s.seq
		s.tree.ReplaceOrInsert(&next)
		s.byName[d.name] = &next
	}
	s.mu.Unlock()

	var errs error
	posted := 0
	for _, d := range due {
		s.logger.Debug("timeout fired", zap.String("name", d.name))
		if err := s.sink.Post(d.event); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		posted++
	}
	return posted, errs
}

func (s *Scheduler) removeLocked(name string) bool {
	d, ok := s.byName[name]
	if !ok {
		return false
	}
	s.tree.Delete(d)
	delete(s.byName, name)
	return true
}
