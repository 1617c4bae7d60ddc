// Package alarm provides the in-process wake signal scheduler used by the daemon.
package alarm

import (
	"sync"
	"time"

	"github.com/xvierd/keeper/internal/ports"
)

// Fired is delivered on the scheduler channel each time an alarm goes off.
type Fired struct {
	Name string
	At   time.Time
}

type entry struct {
	period time.Duration
	stopCh chan struct{}
}

// Scheduler implements ports.Scheduler with one ticker goroutine per armed alarm.
// Signals are sent without blocking; if the consumer falls behind they are dropped.
type Scheduler struct {
	mu     sync.Mutex
	alarms map[string]*entry
	fired  chan Fired
	wg     sync.WaitGroup
}

// Ensure Scheduler implements ports.Scheduler.
var _ ports.Scheduler = (*Scheduler)(nil)

// New creates a scheduler whose channel buffers up to buffer pending signals.
func New(buffer int) *Scheduler {
	if buffer < 1 {
		buffer = 1
	}
	return &Scheduler{
		alarms: make(map[string]*entry),
		fired:  make(chan Fired, buffer),
	}
}

// C returns the channel on which fired alarms are delivered.
func (s *Scheduler) C() <-chan Fired {
	return s.fired
}

// Arm starts the named alarm, replacing any existing alarm with the same name.
func (s *Scheduler) Arm(name string, period time.Duration) {
	if period <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.alarms[name]; ok {
		close(old.stopCh)
	}
	e := &entry{period: period, stopCh: make(chan struct{})}
	s.alarms[name] = e

	s.wg.Add(1)
	go s.run(name, e)
}

// Disarm stops the named alarm.
func (s *Scheduler) Disarm(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.alarms[name]; ok {
		close(e.stopCh)
		delete(s.alarms, name)
	}
}

// Armed reports whether the named alarm is scheduled.
func (s *Scheduler) Armed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.alarms[name]
	return ok
}

// Period returns the period of the named alarm, or zero if it is not armed.
func (s *Scheduler) Period(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.alarms[name]; ok {
		return e.period
	}
	return 0
}

// Stop disarms every alarm and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for name, e := range s.alarms {
		close(e.stopCh)
		delete(s.alarms, name)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) run(name string, e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case at := <-ticker.C:
			select {
			case s.fired <- Fired{Name: name, At: at}:
			default:
			}
		}
	}
}
