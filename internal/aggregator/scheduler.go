package aggregator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrCycleRunning is returned when a manual trigger arrives while another
// cycle holds the single-flight guard.
var ErrCycleRunning = errors.New("aggregation cycle already running")

// State describes the scheduler lifecycle.
type State int

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Scheduler runs aggregation cycles on a fixed interval and serializes them
// with manual triggers. At most one cycle body executes at a time; an
// in-flight cycle is never cancelled, shutdown waits for it up to the
// configured timeout.
type Scheduler struct {
	engine          *Engine
	interval        time.Duration
	shutdownTimeout time.Duration

	mu     sync.Mutex // guards state transitions
	state  State
	stopCh chan struct{}
	doneCh chan struct{}

	cycleMu sync.Mutex // single-flight guard around cycle bodies
}

// NewScheduler wraps an Engine with interval scheduling.
func NewScheduler(engine *Engine) *Scheduler {
	return &Scheduler{
		engine:          engine,
		interval:        engine.Config.CycleInterval(),
		shutdownTimeout: engine.Config.ShutdownTimeout(),
	}
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the scheduling loop. The first cycle runs immediately,
// subsequent ones on the interval. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Stopped {
		log.Printf("scheduler: start ignored, state is %s", s.state)
		return
	}
	if s.doneCh != nil {
		select {
		case <-s.doneCh:
		default:
			log.Printf("scheduler: start ignored, previous loop still draining")
			return
		}
	}

	s.state = Running
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.loop(s.stopCh, s.doneCh)
	log.Printf("scheduler: started, interval %s", s.interval)
}

// Stop asks the loop to exit and waits up to the shutdown timeout for any
// in-flight cycle. A cycle that outlives the timeout keeps running to
// completion; it is logged, not killed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		log.Printf("scheduler: stop ignored, state is %s", s.state)
		return
	}
	s.state = Stopping
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
		log.Printf("scheduler: stopped")
	case <-time.After(s.shutdownTimeout):
		log.Printf("scheduler: loop did not stop within %s, in-flight cycle will run to completion", s.shutdownTimeout)
	}

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
}

// TriggerNow runs one cycle immediately. If a scheduled or manual cycle is
// already in flight the call is rejected with ErrCycleRunning rather than
// queued.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	if !s.cycleMu.TryLock() {
		return ErrCycleRunning
	}
	defer s.cycleMu.Unlock()
	return s.engine.RunCycle(ctx)
}

// TriggerCleanup runs the audit-record trimmer on its own, under the same
// single-flight guard as full cycles.
func (s *Scheduler) TriggerCleanup() (int, error) {
	if !s.cycleMu.TryLock() {
		return 0, ErrCycleRunning
	}
	defer s.cycleMu.Unlock()
	return s.engine.RunCleanup()
}

func (s *Scheduler) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	s.runScheduled()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runScheduled()
		case <-stopCh:
			return
		}
	}
}

// runScheduled waits for the guard rather than skipping: a scheduled tick
// that collides with a manual cycle runs right after it finishes.
func (s *Scheduler) runScheduled() {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if err := s.engine.RunCycle(context.Background()); err != nil {
		log.Printf("scheduler: cycle failed: %v", err)
	}
}
