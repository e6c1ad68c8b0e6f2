// Package debounce runs deferred tasks keyed by kind. Scheduling a task
// replaces any pending task of the same kind, so a burst of triggers
// collapses into a single run after the last one.
package debounce

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Key string

// Timer is the handle of a scheduled function.
type Timer interface {
	Stop() bool
}

// Clock schedules functions to run after a delay.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by time.AfterFunc.
var RealClock Clock = realClock{}

type task struct {
	timer Timer
	seq   uint64
	fn    func()
}

// Scheduler holds at most one pending task per key.
//
// Thread-safety: all methods are safe for concurrent use. Tasks run
// without the scheduler's lock held.
type Scheduler struct {
	mu     sync.Mutex
	clock  Clock
	logger *zap.Logger
	tasks  map[Key]*task
	seq    uint64
	closed bool
}

type Option func(*Scheduler)

func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks: make(map[Key]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = RealClock
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Schedule runs fn after delay unless another task with the same key
// is scheduled first. It is a no-op after Close.
func (s *Scheduler) Schedule(key Key, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}

	s.seq++
	seq := s.seq
	t := &task{seq: seq, fn: fn}
	s.tasks[key] = t
	t.timer = s.clock.AfterFunc(delay, func() {
		s.fire(key, seq)
	})
}

func (s *Scheduler) fire(key Key, seq uint64) {
	s.mu.Lock()
	// Only run if this is still the current task for the key.
	t, ok := s.tasks[key]
	if !ok || t.seq != seq || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()

	s.logger.Debug("running debounced task", zap.String("key", string(key)))
	t.fn()
}

// Flush runs the pending task for key immediately. It reports whether
// a task was pending.
func (s *Scheduler) Flush(key Key) bool {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	s.mu.Unlock()

	t.fn()
	return true
}

// Cancel drops the pending task for key, if any.
func (s *Scheduler) Cancel(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[key]; ok {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}

func (s *Scheduler) Pending(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Close cancels every pending task. Later calls to Schedule are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.closed = true
}
