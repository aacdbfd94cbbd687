// Package sched provides a task scheduler driven by the game loop.
//
// All scheduling and firing happens on the game-loop goroutine: Advance is
// called once per tick with the elapsed tick duration, so callbacks can touch
// world state without locks and tests can step time deterministically.
package sched

import "time"

// Task is a cancellable scheduled callback.
type Task struct {
	fn        func()
	period    time.Duration // 0 = one-shot
	remaining time.Duration
	cancelled bool
	done      bool
}

// Cancel prevents any further firing. Cancelling an already finished or
// cancelled task is a no-op. A task cancelled from inside a callback will not
// fire again, even within the same Advance call.
func (t *Task) Cancel() {
	t.cancelled = true
}

// Scheduler owns pending tasks. Not safe for concurrent use; it belongs to
// the game loop.
type Scheduler struct {
	tasks []*Task
}

func New() *Scheduler {
	return &Scheduler{}
}

// RunLater schedules fn to fire once after delay.
func (s *Scheduler) RunLater(delay time.Duration, fn func()) *Task {
	t := &Task{fn: fn, remaining: delay}
	s.tasks = append(s.tasks, t)
	return t
}

// RunRepeating schedules fn to fire every period, first firing one period
// from now.
func (s *Scheduler) RunRepeating(period time.Duration, fn func()) *Task {
	t := &Task{fn: fn, period: period, remaining: period}
	s.tasks = append(s.tasks, t)
	return t
}

// Pending returns the number of live tasks.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled && !t.done {
			n++
		}
	}
	return n
}

// Advance moves scheduler time forward by dt, firing due tasks in scheduling
// order. Tasks scheduled by callbacks during an Advance do not advance until
// the next call.
func (s *Scheduler) Advance(dt time.Duration) {
	// Snapshot length so callbacks appending new tasks don't advance them
	// within this tick.
	n := len(s.tasks)
	for i := 0; i < n; i++ {
		t := s.tasks[i]
		if t.cancelled || t.done {
			continue
		}
		t.remaining -= dt
		for t.remaining <= 0 && !t.cancelled && !t.done {
			t.fn()
			if t.period == 0 {
				t.done = true
			} else {
				t.remaining += t.period
			}
		}
	}
	s.compact()
}

func (s *Scheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled && !t.done {
			live = append(live, t)
		}
	}
	// Zero the tail so finished tasks can be collected.
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}
