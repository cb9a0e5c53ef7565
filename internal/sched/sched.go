// Package sched runs keyed, debounced work. Scheduling a key again before it
// fires replaces the pending callback and restarts its delay.
package sched

import (
	"sort"
	"sync"
	"time"
)

type Scheduler interface {
	ScheduleOnce(key string, delay time.Duration, fn func())
	Cancel(key string)
}

// TimerScheduler fires callbacks from time.AfterFunc. When post is set the
// callback is handed to it instead of being run on the timer goroutine, so an
// event loop can run it on its own goroutine.
type TimerScheduler struct {
	post func(func())

	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	timer *time.Timer
	fn    func()
	gen   int
}

func NewTimerScheduler(post func(func())) *TimerScheduler {
	return &TimerScheduler{post: post, pending: map[string]*entry{}}
}

func (s *TimerScheduler) ScheduleOnce(key string, delay time.Duration, fn func()) {
	if s == nil || fn == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		e = &entry{}
		s.pending[key] = e
	}
	e.fn = fn
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(delay, func() { s.fire(key, gen) })
}

func (s *TimerScheduler) fire(key string, gen int) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if !ok || e.gen != gen {
		// Rescheduled or cancelled while the timer was firing.
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	fn := e.fn
	s.mu.Unlock()

	if s.post != nil {
		s.post(fn)
		return
	}
	fn()
}

func (s *TimerScheduler) Cancel(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[key]; ok {
		e.timer.Stop()
		delete(s.pending, key)
	}
}

// Flush runs every pending callback now, in key order.
func (s *TimerScheduler) Flush() {
	if s == nil {
		return
	}
	s.mu.Lock()
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var fns []func()
	for _, k := range keys {
		e := s.pending[k]
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(s.pending, k)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Manual holds callbacks until Flush. Used by the CLI, which persists once
// per invocation, and by tests.
type Manual struct {
	mu      sync.Mutex
	pending map[string]func()
	order   []string
}

func NewManual() *Manual {
	return &Manual{pending: map[string]func(){}}
}

func (m *Manual) ScheduleOnce(key string, _ time.Duration, fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[key]; !ok {
		m.order = append(m.order, key)
	}
	m.pending[key] = fn
}

func (m *Manual) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
}

func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush runs pending callbacks in first-scheduled order and reports how many ran.
func (m *Manual) Flush() int {
	m.mu.Lock()
	var fns []func()
	for _, k := range m.order {
		if fn, ok := m.pending[k]; ok {
			fns = append(fns, fn)
		}
	}
	m.pending = map[string]func(){}
	m.order = nil
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
