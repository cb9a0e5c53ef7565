package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManual_LastScheduleWins(t *testing.T) {
	m := NewManual()
	got := ""
	m.ScheduleOnce("persist:main", time.Second, func() { got = "first" })
	m.ScheduleOnce("persist:main", time.Second, func() { got = "second" })
	m.ScheduleOnce("persist:other", time.Second, func() {})
	m.Cancel("persist:other")

	if n := m.Flush(); n != 1 {
		t.Fatalf("expected 1 callback; got %d", n)
	}
	if got != "second" {
		t.Fatalf("expected latest callback to run; got %q", got)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected nothing pending after flush")
	}
}

func TestTimerScheduler_Debounces(t *testing.T) {
	var runs int32
	done := make(chan struct{}, 4)
	s := NewTimerScheduler(nil)
	for i := 0; i < 3; i++ {
		s.ScheduleOnce("k", 20*time.Millisecond, func() {
			atomic.AddInt32(&runs, 1)
			done <- struct{}{}
		})
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for callback")
	}
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Fatalf("expected 1 run; got %d", got)
	}
}

func TestTimerScheduler_PostsAndFlushes(t *testing.T) {
	posted := make(chan func(), 1)
	s := NewTimerScheduler(func(fn func()) { posted <- fn })

	ran := false
	s.ScheduleOnce("k", time.Hour, func() { ran = true })
	s.Flush()
	if !ran {
		t.Fatalf("expected flush to run pending callback")
	}

	s.ScheduleOnce("k", 0, func() {})
	select {
	case fn := <-posted:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("expected callback posted")
	}
}
