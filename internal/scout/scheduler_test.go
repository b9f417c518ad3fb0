package scout

import (
	"testing"
	"time"

	"github.com/quickscout/quickscout-go/internal/clock"
)

func TestSchedulerCancelAllStopsTimers(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	sched := NewScheduler(fake)

	ran := 0
	sched.Schedule(time.Second, func(task Task) {
		if sched.Finish(task) {
			ran++
		}
	})
	sched.Schedule(2*time.Second, func(task Task) {
		if sched.Finish(task) {
			ran++
		}
	})
	if sched.pending() != 2 {
		t.Fatalf("expected 2 pending tasks, got %d", sched.pending())
	}

	if stopped := sched.CancelAll(); stopped != 2 {
		t.Fatalf("expected 2 stopped timers, got %d", stopped)
	}
	fake.Advance(time.Minute)
	if ran != 0 {
		t.Fatalf("expected cancelled tasks not to run, ran %d", ran)
	}
}

func TestSchedulerStaleTaskDetected(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	sched := NewScheduler(fake)

	var captured Task
	sched.Schedule(time.Second, func(task Task) { captured = task })
	fake.Advance(time.Second)

	// The callback fired but has not been finished when the phase changes.
	sched.CancelAll()
	if sched.Finish(captured) {
		t.Fatal("expected task from a previous generation to be stale")
	}

	fresh := sched.Schedule(time.Second, func(Task) {})
	if !sched.Finish(fresh) {
		t.Fatal("expected task from current generation to be live")
	}
	if sched.pending() != 0 {
		t.Fatalf("expected no pending tasks, got %d", sched.pending())
	}
}
