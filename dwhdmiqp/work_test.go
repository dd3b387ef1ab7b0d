package dwhdmiqp

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDelayedWorkRuns(t *testing.T) {
	ran := make(chan struct{}, 4)
	w := newDelayedWork(func() { ran <- struct{}{} })

	if !w.schedule(time.Millisecond) {
		t.Fatal("schedule refused")
	}
	if w.schedule(time.Millisecond) {
		t.Error("scheduled twice")
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("work didn't run")
	}
	select {
	case <-ran:
		t.Fatal("work ran twice")
	case <-time.After(20 * time.Millisecond):
	}
	if w.isPending() {
		t.Error("pending after run")
	}
}

func TestDelayedWorkReschedules(t *testing.T) {
	var n atomic.Int32
	var w *delayedWork
	w = newDelayedWork(func() {
		if n.Add(1) < 3 {
			w.schedule(time.Millisecond)
		}
	})
	w.schedule(time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n.Load() != 3 {
		t.Errorf("ran %d times", n.Load())
	}
}

func TestDelayedWorkCancelPending(t *testing.T) {
	var n atomic.Int32
	w := newDelayedWork(func() { n.Add(1) })

	w.schedule(10 * time.Millisecond)
	w.cancelSync()
	if w.isPending() {
		t.Error("pending after cancel")
	}
	time.Sleep(30 * time.Millisecond)
	if n.Load() != 0 {
		t.Error("cancelled work ran")
	}
	if !w.schedule(time.Hour) {
		t.Error("schedule refused after cancel")
	}
	w.cancelSync()
}

func TestDelayedWorkCancelWaits(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var rescheduled atomic.Bool
	var w *delayedWork
	w = newDelayedWork(func() {
		close(started)
		<-release
		rescheduled.Store(w.schedule(time.Millisecond))
	})
	w.schedule(time.Millisecond)
	<-started

	cancelled := make(chan struct{})
	go func() {
		w.cancelSync()
		close(cancelled)
	}()

	// Wait for the cancel to be in progress.
	for {
		w.mu.Lock()
		c := w.cancelling
		w.mu.Unlock()
		if c > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	select {
	case <-cancelled:
		t.Fatal("cancel returned while work running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("cancel didn't return")
	}
	if rescheduled.Load() {
		t.Error("work rescheduled itself during cancel")
	}
	if w.isPending() {
		t.Error("pending after cancel")
	}
}
