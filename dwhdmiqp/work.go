package dwhdmiqp

import (
	"sync"
	"time"
)

// delayedWork runs a function once after a delay. The function may schedule
// itself again. cancelSync stops a pending run and waits for a running one;
// scheduling is refused until it returns.
type delayedWork struct {
	fn func()

	mu         sync.Mutex
	timer      *time.Timer
	gen        uint64        // invalidates timers that fired after a cancel
	pending    bool
	cancelling int           // cancelSync calls in progress
	running    chan struct{} // closed when the current run returns
}

func newDelayedWork(fn func()) *delayedWork {
	return &delayedWork{fn: fn}
}

// schedule queues a run after d. It returns false if a run is already
// pending or a cancel is in progress.
func (w *delayedWork) schedule(d time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending || w.cancelling > 0 {
		return false
	}
	w.pending = true
	gen := w.gen
	w.timer = time.AfterFunc(d, func() { w.run(gen) })
	return true
}

func (w *delayedWork) run(gen uint64) {
	w.mu.Lock()
	if !w.pending || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.gen++
	done := make(chan struct{})
	w.running = done
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = nil
		w.mu.Unlock()
		close(done)
	}()
	w.fn()
}

// cancelSync cancels a pending run and waits for a running one to return. It
// must not be called from the work function.
func (w *delayedWork) cancelSync() {
	w.mu.Lock()
	w.cancelling++
	if w.pending {
		w.timer.Stop()
		w.pending = false
		w.gen++
	}
	done := w.running
	w.mu.Unlock()

	if done != nil {
		<-done
	}

	w.mu.Lock()
	w.cancelling--
	w.mu.Unlock()
}

// isPending returns true if a run is queued.
func (w *delayedWork) isPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}
