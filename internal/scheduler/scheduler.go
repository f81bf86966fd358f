package scheduler

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Cancelling an already-fired or
// already-cancelled callback is a no-op, never an error.
type Handle interface {
	Cancel()
}

// Scheduler abstracts the clock-driven callbacks the polling protocol and
// the periodic workers depend on, so tests can fire them deterministically.
type Scheduler interface {
	// After runs fn once, no earlier than d from now, on its own goroutine.
	After(d time.Duration, fn func()) Handle
	// Every runs fn repeatedly at the given interval until cancelled.
	Every(interval time.Duration, fn func()) Handle
}

type timeScheduler struct{}

// New returns a Scheduler backed by the runtime timers.
func New() Scheduler {
	return timeScheduler{}
}

func (timeScheduler) After(d time.Duration, fn func()) Handle {
	return timerHandle{timer: time.AfterFunc(d, fn)}
}

func (timeScheduler) Every(interval time.Duration, fn func()) Handle {
	ticker := time.NewTicker(interval)
	h := &tickerHandle{ticker: ticker, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-h.done:
				return
			}
		}
	}()
	return h
}

type timerHandle struct {
	timer *time.Timer
}

func (h timerHandle) Cancel() {
	h.timer.Stop()
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}
