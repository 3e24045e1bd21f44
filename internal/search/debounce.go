package search

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d. The default is time.AfterFunc.
type Scheduler func(d time.Duration, fn func()) Timer

func afterFunc(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }

// Debouncer runs only the most recent of a burst of triggers, once the
// quiet period has passed since the last one. Earlier triggers are
// discarded, not queued.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	schedule Scheduler
	timer    Timer
	gen      uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return NewDebouncerWithScheduler(delay, afterFunc)
}

func NewDebouncerWithScheduler(delay time.Duration, schedule Scheduler) *Debouncer {
	return &Debouncer{delay: delay, schedule: schedule}
}

// Trigger replaces any pending call with fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.schedule(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			// A newer trigger or Cancel won the race with this timer.
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
