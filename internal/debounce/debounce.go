// Package debounce coalesces bursts of per-path change events into a single
// batched callback.
package debounce

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// DefaultDelay is the quiet window used when none is configured.
const DefaultDelay = 150 * time.Millisecond

// Debouncer collects paths into a pending set and invokes its callback once
// the set has been left alone for the configured delay. Every Add restarts
// the window.
type Debouncer struct {
	delay time.Duration
	fire  func(paths []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New returns a Debouncer that calls fire with the sorted pending paths.
// A non-positive delay selects DefaultDelay.
func New(delay time.Duration, fire func(paths []string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		delay:   delay,
		fire:    fire,
		pending: make(map[string]struct{}),
	}
}

// Add enqueues path and restarts the quiet window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.flush(gen) })
}

// Remove drops path from the pending set without touching the timer.
func (d *Debouncer) Remove(path string) {
	d.mu.Lock()
	delete(d.pending, path)
	d.mu.Unlock()
}

// Pending reports how many paths are waiting for the next flush.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush fires immediately with whatever is pending, cancelling the timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.mu.Unlock()
	d.flush(gen)
}

// Stop cancels any pending flush. Later calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

func (d *Debouncer) flush(gen uint64) {
	d.mu.Lock()
	// A timer that was superseded may still run if Stop raced its start.
	if d.stopped || gen != d.gen || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	paths := slices.Sorted(maps.Keys(d.pending))
	clear(d.pending)
	d.timer = nil
	d.mu.Unlock()

	d.fire(paths)
}
