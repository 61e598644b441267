// Package timer implements the three shared polled-timer interfaces of
// spec §4.5/§6 (fast/medium/slow), whose sole observable effect is
// firing change-detection ticks across externally-backed parameters.
//
// Grounded on original_source/regular_timer.cpp's three named timer
// instances. A Timer keeps no clock of its own: its owner calls Fire at
// the timer's period (cmd/decofd does so from a stdlib time.Ticker), and
// each Fire is fanned out to an arbitrary number of subscribers.
package timer

import "sync"

// Timer invokes every currently subscribed callback each time Fire is
// called.
type Timer struct {
	mu        sync.Mutex
	listeners map[uint64]func()
	nextID    uint64
	stop      chan struct{}
	running   bool
	tickFunc  func(func())
}

// New creates a Timer. tick is supplied by the caller (internal/strand)
// so every fired callback is dispatched through the single serial
// executor rather than directly from the ticker goroutine (spec §5:
// "Timer ticks are delivered via the same executor").
func New(tick func(func())) *Timer {
	return &Timer{listeners: make(map[uint64]func()), tickFunc: tick}
}

// Subscribe registers fn to be called on every Fire and returns a
// cancel function that removes it. Subscribing or canceling starts or
// stops nothing else: Fire with no listeners simply calls nothing.
func (t *Timer) Subscribe(fn func()) (cancel func()) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// Fire invokes every currently subscribed listener once, dispatched
// through the configured executor function. Called by the owner that
// drives this Timer's period (cmd/decofd's runTimers, through the
// dictionary's TickFast/TickMedium/TickSlow, on a time.Ticker).
func (t *Timer) Fire() {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		if t.tickFunc != nil {
			t.tickFunc(fn)
		} else {
			fn()
		}
	}
}

// Len reports the number of currently subscribed listeners.
func (t *Timer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}
