// Package observer implements the per-parameter change-notification
// facility of spec §4.5/§9: a small handle ("Slot") owned by a client
// context and registered in a list owned by a parameter. Destruction of
// either side drains the handle before returning (I8), and Close is
// idempotent so both owners may tear it down without coordination.
//
// Grounded on original_source/include/decof/observable_parameter.h's
// signal/slot member; expressed as a plain mutex-guarded slice instead
// of importing a signal/slot library, since no pack example reaches for
// one for a single-producer, N-consumer fan-out this small.
package observer

import (
	"sync"

	"github.com/decof-project/decofd/pkg/value"
)

// Slot is a single observer registration. Notify is called synchronously
// by the owning parameter on every accepted mutation; Close disconnects
// it and is safe to call more than once or concurrently from both the
// parameter side and the owning client context.
type Slot struct {
	id     uint64
	notify func(value.Value)

	mu     sync.Mutex
	closed bool
	list   *List
}

// Close detaches the slot from its list. Idempotent: a second Close (or
// a Close racing the list's own teardown) is a no-op, never a panic or
// double notification (I8).
func (s *Slot) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	list := s.list
	s.mu.Unlock()

	if list != nil {
		list.remove(s)
	}
}

func (s *Slot) fire(v value.Value) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.notify(v)
	}
}

// List is the set of slots currently observing one parameter.
type List struct {
	mu     sync.Mutex
	nextID uint64
	slots  map[uint64]*Slot
}

// NewList returns an empty observer list.
func NewList() *List {
	return &List{slots: make(map[uint64]*Slot)}
}

// Attach registers a new slot with the given notify callback. The caller
// is responsible for delivering the "initial snapshot" value (spec
// §4.3) separately; Attach itself only wires the subscription.
func (l *List) Attach(notify func(value.Value)) *Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	s := &Slot{id: l.nextID, notify: notify, list: l}
	l.slots[s.id] = s
	return s
}

func (l *List) remove(s *Slot) {
	l.mu.Lock()
	delete(l.slots, s.id)
	remaining := len(l.slots)
	l.mu.Unlock()
	_ = remaining
}

// Len reports the number of currently attached slots, used to decide
// when to disconnect the shared timer for external-readonly polling
// (spec §9: stop polling on last unobserve).
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// NotifyAll invokes every currently attached slot's callback, in
// attachment order, with v. Called synchronously on the strand so
// ordering guarantee O2 (per-parameter, per-observer mutation order)
// holds without extra bookkeeping.
func (l *List) NotifyAll(v value.Value) {
	l.mu.Lock()
	snapshot := make([]*Slot, 0, len(l.slots))
	for id := uint64(1); id <= l.nextID; id++ {
		if s, ok := l.slots[id]; ok {
			snapshot = append(snapshot, s)
		}
	}
	l.mu.Unlock()

	for _, s := range snapshot {
		s.fire(v)
	}
}

// CloseAll detaches every slot, used when the parameter itself is
// destroyed (I8).
func (l *List) CloseAll() {
	l.mu.Lock()
	slots := make([]*Slot, 0, len(l.slots))
	for _, s := range l.slots {
		slots = append(slots, s)
	}
	l.mu.Unlock()

	for _, s := range slots {
		s.Close()
	}
}
