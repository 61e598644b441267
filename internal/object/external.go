package object

import (
	"fmt"
	"sync"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/observer"
	"github.com/decof-project/decofd/internal/timer"
	"github.com/decof-project/decofd/pkg/value"
)

// polled implements the shared polling/observe machinery of external
// read-only and external read-write parameters (spec §4.5): on first
// subscription it connects to a shared timer and fetches the current
// value; on each tick it re-fetches and, if the value changed by
// equality, notifies observers and updates the snapshot. Disconnecting
// the last observer disconnects the timer (spec §9 resolution of the
// stop-polling-on-last-unobserve open question).
type polled struct {
	get   func() (value.Value, error)
	timer *timer.Timer

	mu           sync.Mutex
	observers    *observer.List
	snapshot     value.Value
	haveSnapshot bool
	cancelTimer  func()
}

func newPolled(get func() (value.Value, error), t *timer.Timer) polled {
	return polled{get: get, timer: t, observers: observer.NewList()}
}

func (p *polled) tick() {
	v, err := p.get()
	if err != nil {
		return
	}
	p.mu.Lock()
	changed := !p.haveSnapshot || !value.Equal(p.snapshot, v)
	if changed {
		p.snapshot = v
		p.haveSnapshot = true
	}
	p.mu.Unlock()

	if changed {
		p.observers.NotifyAll(v)
	}
}

func (p *polled) observe(notify func(value.Value)) (value.Value, func(), error) {
	p.mu.Lock()
	if p.cancelTimer == nil {
		v, err := p.get()
		if err != nil {
			p.mu.Unlock()
			return value.Value{}, nil, err
		}
		p.snapshot = v
		p.haveSnapshot = true
		if p.timer != nil {
			p.cancelTimer = p.timer.Subscribe(p.tick)
		} else {
			p.cancelTimer = func() {}
		}
	}
	cur := p.snapshot
	p.mu.Unlock()

	slot := p.observers.Attach(notify)
	cancel := func() {
		slot.Close()
		p.mu.Lock()
		if p.observers.Len() == 0 && p.cancelTimer != nil {
			p.cancelTimer()
			p.cancelTimer = nil
		}
		p.mu.Unlock()
	}
	return cur, cancel, nil
}

// recordWriteSuccess updates the snapshot after a successful external
// write and notifies observers immediately if the value changed, rather
// than waiting for the next poll tick.
func (p *polled) recordWriteSuccess(v value.Value) {
	p.mu.Lock()
	changed := !p.haveSnapshot || !value.Equal(p.snapshot, v)
	p.snapshot = v
	p.haveSnapshot = true
	p.mu.Unlock()

	if changed {
		p.observers.NotifyAll(v)
	}
}

// ExternalReadOnly's value is supplied on demand by a host callback;
// change detection is by polling (spec §3/§4.5).
type ExternalReadOnly struct {
	Base
	kind value.Kind
	polled
}

func NewExternalReadOnly(name string, readLevel access.Userlevel, kind value.Kind, t *timer.Timer, get func() (value.Value, error)) *ExternalReadOnly {
	return &ExternalReadOnly{
		Base:   NewBase(name, readLevel, access.Forbidden), // I6
		kind:   kind,
		polled: newPolled(get, t),
	}
}

func (p *ExternalReadOnly) Kind() Kind            { return kindFor(p.kind) }
func (p *ExternalReadOnly) ValueKind() value.Kind { return p.kind }

func (p *ExternalReadOnly) Read() (value.Value, error) { return p.get() }

func (p *ExternalReadOnly) Observe(notify func(value.Value)) (value.Value, func(), error) {
	return p.observe(notify)
}

// ExternalReadWrite's host callback both reads and writes; write success
// is host-reported via the error return of set (nil = success, spec
// §4.3: "only on success do observers fire").
type ExternalReadWrite struct {
	Base
	kind value.Kind
	set  func(value.Value) error
	polled
}

func NewExternalReadWrite(name string, readLevel, writeLevel access.Userlevel, kind value.Kind, t *timer.Timer, get func() (value.Value, error), set func(value.Value) error) *ExternalReadWrite {
	return &ExternalReadWrite{
		Base:   NewBase(name, readLevel, writeLevel),
		kind:   kind,
		set:    set,
		polled: newPolled(get, t),
	}
}

func (p *ExternalReadWrite) Kind() Kind            { return kindFor(p.kind) }
func (p *ExternalReadWrite) ValueKind() value.Kind { return p.kind }

func (p *ExternalReadWrite) Read() (value.Value, error) { return p.get() }

func (p *ExternalReadWrite) Write(v value.Value) error {
	if v.Kind() != p.kind {
		return decoferr.ErrWrongType(fmt.Sprintf("expected %s, got %s", p.kind, v.Kind()))
	}
	if p.set == nil {
		return nil
	}
	if err := p.set(v); err != nil {
		return err
	}
	p.recordWriteSuccess(v)
	return nil
}

func (p *ExternalReadWrite) Observe(notify func(value.Value)) (value.Value, func(), error) {
	return p.observe(notify)
}
