package object

import (
	"fmt"
	"sync"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/observer"
	"github.com/decof-project/decofd/pkg/value"
)

// kindFor maps a value.Kind to the object.Kind used by the browse/tree
// renderers, for every parameter variant below.
func kindFor(k value.Kind) Kind {
	switch k {
	case value.KindBoolean:
		return KindParamBoolean
	case value.KindInteger:
		return KindParamInteger
	case value.KindReal:
		return KindParamReal
	case value.KindString:
		return KindParamString
	case value.KindBinary:
		return KindParamBinary
	case value.KindBooleanSeq:
		return KindParamBooleanSeq
	case value.KindIntegerSeq:
		return KindParamIntegerSeq
	case value.KindRealSeq:
		return KindParamRealSeq
	case value.KindStringSeq:
		return KindParamStringSeq
	case value.KindTuple:
		return KindParamTuple
	default:
		return KindParamString
	}
}

// ManagedReadOnly holds its value in the object itself; only server-side
// code mutates it (via SetValue), and it emits on every change (spec §3
// "managed read-only").
type ManagedReadOnly struct {
	Base
	kind value.Kind

	mu       sync.Mutex
	val      value.Value
	observers *observer.List
}

func NewManagedReadOnly(name string, readLevel access.Userlevel, initial value.Value) *ManagedReadOnly {
	return &ManagedReadOnly{
		Base:      NewBase(name, readLevel, access.Forbidden), // I6
		kind:      initial.Kind(),
		val:       initial,
		observers: observer.NewList(),
	}
}

func (p *ManagedReadOnly) Kind() Kind           { return kindFor(p.kind) }
func (p *ManagedReadOnly) ValueKind() value.Kind { return p.kind }

func (p *ManagedReadOnly) Read() (value.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.val, nil
}

// SetValue is the server-side mutator (never reachable from a client
// write, since ManagedReadOnly does not implement Writable). Notifies
// observers only if the value actually changed (mirrors the
// ManagedReadWrite no-op rule for consistency, though spec §4.3 only
// states this explicitly for read-write parameters).
func (p *ManagedReadOnly) SetValue(v value.Value) {
	p.mu.Lock()
	changed := !value.Equal(p.val, v)
	p.val = v
	p.mu.Unlock()

	if changed {
		p.observers.NotifyAll(v)
	}
}

func (p *ManagedReadOnly) Observe(notify func(value.Value)) (value.Value, func(), error) {
	p.mu.Lock()
	cur := p.val
	p.mu.Unlock()

	slot := p.observers.Attach(notify)
	return cur, slot.Close, nil
}

// ManagedReadWrite additionally accepts client writes, optionally
// rejected by a verify hook that runs pre-store (spec §4.3).
type ManagedReadWrite struct {
	Base
	kind value.Kind

	mu       sync.Mutex
	val      value.Value
	verify   func(value.Value) error
	observers *observer.List
}

// NewManagedReadWrite creates a managed read-write parameter. verify may
// be nil; Write always rejects a value.Kind mismatch with the declared
// kind before it ever reaches verify (spec §4.3/I7, error code 5
// WrongType).
func NewManagedReadWrite(name string, readLevel, writeLevel access.Userlevel, initial value.Value, verify func(value.Value) error) *ManagedReadWrite {
	return &ManagedReadWrite{
		Base:      NewBase(name, readLevel, writeLevel),
		kind:      initial.Kind(),
		val:       initial,
		verify:    verify,
		observers: observer.NewList(),
	}
}

func (p *ManagedReadWrite) Kind() Kind            { return kindFor(p.kind) }
func (p *ManagedReadWrite) ValueKind() value.Kind { return p.kind }

func (p *ManagedReadWrite) Read() (value.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.val, nil
}

// Write stores v if it differs from the current value and the verify
// hook (if any) accepts it. A write equal to the stored value is a
// documented no-op: it neither re-runs verify nor notifies (spec §4.3,
// §8 P3). A value whose Kind doesn't match the parameter's declared
// kind is rejected with decoferr.ErrWrongType before the equality check
// or verify hook ever run.
func (p *ManagedReadWrite) Write(v value.Value) error {
	if v.Kind() != p.kind {
		return decoferr.ErrWrongType(fmt.Sprintf("expected %s, got %s", p.kind, v.Kind()))
	}

	p.mu.Lock()
	if value.Equal(p.val, v) {
		p.mu.Unlock()
		return nil
	}
	if p.verify != nil {
		if err := p.verify(v); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	p.val = v
	p.mu.Unlock()

	p.observers.NotifyAll(v)
	return nil
}

func (p *ManagedReadWrite) Observe(notify func(value.Value)) (value.Value, func(), error) {
	p.mu.Lock()
	cur := p.val
	p.mu.Unlock()

	slot := p.observers.Attach(notify)
	return cur, slot.Close, nil
}

// WriteOnly consumes writes via a host callback; it has no readable
// state (I5: read-level = Forbidden) and is never observable.
type WriteOnly struct {
	Base
	kind value.Kind
	sink func(value.Value) error
}

func NewWriteOnly(name string, writeLevel access.Userlevel, kind value.Kind, sink func(value.Value) error) *WriteOnly {
	return &WriteOnly{
		Base: NewBase(name, access.Forbidden, writeLevel), // I5
		kind: kind,
		sink: sink,
	}
}

func (p *WriteOnly) Kind() Kind            { return kindFor(p.kind) }
func (p *WriteOnly) ValueKind() value.Kind { return p.kind }

// Write invokes the host callback unconditionally on each write (spec
// §4.3: "the host callback is invoked unconditionally on each write"),
// once v's Kind has been checked against the parameter's declared kind.
func (p *WriteOnly) Write(v value.Value) error {
	if v.Kind() != p.kind {
		return decoferr.ErrWrongType(fmt.Sprintf("expected %s, got %s", p.kind, v.Kind()))
	}
	if p.sink == nil {
		return nil
	}
	return p.sink(v)
}
