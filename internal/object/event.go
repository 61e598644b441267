package object

import "github.com/decof-project/decofd/internal/access"

// Event is a named, invocable object (spec §3/§4.4). Its read-level is
// always Forbidden; signalling runs a host-registered handler exactly
// once per invocation, synchronously, before the request completes.
type Event struct {
	Base
	handler func() error
}

// NewEvent creates an event whose Signal invokes handler. writeLevel
// gates who may signal it; read-level is fixed to Forbidden (I... the
// event analogue of I5/I6: an event is never readable).
func NewEvent(name string, writeLevel access.Userlevel, handler func() error) *Event {
	return &Event{
		Base:    NewBase(name, access.Forbidden, writeLevel),
		handler: handler,
	}
}

func (e *Event) Kind() Kind { return KindEvent }

// Signal runs the host handler. Access control (userlevel != Readonly
// and userlevel <= write-level) is enforced by the caller (spec §4.4);
// Signal itself only performs the invocation, synchronously to
// completion, matching spec §4.4's "runs synchronously to completion
// before the request responds."
func (e *Event) Signal() error {
	if e.handler == nil {
		return nil
	}
	return e.handler()
}
