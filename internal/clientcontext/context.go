// Package clientcontext implements the uniform per-protocol request API
// consumed by every front-end (CLI, CLI pub/sub, SCGI): Get, Set,
// Signal, Observe, Unobserve, Browse, Tick and ChangeUserlevel (spec
// §4.6/§4.1).
//
// Grounded directly on original_source's client_context (
// include/decof/client_context/client_context.h,
// src/core/client_context.cpp): the context_guard-wrapped, userlevel
// gated get_parameter/set_parameter/signal_event/observe/unobserve/
// browse/tick member functions, translated one-for-one. Context
// identity uses github.com/google/uuid (cc-backend does not use uuid
// directly; grounded on other example repos' convention of tagging
// connection-scoped state with a uuid for log correlation).
package clientcontext

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/object"
	"github.com/decof-project/decofd/internal/strand"
	"github.com/decof-project/decofd/pkg/value"
)

// Context is one connected client's session state: its userlevel, its
// live URI -> observer-cancel bindings, and the connection metadata
// used for logging and access-control decisions.
type Context struct {
	id             string
	dict           *dictionary.Dictionary
	strand         *strand.Strand
	connectionType string
	remoteEndpoint string

	mu           sync.Mutex
	userlevel    access.Userlevel
	observations map[string]func()
}

// New creates a client context bound to dict, serialized through sd.
// userlevel is the initial level (spec §4.6's default is Normal).
func New(dict *dictionary.Dictionary, sd *strand.Strand, connectionType, remoteEndpoint string, userlevel access.Userlevel) *Context {
	return &Context{
		id:             uuid.NewString(),
		dict:           dict,
		strand:         sd,
		connectionType: connectionType,
		remoteEndpoint: remoteEndpoint,
		userlevel:      userlevel,
		observations:   make(map[string]func()),
	}
}

func (c *Context) ID() string             { return c.id }
func (c *Context) ConnectionType() string { return c.connectionType }
func (c *Context) RemoteEndpoint() string { return c.remoteEndpoint }

// Userlevel returns the context's current, unpromoted userlevel.
func (c *Context) Userlevel() access.Userlevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userlevel
}

// EffectiveUserlevel promotes Readonly to Normal for read-access checks
// (spec §4.6).
func (c *Context) EffectiveUserlevel() access.Userlevel {
	return c.Userlevel().EffectiveRead()
}

// ChangeUserlevel validates and installs a new userlevel (spec §4.6's
// 'change-ul meta-operation). Authentication (verifying password
// against requested) is the caller's responsibility; ChangeUserlevel
// only performs the range check and assignment, mirroring
// original_source client_context::userlevel(ul)'s bounds check.
func (c *Context) ChangeUserlevel(ul access.Userlevel) error {
	if !ul.Valid() {
		return decoferr.ErrInvalidUserlevel()
	}
	c.mu.Lock()
	c.userlevel = ul
	c.mu.Unlock()
	return nil
}

// enter runs fn on the strand with this context installed as the
// dictionary's current context (spec §5's per-request context guard).
func (c *Context) enter(fn func()) {
	c.strand.Run(func() {
		leave := c.dict.EnterContext(c)
		defer leave()
		fn()
	})
}

// Get resolves uri and reads its value, subject to the effective
// read-level check (spec §4.3/§4.6).
func (c *Context) Get(uri string) (v value.Value, err error) {
	c.enter(func() {
		obj, ok := c.dict.Resolve(uri)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		readable, ok := obj.(object.Readable)
		if !ok || !access.CanRead(c.EffectiveUserlevel(), obj.ReadLevel()) {
			err = decoferr.ErrAccessDenied()
			return
		}
		v, err = readable.Read()
	})
	return v, err
}

// Set resolves uri and writes v to it, subject to the write-level check
// and the context's own Readonly gate (spec §4.3/§4.6: a Readonly
// context may never write, regardless of object write-level).
func (c *Context) Set(uri string, v value.Value) (err error) {
	c.enter(func() {
		if c.Userlevel() == access.Readonly {
			err = decoferr.ErrAccessDenied()
			return
		}
		obj, ok := c.dict.Resolve(uri)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		writable, ok := obj.(object.Writable)
		if !ok {
			// A read-only object's write-level is Forbidden: nobody may
			// write it.
			if obj.WriteLevel() == access.Forbidden {
				err = decoferr.ErrAccessDenied()
			} else {
				err = decoferr.ErrInvalidParameter()
			}
			return
		}
		if !access.CanWrite(c.Userlevel(), obj.WriteLevel()) {
			err = decoferr.ErrAccessDenied()
			return
		}
		if typed, ok := obj.(object.Typed); ok && v.Kind() != typed.ValueKind() {
			err = decoferr.ErrWrongType(fmt.Sprintf("expected %s, got %s", typed.ValueKind(), v.Kind()))
			return
		}
		err = writable.Write(v)
	})
	return err
}

// Signal resolves uri to an Event and runs it, subject to the same
// write-level gate as Set (spec §4.4).
func (c *Context) Signal(uri string) (err error) {
	c.enter(func() {
		if c.Userlevel() == access.Readonly {
			err = decoferr.ErrAccessDenied()
			return
		}
		obj, ok := c.dict.Resolve(uri)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		ev, ok := obj.(*object.Event)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		if !access.CanWrite(c.Userlevel(), obj.WriteLevel()) {
			err = decoferr.ErrAccessDenied()
			return
		}
		err = ev.Signal()
	})
	return err
}

// Observe subscribes to uri's value changes, delivering them to notify
// until Unobserve is called for the same uri. Re-observing an
// already-observed uri delivers the current value once immediately
// instead of erroring (original_source's documented TODO "raise error
// or deliver value?" resolved in favor of delivery, the more
// client-friendly of the two and the one that keeps a reconnect or a
// duplicate subscribe idempotent).
func (c *Context) Observe(uri string, notify func(value.Value)) (snapshot value.Value, err error) {
	c.enter(func() {
		c.mu.Lock()
		_, already := c.observations[uri]
		c.mu.Unlock()

		obj, ok := c.dict.Resolve(uri)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		observable, ok := obj.(object.Observable)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		if !access.CanRead(c.EffectiveUserlevel(), obj.ReadLevel()) {
			err = decoferr.ErrAccessDenied()
			return
		}

		if already {
			if readable, ok := obj.(object.Readable); ok {
				snapshot, err = readable.Read()
			}
			return
		}

		var cancel func()
		snapshot, cancel, err = observable.Observe(notify)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.observations[uri] = cancel
		c.mu.Unlock()
	})
	return snapshot, err
}

// Unobserve cancels a prior Observe subscription. Unobserving a uri
// that was never observed is a NotSubscribed error (spec §7).
func (c *Context) Unobserve(uri string) (err error) {
	c.enter(func() {
		c.mu.Lock()
		cancel, ok := c.observations[uri]
		if ok {
			delete(c.observations, uri)
		}
		c.mu.Unlock()

		if !ok {
			err = decoferr.ErrNotSubscribed()
			return
		}
		cancel()
	})
	return err
}

// UnobserveAll cancels every live subscription, used on connection
// teardown so a disconnecting client leaks no observer slots.
func (c *Context) UnobserveAll() {
	c.mu.Lock()
	cancels := make([]func(), 0, len(c.observations))
	for uri, cancel := range c.observations {
		cancels = append(cancels, cancel)
		delete(c.observations, uri)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// BrowseEntry is one node visited by Browse, in pre-order.
type BrowseEntry struct {
	Object object.Object
	Depth  int
}

// Browse recursively walks the tree from rootURI (the dictionary root
// if empty), in pre-order, invoking visit for every object the
// context's effective userlevel may read. A Node's children are
// descended into only if the Node itself passed the filter (spec
// original_source client_context::browse_object's recursive filtered
// walk).
func (c *Context) Browse(rootURI string, visit func(BrowseEntry)) (err error) {
	c.enter(func() {
		uri := rootURI
		if uri == "" {
			uri = c.dict.Root().Name()
		}
		obj, ok := c.dict.Resolve(uri)
		if !ok {
			err = decoferr.ErrInvalidParameter()
			return
		}
		c.browseObject(obj, 0, visit)
	})
	return err
}

func (c *Context) browseObject(obj object.Object, depth int, visit func(BrowseEntry)) {
	visit(BrowseEntry{Object: obj, Depth: depth})

	node, ok := obj.(*object.Node)
	if !ok {
		return
	}
	for _, child := range node.Children() {
		if access.CanRead(c.EffectiveUserlevel(), child.ReadLevel()) {
			c.browseObject(child, depth+1, visit)
		}
	}
}

// Tick fires every shared timer once (spec §4.5/§6), used by protocol
// front ends that drive polling from their own event loop rather than a
// dedicated ticker (original_source client_context::tick ->
// object_dictionary::tick).
func (c *Context) Tick() {
	c.enter(func() {
		c.dict.TickFast()
		c.dict.TickMedium()
		c.dict.TickSlow()
	})
}
