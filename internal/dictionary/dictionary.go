// Package dictionary implements the object dictionary of spec §4.1: the
// root node of the tree, URI resolution, the current-context guard, and
// ownership of the three shared polling timers.
//
// Grounded on original_source's object_dictionary.h/.cpp (root node
// wrapping, find_object/find_child colon-path walk, context_guard's
// paired set_current_context(cc)/set_current_context(nullptr) with its
// "one at a time" assertion) and cc-backend's internal/memorystore
// package-level singleton-store pattern, generalized to an explicit,
// constructed (non-singleton) type.
package dictionary

import (
	"fmt"
	"strings"
	"sync"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/object"
	"github.com/decof-project/decofd/internal/timer"
)

// Context is the minimal surface the dictionary needs from a connected
// client context to enforce the single-current-context invariant and to
// track membership; internal/clientcontext.Context implements it.
type Context interface {
	ID() string
}

// Dictionary owns the root of the object tree, the fast/medium/slow
// timers shared by every externally-backed parameter, and the set of
// currently connected client contexts.
type Dictionary struct {
	root      *object.Node
	separator byte

	fastTimer   *timer.Timer
	mediumTimer *timer.Timer
	slowTimer   *timer.Timer

	mu             sync.Mutex
	contexts       map[string]Context
	currentContext Context
}

// New creates a dictionary whose root node has the given name (spec
// §4.1's "root_uri"; New applies no default of its own, cmd/decofd passes
// the configured rootName). dispatch is the function every
// timer tick and every request is run through (internal/strand's serial
// executor); passing nil runs callbacks inline, which is adequate for
// tests that don't exercise concurrency.
func New(rootName string, dispatch func(func())) *Dictionary {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Dictionary{
		root:        object.NewNode(rootName, access.Readonly),
		separator:   ':',
		fastTimer:   timer.New(dispatch),
		mediumTimer: timer.New(dispatch),
		slowTimer:   timer.New(dispatch),
		contexts:    make(map[string]Context),
	}
}

// Root returns the dictionary's root node, the attachment point for
// every module's subtree.
func (d *Dictionary) Root() *object.Node { return d.root }

// SetSeparator overrides the URI path separator (':' by default). The
// SCGI façade does not call it: it rewrites its '/' paths to ':' before
// resolving them.
func (d *Dictionary) SetSeparator(sep byte) { d.separator = sep }

func (d *Dictionary) FastTimer() *timer.Timer   { return d.fastTimer }
func (d *Dictionary) MediumTimer() *timer.Timer { return d.mediumTimer }
func (d *Dictionary) SlowTimer() *timer.Timer   { return d.slowTimer }

// TickFast, TickMedium and TickSlow each fire one shared timer once;
// callers (cmd/decofd) drive each at its own period via a time.Ticker
// per spec §6's three named rates.
func (d *Dictionary) TickFast()   { d.fastTimer.Fire() }
func (d *Dictionary) TickMedium() { d.mediumTimer.Fire() }
func (d *Dictionary) TickSlow()   { d.slowTimer.Fire() }

// Resolve finds the object named by a colon- (or configured-separator-)
// path URI, e.g. "root:some:leaf". A leading separator is ignored. The
// bare root name resolves to the root node itself; any unresolved
// segment along the way (including a deeper sub-path against a
// non-Node) yields ok=false (spec §4.1's "no FQN match").
//
// Grounded on original_source object_dictionary::find_object +
// node::find_child's recursive colon-split walk.
func (d *Dictionary) Resolve(uri string) (object.Object, bool) {
	sep := string(d.separator)
	if strings.HasPrefix(uri, sep) {
		uri = uri[len(sep):]
	}

	rootName := d.root.Name()
	if uri == rootName {
		return d.root, true
	}
	prefix := rootName + sep
	if !strings.HasPrefix(uri, prefix) {
		return nil, false
	}

	cur := object.Object(d.root)
	for _, segment := range strings.Split(uri[len(prefix):], sep) {
		node, ok := cur.(*object.Node)
		if !ok {
			return nil, false
		}
		child, found := node.Find(segment)
		if !found {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// AddContext registers a connected client context (spec §4.1's
// client_contexts_ list; used by browse/diagnostics to enumerate active
// connections).
func (d *Dictionary) AddContext(c Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contexts[c.ID()] = c
}

// RemoveContext deregisters a disconnected client context.
func (d *Dictionary) RemoveContext(c Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.contexts, c.ID())
}

// Contexts returns a snapshot of currently connected client contexts.
func (d *Dictionary) Contexts() []Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Context, 0, len(d.contexts))
	for _, c := range d.contexts {
		out = append(out, c)
	}
	return out
}

// CountObjects walks the whole tree and returns the number of objects
// it contains, root included. Used by cmd/decofd's /debug mux to
// expose the dictionary's size as a telemetry gauge.
func (d *Dictionary) CountObjects() int {
	var count func(object.Object) int
	count = func(o object.Object) int {
		n, ok := o.(*object.Node)
		if !ok {
			return 1
		}
		total := 1
		for _, child := range n.Children() {
			total += count(child)
		}
		return total
	}
	return count(d.root)
}

// CurrentContext returns whichever client context is presently
// installed via EnterContext, or nil if none is.
func (d *Dictionary) CurrentContext() Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentContext
}

// EnterContext installs c as the current context for the duration of
// the returned guard's lifetime and must be released by calling the
// returned function exactly once. Installing a context while another is
// already installed is a programming error and panics immediately,
// mirroring original_source's paired assert in set_current_context:
// "(current == nullptr && cc != nullptr) || (current != nullptr && cc
// == nullptr)" — nesting is never valid because every request runs to
// completion on the single strand (spec §5) before the next begins.
func (d *Dictionary) EnterContext(c Context) (leave func()) {
	d.mu.Lock()
	if d.currentContext != nil {
		d.mu.Unlock()
		panic(fmt.Sprintf("dictionary: nested context installation: %q while %q is active", c.ID(), d.currentContext.ID()))
	}
	d.currentContext = c
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.currentContext != c {
			panic("dictionary: context guard released out of order")
		}
		d.currentContext = nil
	}
}
