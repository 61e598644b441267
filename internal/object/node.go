package object

import (
	"fmt"
	"sync"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/pkg/value"
)

// Node is an Object whose value is the ordered sequence of its
// children's short names (spec §3). It owns its children; insertion
// order is preserved and Children() returns a stable snapshot so a
// traversal may remove the current child safely (spec §4.2).
//
// Grounded on cc-backend's internal/memorystore/level.go Level type
// (map[string]*Level children guarded by sync.RWMutex), generalized
// with an explicit order slice since decof's tree/browse listings must
// preserve insertion order, which a bare map cannot.
type Node struct {
	Base

	mu       sync.RWMutex
	children map[string]Object
	order    []string
}

// NewNode creates a node with the given short name and read-level. Its
// write-level is always Forbidden (I6: it is an implicit read-only
// parameter).
func NewNode(name string, readLevel access.Userlevel) *Node {
	return &Node{
		Base:     NewBase(name, readLevel, access.Forbidden),
		children: make(map[string]Object),
	}
}

func (n *Node) Kind() Kind { return KindNode }

// Read returns the node's value: the ordered sequence of child short
// names.
func (n *Node) Read() (value.Value, error) {
	return value.StringSeq(n.ChildNames()), nil
}

// AddChild inserts child under n. Returns an error if a sibling with the
// same short name already exists (spec §4.2-b: "the implementer reject
// duplicates at construction time"). Re-parenting: if child is currently
// attached elsewhere, it is detached from its prior parent first.
//
// Callers are expected to run on the single dictionary strand (spec §5);
// AddChild locks at most two distinct Node mutexes (the previous parent,
// then n) and never the same Node twice, so no lock-ordering deadlock
// arises under that discipline.
func (n *Node) AddChild(child Object) error {
	if prev := child.parentNode(); prev != nil {
		prev.RemoveChild(child.Name())
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	name := child.Name()
	if _, exists := n.children[name]; exists {
		return fmt.Errorf("object: duplicate child name %q under %q", name, n.FQN())
	}

	child.setParent(n)
	n.children[name] = child
	n.order = append(n.order, name)
	return nil
}

// RemoveChild detaches and returns the named child, if any.
func (n *Node) RemoveChild(name string) (Object, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	child, ok := n.children[name]
	if !ok {
		return nil, false
	}
	n.removeChildLocked(name, child)
	return child, true
}

// removeChildLocked removes name from n's bookkeeping; n.mu must already
// be held by the caller. Used both by RemoveChild and by AddChild's
// re-parenting path (acquiring the *other* node's lock, never n's own
// twice).
func (n *Node) removeChildLocked(name string, child Object) {
	delete(n.children, name)
	for i, o := range n.order {
		if o == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	child.setParent(nil)
}

// RemoveAllChildren detaches every child, used by a node's own teardown
// so destroying a parent detaches remaining children first (spec §4.2).
func (n *Node) RemoveAllChildren() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, name := range append([]string(nil), n.order...) {
		if child, ok := n.children[name]; ok {
			n.removeChildLocked(name, child)
		}
	}
}

// Find looks up a direct child by short name.
func (n *Node) Find(name string) (Object, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.children[name]
	return c, ok
}

// Children returns a stable, insertion-ordered snapshot of the node's
// children. Safe to iterate while concurrently mutating the live tree.
func (n *Node) Children() []Object {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Object, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

// ChildNames returns the insertion-ordered short names of n's children.
func (n *Node) ChildNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}
