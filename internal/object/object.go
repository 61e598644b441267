// Package object implements the decof object model of spec §3/§4.2/§4.3:
// Object, Node, the six parameter variants, and Event, each carrying a
// short name, read/write userlevels, and a parent back-reference.
//
// Grounded on cc-backend's internal/memorystore/level.go Level type
// (map[string]*Level children, insertion-ordered traversal, recursive
// RWMutex-guarded walk), generalized from a metric-sample tree to a
// typed-parameter object tree.
package object

import (
	"fmt"
	"strings"
	"sync"

	"github.com/decof-project/decofd/internal/access"
)

// Kind distinguishes concrete object categories for the browse/tree
// renderers (spec §9: "a sum type with an explicit match... is the
// language-neutral equivalent" of the original's per-type virtual
// dispatch).
type Kind int

const (
	KindNode Kind = iota
	KindEvent
	KindParamBoolean
	KindParamInteger
	KindParamReal
	KindParamString
	KindParamBinary
	KindParamBooleanSeq
	KindParamIntegerSeq
	KindParamRealSeq
	KindParamStringSeq
	KindParamTuple
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "NODE"
	case KindEvent:
		return "EVENT"
	case KindParamBoolean, KindParamInteger, KindParamReal, KindParamString,
		KindParamBinary, KindParamBooleanSeq, KindParamIntegerSeq,
		KindParamRealSeq, KindParamStringSeq, KindParamTuple:
		return "PARAM"
	default:
		return "UNKNOWN"
	}
}

// TypeName returns the wire type name used by the browse XML/tree
// renderers (BOOLEAN, INTEGER_SEQ, TUPLE, ...).
func (k Kind) TypeName() string {
	switch k {
	case KindParamBoolean:
		return "BOOLEAN"
	case KindParamInteger:
		return "INTEGER"
	case KindParamReal:
		return "REAL"
	case KindParamString:
		return "STRING"
	case KindParamBinary:
		return "BINARY"
	case KindParamBooleanSeq:
		return "BOOLEAN_SEQ"
	case KindParamIntegerSeq:
		return "INTEGER_SEQ"
	case KindParamRealSeq:
		return "REAL_SEQ"
	case KindParamStringSeq:
		return "STRING_SEQ"
	case KindParamTuple:
		return "TUPLE"
	case KindNode:
		return "NODE"
	case KindEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// ErrDetached is the sentinel error for an object whose parent link has
// been severed. No accessor in this package returns it: FQN returns a
// plain string and stops at the topmost remaining ancestor.
var ErrDetached = fmt.Errorf("object: detached from tree")

// Separator is the default URI path separator (spec §4.1); the SCGI
// context substitutes '/' for its own URIs at a higher layer.
const Separator = ":"

// Object is the common interface satisfied by every tree entity: Node,
// every Parameter variant, and Event (spec §3's "Object" base entity,
// I4).
type Object interface {
	Name() string
	FQN() string
	ReadLevel() access.Userlevel
	WriteLevel() access.Userlevel
	Kind() Kind
	parentNode() *Node
	setParent(*Node)
}

// Base implements the fields and bookkeeping shared by every Object:
// short name, parent back-reference, and read/write levels (spec §3's
// Object attributes).
type Base struct {
	mu         sync.RWMutex
	name       string
	parent     *Node
	readLevel  access.Userlevel
	writeLevel access.Userlevel
	detached   bool
}

// NewBase validates the short name (spec §4.2-a: non-empty, no
// separator character) and returns an initialized Base.
func NewBase(name string, readLevel, writeLevel access.Userlevel) Base {
	if name == "" || strings.Contains(name, Separator) {
		panic(fmt.Sprintf("object: invalid short name %q", name))
	}
	return Base{name: name, readLevel: readLevel, writeLevel: writeLevel}
}

func (b *Base) Name() string                    { return b.name }
func (b *Base) ReadLevel() access.Userlevel      { return b.readLevel }
func (b *Base) WriteLevel() access.Userlevel     { return b.writeLevel }
func (b *Base) parentNode() *Node {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.parent
}

func (b *Base) setParent(p *Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = p
	b.detached = p == nil
}

// FQN materializes the fully qualified, colon-separated path from the
// root by ascending parent pointers (spec I4). Computed on demand, never
// cached, since a reparented object's FQN changes immediately.
func (b *Base) FQN() string {
	names := []string{b.name}
	cur := b.parentNode()
	for cur != nil {
		names = append(names, cur.Name())
		cur = cur.parentNode()
	}
	// names is leaf-to-root; reverse to root-to-leaf.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, Separator)
}
