// Package value implements the closed, tagged value universe shared by
// every decof protocol: booleans, integers, reals, strings, binary blobs,
// homogeneous sequences of those, and heterogeneous tuples (spec §3).
//
// A Value carries its own Kind tag so a consumer may always inspect what
// it holds (I1); the conversion helpers in convert.go implement the
// lossless dynamic<->static boundary (I2).
package value

import "fmt"

// Kind tags the concrete shape a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindBoolean
	KindInteger
	KindReal
	KindString
	KindBinary
	KindBooleanSeq
	KindIntegerSeq
	KindRealSeq
	KindStringSeq
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindBooleanSeq:
		return "boolean_seq"
	case KindIntegerSeq:
		return "integer_seq"
	case KindRealSeq:
		return "real_seq"
	case KindStringSeq:
		return "string_seq"
	case KindTuple:
		return "tuple"
	default:
		return "invalid"
	}
}

// IsSequence reports whether k is one of the homogeneous sequence kinds.
func (k Kind) IsSequence() bool {
	switch k {
	case KindBooleanSeq, KindIntegerSeq, KindRealSeq, KindStringSeq:
		return true
	default:
		return false
	}
}

// IsScalar reports whether k is one of the five scalar kinds.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBoolean, KindInteger, KindReal, KindString, KindBinary:
		return true
	default:
		return false
	}
}

// Value is the single dynamic container every wire protocol and every
// managed parameter exchanges. Exactly one of the fields below is
// meaningful, selected by Kind; scalar sequences reuse the Go slice
// fields, binary sequences are represented as StringSeq at the Kind
// level by callers that need them (decof proper has no dedicated
// binary_seq Kind — see DESIGN.md open question 2).
type Value struct {
	kind       Kind
	boolean    bool
	integer    int64
	real       float64
	str        string
	binary     []byte
	booleanSeq []bool
	integerSeq []int64
	realSeq    []float64
	stringSeq  []string
	tuple      []Value
}

func (v Value) Kind() Kind { return v.kind }

func Boolean(b bool) Value { return Value{kind: KindBoolean, boolean: b} }
func Integer(i int64) Value { return Value{kind: KindInteger, integer: i} }
func Real(r float64) Value { return Value{kind: KindReal, real: r} }
func String(s string) Value { return Value{kind: KindString, str: s} }

func Binary(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBinary, binary: cp}
}

func BooleanSeq(b []bool) Value {
	cp := make([]bool, len(b))
	copy(cp, b)
	return Value{kind: KindBooleanSeq, booleanSeq: cp}
}

func IntegerSeq(i []int64) Value {
	cp := make([]int64, len(i))
	copy(cp, i)
	return Value{kind: KindIntegerSeq, integerSeq: cp}
}

func RealSeq(r []float64) Value {
	cp := make([]float64, len(r))
	copy(cp, r)
	return Value{kind: KindRealSeq, realSeq: cp}
}

func StringSeq(s []string) Value {
	cp := make([]string, len(s))
	copy(cp, s)
	return Value{kind: KindStringSeq, stringSeq: cp}
}

func Tuple(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindTuple, tuple: cp}
}

// Accessors panic if Kind doesn't match; callers that accept any tag
// should switch on Kind() first (this mirrors cc-backend's pattern of
// typed getters on a tagged schema struct).

func (v Value) Boolean() bool {
	v.mustBe(KindBoolean)
	return v.boolean
}

func (v Value) Integer() int64 {
	v.mustBe(KindInteger)
	return v.integer
}

func (v Value) Real() float64 {
	v.mustBe(KindReal)
	return v.real
}

func (v Value) String() string {
	v.mustBe(KindString)
	return v.str
}

// GoString renders a Value for debug/log output regardless of its kind,
// without the panic-on-mismatch discipline of the typed accessors.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBoolean:
		return fmt.Sprintf("%v", v.boolean)
	case KindInteger:
		return fmt.Sprintf("%d", v.integer)
	case KindReal:
		return fmt.Sprintf("%g", v.real)
	default:
		return fmt.Sprintf("<%s value>", v.kind)
	}
}

func (v Value) Binary() []byte {
	v.mustBe(KindBinary)
	cp := make([]byte, len(v.binary))
	copy(cp, v.binary)
	return cp
}

func (v Value) BooleanSeq() []bool {
	v.mustBe(KindBooleanSeq)
	cp := make([]bool, len(v.booleanSeq))
	copy(cp, v.booleanSeq)
	return cp
}

func (v Value) IntegerSeq() []int64 {
	v.mustBe(KindIntegerSeq)
	cp := make([]int64, len(v.integerSeq))
	copy(cp, v.integerSeq)
	return cp
}

func (v Value) RealSeq() []float64 {
	v.mustBe(KindRealSeq)
	cp := make([]float64, len(v.realSeq))
	copy(cp, v.realSeq)
	return cp
}

func (v Value) StringSeq() []string {
	v.mustBe(KindStringSeq)
	cp := make([]string, len(v.stringSeq))
	copy(cp, v.stringSeq)
	return cp
}

func (v Value) Tuple() []Value {
	v.mustBe(KindTuple)
	cp := make([]Value, len(v.tuple))
	copy(cp, v.tuple)
	return cp
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: accessed as %s but holds %s", k, v.kind))
	}
}

// Equal reports value equality within the same Kind; mismatched kinds are
// never equal. Used by managed-parameter write no-op detection (§4.3) and
// external-readonly change detection (§4.5).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBoolean:
		return a.boolean == b.boolean
	case KindInteger:
		return a.integer == b.integer
	case KindReal:
		return a.real == b.real
	case KindString:
		return a.str == b.str
	case KindBinary:
		return bytesEqual(a.binary, b.binary)
	case KindBooleanSeq:
		if len(a.booleanSeq) != len(b.booleanSeq) {
			return false
		}
		for i := range a.booleanSeq {
			if a.booleanSeq[i] != b.booleanSeq[i] {
				return false
			}
		}
		return true
	case KindIntegerSeq:
		if len(a.integerSeq) != len(b.integerSeq) {
			return false
		}
		for i := range a.integerSeq {
			if a.integerSeq[i] != b.integerSeq[i] {
				return false
			}
		}
		return true
	case KindRealSeq:
		if len(a.realSeq) != len(b.realSeq) {
			return false
		}
		for i := range a.realSeq {
			if a.realSeq[i] != b.realSeq[i] {
				return false
			}
		}
		return true
	case KindStringSeq:
		if len(a.stringSeq) != len(b.stringSeq) {
			return false
		}
		for i := range a.stringSeq {
			if a.stringSeq[i] != b.stringSeq[i] {
				return false
			}
		}
		return true
	case KindTuple:
		if len(a.tuple) != len(b.tuple) {
			return false
		}
		for i := range a.tuple {
			if !Equal(a.tuple[i], b.tuple[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
