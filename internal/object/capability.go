package object

import "github.com/decof-project/decofd/pkg/value"

// Readable, Writable and Observable are the three capability interfaces
// of spec §3's "Polymorphic over the capability set {readable, writable,
// observable}". A parameter variant implements whichever subset its kind
// supports; callers (internal/clientcontext) type-assert against these
// instead of a single fat interface so an unsupported operation is a
// compile-time-visible absence rather than a runtime stub.

// Readable is implemented by every parameter variant except write-only.
type Readable interface {
	Read() (value.Value, error)
}

// Writable is implemented by managed read-write, external read-write and
// write-only parameters.
type Writable interface {
	Write(v value.Value) error
}

// Observable is implemented by every parameter variant with readable
// state (managed and external parameters, but not write-only or Event).
type Observable interface {
	// Observe attaches notify and returns the current value as the
	// "initial snapshot" (spec §4.3). The returned cancel function
	// detaches the subscription; calling it more than once is harmless.
	Observe(notify func(value.Value)) (snapshot value.Value, cancel func(), err error)
}

// Typed is implemented by parameter variants; ValueKind returns the
// value.Kind the variant stores, used by the conversion layer and the
// browse/tree renderers.
type Typed interface {
	ValueKind() value.Kind
}
