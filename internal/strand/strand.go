// Package strand implements the single serial executor that every
// dictionary mutation and timer tick runs through, giving the ordering
// guarantees of spec §5 (O1-O4: a write's observers see it before the
// write's response is sent; two requests from the same context are
// applied in submission order; ticks never interleave with requests).
//
// Grounded on original_source's reliance on a single
// boost::asio::io_service (run from one thread) to serialize every
// object_dictionary mutation; re-expressed as a Go worker-loop consuming
// a buffered job channel, the idiomatic replacement for a single-thread
// io_service when no direct library equivalent exists in the example
// corpus (this and pkg/value/grammar are the two components built
// directly on stdlib concurrency primitives rather than a pack
// library — see DESIGN.md).
package strand

import "sync"

// Strand runs submitted jobs one at a time, in submission order, on a
// single internal goroutine.
type Strand struct {
	jobs chan func()

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a Strand with the given job queue depth. A depth of 0
// makes every Post block until the running job completes.
func New(queueDepth int) *Strand {
	s := &Strand{
		jobs: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Strand) loop() {
	defer close(s.done)
	for fn := range s.jobs {
		fn()
	}
}

// Post enqueues fn to run on the strand and returns immediately,
// without waiting for it to run (fire-and-forget; used for timer
// ticks, spec §6).
func (s *Strand) Post(fn func()) {
	s.jobs <- fn
}

// Run enqueues fn and blocks until it has finished executing on the
// strand. Used by every client-context
// request so the protocol handler can write its response only after the
// mutation (and any resulting observer notification) has completed
// (spec §5 O1).
func (s *Strand) Run(fn func()) {
	done := make(chan struct{})
	s.jobs <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// Close stops accepting new jobs and waits for the queue to drain and
// the worker goroutine to exit. Close is idempotent.
func (s *Strand) Close() {
	s.closeOnce.Do(func() {
		close(s.jobs)
	})
	<-s.done
}
