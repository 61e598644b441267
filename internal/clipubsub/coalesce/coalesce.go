// Package coalesce implements the per-context coalescing update buffer
// of spec §4.8: an ordered map from URI to (value, timestamp) holding at
// most one pending update per URI.
//
// Grounded on original_source include/decof/cli/update_container.h
// (container_type = ordered map + remembered front/back iterators).
// Re-expressed with container/list + a URI index instead of the
// original's intrusive iterator bookkeeping, since Go's container/list
// gives O(1) move-to-tail directly via Remove+PushBack.
//
// Re-insertion policy: move to tail, single surviving entry per URI
// (the open question of spec §9 resolved in DESIGN.md).
package coalesce

import (
	"container/list"
	"sync"
	"time"

	"github.com/decof-project/decofd/pkg/value"
)

// Update is one pending notification.
type Update struct {
	URI       string
	Value     value.Value
	Timestamp time.Time
}

// Buffer is a FIFO of at most one pending Update per URI. Pushing a URI
// already present moves it to the tail with the new value and
// timestamp, per the move-to-tail policy.
type Buffer struct {
	mu    sync.Mutex
	order *list.List
	index map[string]*list.Element
}

func New() *Buffer {
	return &Buffer{order: list.New(), index: make(map[string]*list.Element)}
}

// Push records an update for uri, replacing and re-queuing to the tail
// any update already pending for the same uri.
func (b *Buffer) Push(uri string, v value.Value, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.index[uri]; ok {
		b.order.Remove(el)
	}
	el := b.order.PushBack(&Update{URI: uri, Value: v, Timestamp: ts})
	b.index[uri] = el
}

// PopFront removes and returns the head of the queue. ok is false if
// the buffer is empty.
func (b *Buffer) PopFront() (u Update, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	el := b.order.Front()
	if el == nil {
		return Update{}, false
	}
	b.order.Remove(el)
	upd := el.Value.(*Update)
	delete(b.index, upd.URI)
	return *upd, true
}

// Empty reports whether the buffer currently holds no pending updates.
func (b *Buffer) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len() == 0
}

// Len reports the number of distinct URIs currently pending.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len()
}
