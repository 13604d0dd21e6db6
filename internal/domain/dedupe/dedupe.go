// Package dedupe tracks client submission keys so a retried upload maps back
// to the assessment it already created.
package dedupe

import (
	"context"
	"sync"
)

// Deduper remembers which assessment each submission key produced.
type Deduper interface {
	// Claim binds key to id unless key is already bound. It returns the bound
	// id and whether this call made the binding.
	Claim(ctx context.Context, key, id string) (string, bool)

	// Release forgets key so a failed submission can be retried under it.
	Release(ctx context.Context, key string)

	Size() int
}

// entry is one key in the eviction list, oldest at the tail.
type entry struct {
	key, id    string
	prev, next *entry
}

// window implements Deduper over a map and a doubly linked list. Once full,
// the oldest claim is evicted first.
type window struct {
	mu      sync.Mutex
	byKey   map[string]*entry
	head    *entry
	tail    *entry
	maxSize int
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	w := &window{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.byKey = make(map[string]*entry)
	return w
}

func (w *window) Claim(_ context.Context, key, id string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.byKey[key]; ok {
		return e.id, false
	}
	if w.maxSize > 0 && len(w.byKey) >= w.maxSize {
		w.unlink(w.tail)
	}
	e := &entry{key: key, id: id, next: w.head}
	if w.head != nil {
		w.head.prev = e
	}
	w.head = e
	if w.tail == nil {
		w.tail = e
	}
	w.byKey[key] = e
	return id, true
}

func (w *window) Release(_ context.Context, key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.byKey[key]; ok {
		w.unlink(e)
	}
}

// unlink removes e from the list and the map. Callers hold w.mu.
func (w *window) unlink(e *entry) {
	if e == nil {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		w.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		w.tail = e.prev
	}
	delete(w.byKey, e.key)
}

func (w *window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byKey)
}
