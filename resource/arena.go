package resource

import (
	"errors"
	"sync"
)

// ErrClosed is returned when inserting into a closed arena.
var ErrClosed = errors.New("resource arena closed")

// Arena is an indexable collection addressed by generation-tagged handles.
// Removing a value bumps its slot's generation, so handles issued before the
// removal never resolve to whatever reuses the slot.
type Arena[T any] struct {
	entries   []entry[T]
	freeList  []uint32
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry[T any] struct {
	value T
	gen   uint32
	valid bool
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		entries:  make([]entry[T], 0, 16),
		freeList: make([]uint32, 0, 8),
	}
}

// Insert stores a value and returns its handle.
func (a *Arena[T]) Insert(value T) (Handle, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return 0, ErrClosed
	}

	var idx uint32
	if n := len(a.freeList); n > 0 {
		idx = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	} else {
		a.entries = append(a.entries, entry[T]{gen: 1})
		idx = uint32(len(a.entries) - 1)
	}
	e := &a.entries[idx]
	e.value = value
	e.valid = true
	h := makeHandle(idx, e.gen)
	a.mu.Unlock()

	a.notify(Event{Type: EventCreated, Handle: h, Value: value})
	return h, nil
}

// lookup returns the live entry for h. Caller holds a.mu.
func (a *Arena[T]) lookup(h Handle) *entry[T] {
	if !h.Valid() {
		return nil
	}
	idx := h.Index()
	if int(idx) >= len(a.entries) {
		return nil
	}
	e := &a.entries[idx]
	if !e.valid || e.gen != h.Generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle. Stale handles miss.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if e := a.lookup(h); e != nil {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Remove drops a value and returns it. A second Remove of the same handle misses.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T

	a.mu.Lock()
	e := a.lookup(h)
	if e == nil {
		a.mu.Unlock()
		return zero, false
	}
	value := e.value
	e.value = zero
	e.valid = false
	e.gen++
	a.freeList = append(a.freeList, h.Index())
	a.mu.Unlock()

	a.notify(Event{Type: EventDropped, Handle: h, Value: value})
	return value, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries) - len(a.freeList)
}

// Each iterates live values in slot order under the read lock. fn must not
// modify the arena.
func (a *Arena[T]) Each(fn func(Handle, T) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i := range a.entries {
		e := &a.entries[i]
		if !e.valid {
			continue
		}
		if !fn(makeHandle(uint32(i), e.gen), e.value) {
			return
		}
	}
}

// Handles returns a snapshot of every live handle. Values removed after the
// snapshot simply miss on Get.
func (a *Arena[T]) Handles() []Handle {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Handle, 0, len(a.entries)-len(a.freeList))
	for i := range a.entries {
		if e := &a.entries[i]; e.valid {
			out = append(out, makeHandle(uint32(i), e.gen))
		}
	}
	return out
}

// Subscribe adds an observer for lifecycle events.
func (a *Arena[T]) Subscribe(o Observer) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.observers = append(a.observers, o)
}

// Unsubscribe removes an observer.
func (a *Arena[T]) Unsubscribe(o Observer) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	for i, obs := range a.observers {
		if obs == o {
			a.observers = append(a.observers[:i], a.observers[i+1:]...)
			return
		}
	}
}

// Close releases every remaining value and stops accepting inserts.
// Values implementing Dropper are dropped.
func (a *Arena[T]) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	entries := a.entries
	a.entries = nil
	a.freeList = nil
	a.mu.Unlock()

	for i := range entries {
		if !entries[i].valid {
			continue
		}
		if d, ok := any(entries[i].value).(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (a *Arena[T]) notify(e Event) {
	a.obsMu.RLock()
	defer a.obsMu.RUnlock()
	for _, o := range a.observers {
		o.OnResourceEvent(e)
	}
}
