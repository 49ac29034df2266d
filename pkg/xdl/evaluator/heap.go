package evaluator

import "sync"

// Heap stores values behind pointer handles created by PTR_NEW.
// Handles stay valid until PTR_FREE; there is no garbage collection.
type Heap struct {
	mu    sync.Mutex
	next  int64
	slots map[int64]Object
}

// NewHeap creates an empty heap. Handle 0 is the null pointer and is
// never allocated.
func NewHeap() *Heap {
	return &Heap{next: 1, slots: make(map[int64]Object)}
}

// Alloc stores a value and returns its handle
func (h *Heap) Alloc(val Object) *Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.slots[id] = val
	return &Pointer{ID: id}
}

// Deref returns the value behind a handle
func (h *Heap) Deref(id int64) (Object, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.slots[id]
	return v, ok
}

// Assign replaces the value behind a live handle
func (h *Heap) Assign(id int64, val Object) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.slots[id]; !ok {
		return false
	}
	h.slots[id] = val
	return true
}

// Free releases a handle. Freeing an invalid handle is a no-op.
func (h *Heap) Free(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.slots, id)
}

// Valid reports whether the handle points at a live value
func (h *Heap) Valid(id int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.slots[id]
	return ok
}

// Count returns the number of live handles
func (h *Heap) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.slots)
}
