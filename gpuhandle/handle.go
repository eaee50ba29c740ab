// Package gpuhandle implements the stable, generational handles that every
// GPU-backed entity in the renderer is addressed by (spec "Stable handles").
//
// A Handle is an (index, generation) pair: small, trivially copyable, and
// only valid while its owning Table still holds the entry it was minted
// for. Looking up a stale handle is a typed "not found" failure, never a
// crash — this mirrors the teacher's sentinel-error convention
// (internal/gpu's ErrBufferDestroyed, rendererror's ErrTextureNotFound,
// ...) rather than panicking on misuse.
package gpuhandle

import "fmt"

// Handle is an opaque, generational reference into a Table.
//
// The zero Handle is never issued by Table.Insert and is reserved to mean
// "no handle" for optional fields (e.g. a mesh instance with no skin).
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the reserved zero handle.
func (h Handle) IsZero() bool { return h.index == 0 && h.generation == 0 }

// String renders the handle for debugging/log lines.
func (h Handle) String() string {
	return fmt.Sprintf("#%d/%d", h.index, h.generation)
}

// Table is a generational slot table offering O(1) insert/remove/lookup and
// dense iteration. It is the single data structure backing every handle
// family named in the spec (TextureKey, MeshKey, TransformKey, ...); callers
// wrap Table in a named type per family so handles from different tables
// are not interchangeable at compile time (see e.g. MeshKey in families.go).
type Table[V any] struct {
	slots   []slot[V]
	freeIdx []uint32 // free list, LIFO reuse of generation-bumped slots
	count   int
}

type slot[V any] struct {
	value      V
	generation uint32
	occupied   bool
}

// New creates an empty handle table.
func New[V any]() *Table[V] {
	return &Table[V]{}
}

// Insert stores value under a freshly minted handle and returns it.
func (t *Table[V]) Insert(value V) Handle {
	if n := len(t.freeIdx); n > 0 {
		idx := t.freeIdx[n-1]
		t.freeIdx = t.freeIdx[:n-1]
		s := &t.slots[idx]
		s.value = value
		s.occupied = true
		t.count++
		return Handle{index: idx + 1, generation: s.generation}
	}

	t.slots = append(t.slots, slot[V]{value: value, generation: 1, occupied: true})
	t.count++
	return Handle{index: uint32(len(t.slots)), generation: 1}
}

// Get returns the value for h and whether it is still live.
func (t *Table[V]) Get(h Handle) (V, bool) {
	var zero V
	if h.index == 0 || int(h.index) > len(t.slots) {
		return zero, false
	}
	s := &t.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return zero, false
	}
	return s.value, true
}

// MustGet panics if h does not resolve; reserved for internal invariants
// the caller has already checked, never for ordinary lookups.
func (t *Table[V]) MustGet(h Handle) V {
	v, ok := t.Get(h)
	if !ok {
		panic(fmt.Sprintf("gpuhandle: handle %s does not resolve", h))
	}
	return v
}

// Set overwrites the value stored at a live handle. Returns false if h is stale.
func (t *Table[V]) Set(h Handle, value V) bool {
	if h.index == 0 || int(h.index) > len(t.slots) {
		return false
	}
	s := &t.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return false
	}
	s.value = value
	return true
}

// Update applies f to the value stored at h in place. Returns false if h is stale.
func (t *Table[V]) Update(h Handle, f func(*V)) bool {
	if h.index == 0 || int(h.index) > len(t.slots) {
		return false
	}
	s := &t.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return false
	}
	f(&s.value)
	return true
}

// Remove drops the entry for h, bumping its generation so any copy of h
// becomes stale. Returns false if h was already stale.
func (t *Table[V]) Remove(h Handle) bool {
	if h.index == 0 || int(h.index) > len(t.slots) {
		return false
	}
	s := &t.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return false
	}
	var zero V
	s.value = zero
	s.occupied = false
	s.generation++
	t.freeIdx = append(t.freeIdx, h.index-1)
	t.count--
	return true
}

// Contains reports whether h currently resolves.
func (t *Table[V]) Contains(h Handle) bool {
	_, ok := t.Get(h)
	return ok
}

// Len returns the number of live entries.
func (t *Table[V]) Len() int { return t.count }

// Each calls f for every live (handle, value) pair in slot order. f must not
// insert into or remove from t.
func (t *Table[V]) Each(f func(Handle, V)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.occupied {
			f(Handle{index: uint32(i) + 1, generation: s.generation}, s.value)
		}
	}
}
