package dynbuf

// Slot is a fixed-size-record allocator: every entry occupies the same
// aligned slice size, so allocation is just LIFO free-slot recycling or
// bumping a watermark, with no buddy tree at all. This backs per-instance
// uniform-shaped data such as transforms and materials.
type Slot[K comparable] struct {
	raw             []byte
	dirty           []DirtyRange
	slotIndices     map[K]int
	freeSlots       []int // LIFO: Insert pops from the end
	capacitySlots   int
	nextSlot        int
	byteSize        int // logical record size written/read by the caller
	alignedSlice    int // stride between slots in raw, >= byteSize
	needsResize     bool
	label           string
}

// NewSlot creates a Slot buffer with room for initialCapacity records of
// byteSize bytes each, striding alignedSlice bytes apart (pass byteSize for
// alignedSlice when no extra alignment is needed).
func NewSlot[K comparable](initialCapacity, byteSize, alignedSlice int, label string) *Slot[K] {
	if alignedSlice < byteSize {
		alignedSlice = byteSize
	}
	if initialCapacity < 1 {
		initialCapacity = 1
	}

	free := make([]int, initialCapacity)
	for i := range free {
		free[i] = initialCapacity - 1 - i // reversed: slot 0 is popped first
	}

	return &Slot[K]{
		raw:           make([]byte, initialCapacity*alignedSlice),
		slotIndices:   make(map[K]int),
		freeSlots:     free,
		capacitySlots: initialCapacity,
		nextSlot:      initialCapacity, // slots below this are already on the free list
		byteSize:      byteSize,
		alignedSlice:  alignedSlice,
		label:         label,
	}
}

// Label returns the buffer's debug label.
func (s *Slot[K]) Label() string { return s.label }

// Bytes returns the current CPU-side mirror. The returned slice aliases
// internal storage and must not be retained past the next mutating call.
func (s *Slot[K]) Bytes() []byte { return s.raw }

// Len returns the current buffer capacity in bytes.
func (s *Slot[K]) Len() int { return len(s.raw) }

// Count returns the number of live entries.
func (s *Slot[K]) Count() int { return len(s.slotIndices) }

// Update writes value into key's slot, allocating one on first use. If key
// already has a slot it is reused in place — slots are never resized, only
// recycled, so a key's offset stays stable across calls until Remove.
func (s *Slot[K]) Update(key K, value []byte) {
	offset := s.offsetFor(key)
	n := copy(s.raw[offset:offset+s.byteSize], value)
	for i := offset + n; i < offset+s.byteSize; i++ {
		s.raw[i] = 0
	}
	s.markDirty(offset, s.byteSize)
}

// offsetFor returns the byte offset for key's slot, allocating one if key
// is new.
func (s *Slot[K]) offsetFor(key K) int {
	if idx, ok := s.slotIndices[key]; ok {
		return idx * s.alignedSlice
	}

	var idx int
	if n := len(s.freeSlots); n > 0 {
		idx = s.freeSlots[n-1]
		s.freeSlots = s.freeSlots[:n-1]
	} else {
		idx = s.nextSlot
		if (s.nextSlot+1)*s.alignedSlice > len(s.raw) {
			s.resize(s.nextSlot + 1)
		}
		s.nextSlot++
	}
	s.slotIndices[key] = idx
	return idx * s.alignedSlice
}

// Offset returns the byte offset of key's slot.
func (s *Slot[K]) Offset(key K) (offset int, ok bool) {
	idx, ok := s.slotIndices[key]
	if !ok {
		return 0, false
	}
	return idx * s.alignedSlice, true
}

// Remove frees key's slot for reuse and zero-fills its bytes. A slot freed
// this way is recycled LIFO by the next Update on a new key.
func (s *Slot[K]) Remove(key K) {
	idx, ok := s.slotIndices[key]
	if !ok {
		return
	}
	offset := idx * s.alignedSlice
	for i := offset; i < offset+s.byteSize; i++ {
		s.raw[i] = 0
	}
	s.markDirty(offset, s.byteSize)
	s.freeSlots = append(s.freeSlots, idx)
	delete(s.slotIndices, key)
}

// resize grows capacity to at least requiredSlots, doubling from the
// current capacity. Per the original allocator's accepted trade-off, slots
// in [requiredSlots, newCapacity) become free immediately, but the range
// [capacitySlots, requiredSlots) — the slots a caller could have addressed
// under the old capacity had it grown less eagerly — is skipped and only
// becomes usable after a later grow pushes nextSlot/freeSlots past it. This
// means some byte range in raw briefly exists but is not yet allocatable;
// callers relying on dense slot packing must not assume every byte up to
// nextSlot*alignedSlice is meaningful immediately after a resize.
func (s *Slot[K]) resize(requiredSlots int) {
	newCapacity := s.capacitySlots
	if requiredSlots > newCapacity {
		newCapacity = requiredSlots
	}
	newCapacity *= 2

	grown := make([]byte, newCapacity*s.alignedSlice)
	copy(grown, s.raw)
	s.raw = grown

	for i := requiredSlots; i < newCapacity; i++ {
		s.freeSlots = append(s.freeSlots, i)
	}
	s.nextSlot = newCapacity
	s.capacitySlots = newCapacity
	s.needsResize = true
}

func (s *Slot[K]) markDirty(offset, size int) {
	start := offset &^ 3
	end := (offset + size + 3) &^ 3
	if end > len(s.raw) {
		end = len(s.raw)
	}
	if start > end {
		start = end
	}
	s.dirty = append(s.dirty, DirtyRange{Start: start, End: end})
}

// TakeDirtyRanges returns and clears the accumulated dirty ranges since the
// last call.
func (s *Slot[K]) TakeDirtyRanges() []DirtyRange {
	if len(s.dirty) == 0 {
		return nil
	}
	out := s.dirty
	s.dirty = nil
	return out
}

// TakeNeedsResize reports and clears whether the backing GPU buffer must be
// recreated at the new, larger capacity.
func (s *Slot[K]) TakeNeedsResize() (newSize int, needs bool) {
	if !s.needsResize {
		return 0, false
	}
	s.needsResize = false
	return len(s.raw), true
}
