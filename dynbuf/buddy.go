// Package dynbuf implements the two dynamic, CPU-mirrored GPU buffer
// allocators used throughout the renderer: a buddy allocator for
// variable-size records (vertex/index/attribute data) and a fixed-size slot
// allocator for uniform-shaped records (per-instance transforms, materials).
//
// Both types keep a CPU-side byte mirror plus a set of dirty byte ranges;
// callers are responsible for flushing those ranges to the backing GPU
// buffer (internal/gpu.Buffer) once per frame and for recreating the GPU
// buffer when GPU capacity must grow.
package dynbuf

import (
	"errors"
	"fmt"
)

// minBlock is the smallest unit the buddy allocator ever hands out. Requests
// smaller than this are rounded up to it, trading a little waste for a
// shallow tree.
const minBlock = 256

// errAllocationAfterGrowFailed indicates an internal invariant violation: the
// buffer was grown to have enough free space for a request and the
// subsequent allocation still failed. This can only happen if the growth
// arithmetic is wrong, so it panics rather than returning an error.
var errAllocationAfterGrowFailed = errors.New("dynbuf: allocation after grow must succeed")

// DirtyRange is an inclusive-exclusive [Start, End) span of raw bytes that
// has changed since the last flush.
type DirtyRange struct {
	Start, End int
}

// Buddy is a variable-size buddy allocator over a single growable byte
// buffer. Keys are caller-supplied and opaque; Buddy does not care what type
// K is beyond comparing it for map lookups.
type Buddy[K comparable] struct {
	raw         []byte
	dirty       []DirtyRange
	tree        []int // complete binary tree; tree[i] = size of largest free block in that subtree
	leaves      int   // number of leaf blocks == len(raw)/minBlock
	slots       map[K]buddySlot
	needsResize bool
	label       string
}

type buddySlot struct {
	offset, size int
}

// NewBuddy creates a Buddy sized to hold at least initialBytes, rounded up
// to a power of two no smaller than minBlock.
func NewBuddy[K comparable](initialBytes int, label string) *Buddy[K] {
	if initialBytes < minBlock {
		initialBytes = minBlock
	}
	capacity := roundPow2(initialBytes)

	b := &Buddy[K]{
		raw:    make([]byte, capacity),
		leaves: capacity / minBlock,
		slots:  make(map[K]buddySlot),
		label:  label,
	}
	b.tree = make([]int, 2*b.leaves-1)
	b.initFull()
	return b
}

// Label returns the buffer's debug label, used in log lines and panics.
func (b *Buddy[K]) Label() string { return b.label }

// Bytes returns the current CPU-side mirror. The returned slice aliases
// internal storage and must not be retained past the next mutating call.
func (b *Buddy[K]) Bytes() []byte { return b.raw }

// Len returns the current buffer capacity in bytes.
func (b *Buddy[K]) Len() int { return len(b.raw) }

// initFull resets the buddy tree to a single free block covering the whole
// buffer, used both at construction and after a grow rebuild.
func (b *Buddy[K]) initFull() {
	b.initSubtree(0, b.leaves*minBlock)
}

func (b *Buddy[K]) initSubtree(node, blockSize int) int {
	if node >= len(b.tree) {
		return 0
	}
	b.tree[node] = blockSize
	if blockSize > minBlock {
		left, right := 2*node+1, 2*node+2
		if left < len(b.tree) {
			b.initSubtree(left, blockSize/2)
		}
		if right < len(b.tree) {
			b.initSubtree(right, blockSize/2)
		}
	}
	return blockSize
}

// Insert stores value under key, allocating a fresh block for it. It is the
// caller's responsibility to ensure key is not already present; use Update
// for overwrite-in-place semantics.
func (b *Buddy[K]) Insert(key K, value []byte) {
	req := roundPow2(max(len(value), minBlock))
	offset, ok := b.alloc(req)
	if !ok {
		b.grow(max(req, len(value)))
		offset, ok = b.alloc(req)
		if !ok {
			panic(fmt.Sprintf("dynbuf: %s: %v", b.label, errAllocationAfterGrowFailed))
		}
	}
	copy(b.raw[offset:offset+len(value)], value)
	for i := offset + len(value); i < offset+req; i++ {
		b.raw[i] = 0
	}
	b.slots[key] = buddySlot{offset: offset, size: req}
	b.markDirty(offset, req)
}

// Update overwrites the bytes for an existing key in place when the new
// value still fits in the previously allocated block, else it removes and
// reinserts under a (possibly larger) block.
func (b *Buddy[K]) Update(key K, value []byte) {
	slot, ok := b.slots[key]
	if !ok {
		b.Insert(key, value)
		return
	}
	if len(value) <= slot.size {
		copy(b.raw[slot.offset:slot.offset+len(value)], value)
		for i := slot.offset + len(value); i < slot.offset+slot.size; i++ {
			b.raw[i] = 0
		}
		b.markDirty(slot.offset, slot.size)
		return
	}
	b.Remove(key)
	b.Insert(key, value)
}

// Remove frees the block held by key and zero-fills its bytes. Removing an
// absent key is a no-op.
func (b *Buddy[K]) Remove(key K) {
	slot, ok := b.slots[key]
	if !ok {
		return
	}
	for i := slot.offset; i < slot.offset+slot.size; i++ {
		b.raw[i] = 0
	}
	b.markDirty(slot.offset, slot.size)
	b.free(slot.offset, slot.size)
	delete(b.slots, key)
}

// Offset returns the byte offset and size of key's current block.
func (b *Buddy[K]) Offset(key K) (offset, size int, ok bool) {
	slot, ok := b.slots[key]
	return slot.offset, slot.size, ok
}

// Count returns the number of entries currently tracked.
func (b *Buddy[K]) Count() int { return len(b.slots) }

// alloc finds and reserves a free block of exactly req bytes, returning its
// byte offset. It descends the buddy tree from the root, preferring the
// left child when both children could satisfy the request.
func (b *Buddy[K]) alloc(req int) (int, bool) {
	if b.tree[0] < req {
		return 0, false
	}
	node := 0
	blockSize := b.leaves * minBlock
	offset := 0
	for blockSize > req {
		left, right := 2*node+1, 2*node+2
		half := blockSize / 2
		if left < len(b.tree) && b.tree[left] >= req {
			node = left
		} else if right < len(b.tree) && b.tree[right] >= req {
			node = right
			offset += half
		} else {
			return 0, false
		}
		blockSize = half
	}
	b.tree[node] = 0
	b.fixParents(node)
	return offset, true
}

// fixParents climbs from node to the root, setting each ancestor's free-size
// to the max of its children, stopping early once a value is unchanged.
func (b *Buddy[K]) fixParents(node int) {
	for node > 0 {
		parent := (node - 1) / 2
		left, right := 2*parent+1, 2*parent+2
		m := b.tree[left]
		if right < len(b.tree) && b.tree[right] > m {
			m = b.tree[right]
		}
		if b.tree[parent] == m {
			return
		}
		b.tree[parent] = m
		node = parent
	}
}

// free releases the block at offset/size back to the tree, coalescing with
// its buddy wherever both halves are fully free.
func (b *Buddy[K]) free(offset, size int) {
	idx := b.offsetToIndex(offset, size)
	b.tree[idx] = size
	blk := size
	node := idx
	for node > 0 {
		parent := (node - 1) / 2
		left, right := 2*parent+1, 2*parent+2
		if b.tree[left] == blk && right < len(b.tree) && b.tree[right] == blk {
			blk *= 2
			b.tree[parent] = blk
			node = parent
			continue
		}
		m := b.tree[left]
		if right < len(b.tree) && b.tree[right] > m {
			m = b.tree[right]
		}
		if b.tree[parent] == m {
			return
		}
		b.tree[parent] = m
		b.fixParents(parent)
		return
	}
}

// offsetToIndex finds the tree node whose subtree exactly covers
// [offset, offset+size) at the depth implied by size.
func (b *Buddy[K]) offsetToIndex(offset, size int) int {
	totalSize := b.leaves * minBlock
	node := 0
	blockSize := totalSize
	pos := 0
	for blockSize > size {
		half := blockSize / 2
		left, right := 2*node+1, 2*node+2
		if offset < pos+half {
			node = left
		} else {
			node = right
			pos += half
		}
		blockSize = half
	}
	return node
}

// grow doubles buffer capacity until at least minExtra additional bytes of
// headroom exist, then rebuilds the buddy tree from scratch and re-marks
// every currently allocated slot as used. Growing sets needsResize so the
// caller knows to recreate the backing GPU buffer before the next flush.
func (b *Buddy[K]) grow(minExtra int) {
	oldCap := len(b.raw)
	newCap := oldCap * 2
	for newCap-oldCap < minExtra {
		newCap *= 2
	}

	grown := make([]byte, newCap)
	copy(grown, b.raw)
	b.raw = grown
	b.leaves = newCap / minBlock
	b.tree = make([]int, 2*b.leaves-1)
	b.initFull()

	for _, slot := range b.slots {
		b.markUsed(slot.offset, slot.size)
	}
	b.needsResize = true
}

// markUsed carves out [offset, offset+size) from the free tree without
// copying bytes, used only while replaying existing allocations after grow.
func (b *Buddy[K]) markUsed(offset, size int) {
	idx := b.offsetToIndex(offset, size)
	b.tree[idx] = 0
	b.fixParents(idx)
}

// markDirty records a byte range as changed, 4-byte-aligning both ends and
// clamping to the current buffer length.
func (b *Buddy[K]) markDirty(offset, size int) {
	start := offset &^ 3
	end := (offset + size + 3) &^ 3
	if end > len(b.raw) {
		end = len(b.raw)
	}
	if start > end {
		start = end
	}
	b.dirty = append(b.dirty, DirtyRange{Start: start, End: end})
}

// TakeDirtyRanges returns and clears the accumulated dirty ranges since the
// last call, for the caller to stage into a GPU buffer write.
func (b *Buddy[K]) TakeDirtyRanges() []DirtyRange {
	if len(b.dirty) == 0 {
		return nil
	}
	out := b.dirty
	b.dirty = nil
	return out
}

// TakeNeedsResize reports and clears whether the backing GPU buffer must be
// recreated at the new, larger capacity.
func (b *Buddy[K]) TakeNeedsResize() (newSize int, needs bool) {
	if !b.needsResize {
		return 0, false
	}
	b.needsResize = false
	return len(b.raw), true
}

func roundPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
