package dynbuf

// Source is the type-erased view of Buddy[K] and Slot[K] the frame driver
// flushes against: both allocators expose the same label/bytes/dirty-range/
// resize-signal surface regardless of their key type, so a frame can hold a
// single []Source of every dynamic buffer it owns without a type parameter
// per buffer.
type Source interface {
	Label() string
	Bytes() []byte
	TakeDirtyRanges() []DirtyRange
	TakeNeedsResize() (newSize int, needs bool)
}

var (
	_ Source = (*Buddy[int])(nil)
	_ Source = (*Slot[int])(nil)
)
