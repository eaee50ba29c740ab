package texcache

import "github.com/gogpu/vbrenderer/gpuhandle"

// UVTransform is a 2x3 affine matrix applied to a material's UV
// coordinates before sampling, matching glTF's KHR_texture_transform.
// Row-major: [ a b tx ]
//
//	[ c d ty ]
type UVTransform struct {
	A, B, TX float32
	C, D, TY float32
}

// Identity is the untransformed UV mapping.
var Identity = UVTransform{A: 1, D: 1}

// TransformCache deduplicates UVTransform matrices. Slot 0 is always the
// identity transform, pre-inserted at construction so materials with no
// KHR_texture_transform extension can point at a well-known handle without
// a lookup.
type TransformCache struct {
	table  *gpuhandle.Table[UVTransform]
	lookup map[UVTransform]gpuhandle.TextureTransformKey
	ident  gpuhandle.TextureTransformKey
}

// NewTransformCache creates a cache with the identity transform pre-inserted.
func NewTransformCache() *TransformCache {
	c := &TransformCache{
		table:  gpuhandle.New[UVTransform](),
		lookup: make(map[UVTransform]gpuhandle.TextureTransformKey),
	}
	h := c.table.Insert(Identity)
	c.ident = gpuhandle.TextureTransformKey{Handle: h}
	c.lookup[Identity] = c.ident
	return c
}

// Identity returns the handle for the pre-inserted identity transform.
func (c *TransformCache) Identity() gpuhandle.TextureTransformKey { return c.ident }

// GetOrInsert returns the handle for t, inserting it if not already present.
func (c *TransformCache) GetOrInsert(t UVTransform) gpuhandle.TextureTransformKey {
	if key, ok := c.lookup[t]; ok {
		return key
	}
	h := c.table.Insert(t)
	key := gpuhandle.TextureTransformKey{Handle: h}
	c.lookup[t] = key
	return key
}

// Get resolves a transform handle.
func (c *TransformCache) Get(key gpuhandle.TextureTransformKey) (UVTransform, bool) {
	return c.table.Get(key.Handle)
}

// Len reports how many distinct transforms are cached, including identity.
func (c *TransformCache) Len() int { return c.table.Len() }
