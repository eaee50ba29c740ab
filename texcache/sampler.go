// Package texcache deduplicates GPU samplers and caches texture-transform
// affine matrices behind stable handles, so repeated glTF materials that
// request the same filter/wrap/anisotropy combination (or the same UV
// transform) share a single GPU-side object rather than minting a new one
// per material.
package texcache

import (
	"github.com/gogpu/vbrenderer/gpuhandle"
)

// FilterMode mirrors the WebGPU sampler filter modes this cache keys on.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// AddressMode mirrors the WebGPU sampler wrap modes.
type AddressMode uint8

const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
	AddressMirrorRepeat
)

// SamplerDesc is the structural key a sampler is deduplicated on.
type SamplerDesc struct {
	MagFilter    FilterMode
	MinFilter    FilterMode
	MipmapFilter FilterMode
	AddressModeU AddressMode
	AddressModeV AddressMode
	// MaxAnisotropy is clamped to 1 (meaning "off") whenever MinFilter or
	// MagFilter is FilterNearest: anisotropic filtering has no effect
	// without linear sampling, and most WebGPU drivers treat that
	// combination as invalid rather than silently ignoring it, so the
	// cache key is normalized before lookup to avoid minting duplicate
	// samplers that differ only in an anisotropy value nobody can observe.
	MaxAnisotropy uint16
}

// normalize drops anisotropy when it cannot have any visible effect.
func (d SamplerDesc) normalize() SamplerDesc {
	if d.MagFilter == FilterNearest || d.MinFilter == FilterNearest {
		d.MaxAnisotropy = 1
	}
	if d.MaxAnisotropy == 0 {
		d.MaxAnisotropy = 1
	}
	return d
}

// SamplerGPU is the backend-created object a cache entry owns; the cache
// itself is backend-agnostic, so this is supplied as an opaque handle.
type SamplerGPU = uint64

// SamplerCache deduplicates samplers by normalized SamplerDesc.
type SamplerCache struct {
	table  *gpuhandle.Table[samplerEntry]
	lookup map[SamplerDesc]gpuhandle.SamplerKey
}

type samplerEntry struct {
	desc SamplerDesc
	gpu  SamplerGPU
}

// NewSamplerCache creates an empty sampler cache.
func NewSamplerCache() *SamplerCache {
	return &SamplerCache{
		table:  gpuhandle.New[samplerEntry](),
		lookup: make(map[SamplerDesc]gpuhandle.SamplerKey),
	}
}

// SamplerCreator creates the backend sampler object for a cache miss.
type SamplerCreator func(desc SamplerDesc) (SamplerGPU, error)

// GetOrCreate returns the cached sampler key for desc (normalized),
// creating a new GPU sampler via create on first use.
func (c *SamplerCache) GetOrCreate(desc SamplerDesc, create SamplerCreator) (gpuhandle.SamplerKey, error) {
	desc = desc.normalize()
	if key, ok := c.lookup[desc]; ok {
		return key, nil
	}

	gpu, err := create(desc)
	if err != nil {
		return gpuhandle.SamplerKey{}, err
	}

	h := c.table.Insert(samplerEntry{desc: desc, gpu: gpu})
	key := gpuhandle.SamplerKey{Handle: h}
	c.lookup[desc] = key
	return key, nil
}

// Get resolves a previously minted sampler key.
func (c *SamplerCache) Get(key gpuhandle.SamplerKey) (SamplerGPU, bool) {
	entry, ok := c.table.Get(key.Handle)
	if !ok {
		return 0, false
	}
	return entry.gpu, true
}

// Len reports how many distinct samplers are cached.
func (c *SamplerCache) Len() int { return c.table.Len() }
