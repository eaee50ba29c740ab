// Package mipmap generates GPU mipmaps for megatexture atlas layers.
// Filtering is texture-type aware (box average for color data, vector
// renormalization for normal maps, perceptual roughness averaging for
// metallic-roughness) and tile-aware: each atlas entry's interior rectangle
// is downsampled independently, with its gutter re-extended from the new
// interior edge after each level, grounded on
// original_source/crates/renderer-core/src/texture/mega_texture/mipmap.rs
// and .../texture/mipmap.rs.
package mipmap

import (
	"sync"

	"github.com/gogpu/vbrenderer/gpucore"
)

// TextureType selects which filter a mip level uses, matching
// MipmapDispatchParams.TextureType in gpucore.
type TextureType uint32

const (
	TextureTypeAlbedo TextureType = iota
	TextureTypeNormal
	TextureTypeMetallicRoughness
	TextureTypeOcclusion
	TextureTypeEmissive
)

// String renders the texture type for log lines.
func (t TextureType) String() string {
	switch t {
	case TextureTypeAlbedo:
		return "albedo"
	case TextureTypeNormal:
		return "normal"
	case TextureTypeMetallicRoughness:
		return "metallic_roughness"
	case TextureTypeOcclusion:
		return "occlusion"
	case TextureTypeEmissive:
		return "emissive"
	default:
		return "unknown"
	}
}

// PipelineKey identifies a mipmap compute pipeline variant. The original
// implementation caches these in a per-thread thread_local!; this renderer
// runs its GPU-owning work on a single goroutine (spec's cooperative
// concurrency model), so a package-level mutex-guarded map is the
// equivalent Go idiom — same cardinality, no per-call allocation, but
// visible to any goroutine rather than pinned to one OS thread.
type PipelineKey struct {
	Format  gpucore.TextureFormat
	IsArray bool
}

// Pipeline is a compiled mipmap compute pipeline, keyed by PipelineKey.
type Pipeline struct {
	Key            PipelineKey
	ComputeID      gpucore.ComputePipelineID
	BindGroupID    gpucore.BindGroupLayoutID
	PipelineLayout gpucore.PipelineLayoutID
}

var (
	pipelineCacheMu sync.Mutex
	pipelineCache   = make(map[PipelineKey]*Pipeline)
)

// PipelineCompiler compiles a mipmap compute pipeline for a cache miss. It
// is supplied by the caller (internal/gpu) so this package stays free of a
// hard dependency on the device backend.
type PipelineCompiler func(key PipelineKey) (*Pipeline, error)

// GetOrCompile returns the cached pipeline for key, compiling and caching
// it via compile on first use.
func GetOrCompile(key PipelineKey, compile PipelineCompiler) (*Pipeline, error) {
	pipelineCacheMu.Lock()
	if p, ok := pipelineCache[key]; ok {
		pipelineCacheMu.Unlock()
		return p, nil
	}
	pipelineCacheMu.Unlock()

	p, err := compile(key)
	if err != nil {
		return nil, err
	}

	pipelineCacheMu.Lock()
	defer pipelineCacheMu.Unlock()
	if existing, ok := pipelineCache[key]; ok {
		return existing, nil
	}
	pipelineCache[key] = p
	return p, nil
}

// ResetPipelineCache clears all cached pipelines. Exposed for tests and for
// device-loss recovery, where every previously compiled pipeline is invalid.
func ResetPipelineCache() {
	pipelineCacheMu.Lock()
	defer pipelineCacheMu.Unlock()
	pipelineCache = make(map[PipelineKey]*Pipeline)
}

// CachedPipelineCount reports how many pipeline variants are currently cached.
func CachedPipelineCount() int {
	pipelineCacheMu.Lock()
	defer pipelineCacheMu.Unlock()
	return len(pipelineCache)
}
