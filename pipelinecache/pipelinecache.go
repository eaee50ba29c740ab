// Package pipelinecache holds the structural-key caches that sit between
// the render graph and the GPU driver: bind-group layouts, pipeline
// layouts, shader modules, and render pipelines are all expensive to
// create and stable to reuse once every axis of variation collapses to
// the same key.
package pipelinecache

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/gogpu/vbrenderer/cache"
	"github.com/gogpu/vbrenderer/gpucore"
)

// ResourceKind distinguishes the binding types a bind-group-layout entry
// can describe.
type ResourceKind uint8

const (
	ResourceBufferUniform ResourceKind = iota
	ResourceBufferStorage
	ResourceBufferReadOnlyStorage
	ResourceSampledTexture
	ResourceStorageTexture
	ResourceSampler
)

// BindGroupLayoutEntry is one binding slot within a bind-group-layout key.
// Only the fields relevant to ResourceKind are meaningful; the rest are
// zero and excluded from the canonical encoding.
type BindGroupLayoutEntry struct {
	Binding          uint32
	Kind             ResourceKind
	VisibilityStages uint32 // bitset: vertex | fragment | compute

	// Buffer entries.
	HasDynamicOffset bool

	// Sampled/storage texture entries.
	TextureDimension  uint8 // 1D, 2D, 2D-array, cube, 3D
	TextureSampleType uint8
	Multisampled      bool
	StorageFormat     uint8
	StorageAccess     uint8 // read-only, write-only, read-write

	// Sampler entries.
	SamplerBindingType uint8
}

// BindGroupLayoutKey is an ordered sequence of entries; order is
// significant, matching binding-index ordering in the generated shader.
type BindGroupLayoutKey []BindGroupLayoutEntry

// canonical renders the key as a deterministic string suitable for use as
// a cache.ShardedCache key.
func (k BindGroupLayoutKey) canonical() string {
	var b strings.Builder
	for _, e := range k {
		b.WriteString(strconv.FormatUint(uint64(e.Binding), 10))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.Kind)))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(e.VisibilityStages), 10))
		b.WriteByte(':')
		if e.HasDynamicOffset {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.TextureDimension)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.TextureSampleType)))
		b.WriteByte(':')
		if e.Multisampled {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.StorageFormat)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.StorageAccess)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.SamplerBindingType)))
		b.WriteByte('|')
	}
	return b.String()
}

// PipelineLayoutKey is an ordered sequence of bind-group-layout handles.
type PipelineLayoutKey []gpucore.BindGroupLayoutID

func (k PipelineLayoutKey) canonical() string {
	var b strings.Builder
	for _, id := range k {
		b.WriteString(strconv.FormatUint(uint64(id), 10))
		b.WriteByte(',')
	}
	return b.String()
}

// ShaderKey is the feature set that governs generated shader text: the
// attribute kinds and counts present on the mesh, morph/skin/instancing
// flags, the material kind, texture UV-set assignment, the alpha-mask
// flag, and the MSAA sample count in effect for the pass.
type ShaderKey struct {
	AttributeKinds    []string // e.g. "position", "normal", "texcoord0", "joints0"
	MorphTargetCount  int
	SkinJointSetCount int
	Instancing        bool
	MaterialKind      uint8
	TextureUVIndices  map[string]int // texture slot name -> UV set index
	AlphaMask         bool
	MSAASampleCount   uint32
}

func (k ShaderKey) canonical() string {
	var b strings.Builder
	attrs := append([]string(nil), k.AttributeKinds...)
	slices.Sort(attrs)
	b.WriteString(strings.Join(attrs, ","))
	b.WriteByte('#')
	b.WriteString(strconv.Itoa(k.MorphTargetCount))
	b.WriteByte('#')
	b.WriteString(strconv.Itoa(k.SkinJointSetCount))
	b.WriteByte('#')
	if k.Instancing {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
	b.WriteByte('#')
	b.WriteString(strconv.Itoa(int(k.MaterialKind)))
	b.WriteByte('#')
	slots := maps.Keys(k.TextureUVIndices)
	slices.Sort(slots)
	for _, slot := range slots {
		b.WriteString(slot)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(k.TextureUVIndices[slot]))
		b.WriteByte(',')
	}
	b.WriteByte('#')
	if k.AlphaMask {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
	b.WriteByte('#')
	b.WriteString(strconv.FormatUint(uint64(k.MSAASampleCount), 10))
	return b.String()
}

// RenderPipelineKey identifies a compiled render pipeline: the shader
// variant, the pipeline layout it was bound against, the vertex buffer
// layouts, color target formats, optional depth-stencil format, and the
// primitive/multisample state.
type RenderPipelineKey struct {
	Shader              ShaderKey
	Layout              PipelineLayoutKey
	VertexBufferStrides []uint32
	ColorTargetFormats  []uint8
	DepthStencilFormat  uint8
	HasDepthStencil     bool
	PrimitiveTopology   uint8
	FrontFace           uint8
	CullMode            uint8
	MSAASampleCount     uint32
}

func (k RenderPipelineKey) canonical() string {
	var b strings.Builder
	b.WriteString(k.Shader.canonical())
	b.WriteByte('@')
	b.WriteString(k.Layout.canonical())
	b.WriteByte('@')
	for _, s := range k.VertexBufferStrides {
		b.WriteString(strconv.FormatUint(uint64(s), 10))
		b.WriteByte(',')
	}
	b.WriteByte('@')
	for _, f := range k.ColorTargetFormats {
		b.WriteString(strconv.Itoa(int(f)))
		b.WriteByte(',')
	}
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(int(k.DepthStencilFormat)))
	b.WriteByte(':')
	if k.HasDepthStencil {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(int(k.PrimitiveTopology)))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(k.FrontFace)))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(k.CullMode)))
	b.WriteByte('@')
	b.WriteString(strconv.FormatUint(uint64(k.MSAASampleCount), 10))
	return b.String()
}

// BindGroupVariant distinguishes the two rebuild strategies the opaque
// and transparent passes use when the texture pool grows: opaque
// pipelines depend only on global parameters and rebuild wholesale,
// while transparent pipelines rebuild lazily per mesh.
type BindGroupVariant uint8

const (
	OpaqueWholesale BindGroupVariant = iota
	TransparentLazy
)

// RebuildReason records why a cached bind group was marked for
// recreation, so the next frame rebuilds exactly the entries that need it.
type RebuildReason uint8

const (
	RebuildBufferResized RebuildReason = iota
	RebuildPoolGrown
)

// Cache holds the four structural caches this package manages plus the
// set of bind-group keys marked for recreation since the last TakeDirty.
type Cache struct {
	bindGroupLayouts *cache.ShardedCache[string, gpucore.BindGroupLayoutID]
	pipelineLayouts  *cache.ShardedCache[string, gpucore.PipelineLayoutID]
	shaders          *cache.ShardedCache[string, gpucore.ShaderModuleID]
	renderPipelines  *cache.ShardedCache[string, gpucore.RenderPipelineID]

	mu    sync.Mutex
	dirty map[string]RebuildReason
}

// New creates an empty set of structural caches.
func New() *Cache {
	return &Cache{
		bindGroupLayouts: cache.NewSharded[string, gpucore.BindGroupLayoutID](cache.DefaultCapacity, cache.StringHasher),
		pipelineLayouts:  cache.NewSharded[string, gpucore.PipelineLayoutID](cache.DefaultCapacity, cache.StringHasher),
		shaders:          cache.NewSharded[string, gpucore.ShaderModuleID](cache.DefaultCapacity, cache.StringHasher),
		renderPipelines:  cache.NewSharded[string, gpucore.RenderPipelineID](cache.DefaultCapacity, cache.StringHasher),
		dirty:            make(map[string]RebuildReason),
	}
}

// GetOrCreateBindGroupLayout returns the cached layout ID for key,
// creating it via create on a miss.
func (c *Cache) GetOrCreateBindGroupLayout(key BindGroupLayoutKey, create func() gpucore.BindGroupLayoutID) gpucore.BindGroupLayoutID {
	return c.bindGroupLayouts.GetOrCreate(key.canonical(), create)
}

// GetOrCreatePipelineLayout returns the cached layout ID for key,
// creating it via create on a miss.
func (c *Cache) GetOrCreatePipelineLayout(key PipelineLayoutKey, create func() gpucore.PipelineLayoutID) gpucore.PipelineLayoutID {
	return c.pipelineLayouts.GetOrCreate(key.canonical(), create)
}

// GetOrCreateShader returns the cached shader module ID for key, creating
// it via create on a miss.
func (c *Cache) GetOrCreateShader(key ShaderKey, create func() gpucore.ShaderModuleID) gpucore.ShaderModuleID {
	return c.shaders.GetOrCreate(key.canonical(), create)
}

// GetOrCreateRenderPipeline returns the cached pipeline ID for key,
// creating it via create on a miss.
func (c *Cache) GetOrCreateRenderPipeline(key RenderPipelineKey, create func() gpucore.RenderPipelineID) gpucore.RenderPipelineID {
	return c.renderPipelines.GetOrCreate(key.canonical(), create)
}

// MarkBufferResized flags every bind group referencing bufferKey for
// recreation on the next frame, per §4.6's invalidation rule.
func (c *Cache) MarkBufferResized(bufferKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[bufferKey] = RebuildBufferResized
}

// MarkPoolGrown records a texture-pool growth event. OpaqueWholesale
// clears the bind-group-layout and render-pipeline caches entirely
// (opaque pipelines depend only on global parameters); TransparentLazy
// marks only the given mesh bind-group keys, since transparent pipelines
// rebuild lazily per mesh.
func (c *Cache) MarkPoolGrown(variant BindGroupVariant, affectedKeys []string) {
	switch variant {
	case OpaqueWholesale:
		c.bindGroupLayouts.Clear()
		c.renderPipelines.Clear()
	case TransparentLazy:
		c.mu.Lock()
		for _, key := range affectedKeys {
			c.dirty[key] = RebuildPoolGrown
		}
		c.mu.Unlock()
	}
}

// TakeDirty returns and clears the set of keys marked for recreation
// since the last call.
func (c *Cache) TakeDirty() map[string]RebuildReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dirty) == 0 {
		return nil
	}
	taken := c.dirty
	c.dirty = make(map[string]RebuildReason)
	return taken
}

// Stats aggregates hit/miss/eviction counters across all four caches,
// useful for frame-driver diagnostics.
func (c *Cache) Stats() (hits, misses, evictions uint64) {
	for _, s := range []cache.Stats{
		c.bindGroupLayouts.Stats(),
		c.pipelineLayouts.Stats(),
		c.shaders.Stats(),
		c.renderPipelines.Stats(),
	} {
		hits += s.Hits
		misses += s.Misses
		evictions += s.Evictions
	}
	return hits, misses, evictions
}
