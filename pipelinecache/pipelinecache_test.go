package pipelinecache

import (
	"testing"

	"github.com/gogpu/vbrenderer/gpucore"
)

func TestGetOrCreateBindGroupLayoutCachesOnKeyMatch(t *testing.T) {
	c := New()
	key := BindGroupLayoutKey{
		{Binding: 0, Kind: ResourceBufferUniform, VisibilityStages: 1},
		{Binding: 1, Kind: ResourceSampledTexture, TextureDimension: 2},
	}

	calls := 0
	create := func() gpucore.BindGroupLayoutID {
		calls++
		return gpucore.BindGroupLayoutID(42)
	}

	id1 := c.GetOrCreateBindGroupLayout(key, create)
	id2 := c.GetOrCreateBindGroupLayout(key, create)

	if id1 != id2 {
		t.Errorf("expected same layout ID on repeated lookup, got %v and %v", id1, id2)
	}
	if calls != 1 {
		t.Errorf("expected create called once, got %d", calls)
	}
}

func TestBindGroupLayoutKeyOrderMatters(t *testing.T) {
	a := BindGroupLayoutKey{
		{Binding: 0, Kind: ResourceBufferUniform},
		{Binding: 1, Kind: ResourceSampledTexture},
	}
	b := BindGroupLayoutKey{
		{Binding: 1, Kind: ResourceSampledTexture},
		{Binding: 0, Kind: ResourceBufferUniform},
	}

	if a.canonical() == b.canonical() {
		t.Error("expected different canonical keys for differently-ordered entries")
	}
}

func TestShaderKeyCanonicalIgnoresAttributeOrder(t *testing.T) {
	a := ShaderKey{AttributeKinds: []string{"position", "normal", "texcoord0"}}
	b := ShaderKey{AttributeKinds: []string{"texcoord0", "position", "normal"}}

	if a.canonical() != b.canonical() {
		t.Error("expected attribute-kind order to not affect the canonical key")
	}
}

func TestShaderKeyCanonicalDistinguishesTextureUVIndices(t *testing.T) {
	a := ShaderKey{TextureUVIndices: map[string]int{"baseColor": 0, "normal": 1}}
	b := ShaderKey{TextureUVIndices: map[string]int{"baseColor": 1, "normal": 0}}

	if a.canonical() == b.canonical() {
		t.Error("expected different UV-set assignments to produce different keys")
	}
}

func TestGetOrCreateRenderPipelineDistinguishesShaderVariants(t *testing.T) {
	c := New()
	base := RenderPipelineKey{Shader: ShaderKey{MaterialKind: 0}}
	unlit := RenderPipelineKey{Shader: ShaderKey{MaterialKind: 1}}

	var nextID gpucore.RenderPipelineID
	create := func() gpucore.RenderPipelineID {
		nextID++
		return nextID
	}

	baseID := c.GetOrCreateRenderPipeline(base, create)
	unlitID := c.GetOrCreateRenderPipeline(unlit, create)

	if baseID == unlitID {
		t.Error("expected distinct material kinds to produce distinct pipeline IDs")
	}

	// Repeated lookup of the same key returns the cached ID without creating.
	if got := c.GetOrCreateRenderPipeline(base, create); got != baseID {
		t.Errorf("expected cached pipeline ID %v, got %v", baseID, got)
	}
}

func TestMarkPoolGrownOpaqueClearsWholesale(t *testing.T) {
	c := New()
	layoutKey := BindGroupLayoutKey{{Binding: 0, Kind: ResourceBufferUniform}}
	calls := 0
	create := func() gpucore.BindGroupLayoutID {
		calls++
		return gpucore.BindGroupLayoutID(7)
	}

	c.GetOrCreateBindGroupLayout(layoutKey, create)
	c.MarkPoolGrown(OpaqueWholesale, nil)
	c.GetOrCreateBindGroupLayout(layoutKey, create)

	if calls != 2 {
		t.Errorf("expected a wholesale clear to force recreation, got %d calls", calls)
	}
}

func TestMarkPoolGrownTransparentLazyMarksOnlyAffectedKeys(t *testing.T) {
	c := New()
	c.MarkPoolGrown(TransparentLazy, []string{"mesh-1", "mesh-2"})

	dirty := c.TakeDirty()
	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty keys, got %d", len(dirty))
	}
	if dirty["mesh-1"] != RebuildPoolGrown || dirty["mesh-2"] != RebuildPoolGrown {
		t.Error("expected both keys marked RebuildPoolGrown")
	}

	// TakeDirty clears the set.
	if dirty2 := c.TakeDirty(); dirty2 != nil {
		t.Errorf("expected TakeDirty to clear the set, got %v", dirty2)
	}
}

func TestMarkBufferResizedIsObservedByTakeDirty(t *testing.T) {
	c := New()
	c.MarkBufferResized("vertex-buffer-3")

	dirty := c.TakeDirty()
	if dirty["vertex-buffer-3"] != RebuildBufferResized {
		t.Error("expected vertex-buffer-3 marked RebuildBufferResized")
	}
}

func TestStatsAggregatesAcrossCaches(t *testing.T) {
	c := New()
	key := ShaderKey{MaterialKind: 2}
	c.GetOrCreateShader(key, func() gpucore.ShaderModuleID { return 1 })
	c.GetOrCreateShader(key, func() gpucore.ShaderModuleID { return 1 })

	hits, misses, _ := c.Stats()
	if hits != 1 {
		t.Errorf("expected 1 hit after repeated lookup, got %d", hits)
	}
	if misses != 1 {
		t.Errorf("expected 1 miss on first lookup, got %d", misses)
	}
}
