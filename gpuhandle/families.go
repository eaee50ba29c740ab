package gpuhandle

// The renderer addresses every GPU-backed entity through one of these named
// handle families. Each is a distinct Go type wrapping the same underlying
// Handle so a TextureKey and a MeshKey are not interchangeable at compile
// time, even though both are backed by an (index, generation) pair.

// TextureKey addresses a 2D megatexture atlas entry.
type TextureKey struct{ Handle }

// CubemapTextureKey addresses a KTX2-sourced cubemap texture.
type CubemapTextureKey struct{ Handle }

// SamplerKey addresses a deduplicated sampler in texcache.
type SamplerKey struct{ Handle }

// TextureTransformKey addresses a cached 2x3 UV affine transform.
type TextureTransformKey struct{ Handle }

// MeshKey addresses a mesh instance (a draw participant: transform +
// material + reference to a shared MeshResourceKey).
type MeshKey struct{ Handle }

// MeshResourceKey addresses shared, refcounted geometry.
type MeshResourceKey struct{ Handle }

// MeshBufferInfoKey addresses the dynamic-buffer slot bookkeeping for one
// mesh resource's interleaved vertex/index data.
type MeshBufferInfoKey struct{ Handle }

// TransformKey addresses a node in the hierarchical transform graph.
type TransformKey struct{ Handle }

// SkinKey addresses a skin's joint-matrix set.
type SkinKey struct{ Handle }

// GeometryMorphKey addresses a mesh resource's morph delta-value buffers.
type GeometryMorphKey struct{ Handle }

// MaterialMorphKey addresses a per-instance set of morph target weights.
type MaterialMorphKey struct{ Handle }

// MaterialKey addresses a PBR (or other) material record.
type MaterialKey struct{ Handle }

// ShaderKey addresses a compiled shader module cached by feature key.
type ShaderKey struct{ Handle }

// RenderPipelineKey addresses a cached render pipeline.
type RenderPipelineKey struct{ Handle }

// PipelineLayoutKey addresses a cached pipeline layout.
type PipelineLayoutKey struct{ Handle }

// BindGroupLayoutKey addresses a cached bind-group layout.
type BindGroupLayoutKey struct{ Handle }
