// Package gpucore provides the opaque GPU resource ID vocabulary shared
// across the renderer: buffer, texture, shader module, bind group,
// pipeline, sampler, and query set handles, plus the descriptor structs
// used to create and dispatch against them.
//
// # Resource IDs
//
// GPU resources are referenced by opaque IDs ([BufferID], [TextureID],
// [ShaderModuleID], [BindGroupLayoutID], [BindGroupID], [PipelineLayoutID],
// [RenderPipelineID], [ComputePipelineID], [SamplerID], [TextureViewID],
// [QuerySetID]). Every higher-level package (internal/gpu, pipelinecache,
// renderpass) builds on this vocabulary rather than depending directly on
// a specific driver binding, so the render graph's pass descriptors stay
// backend-agnostic.
//
// # Visibility buffer and mipmap dispatch
//
// [DrawIndex] is the packed per-pixel payload the geometry pass writes and
// the opaque compute-shade pass decodes (mesh ID, primitive ID,
// barycentric coordinates). [MipmapDispatchParams] mirrors the uniform
// block the mipmap compute shader reads to locate one atlas tile's
// interior rectangle within a layer.
package gpucore
