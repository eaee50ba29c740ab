//go:build !nogpu

// Package gpu adapts the renderer's device and pipeline plumbing onto the
// gogpu/wgpu Pure Go WebGPU implementation (zero CGO), which supports
// Vulkan, Metal, and DX12 backends depending on the platform.
//
// # Architecture Overview
//
// Package gpu owns the instance/adapter/device/queue quadruple and the
// compiled shader modules for every pass of the render graph's 5-pass
// deferred pipeline:
//
//	Geometry -> Opaque Compute Shade -> Transparent Forward+OIT -> Composite -> Display
//
// Key components:
//
//   - Backend: instance/adapter/device/queue lifecycle, device limit queries
//   - ShaderModules: compiled WGSL for each render graph pass plus the
//     texture-type-aware mipmap compute shader
//   - GPUTexture: 2D-array textures backing megatexture atlas slabs
//   - GPUBuffer: core.BufferID-backed buffers mirroring a dynbuf.Source
//   - renderTargets: the frame-sized intermediate textures (visibility
//     buffer, opaque color, OIT accumulation/revealage, composited HDR)
//     shared across passes
//   - FrameDriver: wires Backend, ShaderModules, and renderTargets into a
//     frame.Driver's BufferFlush/MipmapDispatch/PassRunner/Present hooks
//
// FrameDriver's command recording goes through CoreCommandEncoder's
// "mock mode" path: Backend only exposes opaque core.DeviceID/core.QueueID
// handles, not a *core.Device, so NewCoreCommandEncoderWithDevice (the
// path that attaches a real core encoder) is never reachable from this
// package. In that mode the pass encoders have no core pass behind them
// and Finish yields a command buffer without a core buffer, which
// Backend.Submit skips, so recorded passes never reach the device queue;
// buffer writes and texture uploads do go through real wgpu core queue
// calls. There is also no constructor for RenderPipeline/ComputePipeline/
// BindGroup objects, so SetPipeline/SetBindGroup record local state but never bind anything
// on the device. That gap predates this package's adaptation and is not
// fabricated around here.
//
// # Usage
//
// Create and initialize the backend, then compile the render graph's shaders:
//
//	b := gpu.NewBackend()
//	if err := b.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	shaders, err := gpu.CompileShaders(b.Device())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Device Limits
//
// DeviceLimits bridges the driver's reported limits into the shape the
// megatexture sizing logic consumes:
//
//	limits, err := b.DeviceLimits()
//	textureSize, maxDepth := megatex.MaxDimensions(limits)
//
// # Error Handling
//
// Common errors returned by this package are sentinels defined in
// rendererror, wrapped with %w so callers can errors.Is against them:
//
//   - rendererror.ErrDeviceNotInitialized: backend operation attempted before Init
//   - rendererror.ErrNoGPU: no compatible adapter could be requested
//   - rendererror.ErrGPUCommand: wraps a failed driver call (texture, queue write, ...)
//
// # Thread Safety
//
// Backend is safe for concurrent use from multiple goroutines; internal
// synchronization is handled via mutexes. GPUTexture is safe for
// concurrent reads only: UploadLayer and Close need external
// synchronization.
//
// # Related Packages
//
//   - github.com/gogpu/wgpu: Pure Go WebGPU implementation
//   - github.com/gogpu/naga: WGSL-to-SPIR-V shader compiler
//   - github.com/gogpu/vbrenderer/megatex: MegaTexture atlas sizing and packing
//
// # References
//
//   - W3C WebGPU Specification: https://www.w3.org/TR/webgpu/
//   - gogpu Organization: https://github.com/gogpu
//   - gogpu/wgpu: https://github.com/gogpu/wgpu
package gpu
