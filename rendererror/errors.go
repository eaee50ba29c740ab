// Package rendererror defines the typed error taxonomy crossed by every
// public operation in the renderer core. Errors are sentinel values wrapped
// with fmt.Errorf("%w: ...") at the call site, following the pattern used
// throughout internal/gpu (see ErrBufferDestroyed, ErrCopyOverlap and kin).
package rendererror

import "errors"

// Device capability errors: the device cannot do what was asked of it.
var (
	// ErrUnsupportedFormat is returned when a texture or buffer format has
	// no mapping to the underlying WebGPU format.
	ErrUnsupportedFormat = errors.New("rendererror: format is not representable on this device")

	// ErrUnsupportedSampleCount is returned when a requested MSAA sample
	// count is not one the device advertises.
	ErrUnsupportedSampleCount = errors.New("rendererror: MSAA sample count not supported")

	// ErrTextureTooLarge is returned when an image exceeds the device's
	// max texture dimension (after padding).
	ErrTextureTooLarge = errors.New("rendererror: texture dimension exceeds device limit")

	// ErrTooManySamplers is returned when a shader stage would exceed the
	// device's max-samplers-per-stage limit.
	ErrTooManySamplers = errors.New("rendererror: too many samplers for shader stage")

	// ErrAtlasSize is returned when a single image cannot fit in an empty
	// atlas layer even alone (structural — it is simply too large).
	ErrAtlasSize = errors.New("rendererror: image exceeds maximum atlas layer size")
)

// Resource lookup errors: a handle does not resolve to a live entry.
var (
	// ErrNotFound is the base sentinel for all "stale or wrong-family
	// handle" lookups. The more specific variants below do not wrap it
	// themselves; an error built with NotFound(specific) matches both.
	ErrNotFound = errors.New("rendererror: resource not found")

	// ErrMeshNotFound indicates a MeshKey does not resolve to a live instance.
	ErrMeshNotFound = errors.New("rendererror: mesh not found")

	// ErrMeshResourceNotFound indicates a MeshResourceKey has no backing resource.
	ErrMeshResourceNotFound = errors.New("rendererror: mesh resource not found")

	// ErrSamplerNotFound indicates a SamplerKey has no cached sampler.
	ErrSamplerNotFound = errors.New("rendererror: sampler not found")

	// ErrTextureNotFound indicates a TextureKey has no atlas entry.
	ErrTextureNotFound = errors.New("rendererror: texture not found")

	// ErrTransformNotFound indicates a TransformKey has no live transform.
	ErrTransformNotFound = errors.New("rendererror: transform not found")

	// ErrCubemapNotFound indicates a CubemapTextureKey has no live cubemap.
	ErrCubemapNotFound = errors.New("rendererror: cubemap texture not found")

	// ErrPipelineNotFound indicates a RenderPipelineKey has no cached pipeline.
	ErrPipelineNotFound = errors.New("rendererror: render pipeline not found")

	// ErrShaderNotFound indicates a ShaderKey has no cached shader module.
	ErrShaderNotFound = errors.New("rendererror: shader not found")
)

// Structural / asset-conformance errors.
var (
	// ErrDuplicateID is returned when an ID is inserted into the atlas twice.
	ErrDuplicateID = errors.New("rendererror: duplicate atlas ID")

	// ErrMalformedKTX2 is returned for a KTX2 container that violates the
	// cubemap contract (wrong face count, supercompression, mismatched level size).
	ErrMalformedKTX2 = errors.New("rendererror: malformed KTX2 cubemap container")

	// ErrIndexCountNotTriangles is returned when a glTF primitive's index
	// count is not divisible by 3.
	ErrIndexCountNotTriangles = errors.New("rendererror: index count is not a multiple of 3")

	// ErrAccessorOutOfBounds is returned when a glTF accessor's byte range
	// falls outside its buffer view.
	ErrAccessorOutOfBounds = errors.New("rendererror: accessor byte range out of bounds")

	// ErrInstancedMeshUnsupported is returned by clone/split/join when the
	// target mesh instance has instanced == true.
	ErrInstancedMeshUnsupported = errors.New("rendererror: operation unsupported on instanced meshes")
)

// GPU command and shader compilation errors.
var (
	// ErrGPUCommand wraps a buffer-write or texture-write rejected by the driver.
	ErrGPUCommand = errors.New("rendererror: GPU command rejected by driver")

	// ErrShaderCompilation wraps the driver's validation payload for a
	// failed shader module compile.
	ErrShaderCompilation = errors.New("rendererror: shader compilation failed")
)

// Device bootstrap errors.
var (
	// ErrNoGPU is returned when no compatible adapter could be requested.
	ErrNoGPU = errors.New("rendererror: no compatible GPU adapter found")

	// ErrDeviceNotInitialized is returned by any backend operation
	// attempted before Init succeeds.
	ErrDeviceNotInitialized = errors.New("rendererror: backend not initialized")
)

// Render graph errors.
var (
	// ErrPassNotReady is returned when a frame is requested while at
	// least one render-graph pass is uninitialized or marked
	// needs-recreate.
	ErrPassNotReady = errors.New("rendererror: render pass is not ready")
)

// NotFound wraps a more specific not-found sentinel so that
// errors.Is(err, ErrNotFound) succeeds for any resource-lookup failure.
func NotFound(specific error) error {
	return &notFoundError{specific: specific}
}

type notFoundError struct {
	specific error
}

func (e *notFoundError) Error() string { return e.specific.Error() }

func (e *notFoundError) Unwrap() []error { return []error{e.specific, ErrNotFound} }
