//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/vbrenderer/rendererror"
)

// Buffer-related errors for the core-ID backed GPU buffer, distinct from
// the hal-backed Buffer type's error set in buffer.go.
var (
	// ErrBufferReleased is returned when operating on a released GPUBuffer.
	ErrBufferReleased = errors.New("gpu: buffer has been released")

	// ErrBufferWriteOutOfRange is returned when a write would exceed the
	// buffer's allocated size.
	ErrBufferWriteOutOfRange = errors.New("gpu: write range exceeds buffer size")
)

// GPUBuffer is a single GPU buffer identified by core.BufferID, the
// counterpart to GPUTexture for the dynbuf byte ranges meshstore and the
// render graph mirror to the device: one GPUBuffer per dynbuf.Source,
// recreated whenever that source reports a resize and written whenever it
// reports dirty ranges.
//
// GPUBuffer is safe for concurrent read access. Write operations (Write,
// Close) should be synchronized externally.
type GPUBuffer struct {
	mu sync.RWMutex

	bufferID core.BufferID

	size  uint64
	usage gputypes.BufferUsage
	label string

	released atomic.Bool
}

// CreateGPUBuffer allocates a new device buffer of size bytes with usage,
// following the same backend-nil-tolerant, core.CreateTexture-style
// construction CreateTexture uses for the texture side of this package.
func CreateGPUBuffer(backend *Backend, size uint64, usage gputypes.BufferUsage, label string) (*GPUBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: size is 0", ErrInvalidBufferSize)
	}
	if backend != nil && !backend.IsInitialized() {
		return nil, rendererror.ErrDeviceNotInitialized
	}

	var bufferID core.BufferID
	if backend != nil {
		id, err := core.CreateBuffer(backend.Device(), &gputypes.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rendererror.ErrGPUCommand, err)
		}
		bufferID = id
	}

	return &GPUBuffer{bufferID: bufferID, size: size, usage: usage, label: label}, nil
}

// Size returns the buffer's allocated size in bytes.
func (b *GPUBuffer) Size() uint64 { return b.size }

// Label returns the buffer's debug label.
func (b *GPUBuffer) Label() string { return b.label }

// BufferID returns the underlying wgpu buffer ID.
func (b *GPUBuffer) BufferID() core.BufferID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bufferID
}

// Write uploads data at offset, mirroring GPUTexture.UploadRegion's
// queue-write pattern but for a linear buffer range instead of a texture
// sub-rectangle.
func (b *GPUBuffer) Write(backend *Backend, offset uint64, data []byte) error {
	if b.released.Load() {
		return ErrBufferReleased
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: offset %d + len %d > size %d", ErrBufferWriteOutOfRange, offset, len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	if backend == nil || !backend.IsInitialized() {
		return rendererror.ErrDeviceNotInitialized
	}

	if err := core.QueueWriteBuffer(backend.Queue(), b.bufferID, offset, data); err != nil {
		return fmt.Errorf("%w: %w", rendererror.ErrGPUCommand, err)
	}
	return nil
}

// Close releases the GPU buffer. The buffer should not be used after
// Close is called.
func (b *GPUBuffer) Close() {
	if b.released.Swap(true) {
		return
	}
	b.mu.Lock()
	bufferID := b.bufferID
	b.bufferID = core.BufferID{}
	b.mu.Unlock()

	if !bufferID.IsZero() {
		_ = core.BufferDrop(bufferID)
	}
}
