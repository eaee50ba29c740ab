//go:build !nogpu

package gpu

import (
	"fmt"
	"log"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/vbrenderer/megatex"
	"github.com/gogpu/vbrenderer/rendererror"
)

// HostDevice is gpucontext's device-provider contract: a host application
// that already owns a GPU device, queue, and adapter. Accepting one lets
// the renderer share a device instead of creating its own — the same
// "receives the device, does not create one" integration shape the rest
// of the gogpu ecosystem establishes for embedding a renderer inside a
// host application.
type HostDevice = gpucontext.DeviceProvider

// BackendGPU is the identifier for the GPU backend.
const BackendGPU = "gpu"

// Backend owns the instance/adapter/device/queue quadruple every other
// package in this module draws GPU objects from. Exactly one Backend is
// live per renderer; nothing in this codebase shares a device across
// goroutines without going through Backend's mutex.
type Backend struct {
	mu sync.RWMutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	gpuInfo *GPUInfo

	initialized bool
	host        HostDevice
}

// NewBackend creates a new Pure Go GPU rendering backend.
// The backend must be initialized with Init() before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return BackendGPU
}

// Init initializes the backend by creating GPU resources: an instance, a
// requested adapter, a device, and its command queue.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	desc := &gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	}
	b.instance = core.NewInstance(desc)

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", rendererror.ErrNoGPU, err)
	}
	b.adapter = adapterID

	logGPUInfo(adapterID)
	b.gpuInfo, _ = getGPUInfo(adapterID)

	deviceID, err := createDevice(adapterID, "vbrenderer-device")
	if err != nil {
		return fmt.Errorf("device creation failed: %w", err)
	}
	b.device = deviceID

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		return fmt.Errorf("queue retrieval failed: %w", err)
	}
	b.queue = queueID

	b.initialized = true
	log.Println("gpu: backend initialized successfully")

	return nil
}

// InitFromHost adopts a host-supplied device instead of requesting its
// own adapter/device/queue, mirroring a host application that already
// manages a GPU context and wants this renderer to share it. The host
// remains the resource owner: Close does not release a host-provided
// device, adapter, or queue.
func (b *Backend) InitFromHost(host HostDevice) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}
	if host == nil || host.Adapter() == nil {
		return rendererror.ErrNoGPU
	}

	b.host = host
	b.initialized = true
	log.Println("gpu: backend adopted host-provided device")
	return nil
}

// FromHost reports whether the backend is running against a host-supplied
// device rather than one it created itself via Init.
func (b *Backend) FromHost() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.host != nil
}

// Close releases all backend resources. The backend should not be used
// after Close is called. A host-provided device is left untouched, since
// InitFromHost never took ownership of it.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}

	if b.host != nil {
		b.host = nil
		b.initialized = false
		log.Println("gpu: backend released host-provided device reference")
		return
	}

	if !b.device.IsZero() {
		if err := releaseDevice(b.device); err != nil {
			log.Printf("gpu: error releasing device: %v", err)
		}
		b.device = core.DeviceID{}
	}

	if !b.adapter.IsZero() {
		if err := releaseAdapter(b.adapter); err != nil {
			log.Printf("gpu: error releasing adapter: %v", err)
		}
		b.adapter = core.AdapterID{}
	}

	b.instance = nil
	b.queue = core.QueueID{}
	b.gpuInfo = nil
	b.initialized = false

	log.Println("gpu: backend closed")
}

// IsInitialized returns true if the backend has been initialized.
func (b *Backend) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// GPUInfo returns information about the selected GPU.
// Returns nil if the backend is not initialized.
func (b *Backend) GPUInfo() *GPUInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gpuInfo
}

// Device returns the GPU device ID.
// Returns a zero ID if the backend is not initialized.
func (b *Backend) Device() core.DeviceID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// Queue returns the GPU queue ID.
// Returns a zero ID if the backend is not initialized.
func (b *Backend) Queue() core.QueueID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queue
}

// DeviceLimits queries the device's reported limits and translates them
// into the megatex.Limits shape the megatexture sizing logic consumes.
// Returns ErrDeviceNotInitialized if called before Init succeeds.
func (b *Backend) DeviceLimits() (megatex.Limits, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return megatex.Limits{}, rendererror.ErrDeviceNotInitialized
	}

	limits, err := core.GetDeviceLimits(b.device)
	if err != nil {
		return megatex.Limits{}, fmt.Errorf("failed to get device limits: %w", err)
	}

	return megatex.Limits{
		MaxTextureDimension2D: limits.MaxTextureDimension2D,
		MaxTextureArrayLayers: limits.MaxTextureArrayLayers,
		MaxBufferSize:         limits.MaxBufferSize,
	}, nil
}
