//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vbrenderer/rendererror"
)

// nullHostDevice is a HostDevice with no real GPU behind it, mirroring a
// CPU-only host application that has nothing to share.
type nullHostDevice struct{}

func (nullHostDevice) Device() gpucontext.Device             { return nil }
func (nullHostDevice) Queue() gpucontext.Queue               { return nil }
func (nullHostDevice) Adapter() gpucontext.Adapter           { return nil }
func (nullHostDevice) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

var _ HostDevice = nullHostDevice{}

func TestBackendInitFromHostRejectsNilHost(t *testing.T) {
	b := NewBackend()
	if err := b.InitFromHost(nil); !errors.Is(err, rendererror.ErrNoGPU) {
		t.Errorf("InitFromHost(nil) = %v, want %v", err, rendererror.ErrNoGPU)
	}
	if b.FromHost() {
		t.Error("FromHost() should be false after a rejected InitFromHost")
	}
}

func TestBackendInitFromHostRejectsNoAdapter(t *testing.T) {
	b := NewBackend()
	if err := b.InitFromHost(nullHostDevice{}); !errors.Is(err, rendererror.ErrNoGPU) {
		t.Errorf("InitFromHost with no adapter = %v, want %v", err, rendererror.ErrNoGPU)
	}
	if b.IsInitialized() {
		t.Error("backend should not be initialized when the host has no adapter")
	}
}

func TestBackendName(t *testing.T) {
	b := NewBackend()
	if b.Name() != "gpu" {
		t.Errorf("Name() = %q, want %q", b.Name(), "gpu")
	}
}

func TestBackendInit(t *testing.T) {
	b := NewBackend()

	if b.IsInitialized() {
		t.Error("backend should not be initialized before Init()")
	}

	err := b.Init()
	if err != nil {
		// No real GPU available in the test environment; acceptable.
		t.Logf("Init() returned error (expected in test environment): %v", err)
		return
	}

	if !b.IsInitialized() {
		t.Error("backend should be initialized after Init()")
	}
	if b.Device().IsZero() {
		t.Error("Device() should not be zero after Init()")
	}
	if b.Queue().IsZero() {
		t.Error("Queue() should not be zero after Init()")
	}

	if info := b.GPUInfo(); info == nil {
		t.Error("GPUInfo() should not be nil after Init()")
	} else {
		t.Logf("GPU: %s", info.String())
	}

	if err := b.Init(); err != nil {
		t.Errorf("second Init() should be idempotent, got: %v", err)
	}

	b.Close()
	if b.IsInitialized() {
		t.Error("backend should not be initialized after Close()")
	}
}

func TestBackendClose(t *testing.T) {
	b := NewBackend()

	b.Close() // safe on an uninitialized backend

	if err := b.Init(); err != nil {
		t.Logf("Init() returned error (expected in test environment): %v", err)
		return
	}

	b.Close()
	b.Close() // double close must be safe

	if b.IsInitialized() {
		t.Error("backend should not be initialized after Close()")
	}
	if !b.Device().IsZero() {
		t.Error("Device() should be zero after Close()")
	}
	if !b.Queue().IsZero() {
		t.Error("Queue() should be zero after Close()")
	}
	if b.GPUInfo() != nil {
		t.Error("GPUInfo() should be nil after Close()")
	}
}

func TestBackendDeviceLimitsBeforeInit(t *testing.T) {
	b := NewBackend()
	if _, err := b.DeviceLimits(); !errors.Is(err, rendererror.ErrDeviceNotInitialized) {
		t.Errorf("DeviceLimits() before Init() = %v, want %v", err, rendererror.ErrDeviceNotInitialized)
	}
}

func TestBackendDeviceLimitsAfterInit(t *testing.T) {
	b := NewBackend()
	if err := b.Init(); err != nil {
		t.Logf("Init() returned error (expected in test environment): %v", err)
		return
	}
	defer b.Close()

	limits, err := b.DeviceLimits()
	if err != nil {
		t.Fatalf("DeviceLimits(): %v", err)
	}
	if limits.MaxTextureDimension2D == 0 {
		t.Error("MaxTextureDimension2D should be nonzero on a real device")
	}
	if limits.MaxBufferSize == 0 {
		t.Error("MaxBufferSize should be nonzero on a real device")
	}
}

func TestBackendConcurrency(t *testing.T) {
	b := NewBackend()

	if err := b.Init(); err != nil {
		t.Logf("Init() returned error (expected in test environment): %v", err)
		return
	}
	defer b.Close()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = b.IsInitialized()
			_ = b.Device()
			_ = b.Queue()
			_ = b.GPUInfo()
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestGPUInfoString(t *testing.T) {
	info := &GPUInfo{
		Name:    "Test GPU",
		Vendor:  "TestVendor",
		Driver:  "1.0.0",
	}
	if s := info.String(); s == "" {
		t.Error("GPUInfo.String() returned empty string")
	}
}
