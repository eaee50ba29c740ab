//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/gogpu/vbrenderer/dynbuf"
	"github.com/gogpu/vbrenderer/pipelinecache"
	"github.com/gogpu/vbrenderer/renderpass"
	"github.com/gogpu/vbrenderer/transform"
)

// fakeSource is a minimal dynbuf.Source for exercising FlushBuffer without
// a real Buddy/Slot allocator.
type fakeSource struct {
	label string
	bytes []byte
	dirty []dynbuf.DirtyRange
	size  int
	grew  bool
}

func (f *fakeSource) Label() string { return f.label }
func (f *fakeSource) Bytes() []byte { return f.bytes }

func (f *fakeSource) TakeDirtyRanges() []dynbuf.DirtyRange {
	d := f.dirty
	f.dirty = nil
	return d
}

func (f *fakeSource) TakeNeedsResize() (int, bool) {
	grew := f.grew
	f.grew = false
	return f.size, grew
}

var _ dynbuf.Source = (*fakeSource)(nil)

// newTestBackend returns an initialized backend, or skips the test if no
// real GPU is available.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	if err := b.Init(); err != nil {
		t.Skipf("no GPU available in test environment: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func newTestFrameDriver(t *testing.T, backend *Backend) *FrameDriver {
	t.Helper()
	shaders, err := CompileShaders(backend.Device())
	if err != nil {
		t.Fatalf("CompileShaders: %v", err)
	}
	return &FrameDriver{backend: backend, shaders: shaders, labelBase: "test", buffers: make(map[string]*GPUBuffer)}
}

func TestNewFrameDriverAssignsEveryHook(t *testing.T) {
	backend := newTestBackend(t)
	driver, err := NewFrameDriver(zerolog.Nop(), backend, renderpass.NewGraph(), pipelinecache.New(), transform.NewGraph(), "test")
	if err != nil {
		t.Fatalf("NewFrameDriver: %v", err)
	}
	if driver.Flush == nil || driver.Mipmap == nil || driver.RunPass == nil || driver.Present == nil {
		t.Fatalf("NewFrameDriver left a hook unassigned: %+v", driver)
	}
}

func TestFrameDriverFlushBufferRecreatesOnResizeAndWritesDirtyRanges(t *testing.T) {
	backend := newTestBackend(t)
	fd := newTestFrameDriver(t, backend)

	src := &fakeSource{
		label: "visibility_vertex",
		bytes: make([]byte, 256),
		dirty: []dynbuf.DirtyRange{{Start: 0, End: 64}},
		size:  256,
		grew:  true,
	}

	if err := fd.FlushBuffer(src, src.size, true); err != nil {
		t.Fatalf("FlushBuffer: %v", err)
	}
	buf, ok := fd.buffers[src.label]
	if !ok || buf.Size() != 256 {
		t.Fatalf("expected a 256-byte buffer registered under %q, got %+v", src.label, buf)
	}

	// A second flush with no resize and no new dirty ranges must reuse
	// the same buffer rather than recreating it.
	if err := fd.FlushBuffer(src, src.size, false); err != nil {
		t.Fatalf("FlushBuffer (steady state): %v", err)
	}
	if fd.buffers[src.label] != buf {
		t.Fatalf("FlushBuffer recreated the buffer without a resize signal")
	}
}

func TestFrameDriverRunPassCoversEveryPassKind(t *testing.T) {
	backend := newTestBackend(t)
	fd := newTestFrameDriver(t, backend)

	if err := fd.Resize(64, 64); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	for _, kind := range renderpass.Order {
		if err := fd.RunPass(kind); err != nil {
			t.Fatalf("RunPass(%s): %v", kind, err)
		}
	}

	if err := fd.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}
}

func TestFrameDriverDispatchMipmapsIsNoOpForEmptyInput(t *testing.T) {
	backend := newTestBackend(t)
	fd := newTestFrameDriver(t, backend)

	if err := fd.DispatchMipmaps(nil); err != nil {
		t.Fatalf("DispatchMipmaps(nil): %v", err)
	}
}

func TestFrameDriverDispatchMipmapsForSeveralEntriesThenPresent(t *testing.T) {
	backend := newTestBackend(t)
	fd := newTestFrameDriver(t, backend)

	if err := fd.DispatchMipmaps([]uint64{1, 2, 3}); err != nil {
		t.Fatalf("DispatchMipmaps: %v", err)
	}
	if err := fd.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}
}
