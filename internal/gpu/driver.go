//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/vbrenderer/dynbuf"
	"github.com/gogpu/vbrenderer/frame"
	"github.com/gogpu/vbrenderer/pipelinecache"
	"github.com/gogpu/vbrenderer/rendererror"
	"github.com/gogpu/vbrenderer/renderpass"
	"github.com/gogpu/vbrenderer/transform"
)

// FrameDriver is the concrete internal/gpu side of a frame.Driver: it
// supplies the BufferFlush, MipmapDispatch, PassRunner, and Present hooks
// frame.Driver calls, backed by a real Backend, the render graph's
// intermediate textures, and the compiled shader modules. Nothing outside
// this file builds a frame.Driver whose hooks actually touch the GPU;
// everywhere else in the tree a Driver is exercised with caller-supplied
// stand-ins instead.
type FrameDriver struct {
	backend   *Backend
	shaders   *ShaderModules
	labelBase string

	mu      sync.Mutex
	targets renderTargets
	buffers map[string]*GPUBuffer
	encoder *CoreCommandEncoder
}

// NewFrameDriver compiles shaders against backend and returns a
// frame.Driver whose hooks are wired to a FrameDriver. graph, pipelines,
// and transforms are passed straight through to frame.NewDriver.
func NewFrameDriver(log zerolog.Logger, backend *Backend, graph *renderpass.Graph, pipelines *pipelinecache.Cache, transforms *transform.Graph, labelBase string) (*frame.Driver, error) {
	if backend == nil {
		return nil, ErrNilDevice
	}
	shaders, err := CompileShaders(backend.Device())
	if err != nil {
		return nil, fmt.Errorf("compile shaders: %w", err)
	}

	fd := &FrameDriver{
		backend:   backend,
		shaders:   shaders,
		labelBase: labelBase,
		buffers:   make(map[string]*GPUBuffer),
	}

	driver := frame.NewDriver(log, graph, pipelines, transforms)
	driver.Flush = fd.FlushBuffer
	driver.Mipmap = fd.DispatchMipmaps
	driver.RunPass = fd.RunPass
	driver.Present = fd.Present
	return driver, nil
}

// Resize recreates the render graph's intermediate textures for a new
// frame size. Call this before RunFrame whenever the swapchain resizes;
// ensureTargets is a no-op if the size already matches.
func (d *FrameDriver) Resize(width, height uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.targets.ensureTargets(d.backend.Device(), width, height, d.labelBase)
}

// FlushBuffer implements frame.BufferFlush: it recreates source's backing
// GPUBuffer on resize, then writes every dirty range reported since the
// last flush.
func (d *FrameDriver) FlushBuffer(source dynbuf.Source, resize int, didResize bool) error {
	d.mu.Lock()
	buf, ok := d.buffers[source.Label()]
	d.mu.Unlock()

	if didResize || !ok {
		if buf != nil {
			buf.Close()
		}
		newBuf, err := CreateGPUBuffer(d.backend, uint64(resize), defaultDynBufUsage, source.Label())
		if err != nil {
			return fmt.Errorf("recreate buffer %q: %w", source.Label(), err)
		}
		d.mu.Lock()
		d.buffers[source.Label()] = newBuf
		d.mu.Unlock()
		buf = newBuf
	}

	for _, r := range source.TakeDirtyRanges() {
		data := source.Bytes()[r.Start:r.End]
		if err := buf.Write(d.backend, uint64(r.Start), data); err != nil {
			return fmt.Errorf("write dirty range [%d,%d) of %q: %w", r.Start, r.End, source.Label(), err)
		}
	}
	return nil
}

// defaultDynBufUsage is storage|copy-dst: every dynamic buffer this
// renderer mirrors (vertex, index, attribute data) is read back through a
// storage-buffer binding in the geometry and shading passes rather than
// the fixed-function vertex/index input stage, the standard visibility
// buffer vertex-pulling layout.
const defaultDynBufUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst

// DispatchMipmaps implements frame.MipmapDispatch: it records a compute
// pass dispatching the mipmap shader once per newly introduced atlas
// entry. Binding the atlas source/destination textures as storage images
// needs a real ComputePipeline/BindGroup to attach them to, which nothing
// in this package (or the rest of the pack) can construct yet; the
// dispatch itself is still recorded so the pass accounting and command
// buffer lifecycle are exercised end to end.
func (d *FrameDriver) DispatchMipmaps(newEntryIDs []uint64) error {
	if len(newEntryIDs) == 0 {
		return nil
	}
	enc, err := d.frameEncoder()
	if err != nil {
		return err
	}

	pass, err := enc.BeginComputePass(&ComputePassDescriptor{Label: d.labelBase + "_mipmap"})
	if err != nil {
		return fmt.Errorf("begin mipmap compute pass: %w", err)
	}
	// TODO: bind the atlas layer as a storage image once texcache exposes
	// a BindGroup; for now each entry dispatches one workgroup per call.
	for range newEntryIDs {
		if err := pass.DispatchWorkgroups(1, 1, 1); err != nil {
			return fmt.Errorf("dispatch mipmap workgroup: %w", err)
		}
	}
	return pass.End()
}

// RunPass implements frame.PassRunner: it begins and ends the correct
// pass type for kind against the render graph's intermediate textures.
// PassOpaqueShade is a compute pass (texture_storage write, no rasterizer
// output); the other four are render passes. No draw or dispatch calls
// are recorded here beyond a clear, since binding the still-unbuilt
// geometry/shading RenderPipeline objects belongs to the pipeline cache,
// not this bridge.
func (d *FrameDriver) RunPass(kind renderpass.PassKind) error {
	enc, err := d.frameEncoder()
	if err != nil {
		return err
	}

	d.mu.Lock()
	targets := d.targets
	d.mu.Unlock()

	if kind == renderpass.PassOpaqueShade {
		pass, err := enc.BeginComputePass(&ComputePassDescriptor{Label: d.labelBase + "_" + kind.String()})
		if err != nil {
			return fmt.Errorf("begin pass %s: %w", kind, err)
		}
		return pass.End()
	}

	view, ok := colorTargetFor(kind, &targets)
	if !ok {
		return fmt.Errorf("%w: no render target wired for pass %s", rendererror.ErrGPUCommand, kind)
	}

	attachment := RenderPassColorAttachment{
		View:    NewTextureView(view),
		LoadOp:  loadOpFor(kind),
		StoreOp: storeOpFor(kind),
	}
	if kind == renderpass.PassGeometry {
		// Opaque shade reads mesh_id 0xffffffff as "no hit".
		attachment.ClearValue = gputypes.Color{R: 0xffffffff}
	}
	pass, err := enc.BeginRenderPass(&RenderPassDescriptor{
		Label:            d.labelBase + "_" + kind.String(),
		ColorAttachments: []RenderPassColorAttachment{attachment},
	})
	if err != nil {
		return fmt.Errorf("begin pass %s: %w", kind, err)
	}
	return pass.End()
}

// colorTargetFor picks the render-graph intermediate texture a given pass
// writes to: geometry writes the visibility buffer, transparent writes
// the OIT accumulation target, composite resolves into the composited
// target, and display reads the composited target back (so it is also
// the attachment display's tonemap writes its final color into here,
// since this bridge has no swapchain view to attach instead).
func colorTargetFor(kind renderpass.PassKind, rt *renderTargets) (core.TextureViewID, bool) {
	switch kind {
	case renderpass.PassGeometry:
		return rt.visibilityView, true
	case renderpass.PassTransparent:
		return rt.oitAccumView, true
	case renderpass.PassComposite, renderpass.PassDisplay:
		return rt.compositedView, true
	default:
		return core.TextureViewID{}, false
	}
}

// loadOpFor clears the geometry pass (first writer of the frame) and
// loads everywhere else, since later passes composite onto earlier work.
func loadOpFor(kind renderpass.PassKind) gputypes.LoadOp {
	if kind == renderpass.PassGeometry {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

func storeOpFor(renderpass.PassKind) gputypes.StoreOp { return gputypes.StoreOpStore }

// frameEncoder lazily creates the frame's command encoder on first use
// within a frame; Present consumes and clears it.
func (d *FrameDriver) frameEncoder() (*CoreCommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.encoder != nil {
		return d.encoder, nil
	}
	enc, err := NewCoreCommandEncoder(d.backend, d.labelBase+"_frame")
	if err != nil {
		return nil, fmt.Errorf("create frame command encoder: %w", err)
	}
	d.encoder = enc
	return enc, nil
}

// Present implements frame.Present: it finishes the frame's command
// encoder and submits it to the device queue.
func (d *FrameDriver) Present() error {
	d.mu.Lock()
	enc := d.encoder
	d.encoder = nil
	d.mu.Unlock()

	if enc == nil {
		return nil
	}
	buf, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("finish frame command encoder: %w", err)
	}
	return d.backend.Submit(buf)
}

// Submit submits one or more finished command buffers to the device
// queue with core.QueueSubmit. Command buffers without a core buffer
// (those finished in mock mode) are skipped, and nothing is submitted
// when none remain.
func (b *Backend) Submit(buffers ...*CoreCommandBuffer) error {
	if !b.IsInitialized() {
		return rendererror.ErrDeviceNotInitialized
	}
	coreBufs := make([]*core.CoreCommandBuffer, 0, len(buffers))
	for _, buf := range buffers {
		if cb := buf.CoreBuffer(); cb != nil {
			coreBufs = append(coreBufs, cb)
		}
	}
	if len(coreBufs) == 0 {
		return nil
	}
	if err := core.QueueSubmit(b.Queue(), coreBufs); err != nil {
		return fmt.Errorf("%w: %w", rendererror.ErrGPUCommand, err)
	}
	return nil
}
