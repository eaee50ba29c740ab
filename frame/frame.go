// Package frame is the top-level per-frame driver: flush dirty CPU-mirror
// buffers, dispatch mipmap generation for newly introduced textures,
// reconcile any render-graph pass marked needs-recreate, run the five
// passes in order, then present. It owns no GPU resources itself; every
// GPU-facing step is a hook the embedding application supplies, so the
// sequencing and error-handling policy here can be exercised without a
// device.
package frame

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gogpu/vbrenderer/dynbuf"
	"github.com/gogpu/vbrenderer/pipelinecache"
	"github.com/gogpu/vbrenderer/rendererror"
	"github.com/gogpu/vbrenderer/renderpass"
	"github.com/gogpu/vbrenderer/transform"
)

// BufferFlush pushes one dynbuf.Source's dirty ranges to its backing GPU
// buffer, or recreates the buffer first when resize reports a new
// required size.
type BufferFlush func(source dynbuf.Source, resize int, didResize bool) error

// MipmapDispatch issues mipmap compute dispatches for the atlas entry IDs
// introduced since the last frame.
type MipmapDispatch func(newEntryIDs []uint64) error

// PassRunner executes one render-graph pass's GPU commands.
type PassRunner func(kind renderpass.PassKind) error

// Present submits the frame's command encoder and displays the result.
type Present func() error

// Driver sequences one frame. Buffers, Flush, Mipmap, RunPass, and
// Present are filled in by the embedding application after construction;
// a nil Flush/Mipmap/Present is treated as "nothing to do" for that step,
// but a nil RunPass is a configuration error since no frame can render
// without one.
type Driver struct {
	Log zerolog.Logger

	Graph      *renderpass.Graph
	Pipelines  *pipelinecache.Cache
	Transforms *transform.Graph

	Buffers []dynbuf.Source
	Flush   BufferFlush

	Mipmap MipmapDispatch

	RunPass PassRunner
	Present Present

	pendingMipmapIDs []uint64
}

// NewDriver creates a frame driver wired to graph, pipelines, and
// transforms. log should already carry service-wide fields (build
// version, device name, etc); the driver adds per-frame-failure context
// on top of it.
func NewDriver(log zerolog.Logger, graph *renderpass.Graph, pipelines *pipelinecache.Cache, transforms *transform.Graph) *Driver {
	return &Driver{Log: log, Graph: graph, Pipelines: pipelines, Transforms: transforms}
}

// QueueMipmapTargets records atlas entry IDs needing mipmap generation on
// the next RunFrame call. Called by the embedding application after
// inserting new images into the texture pool.
func (d *Driver) QueueMipmapTargets(ids []uint64) {
	d.pendingMipmapIDs = append(d.pendingMipmapIDs, ids...)
}

// NotifyPoolGrown marks the render-graph passes that depend on the
// texture pool for recreation: the opaque pass rebuilds wholesale since
// its bind groups depend only on global parameters, while the
// transparent pass rebuilds lazily, scoped to affectedKeys.
func (d *Driver) NotifyPoolGrown(variant pipelinecache.BindGroupVariant, affectedKeys []string) {
	d.Pipelines.MarkPoolGrown(variant, affectedKeys)
	switch variant {
	case pipelinecache.OpaqueWholesale:
		d.Graph.MarkNeedsRecreate(renderpass.PassOpaqueShade, renderpass.ReasonTexturePoolGrown)
	case pipelinecache.TransparentLazy:
		d.Graph.MarkNeedsRecreate(renderpass.PassTransparent, renderpass.ReasonTexturePoolGrown)
	}
}

// RunFrame executes one frame. Per the no-implicit-retry policy, any
// failure in buffer flush, mipmap dispatch, pass reconciliation, pass
// execution, or present logs a single structured event and returns nil:
// the caller's next RunFrame call simply tries again. The exceptions are
// a missing PassRunner (a configuration error, returned so the caller
// fixes wiring rather than spinning) and any panic from the buddy
// allocator's post-grow invariant check, which is a programmer error and
// is not recovered here.
func (d *Driver) RunFrame() error {
	if d.RunPass == nil {
		return fmt.Errorf("frame: no pass runner installed")
	}

	d.Transforms.Flush()

	if err := d.flushBuffers(); err != nil {
		d.Log.Error().Err(err).Msg("frame: buffer flush failed, skipping frame")
		return nil
	}

	if err := d.dispatchMipmaps(); err != nil {
		d.Log.Error().Err(err).Msg("frame: mipmap dispatch failed, skipping frame")
		return nil
	}

	if err := d.Graph.ReconcileAll(); err != nil {
		d.Log.Error().Err(err).Msg("frame: render pass reconcile failed, skipping frame")
		return nil
	}

	if err := d.Graph.Execute(d.RunPass); err != nil {
		if errors.Is(err, rendererror.ErrPassNotReady) {
			d.Log.Error().Err(err).Msg("frame: render graph refused to run, skipping frame")
			return nil
		}
		d.Log.Error().Err(err).Msg("frame: pass execution failed, skipping frame")
		return nil
	}

	if d.Present != nil {
		if err := d.Present(); err != nil {
			d.Log.Error().Err(err).Msg("frame: present failed, skipping frame")
			return nil
		}
	}

	return nil
}

func (d *Driver) flushBuffers() error {
	if d.Flush == nil {
		for _, src := range d.Buffers {
			src.TakeDirtyRanges()
			src.TakeNeedsResize()
		}
		return nil
	}
	for _, src := range d.Buffers {
		resize, didResize := src.TakeNeedsResize()
		if err := d.Flush(src, resize, didResize); err != nil {
			return fmt.Errorf("frame: flushing buffer %q: %w", src.Label(), err)
		}
	}
	return nil
}

func (d *Driver) dispatchMipmaps() error {
	if len(d.pendingMipmapIDs) == 0 {
		return nil
	}
	ids := d.pendingMipmapIDs
	d.pendingMipmapIDs = nil
	if d.Mipmap == nil {
		return nil
	}
	if err := d.Mipmap(ids); err != nil {
		return fmt.Errorf("frame: mipmap dispatch: %w", err)
	}
	return nil
}
