//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// renderTargets holds the intermediate textures shared by every pass of
// the render graph for one frame size:
//   - visibility: mesh_id/primitive_id/barycentric payload, R32Uint, written
//     by the geometry pass and read back by opaque compute shade
//   - opaqueColor: RGBA16Float storage texture written by opaque compute shade
//   - oitAccum / oitReveal: weighted-blended OIT accumulation and revealage,
//     written by the transparent forward pass
//   - composited: RGBA16Float result of resolving OIT against opaque color,
//     read by the display pass's tonemap
//
// All five targets are recreated together whenever the frame size changes;
// ensureTargets is a no-op when the requested size already matches.
type renderTargets struct {
	visibility      core.TextureID
	visibilityView  core.TextureViewID
	opaqueColor     core.TextureID
	opaqueColorView core.TextureViewID
	oitAccum        core.TextureID
	oitAccumView    core.TextureViewID
	oitReveal       core.TextureID
	oitRevealView   core.TextureViewID
	composited      core.TextureID
	compositedView  core.TextureViewID

	width  uint32
	height uint32
}

// ensureTargets creates or recreates the render graph's intermediate
// textures if the requested dimensions differ from the current size. If
// dimensions match and the targets already exist, this is a no-op.
func (rt *renderTargets) ensureTargets(deviceID core.DeviceID, w, h uint32, labelPrefix string) error {
	if rt.width == w && rt.height == h && !rt.visibility.IsZero() {
		return nil
	}
	rt.destroyTargets()

	size := gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	visID, visView, err := createRenderTarget(deviceID, size, gputypes.TextureFormatR32Uint,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding, labelPrefix+"_visibility")
	if err != nil {
		return fmt.Errorf("create visibility buffer: %w", err)
	}
	rt.visibility, rt.visibilityView = visID, visView

	opaqueID, opaqueView, err := createRenderTarget(deviceID, size, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureUsageStorageBinding|gputypes.TextureUsageTextureBinding, labelPrefix+"_opaque_color")
	if err != nil {
		rt.destroyTargets()
		return fmt.Errorf("create opaque color target: %w", err)
	}
	rt.opaqueColor, rt.opaqueColorView = opaqueID, opaqueView

	accumID, accumView, err := createRenderTarget(deviceID, size, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding, labelPrefix+"_oit_accum")
	if err != nil {
		rt.destroyTargets()
		return fmt.Errorf("create OIT accumulation target: %w", err)
	}
	rt.oitAccum, rt.oitAccumView = accumID, accumView

	revealID, revealView, err := createRenderTarget(deviceID, size, gputypes.TextureFormatR16Float,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding, labelPrefix+"_oit_reveal")
	if err != nil {
		rt.destroyTargets()
		return fmt.Errorf("create OIT revealage target: %w", err)
	}
	rt.oitReveal, rt.oitRevealView = revealID, revealView

	compID, compView, err := createRenderTarget(deviceID, size, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding, labelPrefix+"_composited")
	if err != nil {
		rt.destroyTargets()
		return fmt.Errorf("create composited target: %w", err)
	}
	rt.composited, rt.compositedView = compID, compView

	rt.width = w
	rt.height = h
	return nil
}

// createRenderTarget creates a single-layer 2D texture and its default
// view, the shape every render graph intermediate target shares.
func createRenderTarget(deviceID core.DeviceID, size gputypes.Extent3D, format gputypes.TextureFormat,
	usage gputypes.TextureUsage, label string) (core.TextureID, core.TextureViewID, error) {
	texID, err := core.CreateTexture(deviceID, &gputypes.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return core.TextureID{}, core.TextureViewID{}, err
	}
	viewID, err := core.CreateTextureView(texID, &gputypes.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		_ = core.TextureDrop(texID)
		return core.TextureID{}, core.TextureViewID{}, err
	}
	return texID, viewID, nil
}

// destroyTargets releases all render target resources and resets
// dimensions so the next ensureTargets call rebuilds from scratch.
func (rt *renderTargets) destroyTargets() {
	drop := func(texID core.TextureID, viewID core.TextureViewID) {
		if !viewID.IsZero() {
			_ = core.TextureViewDrop(viewID)
		}
		if !texID.IsZero() {
			_ = core.TextureDrop(texID)
		}
	}
	drop(rt.visibility, rt.visibilityView)
	drop(rt.opaqueColor, rt.opaqueColorView)
	drop(rt.oitAccum, rt.oitAccumView)
	drop(rt.oitReveal, rt.oitRevealView)
	drop(rt.composited, rt.compositedView)

	*rt = renderTargets{}
}
