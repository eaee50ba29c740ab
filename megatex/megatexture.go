// Package megatex packs images into bounded 2D array textures ("atlases")
// using MaxRects best-area-fit bin packing, growing into additional atlases
// and layers on overflow rather than evicting or relocating placed entries.
//
// Once an entry is placed, its atlas index, layer index, and UV
// offset/scale never change — callers may cache those coordinates
// indefinitely, grounded on
// original_source/crates/renderer-core/src/texture/mega_texture.rs.
package megatex

import (
	"fmt"

	"github.com/gogpu/vbrenderer/rendererror"
)

// Dimension is a requested entry size before padding/gutter is applied.
type Dimension struct {
	Width, Height uint32
}

// Index locates a placed entry within a MegaTexture.
type Index struct {
	AtlasIndex int
	LayerIndex int
	EntryIndex int
}

// Entry records where an image landed and the UV rectangle callers sample
// it through, computed once at placement time.
type Entry struct {
	// PixelOffset is the entry's top-left corner inside its layer, gutter
	// already added.
	PixelOffsetX, PixelOffsetY uint32
	Width, Height              uint32

	// UVOffset/UVScale map a local [0,1]x[0,1] UV into the layer's texture
	// space, excluding the gutter.
	UVOffsetX, UVOffsetY float32
	UVScaleX, UVScaleY   float32
}

// Limits is the subset of device limits max_dimensions needs, grounded on
// backend/wgpu/device.go's CheckDeviceLimits.
type Limits struct {
	MaxTextureDimension2D uint32
	MaxTextureArrayLayers uint32
	MaxBufferSize         uint64
}

// bytesPerPixelRGBA16F is the storage cost assumption max_dimensions uses
// to size texture_size/max_depth against MaxBufferSize (rgba16float, the
// megatexture's storage format).
const bytesPerPixelRGBA16F = 8

// MaxDimensions derives (textureSize, maxDepth) from device limits: the
// largest square texture_size such that one fully-populated 2D array layer
// still fits in a single buffer, and the largest array depth a buffer of
// that layer size could address.
func MaxDimensions(limits Limits) (textureSize, maxDepth uint32) {
	textureSize = limits.MaxTextureDimension2D
	for uint64(textureSize)*uint64(textureSize)*bytesPerPixelRGBA16F > limits.MaxBufferSize && textureSize > 1 {
		textureSize /= 2
	}

	memoryPerTexture := uint64(textureSize) * uint64(textureSize) * bytesPerPixelRGBA16F
	byBuffer := uint32(limits.MaxBufferSize / memoryPerTexture)
	maxDepth = limits.MaxTextureArrayLayers
	if byBuffer < maxDepth {
		maxDepth = byBuffer
	}
	return textureSize, maxDepth
}

// MegaTexture is the top-level atlas pool for a single texture "kind" (one
// per material-texture-slot category, e.g. albedo vs normal vs ORM — each
// kind gets its own MegaTexture so mip filtering can be type-specific).
type MegaTexture[ID comparable] struct {
	TextureSize uint32
	AtlasDepth  uint32 // == max_depth, the layer cap per atlas
	Padding     uint32
	Mipmap      bool

	atlases []*Atlas[ID]
	lookup  map[ID]Index
}

// New creates an empty MegaTexture sized from device limits.
func New[ID comparable](limits Limits, padding uint32, mipmap bool) *MegaTexture[ID] {
	textureSize, maxDepth := MaxDimensions(limits)
	return &MegaTexture[ID]{
		TextureSize: textureSize,
		AtlasDepth:  maxDepth,
		Padding:     padding,
		Mipmap:      mipmap,
		lookup:      make(map[ID]Index),
	}
}

// imageRequest pairs a caller ID with its requested dimension, preserved
// through the cascade so rejected images can be retried in a new atlas.
type imageRequest[ID comparable] struct {
	id  ID
	dim Dimension
}

// AddEntries places a batch of images, creating new atlases as needed when
// a layer (and then an atlas at max depth) cannot accept everything.
func (m *MegaTexture[ID]) AddEntries(images map[ID]Dimension) error {
	reqs := make([]imageRequest[ID], 0, len(images))
	for id, dim := range images {
		reqs = append(reqs, imageRequest[ID]{id: id, dim: dim})
	}

	for len(reqs) > 0 {
		if len(m.atlases) == 0 {
			m.atlases = append(m.atlases, newAtlas[ID](m.TextureSize, m.AtlasDepth, m.Padding))
		}
		atlasIndex := len(m.atlases) - 1
		atlas := m.atlases[atlasIndex]

		rejected, err := atlas.addEntries(atlasIndex, reqs, m.lookup)
		if err != nil {
			return err
		}
		if len(rejected) == 0 {
			return nil
		}
		reqs = rejected
		m.atlases = append(m.atlases, newAtlas[ID](m.TextureSize, m.AtlasDepth, m.Padding))
	}
	return nil
}

// Lookup returns the placement for id.
func (m *MegaTexture[ID]) Lookup(id ID) (Index, bool) {
	idx, ok := m.lookup[id]
	return idx, ok
}

// Entry returns the placed entry for id.
func (m *MegaTexture[ID]) Entry(id ID) (Entry, bool) {
	idx, ok := m.lookup[id]
	if !ok {
		var zero Entry
		return zero, false
	}
	return m.atlases[idx.AtlasIndex].layers[idx.LayerIndex].entries[idx.EntryIndex], true
}

// AtlasCount returns the number of atlases allocated so far.
func (m *MegaTexture[ID]) AtlasCount() int { return len(m.atlases) }

// Atlas holds the layers (2D array texture slabs) for one bounded texture
// array; a MegaTexture grows into a new Atlas once the current one's
// layers are all full at max depth.
type Atlas[ID comparable] struct {
	width, height uint32
	maxDepth      uint32
	padding       uint32
	layers        []*layer[ID]
}

func newAtlas[ID comparable](size, maxDepth, padding uint32) *Atlas[ID] {
	return &Atlas[ID]{width: size, height: size, maxDepth: maxDepth, padding: padding}
}

type layer[ID comparable] struct {
	packer  *maxRectsBin
	entries []Entry
}

// addEntries packs reqs into this atlas's layers, creating new layers up to
// maxDepth, and returns any requests that still don't fit (to cascade into
// a new atlas).
func (a *Atlas[ID]) addEntries(atlasIndex int, reqs []imageRequest[ID], lookup map[ID]Index) ([]imageRequest[ID], error) {
	if len(a.layers) == 0 {
		a.layers = append(a.layers, &layer[ID]{packer: newMaxRectsBin(int(a.width), int(a.height))})
	}

	pending := reqs
	for {
		current := a.layers[len(a.layers)-1]
		layerIndex := len(a.layers) - 1

		dims := make([]rect, len(pending))
		for i, r := range pending {
			dims[i] = rect{w: int(r.dim.Width + 2*a.padding), h: int(r.dim.Height + 2*a.padding)}
		}

		placed, rejectedIdx := current.packer.insertList(dims)

		if len(placed) == 0 && len(pending) > 0 && len(current.entries) == 0 {
			largestW, largestH := pending[0].dim.Width, pending[0].dim.Height
			for _, r := range pending {
				if r.dim.Width > largestW {
					largestW = r.dim.Width
				}
				if r.dim.Height > largestH {
					largestH = r.dim.Height
				}
			}
			return nil, fmt.Errorf("%w: image %dx%d exceeds atlas layer size %dx%d",
				rendererror.ErrAtlasSize, largestW, largestH, a.width, a.height)
		}

		for _, p := range placed {
			req := pending[p.index]
			if _, dup := lookup[req.id]; dup {
				return nil, fmt.Errorf("%w: %v", rendererror.ErrDuplicateID, req.id)
			}

			pixelX := uint32(p.rect.x) + a.padding
			pixelY := uint32(p.rect.y) + a.padding
			entry := Entry{
				PixelOffsetX: pixelX,
				PixelOffsetY: pixelY,
				Width:        req.dim.Width,
				Height:       req.dim.Height,
				UVOffsetX:    float32(pixelX) / float32(a.width),
				UVOffsetY:    float32(pixelY) / float32(a.height),
				UVScaleX:     float32(req.dim.Width) / float32(a.width),
				UVScaleY:     float32(req.dim.Height) / float32(a.height),
			}
			entryIndex := len(current.entries)
			current.entries = append(current.entries, entry)
			lookup[req.id] = Index{AtlasIndex: atlasIndex, LayerIndex: layerIndex, EntryIndex: entryIndex}
		}

		if len(rejectedIdx) == 0 {
			return nil, nil
		}

		rejected := make([]imageRequest[ID], len(rejectedIdx))
		for i, ri := range rejectedIdx {
			rejected[i] = pending[ri]
		}

		if uint32(len(a.layers)) >= a.maxDepth {
			return rejected, nil
		}

		a.layers = append(a.layers, &layer[ID]{packer: newMaxRectsBin(int(a.width), int(a.height))})
		pending = rejected
	}
}
