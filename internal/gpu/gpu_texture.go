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

// Texture-related errors.
var (
	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrTextureDataSizeMismatch is returned when uploaded data doesn't
	// match the expected byte size for the target region.
	ErrTextureDataSizeMismatch = errors.New("gpu: data size does not match target region")

	// ErrInvalidDimensions is returned for zero or negative width/height/depth.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")
)

// TextureFormat mirrors the subset of gputypes formats this renderer's
// megatexture and render targets use.
type TextureFormat uint8

const (
	TextureFormatRGBA16Float TextureFormat = iota
	TextureFormatRG16Float
	TextureFormatR32Uint
	TextureFormatDepth32Float
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8Snorm
)

// String returns a human-readable name for the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA16Float:
		return "RGBA16Float"
	case TextureFormatRG16Float:
		return "RG16Float"
	case TextureFormatR32Uint:
		return "R32Uint"
	case TextureFormatDepth32Float:
		return "Depth32Float"
	case TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case TextureFormatRGBA8Snorm:
		return "RGBA8Snorm"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per texel for the format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA16Float:
		return 8
	case TextureFormatRG16Float:
		return 4
	case TextureFormatR32Uint, TextureFormatDepth32Float:
		return 4
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8Snorm:
		return 4
	default:
		return 4
	}
}

// ToWGPUFormat converts to the wgpu gputypes.TextureFormat.
func (f TextureFormat) ToWGPUFormat() gputypes.TextureFormat {
	switch f {
	case TextureFormatRGBA16Float:
		return gputypes.TextureFormatRGBA16Float
	case TextureFormatRG16Float:
		return gputypes.TextureFormatRG16Float
	case TextureFormatR32Uint:
		return gputypes.TextureFormatR32Uint
	case TextureFormatDepth32Float:
		return gputypes.TextureFormatDepth32Float
	case TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case TextureFormatRGBA8Snorm:
		return gputypes.TextureFormatRGBA8Snorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// GPUTexture is a 2D-array texture: either a megatexture atlas slab
// (depth == atlas layer count) or a single-layer render target used by
// the render graph's intermediate passes.
//
// GPUTexture is safe for concurrent read access. Write operations
// (UploadLayer, Close) should be synchronized externally.
type GPUTexture struct {
	mu sync.RWMutex

	textureID core.TextureID
	viewID    core.TextureViewID

	width  int
	height int
	depth  int // array layer count
	format TextureFormat
	mipLevelCount int

	sizeBytes uint64

	released atomic.Bool
	label    string
}

// TextureConfig holds configuration for creating a new 2D-array texture.
type TextureConfig struct {
	Width         int
	Height        int
	Depth         int // array layer count; 1 for a non-array texture
	Format        TextureFormat
	MipLevelCount int
	Label         string
	Usage         gputypes.TextureUsage
}

// DefaultTextureUsage is the default usage for textures created without
// specific flags: sampled, mipmap-compute-writable, and copy-updatable.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding | gputypes.TextureUsageStorageBinding

// CreateTexture creates a new GPU 2D-array texture with the given
// configuration. The texture is uninitialized and should be filled with
// UploadLayer (or rendered into, for render-graph intermediate targets).
func CreateTexture(backend *Backend, config TextureConfig) (*GPUTexture, error) {
	if config.Width <= 0 || config.Height <= 0 || config.Depth <= 0 {
		return nil, ErrInvalidDimensions
	}
	if backend != nil && !backend.IsInitialized() {
		return nil, rendererror.ErrDeviceNotInitialized
	}

	mipLevels := config.MipLevelCount
	if mipLevels <= 0 {
		mipLevels = 1
	}

	usage := config.Usage
	if usage == 0 {
		usage = DefaultTextureUsage
	}

	//nolint:gosec // G115: dimensions are validated positive above
	sizeBytes := uint64(config.Width*config.Height*config.Depth*config.Format.BytesPerPixel()) * mipmapSizeFactor(mipLevels)

	var textureID core.TextureID
	if backend != nil {
		desc := &gputypes.TextureDescriptor{
			Label: config.Label,
			Size: gputypes.Extent3D{
				Width:              uint32(config.Width),
				Height:             uint32(config.Height),
				DepthOrArrayLayers: uint32(config.Depth),
			},
			MipLevelCount: uint32(mipLevels),
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        config.Format.ToWGPUFormat(),
			Usage:         usage,
		}
		id, err := core.CreateTexture(backend.Device(), desc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rendererror.ErrGPUCommand, err)
		}
		textureID = id
	}

	tex := &GPUTexture{
		textureID:     textureID,
		width:         config.Width,
		height:        config.Height,
		depth:         config.Depth,
		format:        config.Format,
		mipLevelCount: mipLevels,
		sizeBytes:     sizeBytes,
		label:         config.Label,
	}

	return tex, nil
}

// mipmapSizeFactor returns the total-bytes multiplier used for a mip
// chain: 1 for a single level and 2 for any longer chain, an
// over-estimate of the 4/3 a full chain adds over the base level.
func mipmapSizeFactor(mipLevels int) uint64 {
	if mipLevels <= 1 {
		return 1
	}
	return 2 // conservative over-estimate; real sizing happens per level at upload time
}

// Width, Height, Depth return the texture's dimensions in texels/layers.
func (t *GPUTexture) Width() int  { return t.width }
func (t *GPUTexture) Height() int { return t.height }
func (t *GPUTexture) Depth() int  { return t.depth }

// Format returns the texture format.
func (t *GPUTexture) Format() TextureFormat { return t.format }

// MipLevelCount returns how many mip levels this texture was created with.
func (t *GPUTexture) MipLevelCount() int { return t.mipLevelCount }

// SizeBytes returns the approximate GPU memory footprint in bytes.
func (t *GPUTexture) SizeBytes() uint64 { return t.sizeBytes }

// Label returns the debug label.
func (t *GPUTexture) Label() string { return t.label }

// IsReleased returns true if the texture has been released.
func (t *GPUTexture) IsReleased() bool { return t.released.Load() }

// TextureID returns the underlying wgpu texture ID.
func (t *GPUTexture) TextureID() core.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.textureID
}

// ViewID returns the texture view ID.
func (t *GPUTexture) ViewID() core.TextureViewID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.viewID
}

// UploadLayer uploads tightly packed pixel data to one array layer at
// mip level 0. data must be exactly width*height*BytesPerPixel() bytes.
func (t *GPUTexture) UploadLayer(backend *Backend, layer int, data []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if layer < 0 || layer >= t.depth {
		return fmt.Errorf("%w: layer %d out of range [0,%d)", ErrInvalidDimensions, layer, t.depth)
	}

	expected := t.width * t.height * t.format.BytesPerPixel()
	if len(data) != expected {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrTextureDataSizeMismatch, expected, len(data))
	}

	if backend == nil || !backend.IsInitialized() {
		return rendererror.ErrDeviceNotInitialized
	}

	err := core.QueueWriteTexture(backend.Queue(), &gputypes.ImageCopyTexture{
		Texture:  t.textureID,
		MipLevel: 0,
		Origin:   gputypes.Origin3D{X: 0, Y: 0, Z: uint32(layer)},
		Aspect:   gputypes.TextureAspectAll,
	}, data, &gputypes.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(t.width * t.format.BytesPerPixel()),
		RowsPerImage: uint32(t.height),
	}, &gputypes.Extent3D{
		Width:              uint32(t.width),
		Height:             uint32(t.height),
		DepthOrArrayLayers: 1,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", rendererror.ErrGPUCommand, err)
	}
	return nil
}

// UploadRegion uploads pixel data to a sub-rectangle of one array layer,
// used by megatex to place a newly packed atlas entry without
// re-uploading the whole layer.
func (t *GPUTexture) UploadRegion(backend *Backend, layer, x, y, width, height int, data []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if x < 0 || y < 0 || x+width > t.width || y+height > t.height {
		return fmt.Errorf("%w: region (%d,%d)+(%dx%d) exceeds texture bounds (%dx%d)",
			ErrInvalidDimensions, x, y, width, height, t.width, t.height)
	}

	expected := width * height * t.format.BytesPerPixel()
	if len(data) != expected {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrTextureDataSizeMismatch, expected, len(data))
	}

	if backend == nil || !backend.IsInitialized() {
		return rendererror.ErrDeviceNotInitialized
	}

	err := core.QueueWriteTexture(backend.Queue(), &gputypes.ImageCopyTexture{
		Texture:  t.textureID,
		MipLevel: 0,
		Origin:   gputypes.Origin3D{X: uint32(x), Y: uint32(y), Z: uint32(layer)},
		Aspect:   gputypes.TextureAspectAll,
	}, data, &gputypes.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(width * t.format.BytesPerPixel()),
		RowsPerImage: uint32(height),
	}, &gputypes.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", rendererror.ErrGPUCommand, err)
	}
	return nil
}

// Close releases the GPU texture resources. The texture should not be
// used after Close is called.
func (t *GPUTexture) Close() {
	if t.released.Swap(true) {
		return
	}

	t.mu.Lock()
	textureID := t.textureID
	viewID := t.viewID
	t.mu.Unlock()

	if !viewID.IsZero() {
		_ = core.TextureViewDrop(viewID)
	}
	if !textureID.IsZero() {
		_ = core.TextureDrop(textureID)
	}

	t.mu.Lock()
	t.textureID = core.TextureID{}
	t.viewID = core.TextureViewID{}
	t.mu.Unlock()
}

// String returns a string representation of the texture.
func (t *GPUTexture) String() string {
	status := "active"
	if t.released.Load() {
		status = "released"
	}
	return fmt.Sprintf("GPUTexture[%s %dx%dx%d %s %d bytes %s]",
		t.label, t.width, t.height, t.depth, t.format, t.sizeBytes, status)
}
