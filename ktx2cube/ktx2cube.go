// Package ktx2cube validates and unpacks KTX2 cubemap containers: the
// 6-face, no-supercompression subset of the KTX2 format this renderer's
// IBL pipeline consumes. It computes per-level face byte sizes with
// block-aware, compression-format-sensitive row math, and translates
// the KTX2 format enum to a WebGPU texture format.
package ktx2cube

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/vbrenderer/rendererror"
)

// Format is the subset of KTX2/VkFormat values this package recognizes.
type Format uint8

const (
	FormatRGBA8Unorm Format = iota
	FormatRGBA8UnormSrgb
	FormatBC1RGBAUnorm
	FormatBC3RGBAUnorm
	FormatBC5RGUnorm
	FormatBC7RGBAUnorm
	FormatASTC4x4Unorm
)

type blockInfo struct {
	width, height int
	bytesPerBlock int
}

// blockTable gives each format's block footprint. Uncompressed formats
// are 1x1 blocks of their pixel size.
var blockTable = map[Format]blockInfo{
	FormatRGBA8Unorm:     {1, 1, 4},
	FormatRGBA8UnormSrgb: {1, 1, 4},
	FormatBC1RGBAUnorm:   {4, 4, 8},
	FormatBC3RGBAUnorm:   {4, 4, 16},
	FormatBC5RGUnorm:     {4, 4, 16},
	FormatBC7RGBAUnorm:   {4, 4, 16},
	FormatASTC4x4Unorm:   {4, 4, 16},
}

// ToGPUFormat is the total function translating a KTX2 format to a
// WebGPU texture format, failing on any format this renderer does not
// represent.
func ToGPUFormat(f Format) (gputypes.TextureFormat, error) {
	switch f {
	case FormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case FormatRGBA8UnormSrgb:
		return gputypes.TextureFormatRGBA8UnormSrgb, nil
	case FormatBC1RGBAUnorm:
		return gputypes.TextureFormatBC1RGBAUnorm, nil
	case FormatBC3RGBAUnorm:
		return gputypes.TextureFormatBC3RGBAUnorm, nil
	case FormatBC5RGUnorm:
		return gputypes.TextureFormatBC5RGUnorm, nil
	case FormatBC7RGBAUnorm:
		return gputypes.TextureFormatBC7RGBAUnorm, nil
	case FormatASTC4x4Unorm:
		return gputypes.TextureFormatASTC4x4Unorm, nil
	default:
		return gputypes.TextureFormat(0), fmt.Errorf("ktx2cube: format %d has no WebGPU representation: %w", f, rendererror.ErrUnsupportedFormat)
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// TightBytesPerRow returns the unpadded byte width of one row of blocks
// at the given pixel width, for format f.
func TightBytesPerRow(f Format, width int) (int, error) {
	bi, ok := blockTable[f]
	if !ok {
		return 0, fmt.Errorf("ktx2cube: unknown format %d", f)
	}
	blocksWide := ceilDiv(width, bi.width)
	return blocksWide * bi.bytesPerBlock, nil
}

// RowsPerImage returns the number of block rows spanning the given
// pixel height, for format f.
func RowsPerImage(f Format, height int) (int, error) {
	bi, ok := blockTable[f]
	if !ok {
		return 0, fmt.Errorf("ktx2cube: unknown format %d", f)
	}
	return ceilDiv(height, bi.height), nil
}

// FaceBytesTight returns rows_per_image * tight_bytes_per_row for one
// face at the given mip dimensions, with no row padding.
func FaceBytesTight(f Format, width, height int) (int, error) {
	rowBytes, err := TightBytesPerRow(f, width)
	if err != nil {
		return 0, err
	}
	rows, err := RowsPerImage(f, height)
	if err != nil {
		return 0, err
	}
	return rowBytes * rows, nil
}

// Header is the subset of a KTX2 container header this package
// validates against the cubemap contract.
type Header struct {
	Format                 Format
	PixelWidth             int
	PixelHeight            int
	PixelDepth             int
	FaceCount              int
	LayerCount             int // array layer count; must be 0 for a plain cubemap
	LevelCount             int
	SupercompressionScheme uint32 // 0 = none
}

// Validate enforces the cubemap contract: exactly 6 faces, 0 array
// layers, pixel_depth <= 1, and no supercompression scheme.
func (h Header) Validate() error {
	if h.FaceCount != 6 {
		return fmt.Errorf("ktx2cube: expected 6 faces, got %d: %w", h.FaceCount, rendererror.ErrMalformedKTX2)
	}
	if h.LayerCount != 0 {
		return fmt.Errorf("ktx2cube: expected 0 array layers, got %d: %w", h.LayerCount, rendererror.ErrMalformedKTX2)
	}
	if h.PixelDepth > 1 {
		return fmt.Errorf("ktx2cube: expected pixel_depth <= 1, got %d: %w", h.PixelDepth, rendererror.ErrMalformedKTX2)
	}
	if h.SupercompressionScheme != 0 {
		return fmt.Errorf("ktx2cube: supercompression is not supported (scheme %d): %w", h.SupercompressionScheme, rendererror.ErrMalformedKTX2)
	}
	return nil
}

// mipDimension halves d by level, floored to at least 1 — the standard
// mip chain size progression.
func mipDimension(d, level int) int {
	for i := 0; i < level; i++ {
		d = d / 2
		if d < 1 {
			d = 1
		}
	}
	return d
}

// ValidateLevel checks that a mip level's on-disk byte length equals
// exactly 6 * face_bytes_tight for that level's dimensions.
func (h Header) ValidateLevel(level int, byteLength int) error {
	w := mipDimension(h.PixelWidth, level)
	hh := mipDimension(h.PixelHeight, level)
	faceBytes, err := FaceBytesTight(h.Format, w, hh)
	if err != nil {
		return err
	}
	want := 6 * faceBytes
	if byteLength != want {
		return fmt.Errorf("ktx2cube: level %d byte length %d does not equal 6*face_bytes_tight (%d): %w", level, byteLength, want, rendererror.ErrMalformedKTX2)
	}
	return nil
}

// writeAlignment is WebGPU's required row-pitch alignment for texture
// writes.
const writeAlignment = 256

// WritePlan describes the padded layout one face's row data must be
// copied into to satisfy WebGPU's bytes-per-row alignment rule.
type WritePlan struct {
	TightBytesPerRow  int
	PaddedBytesPerRow int
	RowsPerImage      int
}

// PlanFaceWrite computes the row-padding plan for writing one face of
// format f at the given mip dimensions.
func PlanFaceWrite(f Format, width, height int) (WritePlan, error) {
	tight, err := TightBytesPerRow(f, width)
	if err != nil {
		return WritePlan{}, err
	}
	rows, err := RowsPerImage(f, height)
	if err != nil {
		return WritePlan{}, err
	}
	padded := ceilDiv(tight, writeAlignment) * writeAlignment
	return WritePlan{TightBytesPerRow: tight, PaddedBytesPerRow: padded, RowsPerImage: rows}, nil
}

// CopyFaceRows copies one face's tightly-packed source rows into dst,
// padding each row up to plan.PaddedBytesPerRow. dst must be at least
// plan.PaddedBytesPerRow*plan.RowsPerImage bytes.
func CopyFaceRows(dst []byte, plan WritePlan, src []byte) error {
	needSrc := plan.TightBytesPerRow * plan.RowsPerImage
	if len(src) < needSrc {
		return fmt.Errorf("ktx2cube: source face data too short: have %d bytes, need %d", len(src), needSrc)
	}
	needDst := plan.PaddedBytesPerRow * plan.RowsPerImage
	if len(dst) < needDst {
		return fmt.Errorf("ktx2cube: destination buffer too short: have %d bytes, need %d", len(dst), needDst)
	}
	if plan.PaddedBytesPerRow == plan.TightBytesPerRow {
		copy(dst[:needDst], src[:needSrc])
		return nil
	}
	for row := 0; row < plan.RowsPerImage; row++ {
		srcOff := row * plan.TightBytesPerRow
		dstOff := row * plan.PaddedBytesPerRow
		copy(dst[dstOff:dstOff+plan.TightBytesPerRow], src[srcOff:srcOff+plan.TightBytesPerRow])
	}
	return nil
}

// FaceLayer returns the destination array-layer index for writing face
// faceIndex (0..5, in the standard +X,-X,+Y,-Y,+Z,-Z order) of a given
// mip level. Faces for every level share the same 6-layer range; the
// level itself is selected by the write's mip_level parameter, not the
// layer.
func FaceLayer(faceIndex int) (uint32, error) {
	if faceIndex < 0 || faceIndex >= 6 {
		return 0, fmt.Errorf("ktx2cube: face index %d out of range [0,6)", faceIndex)
	}
	return uint32(faceIndex), nil
}
