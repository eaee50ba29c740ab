package ktx2cube

import (
	"errors"
	"testing"

	"github.com/gogpu/vbrenderer/rendererror"
)

func TestValidateAcceptsWellFormedCubemap(t *testing.T) {
	h := Header{
		Format: FormatRGBA8Unorm, PixelWidth: 512, PixelHeight: 512, PixelDepth: 1,
		FaceCount: 6, LayerCount: 0, LevelCount: 10, SupercompressionScheme: 0,
	}
	if err := h.Validate(); err != nil {
		t.Fatalf("expected valid header to pass, got %v", err)
	}
}

func TestValidateRejectsWrongFaceCount(t *testing.T) {
	h := Header{FaceCount: 1, PixelDepth: 1}
	err := h.Validate()
	if !errors.Is(err, rendererror.ErrMalformedKTX2) {
		t.Fatalf("expected ErrMalformedKTX2, got %v", err)
	}
}

func TestValidateRejectsArrayLayers(t *testing.T) {
	h := Header{FaceCount: 6, LayerCount: 2, PixelDepth: 1}
	err := h.Validate()
	if !errors.Is(err, rendererror.ErrMalformedKTX2) {
		t.Fatalf("expected ErrMalformedKTX2 for nonzero array layers, got %v", err)
	}
}

func TestValidateRejectsSupercompression(t *testing.T) {
	h := Header{FaceCount: 6, PixelDepth: 1, SupercompressionScheme: 2}
	err := h.Validate()
	if !errors.Is(err, rendererror.ErrMalformedKTX2) {
		t.Fatalf("expected ErrMalformedKTX2 for supercompression, got %v", err)
	}
}

func TestFaceBytesTightUncompressed(t *testing.T) {
	got, err := FaceBytesTight(FormatRGBA8Unorm, 4, 4)
	if err != nil {
		t.Fatalf("FaceBytesTight: %v", err)
	}
	want := 4 * 4 * 4 // 4 bytes/pixel, 4x4 pixels
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestFaceBytesTightBlockCompressedRoundsUpToBlockGrid(t *testing.T) {
	// BC7 is 4x4 blocks of 16 bytes; a 6x6 image rounds up to a 2x2 block
	// grid (8x8 pixels worth of blocks).
	got, err := FaceBytesTight(FormatBC7RGBAUnorm, 6, 6)
	if err != nil {
		t.Fatalf("FaceBytesTight: %v", err)
	}
	want := 2 * 16 * 2 // 2 blocks wide * 16 bytes/block * 2 block rows
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestValidateLevelExactSixFaces(t *testing.T) {
	h := Header{Format: FormatRGBA8Unorm, PixelWidth: 4, PixelHeight: 4}
	faceBytes, _ := FaceBytesTight(FormatRGBA8Unorm, 4, 4)
	if err := h.ValidateLevel(0, 6*faceBytes); err != nil {
		t.Fatalf("expected exact 6*face_bytes_tight to pass, got %v", err)
	}
	if err := h.ValidateLevel(0, 6*faceBytes-1); err == nil {
		t.Fatal("expected a mismatched level byte length to fail")
	}
}

func TestValidateLevelUsesMipDimensions(t *testing.T) {
	h := Header{Format: FormatRGBA8Unorm, PixelWidth: 8, PixelHeight: 8}
	faceBytesMip1, _ := FaceBytesTight(FormatRGBA8Unorm, 4, 4)
	if err := h.ValidateLevel(1, 6*faceBytesMip1); err != nil {
		t.Fatalf("expected mip-1 dimensions (4x4) to validate, got %v", err)
	}
}

func TestPlanFaceWritePadsTo256ByteAlignment(t *testing.T) {
	// RGBA8Unorm at width 65: tight = 65*4 = 260 bytes, which is not a
	// multiple of 256 and must round up to 512.
	plan, err := PlanFaceWrite(FormatRGBA8Unorm, 65, 1)
	if err != nil {
		t.Fatalf("PlanFaceWrite: %v", err)
	}
	if plan.TightBytesPerRow != 260 {
		t.Errorf("expected tight bytes per row 260, got %d", plan.TightBytesPerRow)
	}
	if plan.PaddedBytesPerRow != 512 {
		t.Errorf("expected padded bytes per row 512, got %d", plan.PaddedBytesPerRow)
	}
}

func TestPlanFaceWriteNoopWhenAlreadyAligned(t *testing.T) {
	// width 64 -> tight = 256, already aligned.
	plan, err := PlanFaceWrite(FormatRGBA8Unorm, 64, 4)
	if err != nil {
		t.Fatalf("PlanFaceWrite: %v", err)
	}
	if plan.PaddedBytesPerRow != plan.TightBytesPerRow {
		t.Errorf("expected no padding needed, tight=%d padded=%d", plan.TightBytesPerRow, plan.PaddedBytesPerRow)
	}
}

func TestCopyFaceRowsPadsEachRow(t *testing.T) {
	plan := WritePlan{TightBytesPerRow: 4, PaddedBytesPerRow: 8, RowsPerImage: 2}
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, plan.PaddedBytesPerRow*plan.RowsPerImage)

	if err := CopyFaceRows(dst, plan, src); err != nil {
		t.Fatalf("CopyFaceRows: %v", err)
	}
	want := []byte{1, 2, 3, 4, 0, 0, 0, 0, 5, 6, 7, 8, 0, 0, 0, 0}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("byte %d: expected %d, got %d", i, w, dst[i])
		}
	}
}

func TestFaceLayerRejectsOutOfRange(t *testing.T) {
	if _, err := FaceLayer(6); err == nil {
		t.Fatal("expected an error for face index 6")
	}
	if _, err := FaceLayer(-1); err == nil {
		t.Fatal("expected an error for negative face index")
	}
	layer, err := FaceLayer(3)
	if err != nil {
		t.Fatalf("FaceLayer: %v", err)
	}
	if layer != 3 {
		t.Errorf("expected layer 3, got %d", layer)
	}
}

func TestToGPUFormatRejectsUnknownFormat(t *testing.T) {
	_, err := ToGPUFormat(Format(255))
	if !errors.Is(err, rendererror.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
