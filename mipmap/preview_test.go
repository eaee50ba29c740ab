package mipmap

import "testing"

func TestPreviewProducesRequestedThumbnailSize(t *testing.T) {
	texels := make([]Texel, 4*4)
	for i := range texels {
		texels[i] = Texel{R: 1, G: 0, B: 0, A: 1}
	}

	img := Preview(4, 4, texels, 2, 2)
	bounds := img.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Fatalf("Preview size = %dx%d, want 2x2", bounds.Dx(), bounds.Dy())
	}
}

func TestPreviewZeroThumbnailReturnsFullResolution(t *testing.T) {
	texels := make([]Texel, 4*4)
	img := Preview(4, 4, texels, 0, 0)
	bounds := img.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 4 {
		t.Fatalf("Preview size = %dx%d, want 4x4", bounds.Dx(), bounds.Dy())
	}
}

func TestPreviewClampsOutOfRangeTexels(t *testing.T) {
	texels := []Texel{{R: 2, G: -1, B: 0.5, A: 1}}
	img := Preview(1, 1, texels, 0, 0)
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 {
		t.Errorf("expected R clamped to 255, got %d", r>>8)
	}
	if g>>8 != 0 {
		t.Errorf("expected G clamped to 0, got %d", g>>8)
	}
	if a>>8 != 255 {
		t.Errorf("expected A to be 255, got %d", a>>8)
	}
	_ = b
}
