package mipmap

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Preview rasterizes a mip level's texel buffer into a standard image.Image,
// scaled to the requested thumbnail size with a Catmull-Rom filter. Tooling that
// needs to eyeball a generated mip chain — a debug HUD panel, a CLI dump
// command — calls this instead of reaching into the GPU texture directly.
func Preview(width, height int, texels []Texel, thumbWidth, thumbHeight int) image.Image {
	src := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := texels[y*width+x]
			src.SetNRGBA(x, y, color.NRGBA{
				R: clampTexel(t.R),
				G: clampTexel(t.G),
				B: clampTexel(t.B),
				A: clampTexel(t.A),
			})
		}
	}

	if thumbWidth <= 0 || thumbHeight <= 0 {
		return src
	}

	dst := image.NewNRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

func clampTexel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
