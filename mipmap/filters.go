package mipmap

import "math"

// Texel is a single RGBA float32 sample, the CPU-side shape of one pixel
// as the mipmap compute shaders see it.
type Texel struct {
	R, G, B, A float32
}

// DownsampleBox2x2 averages a 2x2 texel block, the filter used for
// TextureTypeAlbedo, TextureTypeOcclusion, and TextureTypeEmissive. This is
// the CPU-reference implementation of the compute shader's box filter.
func DownsampleBox2x2(a, b, c, d Texel) Texel {
	return Texel{
		R: (a.R + b.R + c.R + d.R) / 4,
		G: (a.G + b.G + c.G + d.G) / 4,
		B: (a.B + b.B + c.B + d.B) / 4,
		A: (a.A + b.A + c.A + d.A) / 4,
	}
}

// DownsampleNormal2x2 averages a 2x2 block of tangent-space normals stored
// as [0,1]-encoded RGB, decoding to [-1,1], averaging, and renormalizing
// before re-encoding — naive box filtering on encoded normals biases the
// result toward the texture's mean direction rather than preserving unit
// length, so this package treats TextureTypeNormal as a distinct filter.
func DownsampleNormal2x2(a, b, c, d Texel) Texel {
	decode := func(t Texel) [3]float64 {
		return [3]float64{
			float64(t.R)*2 - 1,
			float64(t.G)*2 - 1,
			float64(t.B)*2 - 1,
		}
	}
	na, nb, nc, nd := decode(a), decode(b), decode(c), decode(d)

	sum := [3]float64{
		na[0] + nb[0] + nc[0] + nd[0],
		na[1] + nb[1] + nc[1] + nd[1],
		na[2] + nb[2] + nc[2] + nd[2],
	}
	length := math.Sqrt(sum[0]*sum[0] + sum[1]*sum[1] + sum[2]*sum[2])
	if length < 1e-8 {
		// Degenerate: all four normals cancel out. Fall back to the
		// untouched up vector rather than dividing by zero.
		return Texel{R: 0.5, G: 0.5, B: 1, A: (a.A + b.A + c.A + d.A) / 4}
	}

	n := [3]float64{sum[0] / length, sum[1] / length, sum[2] / length}
	return Texel{
		R: float32((n[0] + 1) / 2),
		G: float32((n[1] + 1) / 2),
		B: float32((n[2] + 1) / 2),
		A: (a.A + b.A + c.A + d.A) / 4,
	}
}

// DownsampleRoughness2x2 averages a 2x2 block for the metallic-roughness
// channel layout (G = roughness, B = metallic). Roughness is perceptual, so
// a linear average biases toward over-smooth appearance at distance;
// averaging roughness^2 (an approximation of averaging specular lobe
// variance) and taking the square root back out produces a closer match to
// how a real specular highlight would look if actually minified.
func DownsampleRoughness2x2(a, b, c, d Texel) Texel {
	sq := func(x float32) float64 { return float64(x) * float64(x) }
	roughnessSq := (sq(a.G) + sq(b.G) + sq(c.G) + sq(d.G)) / 4
	return Texel{
		R: (a.R + b.R + c.R + d.R) / 4,
		G: float32(math.Sqrt(roughnessSq)),
		B: (a.B + b.B + c.B + d.B) / 4,
		A: (a.A + b.A + c.A + d.A) / 4,
	}
}

// Downsample2x2 dispatches to the filter appropriate for textureType.
func Downsample2x2(textureType TextureType, a, b, c, d Texel) Texel {
	switch textureType {
	case TextureTypeNormal:
		return DownsampleNormal2x2(a, b, c, d)
	case TextureTypeMetallicRoughness:
		return DownsampleRoughness2x2(a, b, c, d)
	default:
		return DownsampleBox2x2(a, b, c, d)
	}
}
