package mipmap

// Rect is an atlas entry's interior pixel rectangle within a layer,
// excluding gutter. Min is inclusive, Max is exclusive.
type Rect struct {
	MinX, MinY, MaxX, MaxY int32
}

// Width returns the rectangle's pixel width.
func (r Rect) Width() int32 { return r.MaxX - r.MinX }

// Height returns the rectangle's pixel height.
func (r Rect) Height() int32 { return r.MaxY - r.MinY }

// NextLevel halves the interior rect for the next mip level, matching how
// the original image shrinks: each dimension rounds down, with a floor of
// 1 pixel so a 1-wide or 1-tall entry still produces a defined next level
// rather than an empty rectangle.
func (r Rect) NextLevel() Rect {
	halve := func(lo, hi int32) (int32, int32) {
		w := hi - lo
		nw := w / 2
		if nw < 1 {
			nw = 1
		}
		return lo / 2, lo/2 + nw
	}
	minX, maxX := halve(r.MinX, r.MaxX)
	minY, maxY := halve(r.MinY, r.MaxY)
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// MipCount returns how many mip levels a rect chain produces before both
// dimensions reach 1 pixel (inclusive of the base level).
func MipCount(base Rect) int {
	levels := 1
	r := base
	for r.Width() > 1 || r.Height() > 1 {
		r = r.NextLevel()
		levels++
	}
	return levels
}

// DispatchPlan is one tile-aware mipmap compute dispatch: generate mip
// `Level` of `Entry`'s interior, reading the previous level's gutter-
// extended texels so edge pixels filter correctly without bleeding into a
// neighboring atlas entry.
type DispatchPlan struct {
	Level       int
	Interior    Rect
	Gutter      int32
	TextureType TextureType
}

// BuildDispatchPlan enumerates one DispatchPlan per mip level for a single
// atlas entry, from level 1 (the first downsample of the base image) up to
// the coarsest level. Level 0 is the already-uploaded base image and is not
// included.
func BuildDispatchPlan(baseInterior Rect, gutter int32, textureType TextureType) []DispatchPlan {
	count := MipCount(baseInterior)
	plans := make([]DispatchPlan, 0, count-1)

	interior := baseInterior
	for level := 1; level < count; level++ {
		interior = interior.NextLevel()
		plans = append(plans, DispatchPlan{
			Level:       level,
			Interior:    interior,
			Gutter:      gutter,
			TextureType: textureType,
		})
	}
	return plans
}

// ExtendEdges re-extends the gutter for one mip level given the already
// downsampled interior, by duplicating each border row/column of the
// interior outward by gutter pixels. set(x, y, Texel) and get(x, y) close
// over the caller's mip-level pixel buffer.
func ExtendEdges(interior Rect, gutter int32, get func(x, y int32) Texel, set func(x, y int32, t Texel)) {
	if gutter <= 0 {
		return
	}
	for gy := int32(1); gy <= gutter; gy++ {
		for x := interior.MinX - gutter; x < interior.MaxX+gutter; x++ {
			clampedX := clamp(x, interior.MinX, interior.MaxX-1)
			set(x, interior.MinY-gy, get(clampedX, interior.MinY))
			set(x, interior.MaxY-1+gy, get(clampedX, interior.MaxY-1))
		}
	}
	for gx := int32(1); gx <= gutter; gx++ {
		for y := interior.MinY; y < interior.MaxY; y++ {
			set(interior.MinX-gx, y, get(interior.MinX, y))
			set(interior.MaxX-1+gx, y, get(interior.MaxX-1, y))
		}
	}
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
