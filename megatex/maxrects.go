package megatex

// maxRectsBin implements the MaxRects best-area-fit 2D bin packing
// algorithm (Jukka Jylänki's "A Thousand Ways to Pack the Bin", the
// algorithm backing the Rust original's binpack2d::maxrects::MaxRectsBin).
// No Go library in the example pack implements this, so it is hand-written
// here; see DESIGN.md for the stdlib justification.
type maxRectsBin struct {
	width, height int
	freeRects     []rect
}

type rect struct {
	x, y, w, h int
}

func newMaxRectsBin(width, height int) *maxRectsBin {
	return &maxRectsBin{
		width:     width,
		height:    height,
		freeRects: []rect{{x: 0, y: 0, w: width, h: height}},
	}
}

// placement is a packed rectangle's position, tagged with the index of the
// dimension it was placed for (so the caller can map placements back to
// input order).
type placement struct {
	index int
	rect  rect
}

// insertList packs as many of dims as fit, in best-area-fit order (each
// step picks whichever remaining dimension minimizes leftover free-rect
// area at its best position), and returns the placements plus the indices
// of dimensions that did not fit.
func (b *maxRectsBin) insertList(dims []rect) (placed []placement, rejected []int) {
	remaining := make([]int, len(dims))
	for i := range dims {
		remaining[i] = i
	}

	for len(remaining) > 0 {
		bestIdx := -1
		bestScore := -1
		var bestRect rect
		var bestShortSide int

		for ri, di := range remaining {
			w, h := dims[di].w, dims[di].h
			r, score, shortSide, ok := b.scoreBestAreaFit(w, h)
			if !ok {
				continue
			}
			if bestIdx == -1 || score < bestScore ||
				(score == bestScore && shortSide < bestShortSide) {
				bestIdx = ri
				bestScore = score
				bestRect = r
				bestShortSide = shortSide
			}
		}

		if bestIdx == -1 {
			break
		}

		di := remaining[bestIdx]
		placed = append(placed, placement{index: di, rect: bestRect})
		b.placeRect(bestRect)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	rejected = remaining
	return placed, rejected
}

// scoreBestAreaFit finds the free rect that fits w x h with the least
// leftover area, returning the placement, its leftover-area score, and the
// leftover short side (used as a tiebreak).
func (b *maxRectsBin) scoreBestAreaFit(w, h int) (rect, int, int, bool) {
	bestScore := -1
	bestShortSide := -1
	var best rect
	found := false

	for _, fr := range b.freeRects {
		if fr.w >= w && fr.h >= h {
			leftoverArea := fr.w*fr.h - w*h
			shortSide := min(fr.w-w, fr.h-h)
			if !found || leftoverArea < bestScore || (leftoverArea == bestScore && shortSide < bestShortSide) {
				best = rect{x: fr.x, y: fr.y, w: w, h: h}
				bestScore = leftoverArea
				bestShortSide = shortSide
				found = true
			}
		}
	}
	return best, bestScore, bestShortSide, found
}

// placeRect commits a placement, splitting every free rect it overlaps and
// pruning any free rect fully contained in another.
func (b *maxRectsBin) placeRect(placed rect) {
	var newFree []rect
	for _, fr := range b.freeRects {
		if !overlaps(fr, placed) {
			newFree = append(newFree, fr)
			continue
		}
		newFree = append(newFree, splitFreeRect(fr, placed)...)
	}
	b.freeRects = pruneContained(newFree)
}

func overlaps(a, b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x && a.y < b.y+b.h && a.y+a.h > b.y
}

// splitFreeRect returns the up-to-4 leftover free rects after carving
// `used` out of `free`.
func splitFreeRect(free, used rect) []rect {
	var out []rect
	if used.x > free.x && used.x < free.x+free.w {
		out = append(out, rect{x: free.x, y: free.y, w: used.x - free.x, h: free.h})
	}
	if used.x+used.w < free.x+free.w {
		out = append(out, rect{x: used.x + used.w, y: free.y, w: free.x + free.w - (used.x + used.w), h: free.h})
	}
	if used.y > free.y && used.y < free.y+free.h {
		out = append(out, rect{x: free.x, y: free.y, w: free.w, h: used.y - free.y})
	}
	if used.y+used.h < free.y+free.h {
		out = append(out, rect{x: free.x, y: used.y + used.h, w: free.w, h: free.y + free.h - (used.y + used.h)})
	}
	return out
}

func pruneContained(rects []rect) []rect {
	var out []rect
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j {
				continue
			}
			if a == b && i > j {
				contained = true
				break
			}
			if a != b && isContainedIn(a, b) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, a)
		}
	}
	return out
}

func isContainedIn(a, b rect) bool {
	return a.x >= b.x && a.y >= b.y && a.x+a.w <= b.x+b.w && a.y+a.h <= b.y+b.h
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
