package camera

import (
	"math"
	"testing"

	"github.com/gogpu/vbrenderer/transform"
)

func TestComputeViewProjectionInvertible(t *testing.T) {
	c := Camera{
		Position:    transform.Vec3{X: 0, Y: 0, Z: 5},
		Forward:     transform.Vec3{X: 0, Y: 0, Z: -1},
		Up:          transform.Vec3{X: 0, Y: 1, Z: 0},
		FovYRadians: float32(math.Pi) / 3,
		Aspect:      16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
	}
	m := Compute(c)

	back := mul(m.InverseVP, m.ViewProjection)
	for i, v := range Identity4() {
		if math.Abs(float64(back[i]-v)) > 1e-3 {
			t.Fatalf("InverseVP * VP != identity at %d: got %f want %f", i, back[i], v)
		}
	}
}

func Identity4() transform.Mat4 { return transform.Identity() }

func TestFrustumContainsPointDirectlyAhead(t *testing.T) {
	c := Camera{
		Position:    transform.Vec3{X: 0, Y: 0, Z: 0},
		Forward:     transform.Vec3{X: 0, Y: 0, Z: -1},
		Up:          transform.Vec3{X: 0, Y: 1, Z: 0},
		FovYRadians: float32(math.Pi) / 2,
		Aspect:      1,
		Near:        0.1,
		Far:         100,
	}
	m := Compute(c)
	f := ExtractFrustum(m.ViewProjection)

	inside := AABB{Min: transform.Vec3{X: -1, Y: -1, Z: -11}, Max: transform.Vec3{X: 1, Y: 1, Z: -9}}
	if !f.Intersects(inside) {
		t.Fatalf("box directly ahead of camera should intersect frustum")
	}

	behind := AABB{Min: transform.Vec3{X: -1, Y: -1, Z: 9}, Max: transform.Vec3{X: 1, Y: 1, Z: 11}}
	if f.Intersects(behind) {
		t.Fatalf("box behind camera should not intersect frustum")
	}
}

func TestFrustumExcludesFarOffsidePoint(t *testing.T) {
	c := Camera{
		Position:    transform.Vec3{X: 0, Y: 0, Z: 0},
		Forward:     transform.Vec3{X: 0, Y: 0, Z: -1},
		Up:          transform.Vec3{X: 0, Y: 1, Z: 0},
		FovYRadians: float32(math.Pi) / 8, // narrow FOV
		Aspect:      1,
		Near:        0.1,
		Far:         100,
	}
	m := Compute(c)
	f := ExtractFrustum(m.ViewProjection)

	farOffside := AABB{Min: transform.Vec3{X: 1000, Y: 1000, Z: -10}, Max: transform.Vec3{X: 1001, Y: 1001, Z: -9}}
	if f.Intersects(farOffside) {
		t.Fatalf("box far outside narrow FOV should not intersect frustum")
	}
}

func TestSortBackToFrontOrdersDescendingDepth(t *testing.T) {
	draws := []TransparentDraw{
		{MeshIndex: 0, Depth: 1},
		{MeshIndex: 1, Depth: 5},
		{MeshIndex: 2, Depth: 3},
	}
	SortBackToFront(draws)
	if draws[0].MeshIndex != 1 || draws[1].MeshIndex != 2 || draws[2].MeshIndex != 0 {
		t.Fatalf("unexpected sort order: %+v", draws)
	}
}
