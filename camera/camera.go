// Package camera computes view/projection matrices, derives the 6-plane
// frustum used for AABB culling, and back-to-front sorts transparent draws
// for order-independent-transparency compositing.
package camera

import (
	"math"
	"sort"

	"github.com/gogpu/vbrenderer/transform"
)

// Camera holds the parameters needed to derive view, projection, and their
// combined/inverse matrices for one frame.
type Camera struct {
	Position transform.Vec3
	Forward  transform.Vec3
	Up       transform.Vec3

	FovYRadians float32
	Aspect      float32
	Near, Far   float32
}

// Matrices is the set of matrices computed once per frame from a Camera.
type Matrices struct {
	View           transform.Mat4
	Projection     transform.Mat4
	ViewProjection transform.Mat4
	InverseVP      transform.Mat4
}

// Compute derives View, Projection, ViewProjection and InverseVP for c.
func Compute(c Camera) Matrices {
	view := lookAt(c.Position, add(c.Position, c.Forward), c.Up)
	proj := perspective(c.FovYRadians, c.Aspect, c.Near, c.Far)
	vp := mul(proj, view)
	inv, _ := invert(vp)
	return Matrices{View: view, Projection: proj, ViewProjection: vp, InverseVP: inv}
}

func add(a, b transform.Vec3) transform.Vec3 {
	return transform.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}
func sub(a, b transform.Vec3) transform.Vec3 {
	return transform.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}
func cross(a, b transform.Vec3) transform.Vec3 {
	return transform.Vec3{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}
func dot(a, b transform.Vec3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func normalize(a transform.Vec3) transform.Vec3 {
	l := float32(math.Sqrt(float64(dot(a, a))))
	if l < 1e-8 {
		return a
	}
	return transform.Vec3{X: a.X / l, Y: a.Y / l, Z: a.Z / l}
}

// lookAt builds a right-handed view matrix, column-major.
func lookAt(eye, target, up transform.Vec3) transform.Mat4 {
	f := normalize(sub(target, eye))
	s := normalize(cross(f, up))
	u := cross(s, f)

	return transform.Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-dot(s, eye), -dot(u, eye), dot(f, eye), 1,
	}
}

// perspective builds a right-handed, 0..1-depth-range projection matrix
// (WebGPU clip space convention).
func perspective(fovY, aspect, near, far float32) transform.Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	rangeInv := 1 / (near - far)

	var m transform.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far * rangeInv
	m[11] = -1
	m[14] = near * far * rangeInv
	return m
}

func mul(a, b transform.Mat4) transform.Mat4 {
	var out transform.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// invert computes the inverse of a 4x4 matrix via cofactor expansion,
// returning ok=false for a singular matrix.
func invert(m transform.Mat4) (transform.Mat4, bool) {
	var inv transform.Mat4
	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	if det == 0 {
		return transform.Mat4{}, false
	}
	invDet := 1 / det
	for i := range inv {
		inv[i] *= invDet
	}
	return inv, true
}

// Plane is ax + by + cz + d = 0, normalized so (a,b,c) is unit length.
type Plane struct{ A, B, C, D float32 }

// Frustum is the 6 planes (left, right, bottom, top, near, far) bounding
// the camera's visible volume, facing inward.
type Frustum [6]Plane

// ExtractFrustum derives the 6 frustum planes from a view-projection
// matrix via the standard Gribb-Hartmann plane extraction.
func ExtractFrustum(vp transform.Mat4) Frustum {
	row := func(i int) [4]float32 { return [4]float32{vp[i], vp[i+4], vp[i+8], vp[i+12]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	combine := func(a, b [4]float32, sign float32) Plane {
		p := Plane{
			A: a[0] + sign*b[0],
			B: a[1] + sign*b[1],
			C: a[2] + sign*b[2],
			D: a[3] + sign*b[3],
		}
		return p.normalized()
	}

	return Frustum{
		combine(r3, r0, 1),  // left
		combine(r3, r0, -1), // right
		combine(r3, r1, 1),  // bottom
		combine(r3, r1, -1), // top
		combine(r3, r2, 1),  // near
		combine(r3, r2, -1), // far
	}
}

func (p Plane) normalized() Plane {
	l := float32(math.Sqrt(float64(p.A*p.A + p.B*p.B + p.C*p.C)))
	if l < 1e-8 {
		return p
	}
	return Plane{A: p.A / l, B: p.B / l, C: p.C / l, D: p.D / l}
}

func (p Plane) distanceToPoint(x, y, z float32) float32 {
	return p.A*x + p.B*y + p.C*z + p.D
}

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max transform.Vec3
}

// Intersects reports whether box is at least partially inside f, using the
// standard positive-vertex test: for each plane, if even the box corner
// most aligned with the plane normal is behind it, the whole box is
// outside.
func (f Frustum) Intersects(box AABB) bool {
	for _, p := range f {
		px := box.Min.X
		if p.A >= 0 {
			px = box.Max.X
		}
		py := box.Min.Y
		if p.B >= 0 {
			py = box.Max.Y
		}
		pz := box.Min.Z
		if p.C >= 0 {
			pz = box.Max.Z
		}
		if p.distanceToPoint(px, py, pz) < 0 {
			return false
		}
	}
	return true
}

// TransparentDraw is a culled, depth-tagged draw participant ready for
// back-to-front OIT sorting.
type TransparentDraw struct {
	MeshIndex int
	Depth     float32 // view-space distance from camera, larger = farther
}

// SortBackToFront orders draws by descending depth in place (farthest
// first), the order OIT's blended-accumulation compositing needs.
func SortBackToFront(draws []TransparentDraw) {
	sort.Slice(draws, func(i, j int) bool { return draws[i].Depth > draws[j].Depth })
}
