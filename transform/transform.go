// Package transform stores the hierarchical node graph (local TRS,
// cumulative world matrix, parent/children links), propagates dirty world
// matrices with a single depth-first walk per frame, and holds skin
// joint-matrix sets and morph target weights/deltas.
package transform

import (
	"github.com/gogpu/vbrenderer/gpuhandle"
)

// Vec3 is a 3-component vector.
type Vec3 struct{ X, Y, Z float32 }

// Quat is a quaternion, (X, Y, Z, W).
type Quat struct{ X, Y, Z, W float32 }

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float32

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// TRS is a node's local translation/rotation/scale.
type TRS struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// DefaultTRS returns the identity transform (no translation, identity
// rotation, unit scale).
func DefaultTRS() TRS {
	return TRS{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

type node struct {
	local    TRS
	world    Mat4
	parent   gpuhandle.TransformKey
	hasParent bool
	children []gpuhandle.TransformKey
	dirty    bool
}

// Graph is the hierarchical transform store. Updating a node's local TRS
// marks it and every descendant dirty; Flush walks the dirty set exactly
// once per frame to recompute world matrices top-down.
type Graph struct {
	table   *gpuhandle.Table[node]
	dirty   map[gpuhandle.TransformKey]struct{}
}

// NewGraph creates an empty transform graph.
func NewGraph() *Graph {
	return &Graph{
		table: gpuhandle.New[node](),
		dirty: make(map[gpuhandle.TransformKey]struct{}),
	}
}

// Insert adds a new node with the given local transform and optional
// parent (pass a zero TransformKey for a root node), returning its handle.
func (g *Graph) Insert(local TRS, parent gpuhandle.TransformKey) gpuhandle.TransformKey {
	n := node{local: local, world: Identity(), dirty: true}
	if !parent.Handle.IsZero() {
		n.parent = parent
		n.hasParent = true
	}
	h := g.table.Insert(n)
	key := gpuhandle.TransformKey{Handle: h}

	if n.hasParent {
		g.table.Update(parent.Handle, func(p *node) {
			p.children = append(p.children, key)
		})
	}
	g.markDirty(key)
	return key
}

// SetLocal updates a node's local TRS and marks it (and its whole
// subtree) dirty for the next Flush.
func (g *Graph) SetLocal(key gpuhandle.TransformKey, local TRS) bool {
	ok := g.table.Update(key.Handle, func(n *node) { n.local = local })
	if ok {
		g.markDirty(key)
	}
	return ok
}

// World returns a node's last-flushed world matrix.
func (g *Graph) World(key gpuhandle.TransformKey) (Mat4, bool) {
	n, ok := g.table.Get(key.Handle)
	if !ok {
		return Mat4{}, false
	}
	return n.world, true
}

// Local returns a node's current local TRS.
func (g *Graph) Local(key gpuhandle.TransformKey) (TRS, bool) {
	n, ok := g.table.Get(key.Handle)
	if !ok {
		return TRS{}, false
	}
	return n.local, true
}

// Parent returns a node's parent key and whether it has one. A root node
// reports a zero TransformKey and false.
func (g *Graph) Parent(key gpuhandle.TransformKey) (gpuhandle.TransformKey, bool) {
	n, ok := g.table.Get(key.Handle)
	if !ok || !n.hasParent {
		return gpuhandle.TransformKey{}, false
	}
	return n.parent, true
}

// Duplicate inserts a new node with the same local TRS and parent as key,
// the building block for clone/split: the copy starts coincident with its
// source but moves independently once either is edited.
func (g *Graph) Duplicate(key gpuhandle.TransformKey) (gpuhandle.TransformKey, bool) {
	n, ok := g.table.Get(key.Handle)
	if !ok {
		return gpuhandle.TransformKey{}, false
	}
	parent := gpuhandle.TransformKey{}
	if n.hasParent {
		parent = n.parent
	}
	return g.Insert(n.local, parent), true
}

// Remove deletes a node. Children are reparented to nothing (become
// roots); callers that need cascading delete should walk children first.
func (g *Graph) Remove(key gpuhandle.TransformKey) bool {
	n, ok := g.table.Get(key.Handle)
	if !ok {
		return false
	}
	if n.hasParent {
		g.table.Update(n.parent.Handle, func(p *node) {
			for i, c := range p.children {
				if c == key {
					p.children = append(p.children[:i], p.children[i+1:]...)
					break
				}
			}
		})
	}
	for _, c := range n.children {
		g.table.Update(c.Handle, func(cn *node) {
			cn.parent = gpuhandle.TransformKey{}
			cn.hasParent = false
		})
		g.markDirty(c)
	}
	delete(g.dirty, key)
	return g.table.Remove(key.Handle)
}

func (g *Graph) markDirty(key gpuhandle.TransformKey) {
	g.dirty[key] = struct{}{}
}

// Flush recomputes world matrices for every dirty node and its descendants
// in a single depth-first walk, then clears the dirty set. It must be
// called once per frame before any code reads World().
func (g *Graph) Flush() {
	if len(g.dirty) == 0 {
		return
	}
	roots := make([]gpuhandle.TransformKey, 0, len(g.dirty))
	for key := range g.dirty {
		n, ok := g.table.Get(key.Handle)
		if !ok {
			continue
		}
		if !n.hasParent || !g.isDirty(n.parent) {
			roots = append(roots, key)
		}
	}
	for _, r := range roots {
		g.walk(r)
	}
	g.dirty = make(map[gpuhandle.TransformKey]struct{})
}

func (g *Graph) isDirty(key gpuhandle.TransformKey) bool {
	_, ok := g.dirty[key]
	return ok
}

func (g *Graph) walk(key gpuhandle.TransformKey) {
	n, ok := g.table.Get(key.Handle)
	if !ok {
		return
	}

	local := localMatrix(n.local)
	var world Mat4
	if n.hasParent {
		parent, ok := g.table.Get(n.parent.Handle)
		if ok {
			world = mulMat4(parent.world, local)
		} else {
			world = local
		}
	} else {
		world = local
	}

	g.table.Update(key.Handle, func(nn *node) { nn.world = world; nn.dirty = false })

	n, _ = g.table.Get(key.Handle)
	for _, c := range n.children {
		g.walk(c)
	}
}

func localMatrix(t TRS) Mat4 {
	x, y, z, w := t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W
	sx, sy, sz := t.Scale.X, t.Scale.Y, t.Scale.Z

	m := Identity()
	m[0] = (1 - 2*(y*y+z*z)) * sx
	m[1] = (2 * (x*y + z*w)) * sx
	m[2] = (2 * (x*z - y*w)) * sx

	m[4] = (2 * (x*y - z*w)) * sy
	m[5] = (1 - 2*(x*x+z*z)) * sy
	m[6] = (2 * (y*z + x*w)) * sy

	m[8] = (2 * (x*z + y*w)) * sz
	m[9] = (2 * (y*z - x*w)) * sz
	m[10] = (1 - 2*(x*x+y*y)) * sz

	m[12] = t.Translation.X
	m[13] = t.Translation.Y
	m[14] = t.Translation.Z
	return m
}

// mulMat4 returns a*b, both column-major.
func mulMat4(a, b Mat4) Mat4 {
	var out Mat4
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
