package transform

import "github.com/gogpu/vbrenderer/gpuhandle"

// Skin holds a joint list and their inverse-bind matrices; per-frame joint
// matrices are computed as (jointWorld * inverseBind) for each joint and
// written into the skin's dynamic buffer slot by meshstore.
type Skin struct {
	Joints         []gpuhandle.TransformKey
	InverseBind    []Mat4
	SkeletonRoot   gpuhandle.TransformKey
}

// SkinTable stores skins behind stable handles.
type SkinTable struct {
	table *gpuhandle.Table[Skin]
}

// NewSkinTable creates an empty skin table.
func NewSkinTable() *SkinTable {
	return &SkinTable{table: gpuhandle.New[Skin]()}
}

// Insert adds a skin and returns its handle.
func (t *SkinTable) Insert(s Skin) gpuhandle.SkinKey {
	return gpuhandle.SkinKey{Handle: t.table.Insert(s)}
}

// Get resolves a skin handle.
func (t *SkinTable) Get(key gpuhandle.SkinKey) (Skin, bool) {
	return t.table.Get(key.Handle)
}

// Remove deletes a skin.
func (t *SkinTable) Remove(key gpuhandle.SkinKey) bool {
	return t.table.Remove(key.Handle)
}

// JointMatrices computes the current joint matrices for a skin, reading
// each joint's latest flushed world matrix from graph.
func JointMatrices(graph *Graph, s Skin) []Mat4 {
	out := make([]Mat4, len(s.Joints))
	for i, j := range s.Joints {
		world, ok := graph.World(j)
		if !ok {
			out[i] = Identity()
			continue
		}
		out[i] = mulMat4(world, s.InverseBind[i])
	}
	return out
}
