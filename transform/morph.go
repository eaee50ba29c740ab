package transform

import "github.com/gogpu/vbrenderer/gpuhandle"

// GeometryMorph holds a mesh resource's morph target delta values
// (position/normal/tangent deltas per target, flattened per vertex), the
// shared read-only data every instance's weights blend against.
type GeometryMorph struct {
	TargetCount  int
	VertexCount  int
	PositionDeltas []Vec3 // len == TargetCount * VertexCount
	NormalDeltas   []Vec3
}

// GeometryMorphTable stores shared morph delta buffers by handle.
type GeometryMorphTable struct {
	table *gpuhandle.Table[GeometryMorph]
}

// NewGeometryMorphTable creates an empty table.
func NewGeometryMorphTable() *GeometryMorphTable {
	return &GeometryMorphTable{table: gpuhandle.New[GeometryMorph]()}
}

// Insert adds a geometry morph and returns its handle.
func (t *GeometryMorphTable) Insert(m GeometryMorph) gpuhandle.GeometryMorphKey {
	return gpuhandle.GeometryMorphKey{Handle: t.table.Insert(m)}
}

// Get resolves a geometry morph handle.
func (t *GeometryMorphTable) Get(key gpuhandle.GeometryMorphKey) (GeometryMorph, bool) {
	return t.table.Get(key.Handle)
}

// MaterialMorph holds a single mesh instance's per-target weights, the
// lightweight per-instance half of morphing (see GeometryMorph for the
// shared deltas these weights blend).
type MaterialMorph struct {
	Weights []float32
}

// MaterialMorphTable stores per-instance morph weights by handle.
type MaterialMorphTable struct {
	table *gpuhandle.Table[MaterialMorph]
}

// NewMaterialMorphTable creates an empty table.
func NewMaterialMorphTable() *MaterialMorphTable {
	return &MaterialMorphTable{table: gpuhandle.New[MaterialMorph]()}
}

// Insert adds a material morph and returns its handle.
func (t *MaterialMorphTable) Insert(m MaterialMorph) gpuhandle.MaterialMorphKey {
	return gpuhandle.MaterialMorphKey{Handle: t.table.Insert(m)}
}

// Get resolves a material morph handle.
func (t *MaterialMorphTable) Get(key gpuhandle.MaterialMorphKey) (MaterialMorph, bool) {
	return t.table.Get(key.Handle)
}

// SetWeight updates a single target's weight in place.
func (t *MaterialMorphTable) SetWeight(key gpuhandle.MaterialMorphKey, target int, weight float32) bool {
	return t.table.Update(key.Handle, func(m *MaterialMorph) {
		if target >= 0 && target < len(m.Weights) {
			m.Weights[target] = weight
		}
	})
}
