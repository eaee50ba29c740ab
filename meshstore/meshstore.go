// Package meshstore is the mesh resource graph: refcounted shared geometry
// ("mesh resources") backed by five dynamic GPU buffers, and per-instance
// mesh records (transform + material + optional skin/morph) that reference
// a shared resource. Insertion and cloning bump a resource's refcount; the
// resource's GPU buffers are only freed once the last instance referencing
// it is removed. Split and Join operate purely on transforms — they detach
// or collapse how instances move without touching resource refcounts at
// all, since the geometry they point at never changes.
package meshstore

import (
	"fmt"

	"github.com/gogpu/vbrenderer/camera"
	"github.com/gogpu/vbrenderer/dynbuf"
	"github.com/gogpu/vbrenderer/gpuhandle"
	"github.com/gogpu/vbrenderer/rendererror"
	"github.com/gogpu/vbrenderer/transform"
)

// bufferKey is the dynbuf key type for all five per-resource buffers: one
// buddy slot per mesh resource, keyed by the resource's own handle.
type bufferKey = gpuhandle.MeshResourceKey

// MeshResource is shared, refcounted geometry: the vertex/index data every
// instance referencing it draws from. Instances differ only in transform,
// material, skin, and morph weights.
type MeshResource struct {
	refcount int

	VisibilityVertexCount int
	IndexCount            int
	LocalAABB             camera.AABB

	Morph gpuhandle.GeometryMorphKey
	HasMorph bool
}

// ResourceStore owns MeshResources and the five dynamic buffers their
// vertex/index/attribute data lives in.
type ResourceStore struct {
	table *gpuhandle.Table[MeshResource]

	visibilityVertex *dynbuf.Buddy[bufferKey]
	visibilityIndex  *dynbuf.Buddy[bufferKey]
	transparencyVertex *dynbuf.Buddy[bufferKey]
	attributeData    *dynbuf.Buddy[bufferKey]
	attributeIndex   *dynbuf.Buddy[bufferKey]
}

// NewResourceStore creates an empty resource store with the five dynamic
// buffers sized from initialBytes.
func NewResourceStore(initialBytes int) *ResourceStore {
	return &ResourceStore{
		table:              gpuhandle.New[MeshResource](),
		visibilityVertex:   dynbuf.NewBuddy[bufferKey](initialBytes, "visibility-vertex"),
		visibilityIndex:    dynbuf.NewBuddy[bufferKey](initialBytes, "visibility-index"),
		transparencyVertex: dynbuf.NewBuddy[bufferKey](initialBytes, "transparency-vertex"),
		attributeData:      dynbuf.NewBuddy[bufferKey](initialBytes, "attribute-data"),
		attributeIndex:     dynbuf.NewBuddy[bufferKey](initialBytes, "attribute-index"),
	}
}

// GeometryData is the raw bytes for a mesh resource's five buffers, handed
// in at insertion time by the glTF ingestion layer.
type GeometryData struct {
	VisibilityVertex   []byte
	VisibilityIndex    []byte
	TransparencyVertex []byte
	AttributeData      []byte
	AttributeIndex     []byte

	VisibilityVertexCount int
	IndexCount            int
	LocalAABB             camera.AABB
}

// Insert stores a new mesh resource with refcount 0 (the caller must
// reference it via an instance insertion to keep it alive) and returns its
// handle.
func (s *ResourceStore) Insert(data GeometryData) gpuhandle.MeshResourceKey {
	h := s.table.Insert(MeshResource{
		VisibilityVertexCount: data.VisibilityVertexCount,
		IndexCount:            data.IndexCount,
		LocalAABB:             data.LocalAABB,
	})
	key := gpuhandle.MeshResourceKey{Handle: h}

	s.visibilityVertex.Insert(key, data.VisibilityVertex)
	s.visibilityIndex.Insert(key, data.VisibilityIndex)
	s.transparencyVertex.Insert(key, data.TransparencyVertex)
	s.attributeData.Insert(key, data.AttributeData)
	s.attributeIndex.Insert(key, data.AttributeIndex)
	return key
}

// addRef increments a resource's refcount, used when an instance starts
// referencing it.
func (s *ResourceStore) addRef(key gpuhandle.MeshResourceKey) {
	s.table.Update(key.Handle, func(r *MeshResource) { r.refcount++ })
}

// release decrements a resource's refcount and frees its buffers once it
// reaches zero.
func (s *ResourceStore) release(key gpuhandle.MeshResourceKey) {
	r, ok := s.table.Get(key.Handle)
	if !ok {
		return
	}
	r.refcount--
	if r.refcount > 0 {
		s.table.Set(key.Handle, r)
		return
	}

	s.visibilityVertex.Remove(key)
	s.visibilityIndex.Remove(key)
	s.transparencyVertex.Remove(key)
	s.attributeData.Remove(key)
	s.attributeIndex.Remove(key)
	s.table.Remove(key.Handle)
}

// Get resolves a mesh resource handle.
func (s *ResourceStore) Get(key gpuhandle.MeshResourceKey) (MeshResource, bool) {
	return s.table.Get(key.Handle)
}

// RefCount reports a resource's current refcount.
func (s *ResourceStore) RefCount(key gpuhandle.MeshResourceKey) int {
	r, ok := s.table.Get(key.Handle)
	if !ok {
		return 0
	}
	return r.refcount
}

// Instance is a single draw participant: a reference to shared geometry
// plus the per-instance state (transform/material/skin/morph) that makes
// this draw distinct from any other instance of the same resource.
type Instance struct {
	Resource   gpuhandle.MeshResourceKey
	Transform  gpuhandle.TransformKey
	Material   gpuhandle.MaterialKey
	Skin       gpuhandle.SkinKey
	HasSkin    bool
	Morph      gpuhandle.MaterialMorphKey
	HasMorph   bool
	WorldAABB  camera.AABB
	Instanced  bool // true for GPU-instanced draws; clone/split/join reject these
}

// Store owns mesh instances and a reverse index from transform to the
// instances that reference it, so moving a transform can find affected
// draws without scanning every instance. It also holds the transform graph
// instances point into, since clone/split/join all mint or repoint
// transforms as part of their semantics.
type Store struct {
	resources  *ResourceStore
	instances  *gpuhandle.Table[Instance]
	transforms *transform.Graph

	byTransform map[gpuhandle.TransformKey][]gpuhandle.MeshKey
}

// NewStore creates an empty instance store over resources, minting and
// repointing transforms in transforms as instances are cloned, split, or
// joined.
func NewStore(resources *ResourceStore, transforms *transform.Graph) *Store {
	return &Store{
		resources:   resources,
		instances:   gpuhandle.New[Instance](),
		transforms:  transforms,
		byTransform: make(map[gpuhandle.TransformKey][]gpuhandle.MeshKey),
	}
}

// Insert adds a new mesh instance referencing resource, incrementing its
// refcount.
func (s *Store) Insert(inst Instance) gpuhandle.MeshKey {
	s.resources.addRef(inst.Resource)
	h := s.instances.Insert(inst)
	key := gpuhandle.MeshKey{Handle: h}
	s.byTransform[inst.Transform] = append(s.byTransform[inst.Transform], key)
	return key
}

// Get resolves a mesh instance handle.
func (s *Store) Get(key gpuhandle.MeshKey) (Instance, bool) {
	return s.instances.Get(key.Handle)
}

// Remove deletes a mesh instance and releases its resource reference.
func (s *Store) Remove(key gpuhandle.MeshKey) bool {
	inst, ok := s.instances.Get(key.Handle)
	if !ok {
		return false
	}
	s.removeFromReverseIndex(inst.Transform, key)
	s.resources.release(inst.Resource)
	return s.instances.Remove(key.Handle)
}

func (s *Store) removeFromReverseIndex(transformKey gpuhandle.TransformKey, key gpuhandle.MeshKey) {
	list := s.byTransform[transformKey]
	for i, k := range list {
		if k == key {
			s.byTransform[transformKey] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// MeshesForTransform returns every mesh instance currently attached to
// transformKey.
func (s *Store) MeshesForTransform(transformKey gpuhandle.TransformKey) []gpuhandle.MeshKey {
	return s.byTransform[transformKey]
}

// Clone duplicates an instance onto a freshly minted transform (same local
// TRS and parent as the source, so the clone starts coincident with it but
// moves independently afterward) while continuing to share the source's
// resource, incrementing its refcount. Instanced meshes cannot be cloned
// since clone/split/join operate on individually addressable draws.
func (s *Store) Clone(key gpuhandle.MeshKey) (gpuhandle.MeshKey, error) {
	inst, ok := s.instances.Get(key.Handle)
	if !ok {
		return gpuhandle.MeshKey{}, rendererror.NotFound(rendererror.ErrMeshNotFound)
	}
	if inst.Instanced {
		return gpuhandle.MeshKey{}, fmt.Errorf("%w: clone", rendererror.ErrInstancedMeshUnsupported)
	}

	newTransform, ok := s.transforms.Duplicate(inst.Transform)
	if !ok {
		return gpuhandle.MeshKey{}, rendererror.NotFound(rendererror.ErrTransformNotFound)
	}

	clone := inst
	clone.Transform = newTransform
	return s.Insert(clone), nil
}

// Split moves key onto a freshly minted transform duplicating its current
// one (same local TRS and parent), detaching it so it can move
// independently of whatever else still shares the original transform. The
// resource key is left untouched: split detaches the transform, not the
// geometry. Returns the new transform key.
func (s *Store) Split(key gpuhandle.MeshKey) (gpuhandle.TransformKey, error) {
	inst, ok := s.instances.Get(key.Handle)
	if !ok {
		return gpuhandle.TransformKey{}, rendererror.NotFound(rendererror.ErrMeshNotFound)
	}
	if inst.Instanced {
		return gpuhandle.TransformKey{}, fmt.Errorf("%w: split", rendererror.ErrInstancedMeshUnsupported)
	}

	newTransform, ok := s.transforms.Duplicate(inst.Transform)
	if !ok {
		return gpuhandle.TransformKey{}, rendererror.NotFound(rendererror.ErrTransformNotFound)
	}

	s.repoint(key, inst.Transform, newTransform)
	return newTransform, nil
}

// Join collapses every instance in keys onto one newly inserted transform,
// so they move together from then on. local overrides the new transform's
// local TRS; when nil, the new transform's translation is the centroid of
// the instances' current world translations, and the new transform is
// parented under the instances' common parent if they all share exactly
// one (otherwise it is inserted as a root). Resource keys are untouched.
// Returns the new transform key.
func (s *Store) Join(keys []gpuhandle.MeshKey, local *transform.TRS) (gpuhandle.TransformKey, error) {
	if len(keys) == 0 {
		return gpuhandle.TransformKey{}, fmt.Errorf("meshstore: Join requires at least one instance")
	}

	insts := make([]Instance, len(keys))
	for i, key := range keys {
		inst, ok := s.instances.Get(key.Handle)
		if !ok {
			return gpuhandle.TransformKey{}, rendererror.NotFound(rendererror.ErrMeshNotFound)
		}
		if inst.Instanced {
			return gpuhandle.TransformKey{}, fmt.Errorf("%w: join", rendererror.ErrInstancedMeshUnsupported)
		}
		insts[i] = inst
	}

	parent, hasCommonParent := s.commonParent(insts)

	newLocal := transform.DefaultTRS()
	if local != nil {
		newLocal = *local
	} else {
		newLocal.Translation = s.centroidTranslation(insts)
	}

	var parentKey gpuhandle.TransformKey
	if hasCommonParent {
		parentKey = parent
	}
	newTransform := s.transforms.Insert(newLocal, parentKey)

	for i, key := range keys {
		s.repoint(key, insts[i].Transform, newTransform)
	}
	return newTransform, nil
}

// repoint moves a live instance from one transform to another, updating
// both the instance record and the reverse index.
func (s *Store) repoint(key gpuhandle.MeshKey, from, to gpuhandle.TransformKey) {
	s.instances.Update(key.Handle, func(inst *Instance) { inst.Transform = to })
	s.removeFromReverseIndex(from, key)
	s.byTransform[to] = append(s.byTransform[to], key)
}

// commonParent reports the single parent shared by every instance's
// transform, or ok=false if they differ (or any is a root).
func (s *Store) commonParent(insts []Instance) (gpuhandle.TransformKey, bool) {
	parent, hasParent := s.transforms.Parent(insts[0].Transform)
	if !hasParent {
		return gpuhandle.TransformKey{}, false
	}
	for _, inst := range insts[1:] {
		p, ok := s.transforms.Parent(inst.Transform)
		if !ok || p != parent {
			return gpuhandle.TransformKey{}, false
		}
	}
	return parent, true
}

// centroidTranslation averages the world-space translations of each
// instance's current transform.
func (s *Store) centroidTranslation(insts []Instance) transform.Vec3 {
	var sum transform.Vec3
	for _, inst := range insts {
		world, ok := s.transforms.World(inst.Transform)
		if !ok {
			continue
		}
		sum.X += world[12]
		sum.Y += world[13]
		sum.Z += world[14]
	}
	n := float32(len(insts))
	return transform.Vec3{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

// UpdateWorldAABB recomputes an instance's world-space AABB from its
// resource's local AABB and the node's current world matrix, called once
// per frame for every mesh whose transform was marked dirty.
func (s *Store) UpdateWorldAABB(key gpuhandle.MeshKey, worldMatrix transform.Mat4) bool {
	inst, ok := s.instances.Get(key.Handle)
	if !ok {
		return false
	}
	res, ok := s.resources.Get(inst.Resource)
	if !ok {
		return false
	}
	inst.WorldAABB = transformAABB(res.LocalAABB, worldMatrix)
	return s.instances.Set(key.Handle, inst)
}

// transformAABB computes the world AABB enclosing a local AABB's 8
// corners transformed by m.
func transformAABB(local camera.AABB, m transform.Mat4) camera.AABB {
	corners := [8][3]float32{
		{local.Min.X, local.Min.Y, local.Min.Z},
		{local.Max.X, local.Min.Y, local.Min.Z},
		{local.Min.X, local.Max.Y, local.Min.Z},
		{local.Max.X, local.Max.Y, local.Min.Z},
		{local.Min.X, local.Min.Y, local.Max.Z},
		{local.Max.X, local.Min.Y, local.Max.Z},
		{local.Min.X, local.Max.Y, local.Max.Z},
		{local.Max.X, local.Max.Y, local.Max.Z},
	}

	var out camera.AABB
	for i, c := range corners {
		x := m[0]*c[0] + m[4]*c[1] + m[8]*c[2] + m[12]
		y := m[1]*c[0] + m[5]*c[1] + m[9]*c[2] + m[13]
		z := m[2]*c[0] + m[6]*c[1] + m[10]*c[2] + m[14]
		if i == 0 {
			out.Min = transform.Vec3{X: x, Y: y, Z: z}
			out.Max = transform.Vec3{X: x, Y: y, Z: z}
			continue
		}
		out.Min = transform.Vec3{X: min32(out.Min.X, x), Y: min32(out.Min.Y, y), Z: min32(out.Min.Z, z)}
		out.Max = transform.Vec3{X: max32(out.Max.X, x), Y: max32(out.Max.Y, y), Z: max32(out.Max.Z, z)}
	}
	return out
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
