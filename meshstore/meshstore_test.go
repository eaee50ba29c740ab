package meshstore

import (
	"errors"
	"testing"

	"github.com/gogpu/vbrenderer/camera"
	"github.com/gogpu/vbrenderer/gpuhandle"
	"github.com/gogpu/vbrenderer/rendererror"
	"github.com/gogpu/vbrenderer/transform"
)

func testGeometry() GeometryData {
	return GeometryData{
		VisibilityVertex:   make([]byte, 64),
		VisibilityIndex:    make([]byte, 32),
		TransparencyVertex: make([]byte, 16),
		AttributeData:      make([]byte, 96),
		AttributeIndex:     make([]byte, 32),

		VisibilityVertexCount: 4,
		IndexCount:            6,
		LocalAABB: camera.AABB{
			Min: transform.Vec3{X: -1, Y: -1, Z: -1},
			Max: transform.Vec3{X: 1, Y: 1, Z: 1},
		},
	}
}

func TestInsertInstanceReferencesResource(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	store := NewStore(resources, transform.NewGraph())

	instKey := store.Insert(Instance{Resource: resKey})

	if resources.RefCount(resKey) != 1 {
		t.Fatalf("expected refcount 1, got %d", resources.RefCount(resKey))
	}
	inst, ok := store.Get(instKey)
	if !ok || inst.Resource != resKey {
		t.Fatalf("instance did not resolve to expected resource")
	}
}

func TestRemoveInstanceReleasesResourceAtZero(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	store := NewStore(resources, transform.NewGraph())

	instKey := store.Insert(Instance{Resource: resKey})
	if !store.Remove(instKey) {
		t.Fatalf("Remove failed")
	}
	if _, ok := resources.Get(resKey); ok {
		t.Fatalf("resource should be freed once refcount reaches zero")
	}
}

func TestCloneSharesResourceAndBumpsRefcount(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	tKey := graph.Insert(transform.DefaultTRS(), gpuhandle.TransformKey{})
	instKey := store.Insert(Instance{Resource: resKey, Transform: tKey})
	cloneKey, err := store.Clone(instKey)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if resources.RefCount(resKey) != 2 {
		t.Fatalf("expected refcount 2 after clone, got %d", resources.RefCount(resKey))
	}

	cloneInst, ok := store.Get(cloneKey)
	if !ok {
		t.Fatalf("clone did not resolve")
	}
	if cloneInst.Transform == tKey {
		t.Fatalf("clone shares the source's transform key, moving one would move both")
	}

	graph.Flush()
	moved := transform.DefaultTRS()
	moved.Translation = transform.Vec3{X: 5, Y: 0, Z: 0}
	graph.SetLocal(tKey, moved)
	graph.Flush()

	cloneWorld, _ := graph.World(cloneInst.Transform)
	if cloneWorld[12] == 5 {
		t.Fatalf("moving the original's transform moved the clone too")
	}

	store.Remove(instKey)
	if resources.RefCount(resKey) != 1 {
		t.Fatalf("expected refcount 1 after removing original, got %d", resources.RefCount(resKey))
	}
	store.Remove(cloneKey)
	if _, ok := resources.Get(resKey); ok {
		t.Fatalf("resource should be freed once both instances are gone")
	}
}

func TestCloneRejectsInstancedMesh(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	tKey := graph.Insert(transform.DefaultTRS(), gpuhandle.TransformKey{})
	instKey := store.Insert(Instance{Resource: resKey, Transform: tKey, Instanced: true})
	if _, err := store.Clone(instKey); !errors.Is(err, rendererror.ErrInstancedMeshUnsupported) {
		t.Fatalf("expected ErrInstancedMeshUnsupported, got %v", err)
	}
}

func TestSplitDetachesTransformButKeepsResourceShared(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	parent := graph.Insert(transform.DefaultTRS(), gpuhandle.TransformKey{})
	shared := transform.DefaultTRS()
	shared.Translation = transform.Vec3{X: 1, Y: 2, Z: 3}
	tKey := graph.Insert(shared, parent)

	a := store.Insert(Instance{Resource: resKey, Transform: tKey})
	b := store.Insert(Instance{Resource: resKey, Transform: tKey})
	if resources.RefCount(resKey) != 2 {
		t.Fatalf("expected refcount 2, got %d", resources.RefCount(resKey))
	}

	newTransform, err := store.Split(a)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if newTransform == tKey {
		t.Fatalf("split should produce a distinct transform")
	}

	instA, _ := store.Get(a)
	if instA.Transform != newTransform {
		t.Fatalf("split instance should point at the new transform")
	}
	if instA.Resource != resKey {
		t.Fatalf("split must not change the resource, got %+v", instA.Resource)
	}
	instB, _ := store.Get(b)
	if instB.Transform != tKey {
		t.Fatalf("untouched instance should still point at original transform")
	}

	if resources.RefCount(resKey) != 2 {
		t.Fatalf("split must not touch the resource refcount, got %d", resources.RefCount(resKey))
	}

	newParent, ok := graph.Parent(newTransform)
	if !ok || newParent != parent {
		t.Fatalf("split transform should duplicate the source's parent")
	}
	newLocal, ok := graph.Local(newTransform)
	if !ok || newLocal.Translation != shared.Translation {
		t.Fatalf("split transform should duplicate the source's local TRS")
	}

	meshesOnOld := store.MeshesForTransform(tKey)
	if len(meshesOnOld) != 1 || meshesOnOld[0] != b {
		t.Fatalf("expected only b on the original transform, got %+v", meshesOnOld)
	}
	meshesOnNew := store.MeshesForTransform(newTransform)
	if len(meshesOnNew) != 1 || meshesOnNew[0] != a {
		t.Fatalf("expected only a on the new transform, got %+v", meshesOnNew)
	}
}

func TestJoinCollapsesOntoSharedTransformWithoutTouchingResources(t *testing.T) {
	resources := NewResourceStore(4096)
	resA := resources.Insert(testGeometry())
	resB := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	trsA := transform.DefaultTRS()
	trsA.Translation = transform.Vec3{X: 0, Y: 0, Z: 0}
	tA := graph.Insert(trsA, gpuhandle.TransformKey{})

	trsB := transform.DefaultTRS()
	trsB.Translation = transform.Vec3{X: 10, Y: 0, Z: 0}
	tB := graph.Insert(trsB, gpuhandle.TransformKey{})
	graph.Flush()

	a := store.Insert(Instance{Resource: resA, Transform: tA})
	b := store.Insert(Instance{Resource: resB, Transform: tB})

	newTransform, err := store.Join([]gpuhandle.MeshKey{a, b}, nil)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	instA, _ := store.Get(a)
	instB, _ := store.Get(b)
	if instA.Transform != newTransform || instB.Transform != newTransform {
		t.Fatalf("both instances should share the new transform")
	}
	if instA.Resource != resA || instB.Resource != resB {
		t.Fatalf("join must not touch resource pointers")
	}
	if resources.RefCount(resA) != 1 || resources.RefCount(resB) != 1 {
		t.Fatalf("join must not touch resource refcounts")
	}

	graph.Flush()
	newWorld, ok := graph.World(newTransform)
	if !ok {
		t.Fatalf("new transform did not resolve")
	}
	if newWorld[12] != 5 {
		t.Fatalf("expected centroid translation X=5, got %f", newWorld[12])
	}

	meshes := store.MeshesForTransform(newTransform)
	if len(meshes) != 2 {
		t.Fatalf("expected both instances under the new transform, got %+v", meshes)
	}
}

func TestJoinHonorsExplicitLocalOverride(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	tKey := graph.Insert(transform.DefaultTRS(), gpuhandle.TransformKey{})
	a := store.Insert(Instance{Resource: resKey, Transform: tKey})

	override := transform.DefaultTRS()
	override.Translation = transform.Vec3{X: 42, Y: 0, Z: 0}

	newTransform, err := store.Join([]gpuhandle.MeshKey{a}, &override)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	graph.Flush()
	world, _ := graph.World(newTransform)
	if world[12] != 42 {
		t.Fatalf("expected override translation X=42, got %f", world[12])
	}
}

func TestJoinRejectsInstancedMesh(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	tKey := graph.Insert(transform.DefaultTRS(), gpuhandle.TransformKey{})
	a := store.Insert(Instance{Resource: resKey, Transform: tKey, Instanced: true})

	if _, err := store.Join([]gpuhandle.MeshKey{a}, nil); !errors.Is(err, rendererror.ErrInstancedMeshUnsupported) {
		t.Fatalf("expected ErrInstancedMeshUnsupported, got %v", err)
	}
}

func TestMeshesForTransformReverseIndex(t *testing.T) {
	resources := NewResourceStore(4096)
	resKey := resources.Insert(testGeometry())
	graph := transform.NewGraph()
	store := NewStore(resources, graph)

	tKey := graph.Insert(transform.DefaultTRS(), gpuhandle.TransformKey{})

	a := store.Insert(Instance{Resource: resKey, Transform: tKey})
	b := store.Insert(Instance{Resource: resKey, Transform: tKey})

	meshes := store.MeshesForTransform(tKey)
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes for transform, got %d", len(meshes))
	}

	store.Remove(a)
	meshes = store.MeshesForTransform(tKey)
	if len(meshes) != 1 || meshes[0] != b {
		t.Fatalf("expected only b to remain, got %+v", meshes)
	}
}
