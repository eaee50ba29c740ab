package shadergen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignVertexLocationsFixedOrdering(t *testing.T) {
	fs := FeatureSet{
		Attributes: AttributeSet{
			Normal:        true,
			Tangent:       true,
			ColorCount:    1,
			TexCoordCount: 2,
			JointSetCount: 1,
		},
	}
	locs := AssignVertexLocations(fs)

	wantNames := []string{
		"position", "normal", "tangent",
		"color_0",
		"texcoord_0", "texcoord_1",
		"joints_0",
		"weights_0",
	}
	if len(locs) != len(wantNames) {
		t.Fatalf("expected %d locations, got %d", len(wantNames), len(locs))
	}
	for i, want := range wantNames {
		if locs[i].Name != want {
			t.Errorf("location %d: expected name %q, got %q", i, want, locs[i].Name)
		}
		if uint32(i) != locs[i].Location {
			t.Errorf("location %d: expected index %d, got %d", i, i, locs[i].Location)
		}
	}
}

func TestAssignVertexLocationsJointsAreFlat(t *testing.T) {
	fs := FeatureSet{Attributes: AttributeSet{JointSetCount: 1}}
	locs := AssignVertexLocations(fs)

	for _, l := range locs {
		if l.Name == "joints_0" && l.Interpolation != "flat" {
			t.Errorf("expected joints_0 to carry flat interpolation, got %q", l.Interpolation)
		}
		if l.Name == "position" && l.Interpolation != "" {
			t.Errorf("expected position to carry smooth (default) interpolation, got %q", l.Interpolation)
		}
	}
}

func TestAssignVertexLocationsInstanceRowsFollowAttributes(t *testing.T) {
	fs := FeatureSet{
		Attributes: AttributeSet{Normal: true},
		Instancing: true,
	}
	locs := AssignVertexLocations(fs)

	// position, normal, then 4 instance transform rows.
	if len(locs) != 6 {
		t.Fatalf("expected 6 locations, got %d", len(locs))
	}
	for row := 0; row < 4; row++ {
		got := locs[2+row]
		if got.Location != uint32(2+row) {
			t.Errorf("instance row %d: expected location %d, got %d", row, 2+row, got.Location)
		}
	}
}

func TestAssignVertexLocationsNoInstancingOmitsTransformRows(t *testing.T) {
	fs := FeatureSet{}
	locs := AssignVertexLocations(fs)
	if len(locs) != 1 {
		t.Fatalf("expected only the position location, got %d", len(locs))
	}
}

func TestAssignBindingsOrderingUniformsTexturesSamplers(t *testing.T) {
	fs := FeatureSet{
		TextureUVIndices: map[string]int{"baseColor": 0, "normal": 1},
	}
	bindings := AssignBindings(fs, 4)

	var sawTexture, sawSampler bool
	for i, b := range bindings {
		switch b.Kind {
		case BindingUniform:
			if sawTexture || sawSampler {
				t.Errorf("binding %d: uniform appeared after texture/sampler", i)
			}
		case BindingTexture:
			sawTexture = true
			if sawSampler {
				t.Errorf("binding %d: texture appeared after sampler", i)
			}
		case BindingSampler:
			sawSampler = true
		}
	}
	if !sawTexture || !sawSampler {
		t.Fatal("expected at least one texture and one sampler binding")
	}
}

func TestAssignBindingsIndicesAreSequential(t *testing.T) {
	fs := FeatureSet{TextureUVIndices: map[string]int{"baseColor": 0}}
	bindings := AssignBindings(fs, 2)
	for i, b := range bindings {
		if b.Binding != uint32(i) {
			t.Errorf("binding %d: expected sequential index %d, got %d", i, i, b.Binding)
		}
	}
}

func TestAssignBindingsDeterministicAcrossMapIterationOrder(t *testing.T) {
	fs := FeatureSet{
		TextureUVIndices: map[string]int{"baseColor": 0, "normal": 1, "occlusion": 2, "emissive": 3},
	}
	first := AssignBindings(fs, 8)
	for i := 0; i < 10; i++ {
		again := AssignBindings(fs, 8)
		if len(again) != len(first) {
			t.Fatalf("binding count changed across repeated calls")
		}
		for j := range first {
			if first[j].Name != again[j].Name {
				t.Errorf("binding %d: order not deterministic, got %q then %q", j, first[j].Name, again[j].Name)
			}
		}
	}
}

func TestFeatureKeyIgnoresTextureUVIndexMapOrder(t *testing.T) {
	a := FeatureSet{TextureUVIndices: map[string]int{"baseColor": 0, "normal": 1}}
	b := FeatureSet{TextureUVIndices: map[string]int{"normal": 1, "baseColor": 0}}
	if featureKey(a, 4) != featureKey(b, 4) {
		t.Error("expected identical feature keys regardless of map construction order")
	}
}

func TestFeatureKeyDistinguishesMaterialKind(t *testing.T) {
	a := FeatureSet{MaterialKind: 0}
	b := FeatureSet{MaterialKind: 1}
	if featureKey(a, 1) == featureKey(b, 1) {
		t.Error("expected different material kinds to produce different feature keys")
	}
}

func TestCacheGetOrGenerateMemoizes(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	fs := FeatureSet{Attributes: AttributeSet{Normal: true}}

	src1, err := c.GetOrGenerate(fs, 1)
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	src2, err := c.GetOrGenerate(fs, 1)
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	if src1 != src2 {
		t.Error("expected identical generated source on repeated lookup with the same feature set")
	}
}

func TestAssignVertexLocationsMatchesExpectedLayoutExactly(t *testing.T) {
	fs := FeatureSet{
		Attributes: AttributeSet{Normal: true, TexCoordCount: 1},
		Instancing: true,
	}
	got := AssignVertexLocations(fs)
	want := []VertexLocation{
		{Location: 0, Name: "position", WGSLType: "vec3<f32>"},
		{Location: 1, Name: "normal", WGSLType: "vec3<f32>"},
		{Location: 2, Name: "texcoord_0", WGSLType: "vec2<f32>"},
		{Location: 3, Name: "instance_transform_row_0", WGSLType: "vec4<f32>"},
		{Location: 4, Name: "instance_transform_row_1", WGSLType: "vec4<f32>"},
		{Location: 5, Name: "instance_transform_row_2", WGSLType: "vec4<f32>"},
		{Location: 6, Name: "instance_transform_row_3", WGSLType: "vec4<f32>"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vertex location layout mismatch (-want +got):\n%s", diff)
	}
}
