package material

import "testing"

func TestTableInsertGetPBR(t *testing.T) {
	tbl := NewTable()
	m := Material{
		Kind: KindPBR,
		PBR: PBRCore{
			BaseColorFactor: [4]float32{1, 1, 1, 1},
			RoughnessFactor: 0.5,
			MetallicFactor:  0.0,
		},
	}
	key := tbl.Insert(m)
	got, ok := tbl.Get(key)
	if !ok {
		t.Fatalf("material not found after insert")
	}
	if got.Kind != KindPBR || got.PBR.RoughnessFactor != 0.5 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestTableExtensionsDefaultNil(t *testing.T) {
	tbl := NewTable()
	key := tbl.Insert(Material{Kind: KindPBR})
	got, _ := tbl.Get(key)
	if got.Extensions.Clearcoat != nil || got.Extensions.Sheen != nil {
		t.Fatalf("expected nil extensions by default, got %+v", got.Extensions)
	}
}

func TestTableExtensionRoundTrips(t *testing.T) {
	tbl := NewTable()
	key := tbl.Insert(Material{
		Kind: KindPBR,
		Extensions: Extensions{
			Clearcoat: &Clearcoat{Factor: 1, RoughnessFactor: 0.1},
			IOR:       &IOR{Value: 1.5},
		},
	})
	got, _ := tbl.Get(key)
	if got.Extensions.Clearcoat == nil || got.Extensions.Clearcoat.Factor != 1 {
		t.Fatalf("clearcoat extension lost: %+v", got.Extensions)
	}
	if got.Extensions.IOR == nil || got.Extensions.IOR.Value != 1.5 {
		t.Fatalf("IOR extension lost: %+v", got.Extensions)
	}
	if got.Extensions.Sheen != nil {
		t.Fatalf("unset extension should remain nil: %+v", got.Extensions.Sheen)
	}
}

func TestTableRemove(t *testing.T) {
	tbl := NewTable()
	key := tbl.Insert(Material{Kind: KindUnlit})
	if !tbl.Remove(key) {
		t.Fatalf("Remove failed")
	}
	if _, ok := tbl.Get(key); ok {
		t.Fatalf("removed material still resolves")
	}
}

func TestKindsAreDistinct(t *testing.T) {
	kinds := []Kind{KindPBR, KindUnlit, KindFullScreenQuad, KindDebugNormals}
	seen := map[Kind]bool{}
	for _, k := range kinds {
		if seen[k] {
			t.Fatalf("duplicate Kind value %d", k)
		}
		seen[k] = true
	}
}
