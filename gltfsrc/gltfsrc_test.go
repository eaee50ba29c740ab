package gltfsrc

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/vbrenderer/rendererror"
)

func f32bytes(vs ...float32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func TestVertexFormatForPadsByteAndShortVec3(t *testing.T) {
	f, err := VertexFormatFor(ComponentUint8, DimensionVec3, false)
	if err != nil {
		t.Fatalf("VertexFormatFor: %v", err)
	}
	if f.WireCount != 4 {
		t.Errorf("expected vec3 of u8 padded to 4-wide, got %d", f.WireCount)
	}

	f2, err := VertexFormatFor(ComponentUint16, DimensionVec3, false)
	if err != nil {
		t.Fatalf("VertexFormatFor: %v", err)
	}
	if f2.WireCount != 4 {
		t.Errorf("expected vec3 of u16 padded to 4-wide, got %d", f2.WireCount)
	}
}

func TestVertexFormatForDoesNotPadFloatOrUint32Vec3(t *testing.T) {
	f, err := VertexFormatFor(ComponentFloat32, DimensionVec3, false)
	if err != nil {
		t.Fatalf("VertexFormatFor: %v", err)
	}
	if f.WireCount != 3 {
		t.Errorf("expected vec3 of f32 to remain 3-wide, got %d", f.WireCount)
	}

	f2, err := VertexFormatFor(ComponentUint32, DimensionVec3, false)
	if err != nil {
		t.Fatalf("VertexFormatFor: %v", err)
	}
	if f2.WireCount != 3 {
		t.Errorf("expected vec3 of u32 to remain 3-wide, got %d", f2.WireCount)
	}
}

func TestReadFloat32sDensePositions(t *testing.T) {
	doc := &Document{
		Buffers: [][]byte{f32bytes(1, 2, 3, 4, 5, 6)},
		Accessors: []Accessor{
			{
				HasBufferView: true,
				BufferView:    BufferView{BufferIndex: 0, ByteOffset: 0, ByteLength: 24},
				Component:     ComponentFloat32,
				Dimension:     DimensionVec3,
				Count:         2,
			},
		},
	}

	vals, format, err := doc.ReadFloat32s(0)
	if err != nil {
		t.Fatalf("ReadFloat32s: %v", err)
	}
	if format.WireCount != 3 {
		t.Fatalf("expected WireCount 3, got %d", format.WireCount)
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	for i, w := range want {
		if vals[i] != w {
			t.Errorf("component %d: expected %v, got %v", i, w, vals[i])
		}
	}
}

func TestReadFloat32sNormalizedUint8(t *testing.T) {
	doc := &Document{
		Buffers: [][]byte{{0, 128, 255}},
		Accessors: []Accessor{
			{
				HasBufferView: true,
				BufferView:    BufferView{BufferIndex: 0, ByteOffset: 0, ByteLength: 3},
				Component:     ComponentUint8,
				Dimension:     DimensionVec3,
				Normalized:    true,
				Count:         1,
			},
		},
	}

	vals, _, err := doc.ReadFloat32s(0)
	if err != nil {
		t.Fatalf("ReadFloat32s: %v", err)
	}
	if vals[0] != 0 {
		t.Errorf("expected first component 0, got %v", vals[0])
	}
	if vals[2] != 1 {
		t.Errorf("expected last component 1, got %v", vals[2])
	}
}

func TestReadIndicesRejectsNonTriangleCount(t *testing.T) {
	doc := &Document{
		Buffers: [][]byte{{0, 1, 2, 3}},
		Accessors: []Accessor{
			{
				HasBufferView: true,
				BufferView:    BufferView{BufferIndex: 0, ByteOffset: 0, ByteLength: 4},
				Component:     ComponentUint8,
				Dimension:     DimensionScalar,
				Count:         4,
			},
		},
	}

	_, err := doc.ReadIndices(0)
	if !errors.Is(err, rendererror.ErrIndexCountNotTriangles) {
		t.Fatalf("expected ErrIndexCountNotTriangles, got %v", err)
	}
}

func TestReadIndicesMaterializesUint16(t *testing.T) {
	raw := make([]byte, 6)
	binary.LittleEndian.PutUint16(raw[0:], 0)
	binary.LittleEndian.PutUint16(raw[2:], 1)
	binary.LittleEndian.PutUint16(raw[4:], 2)

	doc := &Document{
		Buffers: [][]byte{raw},
		Accessors: []Accessor{
			{
				HasBufferView: true,
				BufferView:    BufferView{BufferIndex: 0, ByteOffset: 0, ByteLength: 6},
				Component:     ComponentUint16,
				Dimension:     DimensionScalar,
				Count:         3,
			},
		},
	}

	indices, err := doc.ReadIndices(0)
	if err != nil {
		t.Fatalf("ReadIndices: %v", err)
	}
	want := []uint32{0, 1, 2}
	for i, w := range want {
		if indices[i] != w {
			t.Errorf("index %d: expected %d, got %d", i, w, indices[i])
		}
	}
}

func TestSparseAccessorOverlaysBaseValues(t *testing.T) {
	base := f32bytes(1, 1, 1, 2, 2, 2, 3, 3, 3)
	sparseIndices := []byte{1} // overlay element 1
	sparseValues := f32bytes(9, 9, 9)

	doc := &Document{
		Buffers: [][]byte{base, sparseIndices, sparseValues},
		Accessors: []Accessor{
			{
				HasBufferView: true,
				BufferView:    BufferView{BufferIndex: 0, ByteOffset: 0, ByteLength: len(base)},
				Component:     ComponentFloat32,
				Dimension:     DimensionVec3,
				Count:         3,
				Sparse: &SparseAccessor{
					Count:            1,
					IndicesView:      BufferView{BufferIndex: 1, ByteOffset: 0, ByteLength: 1},
					IndicesComponent: ComponentUint8,
					ValuesView:       BufferView{BufferIndex: 2, ByteOffset: 0, ByteLength: 12},
				},
			},
		},
	}

	vals, _, err := doc.ReadFloat32s(0)
	if err != nil {
		t.Fatalf("ReadFloat32s: %v", err)
	}
	want := []float32{1, 1, 1, 9, 9, 9, 3, 3, 3}
	for i, w := range want {
		if vals[i] != w {
			t.Errorf("component %d: expected %v, got %v", i, w, vals[i])
		}
	}
}

func TestNormalizeWindingFlipsOnNegativeDeterminant(t *testing.T) {
	mirror := [16]float32{
		-1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	indices := []uint32{0, 1, 2}
	out := NormalizeWinding(indices, mirror)
	want := []uint32{0, 2, 1}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("index %d: expected %d, got %d", i, w, out[i])
		}
	}
}

func TestNormalizeWindingLeavesPositiveDeterminantUnchanged(t *testing.T) {
	identity := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	indices := []uint32{0, 1, 2}
	out := NormalizeWinding(indices, identity)
	for i, w := range indices {
		if out[i] != w {
			t.Errorf("index %d: expected unchanged %d, got %d", i, w, out[i])
		}
	}
}

func TestAccessorOutOfRangeReturnsOutOfBounds(t *testing.T) {
	doc := &Document{}
	_, _, err := doc.ReadRaw(0)
	if !errors.Is(err, rendererror.ErrAccessorOutOfBounds) {
		t.Fatalf("expected ErrAccessorOutOfBounds, got %v", err)
	}
}
