// Package gltfsrc ingests an already-parsed glTF 2.0 document plus its
// decoded buffer bytes: accessor materialization (including sparse
// accessors), the total vertex-format mapping from (component type,
// dimension, normalized) to a WebGPU-compatible format, primitive
// semantic extraction, and triangle winding normalization to CCW. It
// does not parse glTF JSON itself — that is the caller's concern; this
// package starts from the document model below.
package gltfsrc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/vbrenderer/rendererror"
)

// ComponentType is a glTF accessor's scalar element type.
type ComponentType uint8

const (
	ComponentInt8 ComponentType = iota
	ComponentUint8
	ComponentInt16
	ComponentUint16
	ComponentUint32
	ComponentFloat32
)

// byteSize returns the on-disk size of one scalar component.
func (c ComponentType) byteSize() int {
	switch c {
	case ComponentInt8, ComponentUint8:
		return 1
	case ComponentInt16, ComponentUint16:
		return 2
	case ComponentUint32, ComponentFloat32:
		return 4
	default:
		return 0
	}
}

// Dimension is a glTF accessor's element shape.
type Dimension uint8

const (
	DimensionScalar Dimension = iota
	DimensionVec2
	DimensionVec3
	DimensionVec4
	DimensionMat2
	DimensionMat3
	DimensionMat4
)

// componentCount returns the number of scalar components per element.
func (d Dimension) componentCount() int {
	switch d {
	case DimensionScalar:
		return 1
	case DimensionVec2:
		return 2
	case DimensionVec3:
		return 3
	case DimensionVec4:
		return 4
	case DimensionMat2:
		return 4
	case DimensionMat3:
		return 9
	case DimensionMat4:
		return 16
	default:
		return 0
	}
}

// VertexFormat is the WebGPU-compatible wire format a (component type,
// dimension, normalized) triple maps to. Unpadded formats transfer
// exactly componentCount components; padded formats carry one extra
// component of implicit zero/one fill to satisfy the 4-byte vertex
// attribute alignment WebGPU requires for byte and short element types.
type VertexFormat struct {
	Component    ComponentType
	WireCount    int // the padded component count actually stored
	Normalized   bool
	StrideBytes  int
}

// VertexFormatFor is the total function mapping (component type,
// dimension, normalized) to a VertexFormat: vec3 of 8-bit or 16-bit
// components is padded to a 4-component layout; u32 and f32 vec3 stay
// 3-wide, since their natural stride already satisfies alignment.
func VertexFormatFor(component ComponentType, dim Dimension, normalized bool) (VertexFormat, error) {
	count := dim.componentCount()
	if count == 0 {
		return VertexFormat{}, fmt.Errorf("gltfsrc: unknown accessor dimension %d", dim)
	}
	size := component.byteSize()
	if size == 0 {
		return VertexFormat{}, fmt.Errorf("gltfsrc: unknown accessor component type %d", component)
	}

	wireCount := count
	if dim == DimensionVec3 {
		switch component {
		case ComponentInt8, ComponentUint8, ComponentInt16, ComponentUint16:
			wireCount = 4
		}
	}

	return VertexFormat{
		Component:   component,
		WireCount:   wireCount,
		Normalized:  normalized,
		StrideBytes: wireCount * size,
	}, nil
}

// BufferView is a byte range within a raw buffer, with an optional
// interleaving stride.
type BufferView struct {
	BufferIndex int
	ByteOffset  int
	ByteLength  int
	ByteStride  int // 0 = tightly packed
}

// SparseAccessor describes the indices/values overlay applied on top of
// an accessor's base buffer view (or a zero-filled base when the
// accessor has none).
type SparseAccessor struct {
	Count             int
	IndicesView       BufferView
	IndicesComponent  ComponentType
	ValuesView        BufferView
}

// Accessor describes one glTF accessor.
type Accessor struct {
	BufferView  BufferView
	HasBufferView bool
	Component   ComponentType
	Dimension   Dimension
	Normalized  bool
	Count       int
	ByteOffset  int // offset within BufferView, for non-interleaved accessors
	Sparse      *SparseAccessor
}

// Document is the minimal subset of a parsed glTF document gltfsrc
// operates on: raw buffer bytes plus the accessors referencing them.
// Callers populate this from whatever JSON/GLB parser they use upstream.
type Document struct {
	Buffers   [][]byte
	Accessors []Accessor
}

// ReadRaw materializes accessor index acc into wireCount-component
// elements of component.byteSize() bytes each, applying sparse overlay
// if present. The returned slice has Count*format.WireCount*byteSize
// bytes; within each element the stored components come first and any
// padding components VertexFormatFor adds trail them as zeros.
func (d *Document) ReadRaw(accIndex int) ([]byte, VertexFormat, error) {
	if accIndex < 0 || accIndex >= len(d.Accessors) {
		return nil, VertexFormat{}, fmt.Errorf("gltfsrc: accessor index %d out of range: %w", accIndex, rendererror.ErrAccessorOutOfBounds)
	}
	acc := &d.Accessors[accIndex]

	format, err := VertexFormatFor(acc.Component, acc.Dimension, acc.Normalized)
	if err != nil {
		return nil, VertexFormat{}, err
	}

	naturalCount := acc.Dimension.componentCount()
	elemSize := acc.Component.byteSize()
	out := make([]byte, acc.Count*format.WireCount*elemSize)

	if acc.HasBufferView {
		if err := d.copyDense(acc, naturalCount, elemSize, format.WireCount, out); err != nil {
			return nil, VertexFormat{}, err
		}
	}

	if acc.Sparse != nil {
		if err := d.applySparse(acc, naturalCount, elemSize, format.WireCount, out); err != nil {
			return nil, VertexFormat{}, err
		}
	}

	return out, format, nil
}

func (d *Document) bufferBytes(bv BufferView) ([]byte, error) {
	if bv.BufferIndex < 0 || bv.BufferIndex >= len(d.Buffers) {
		return nil, fmt.Errorf("gltfsrc: buffer index %d out of range: %w", bv.BufferIndex, rendererror.ErrAccessorOutOfBounds)
	}
	buf := d.Buffers[bv.BufferIndex]
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf) {
		return nil, fmt.Errorf("gltfsrc: buffer view [%d,%d) exceeds buffer of length %d: %w", bv.ByteOffset, end, len(buf), rendererror.ErrAccessorOutOfBounds)
	}
	return buf[bv.ByteOffset:end], nil
}

func (d *Document) copyDense(acc *Accessor, naturalCount, elemSize, wireCount int, out []byte) error {
	view, err := d.bufferBytes(acc.BufferView)
	if err != nil {
		return err
	}

	stride := acc.BufferView.ByteStride
	elementByteWidth := naturalCount * elemSize
	if stride == 0 {
		stride = elementByteWidth
	}

	for i := 0; i < acc.Count; i++ {
		srcOff := acc.ByteOffset + i*stride
		srcEnd := srcOff + elementByteWidth
		if srcOff < 0 || srcEnd > len(view) {
			return fmt.Errorf("gltfsrc: accessor element %d byte range [%d,%d) out of bounds: %w", i, srcOff, srcEnd, rendererror.ErrAccessorOutOfBounds)
		}
		dstOff := i * wireCount * elemSize
		copy(out[dstOff:dstOff+elementByteWidth], view[srcOff:srcEnd])
	}
	return nil
}

func (d *Document) applySparse(acc *Accessor, naturalCount, elemSize, wireCount int, out []byte) error {
	s := acc.Sparse
	indexView, err := d.bufferBytes(s.IndicesView)
	if err != nil {
		return err
	}
	valueView, err := d.bufferBytes(s.ValuesView)
	if err != nil {
		return err
	}

	indexSize := s.IndicesComponent.byteSize()
	elementByteWidth := naturalCount * elemSize

	for i := 0; i < s.Count; i++ {
		idxOff := i * indexSize
		if idxOff+indexSize > len(indexView) {
			return fmt.Errorf("gltfsrc: sparse index %d out of bounds: %w", i, rendererror.ErrAccessorOutOfBounds)
		}
		target := readUint(indexView[idxOff:idxOff+indexSize], s.IndicesComponent)

		valOff := i * elementByteWidth
		valEnd := valOff + elementByteWidth
		if valEnd > len(valueView) {
			return fmt.Errorf("gltfsrc: sparse value %d out of bounds: %w", i, rendererror.ErrAccessorOutOfBounds)
		}
		if int(target) >= acc.Count {
			return fmt.Errorf("gltfsrc: sparse target index %d exceeds accessor count %d: %w", target, acc.Count, rendererror.ErrAccessorOutOfBounds)
		}
		dstOff := int(target) * wireCount * elemSize
		copy(out[dstOff:dstOff+elementByteWidth], valueView[valOff:valEnd])
	}
	return nil
}

func readUint(b []byte, c ComponentType) uint32 {
	switch c {
	case ComponentUint8:
		return uint32(b[0])
	case ComponentUint16:
		return uint32(binary.LittleEndian.Uint16(b))
	case ComponentUint32:
		return binary.LittleEndian.Uint32(b)
	default:
		return 0
	}
}

// ReadIndices materializes an index accessor to a []uint32 regardless of
// its stored component width, rejecting any count not divisible by 3.
func (d *Document) ReadIndices(accIndex int) ([]uint32, error) {
	raw, _, err := d.ReadRaw(accIndex)
	if err != nil {
		return nil, err
	}
	acc := &d.Accessors[accIndex]
	if acc.Count%3 != 0 {
		return nil, fmt.Errorf("gltfsrc: index count %d is not a multiple of 3: %w", acc.Count, rendererror.ErrIndexCountNotTriangles)
	}

	out := make([]uint32, acc.Count)
	elemSize := acc.Component.byteSize()
	for i := 0; i < acc.Count; i++ {
		off := i * elemSize
		out[i] = readUint(raw[off:off+elemSize], acc.Component)
	}
	return out, nil
}

// ReadFloat32s materializes a non-indices accessor to flat float32
// components (WireCount floats per element), converting normalized
// integer formats to [0,1] or [-1,1] per the glTF normalization rule.
func (d *Document) ReadFloat32s(accIndex int) ([]float32, VertexFormat, error) {
	raw, format, err := d.ReadRaw(accIndex)
	if err != nil {
		return nil, VertexFormat{}, err
	}
	elemSize := format.Component.byteSize()
	n := len(raw) / elemSize
	out := make([]float32, n)

	for i := 0; i < n; i++ {
		off := i * elemSize
		switch format.Component {
		case ComponentFloat32:
			bits := binary.LittleEndian.Uint32(raw[off : off+4])
			out[i] = math.Float32frombits(bits)
		case ComponentUint8:
			v := raw[off]
			if format.Normalized {
				out[i] = float32(v) / 255.0
			} else {
				out[i] = float32(v)
			}
		case ComponentInt8:
			v := int8(raw[off])
			if format.Normalized {
				out[i] = max32(float32(v)/127.0, -1.0)
			} else {
				out[i] = float32(v)
			}
		case ComponentUint16:
			v := binary.LittleEndian.Uint16(raw[off : off+2])
			if format.Normalized {
				out[i] = float32(v) / 65535.0
			} else {
				out[i] = float32(v)
			}
		case ComponentInt16:
			v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
			if format.Normalized {
				out[i] = max32(float32(v)/32767.0, -1.0)
			} else {
				out[i] = float32(v)
			}
		case ComponentUint32:
			out[i] = float32(binary.LittleEndian.Uint32(raw[off : off+4]))
		}
	}
	return out, format, nil
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Determinant3x3 returns the determinant of the upper-left 3x3 of a
// column-major 4x4 node world matrix, whose sign determines triangle
// winding under non-uniform mirroring.
func Determinant3x3(m [16]float32) float32 {
	a, b, c := m[0], m[4], m[8]
	d, e, f := m[1], m[5], m[9]
	g, h, i := m[2], m[6], m[10]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// NormalizeWinding returns indices reordered so every triangle is CCW in
// the renderer's coordinate frame: a negative-determinant world matrix
// (mirroring) swaps the second and third index of each triangle; a
// non-negative determinant returns indices unchanged (as a copy).
func NormalizeWinding(indices []uint32, worldMatrix [16]float32) []uint32 {
	out := make([]uint32, len(indices))
	copy(out, indices)

	if Determinant3x3(worldMatrix) >= 0 {
		return out
	}
	for t := 0; t+2 < len(out); t += 3 {
		out[t+1], out[t+2] = out[t+2], out[t+1]
	}
	return out
}
